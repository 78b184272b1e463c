package flights

import (
	"testing"
	"time"

	"github.com/cruzdariel/Sendy/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLookup is a small in-memory airport table for tests.
type stubLookup struct {
	coords    map[string]geo.Coordinates
	countries map[string]string
}

func (s stubLookup) Coords(code string) (geo.Coordinates, bool) {
	c, ok := s.coords[code]
	return c, ok
}

func (s stubLookup) Country(code string) (string, bool) {
	c, ok := s.countries[code]
	return c, ok
}

func testLookup() stubLookup {
	return stubLookup{
		coords: map[string]geo.Coordinates{
			"JFK": {Lat: 40.6413, Lon: -73.7781},
			"LAX": {Lat: 33.9425, Lon: -118.4081},
			"LHR": {Lat: 51.4700, Lon: -0.4543},
		},
		countries: map[string]string{
			"JFK": "US",
			"LAX": "US",
			"LHR": "GB",
		},
	}
}

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02T15:04:05", value)
	require.NoError(t, err)
	return &parsed
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestCompute_EmptyInput(t *testing.T) {
	snap := Compute(nil, testLookup())

	assert.Equal(t, 0, snap.TotalFlights)
	assert.Equal(t, 0, snap.CancelledFlights)
	assert.Zero(t, snap.TotalDistanceMiles)
	assert.Zero(t, snap.TotalFlightTimeHours)
	assert.Zero(t, snap.TotalDelayHours)
	assert.Empty(t, snap.AirportsVisited)
	assert.Empty(t, snap.Airlines)
	assert.Empty(t, snap.TopRoutes)
	assert.Empty(t, snap.Countries)
	assert.Equal(t, "N/A", snap.TopAirline)
	assert.Equal(t, "N/A", snap.MostFlownAircraft)
}

func TestCompute_CancelledPlusActiveEqualsInput(t *testing.T) {
	records := []Record{
		{Airline: "Delta", From: "JFK", To: "LAX"},
		{Airline: "Delta", From: "JFK", To: "LAX", Cancelled: true},
		{Airline: "United", From: "LAX", To: "JFK"},
		{Airline: "United", Cancelled: true},
	}

	snap := Compute(records, testLookup())

	assert.Equal(t, 2, snap.TotalFlights)
	assert.Equal(t, 2, snap.CancelledFlights)
	assert.Equal(t, len(records), snap.TotalFlights+snap.CancelledFlights)
	assert.Len(t, snap.Flights, 2, "detail table holds active records only")
}

func TestCompute_MixedRecordScenario(t *testing.T) {
	// One cancelled, one fully resolvable with timestamps, one with an
	// unknown airport code.
	records := []Record{
		{Airline: "Delta", From: "JFK", To: "LAX", Cancelled: true},
		{
			Airline: "Delta", From: "JFK", To: "LAX",
			TakeoffActual:          ts(t, "2023-09-14T08:00:00"),
			LandingActual:          ts(t, "2023-09-14T13:30:00"),
			GateDepartureScheduled: ts(t, "2023-09-14T07:30:00"),
			GateDepartureActual:    ts(t, "2023-09-14T07:45:00"),
		},
		{Airline: "Mystery Air", From: "XXX", To: "LAX"},
	}

	snap := Compute(records, testLookup())

	assert.Equal(t, 2, snap.TotalFlights)
	assert.Equal(t, 1, snap.CancelledFlights)

	// Only the JFK-LAX record contributes distance; the XXX record is
	// skipped for distance but still counted everywhere else.
	assert.InDelta(t, 2469, snap.TotalDistanceMiles, 25)
	assert.Len(t, snap.Routes, 1)
	assert.Equal(t, "JFK", snap.Routes[0].From)

	assert.InDelta(t, 5.5, snap.TotalFlightTimeHours, 0.001)
	assert.InDelta(t, 0.25, snap.TotalDelayHours, 0.001)

	// XXX still shows up as a visited airport even though it did not
	// resolve to coordinates.
	assert.Equal(t, []string{"JFK", "LAX", "XXX"}, snap.AirportsVisited)
	assert.Equal(t, []string{"US"}, snap.Countries)
}

func TestCompute_DelayClampsEarlyDepartures(t *testing.T) {
	records := []Record{
		{
			Airline:                "Delta",
			GateDepartureScheduled: ts(t, "2023-09-14T08:00:00"),
			GateDepartureActual:    ts(t, "2023-09-14T07:40:00"), // left early
		},
		{
			Airline:                "Delta",
			GateDepartureScheduled: ts(t, "2023-09-15T08:00:00"),
			GateDepartureActual:    ts(t, "2023-09-15T09:00:00"), // one hour late
		},
	}

	snap := Compute(records, testLookup())

	// The early departure contributes zero rather than offsetting the
	// late one.
	assert.InDelta(t, 1.0, snap.TotalDelayHours, 0.001)
}

func TestCompute_MissingTimestampsContributeZero(t *testing.T) {
	records := []Record{
		{Airline: "Delta", TakeoffActual: ts(t, "2023-09-14T08:00:00")}, // no landing
		{Airline: "Delta", GateDepartureActual: ts(t, "2023-09-14T08:00:00")},
	}

	snap := Compute(records, testLookup())

	assert.Equal(t, 2, snap.TotalFlights, "records missing timestamps still count")
	assert.Zero(t, snap.TotalFlightTimeHours)
	assert.Zero(t, snap.TotalDelayHours)
}

func TestCompute_NaiveLocalClockParity(t *testing.T) {
	// Timestamps are local-airport wall times with no zone conversion. A
	// westbound JFK-LAX flight that takes off 08:00 EDT and lands 10:30
	// PDT reports 2.5 wall-clock hours, not the ~5.5 elapsed hours. This
	// pins the historical behavior; changing it requires changing the
	// model, not just the arithmetic.
	records := []Record{
		{
			Airline:       "Delta",
			From:          "JFK",
			To:            "LAX",
			TakeoffActual: ts(t, "2023-09-14T08:00:00"),
			LandingActual: ts(t, "2023-09-14T10:30:00"),
		},
	}

	snap := Compute(records, testLookup())
	assert.InDelta(t, 2.5, snap.TotalFlightTimeHours, 0.001)
}

func TestCompute_BreakdownOrdering(t *testing.T) {
	records := []Record{
		{Airline: "United", AircraftType: "B737"},
		{Airline: "Delta", AircraftType: "A321"},
		{Airline: "Delta", AircraftType: "A321"},
		{Airline: "American", AircraftType: "B737"},
	}

	snap := Compute(records, testLookup())

	require.Len(t, snap.Airlines, 3)
	assert.Equal(t, NameCount{Name: "Delta", Count: 2}, snap.Airlines[0])
	// United and American tie at 1; first-seen order wins.
	assert.Equal(t, "United", snap.Airlines[1].Name)
	assert.Equal(t, "American", snap.Airlines[2].Name)
	assert.Equal(t, "Delta", snap.TopAirline)

	require.Len(t, snap.AircraftTypes, 2)
	// B737 and A321 both have 2; B737 was seen first.
	assert.Equal(t, "B737", snap.AircraftTypes[0].Name)
	assert.Equal(t, "B737", snap.MostFlownAircraft)
}

func TestCompute_TopRoutesTruncatedToTen(t *testing.T) {
	var records []Record
	// 12 distinct routes, with one flown three times.
	for i := 0; i < 3; i++ {
		records = append(records, Record{Airline: "Delta", From: "JFK", To: "LAX"})
	}
	for _, to := range []string{"LHR", "SFO", "ORD", "MIA", "SEA", "BOS", "DEN", "ATL", "DFW", "PHX", "IAH"} {
		records = append(records, Record{Airline: "Delta", From: "JFK", To: to})
	}

	snap := Compute(records, testLookup())

	require.Len(t, snap.TopRoutes, 10)
	assert.Equal(t, NameCount{Name: "JFK → LAX", Count: 3}, snap.TopRoutes[0])
}

func TestCompute_RouteNeedsBothEndpoints(t *testing.T) {
	records := []Record{
		{Airline: "Delta", From: "JFK"},
		{Airline: "Delta", To: "LAX"},
	}

	snap := Compute(records, testLookup())

	assert.Empty(t, snap.TopRoutes)
	assert.Equal(t, []string{"JFK", "LAX"}, snap.AirportsVisited)
}

func TestCompute_DateFieldDoesNotAffectAggregates(t *testing.T) {
	records := []Record{
		{Date: date(t, "2023-01-01"), Airline: "Delta"},
		{Airline: "Delta"}, // zero date
	}

	snap := Compute(records, testLookup())
	assert.Equal(t, 2, snap.TotalFlights)
}
