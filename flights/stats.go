package flights

import (
	"math"
	"sort"

	"github.com/cruzdariel/Sendy/pkg/geo"
)

// topRoutesLimit caps the routes breakdown shown on the dashboard.
const topRoutesLimit = 10

// AirportLookup resolves an IATA code to coordinates and country. Unknown
// codes report ok=false; they are never errors.
type AirportLookup interface {
	Coords(code string) (geo.Coordinates, bool)
	Country(code string) (string, bool)
}

// NameCount is one entry of an ordered breakdown (airline, aircraft type,
// route). Slices of NameCount are sorted by descending count with ties in
// first-seen order.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Route is an ordered origin/destination pair with its great-circle
// distance, one per record whose endpoints both resolved. The map view
// consumes these directly.
type Route struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	DistanceMiles float64 `json:"distance_miles"`
}

// Snapshot is the immutable statistics model computed from one record set.
// Flights holds the active records backing the detail table; it is not
// serialized and is rehydrated from the stored record table on load.
type Snapshot struct {
	TotalFlights     int `json:"total_flights"`
	CancelledFlights int `json:"cancelled_flights"`

	TotalDistanceMiles   float64 `json:"total_distance"`
	TotalFlightTimeHours float64 `json:"total_flight_time"`
	TotalDelayHours      float64 `json:"total_delay"`

	AirportsVisited []string `json:"airports_visited"`
	TotalAirports   int      `json:"total_airports"`

	Airlines      []NameCount `json:"airlines"`
	TotalAirlines int         `json:"total_airlines"`
	TopAirline    string      `json:"top_airline"`

	AircraftTypes     []NameCount `json:"aircraft_types"`
	MostFlownAircraft string      `json:"most_flown_aircraft"`

	TopRoutes []NameCount `json:"top_routes"`
	Routes    []Route     `json:"routes"`

	Countries      []string `json:"countries"`
	TotalCountries int      `json:"total_countries"`

	Flights []Record `json:"-"`
}

// Compute builds the statistics snapshot for a record set. Cancelled
// records are excluded from every aggregate but still counted. Each active
// record contributes to each metric independently: an unresolvable airport
// skips only the distance/route contribution, a missing timestamp pair
// contributes zero to that one duration. Empty input yields a zeroed
// snapshot, never an error.
//
// Durations are computed on the export's naive local-airport wall times
// without zone normalization, matching the dashboard's historical numbers.
// A flight crossing time zones therefore reports wall-clock difference,
// not elapsed time.
func Compute(records []Record, lookup AirportLookup) *Snapshot {
	snap := &Snapshot{
		AirportsVisited:   []string{},
		Airlines:          []NameCount{},
		TopAirline:        "N/A",
		AircraftTypes:     []NameCount{},
		MostFlownAircraft: "N/A",
		TopRoutes:         []NameCount{},
		Routes:            []Route{},
		Countries:         []string{},
		Flights:           []Record{},
	}

	active := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Cancelled {
			snap.CancelledFlights++
			continue
		}
		active = append(active, r)
	}
	snap.TotalFlights = len(active)
	snap.Flights = active

	var totalDistance, totalFlightTime, totalDelay float64
	airlines := newCounter()
	aircraft := newCounter()
	routes := newCounter()
	airportSet := map[string]struct{}{}

	for _, r := range active {
		if fromCoords, ok := resolveCoords(lookup, r.From); ok {
			if toCoords, ok := resolveCoords(lookup, r.To); ok {
				distance := geo.DistanceBetween(fromCoords, toCoords)
				totalDistance += distance
				snap.Routes = append(snap.Routes, Route{From: r.From, To: r.To, DistanceMiles: distance})
			}
		}

		// Flight time keeps the raw wall-clock difference; delay clamps at
		// zero so early departures do not offset late ones.
		if r.TakeoffActual != nil && r.LandingActual != nil {
			totalFlightTime += r.LandingActual.Sub(*r.TakeoffActual).Hours()
		}
		if r.GateDepartureScheduled != nil && r.GateDepartureActual != nil {
			totalDelay += math.Max(0, r.GateDepartureActual.Sub(*r.GateDepartureScheduled).Hours())
		}

		if r.Airline != "" {
			airlines.add(r.Airline)
		}
		if r.AircraftType != "" {
			aircraft.add(r.AircraftType)
		}
		if r.From != "" && r.To != "" {
			routes.add(r.RouteKey())
		}
		if r.From != "" {
			airportSet[r.From] = struct{}{}
		}
		if r.To != "" {
			airportSet[r.To] = struct{}{}
		}
	}

	snap.TotalDistanceMiles = round2(totalDistance)
	snap.TotalFlightTimeHours = round2(totalFlightTime)
	snap.TotalDelayHours = round2(totalDelay)

	snap.AirportsVisited = sortedKeys(airportSet)
	snap.TotalAirports = len(snap.AirportsVisited)

	snap.Airlines = airlines.ordered()
	snap.TotalAirlines = len(snap.Airlines)
	if len(snap.Airlines) > 0 {
		snap.TopAirline = snap.Airlines[0].Name
	}

	snap.AircraftTypes = aircraft.ordered()
	if len(snap.AircraftTypes) > 0 {
		snap.MostFlownAircraft = snap.AircraftTypes[0].Name
	}

	topRoutes := routes.ordered()
	if len(topRoutes) > topRoutesLimit {
		topRoutes = topRoutes[:topRoutesLimit]
	}
	snap.TopRoutes = topRoutes

	countrySet := map[string]struct{}{}
	for _, code := range snap.AirportsVisited {
		if country, ok := lookup.Country(code); ok && country != "" {
			countrySet[country] = struct{}{}
		}
	}
	snap.Countries = sortedKeys(countrySet)
	snap.TotalCountries = len(snap.Countries)

	return snap
}

func resolveCoords(lookup AirportLookup, code string) (geo.Coordinates, bool) {
	if code == "" {
		return geo.Coordinates{}, false
	}
	return lookup.Coords(code)
}

// counter tallies occurrences while remembering first-seen order so that
// equal counts keep a stable, deterministic ordering.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) ordered() []NameCount {
	out := make([]NameCount, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, NameCount{Name: key, Count: c.counts[key]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
