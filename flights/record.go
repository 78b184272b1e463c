// Package flights contains the flight record model, the Flighty CSV
// codec, date-range filtering, and the statistics engine.
package flights

import (
	"strings"
	"time"
)

// Record is a single row of a Flighty account export. All timestamps are
// naive local-airport wall times: the export carries no zone information,
// so durations computed from them are wall-clock differences, not elapsed
// time (see stats.go).
type Record struct {
	Date         time.Time `json:"date"`
	Airline      string    `json:"airline"`
	FlightNumber string    `json:"flight_number"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	Cancelled    bool      `json:"cancelled"`
	DivertedTo   string    `json:"diverted_to,omitempty"`

	GateDepartureScheduled *time.Time `json:"gate_departure_scheduled,omitempty"`
	GateDepartureActual    *time.Time `json:"gate_departure_actual,omitempty"`
	TakeoffScheduled       *time.Time `json:"takeoff_scheduled,omitempty"`
	TakeoffActual          *time.Time `json:"takeoff_actual,omitempty"`
	LandingScheduled       *time.Time `json:"landing_scheduled,omitempty"`
	LandingActual          *time.Time `json:"landing_actual,omitempty"`
	GateArrivalScheduled   *time.Time `json:"gate_arrival_scheduled,omitempty"`
	GateArrivalActual      *time.Time `json:"gate_arrival_actual,omitempty"`

	AircraftType string `json:"aircraft_type,omitempty"`
	TailNumber   string `json:"tail_number,omitempty"`
}

// dateLayout matches the Flighty export's Date column (e.g. "9/14/23").
const dateLayout = "1/2/06"

// timestampLayouts are tried in order when parsing the scheduled/actual
// timestamp columns. Flighty has shipped several formats over time.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/06 15:04",
}

// ParseTimestamp parses one scheduled/actual timestamp cell. Blank or
// unparseable values yield nil rather than an error: a bad cell costs that
// record its contribution to one metric, never the whole import.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseDate parses the Date column (m/d/yy). Returns the zero time when
// the value is blank or malformed.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseCancelled interprets the Canceled column, which is the literal
// string TRUE or FALSE (compared case-insensitively).
func parseCancelled(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// RouteKey returns the display key used for route aggregation, e.g.
// "JFK → LAX". Only meaningful when both endpoints are set.
func (r Record) RouteKey() string {
	return r.From + " → " + r.To
}
