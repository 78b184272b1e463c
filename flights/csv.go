package flights

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// Column names of the Flighty export. All of these must be present in the
// header for an import to proceed; individual cell values are lenient.
var requiredColumns = []string{
	"Date", "Airline", "Flight", "From", "To", "Canceled", "Diverted To",
	"Gate Departure (Scheduled)", "Gate Departure (Actual)",
	"Take off (Scheduled)", "Take off (Actual)",
	"Landing (Scheduled)", "Landing (Actual)",
	"Gate Arrival (Scheduled)", "Gate Arrival (Actual)",
	"Aircraft Type Name", "Tail Number",
}

// ParseCSV reads a Flighty account export. A missing required column fails
// the whole import; a malformed cell inside a row degrades to a zero value
// for that field only.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv missing required columns: %s", strings.Join(missing, ", "))
	}

	cell := func(row []string, name string) string {
		i := index[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}

		records = append(records, Record{
			Date:                   ParseDate(cell(row, "Date")),
			Airline:                cell(row, "Airline"),
			FlightNumber:           cell(row, "Flight"),
			From:                   cell(row, "From"),
			To:                     cell(row, "To"),
			Cancelled:              parseCancelled(cell(row, "Canceled")),
			DivertedTo:             cell(row, "Diverted To"),
			GateDepartureScheduled: ParseTimestamp(cell(row, "Gate Departure (Scheduled)")),
			GateDepartureActual:    ParseTimestamp(cell(row, "Gate Departure (Actual)")),
			TakeoffScheduled:       ParseTimestamp(cell(row, "Take off (Scheduled)")),
			TakeoffActual:          ParseTimestamp(cell(row, "Take off (Actual)")),
			LandingScheduled:       ParseTimestamp(cell(row, "Landing (Scheduled)")),
			LandingActual:          ParseTimestamp(cell(row, "Landing (Actual)")),
			GateArrivalScheduled:   ParseTimestamp(cell(row, "Gate Arrival (Scheduled)")),
			GateArrivalActual:      ParseTimestamp(cell(row, "Gate Arrival (Actual)")),
			AircraftType:           cell(row, "Aircraft Type Name"),
			TailNumber:             cell(row, "Tail Number"),
		})
	}

	return records, nil
}

// WriteCSV re-emits records in the export's column layout so a stored
// dataset round-trips through ParseCSV.
func WriteCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(requiredColumns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	formatTS := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02T15:04:05")
	}

	for _, r := range records {
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.Format(dateLayout)
		}
		cancelled := "FALSE"
		if r.Cancelled {
			cancelled = "TRUE"
		}
		row := []string{
			date, r.Airline, r.FlightNumber, r.From, r.To, cancelled, r.DivertedTo,
			formatTS(r.GateDepartureScheduled), formatTS(r.GateDepartureActual),
			formatTS(r.TakeoffScheduled), formatTS(r.TakeoffActual),
			formatTS(r.LandingScheduled), formatTS(r.LandingActual),
			formatTS(r.GateArrivalScheduled), formatTS(r.GateArrivalActual),
			r.AircraftType, r.TailNumber,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
