// Package airports loads the airport reference table used to resolve IATA
// codes to coordinates and countries. The table is built once at startup
// and never mutated afterwards; callers share it by reference.
package airports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cruzdariel/Sendy/pkg/geo"
	"github.com/cruzdariel/Sendy/pkg/logger"
)

type entry struct {
	coords    geo.Coordinates
	hasCoords bool
	country   string
}

// Table is an immutable IATA code lookup. Unknown or blank codes resolve
// to "absent" results, never errors: callers exclude the airport from their
// aggregate and move on.
type Table struct {
	byCode map[string]entry
}

// Load parses a reference CSV with iata_code, latitude_deg, longitude_deg
// and iso_country columns (the ourairports.com layout). Rows without an
// IATA code are skipped; rows with non-numeric coordinates keep their
// country but report no coordinates.
func Load(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading airports header: %w", err)
	}

	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"iata_code", "latitude_deg", "longitude_deg", "iso_country"} {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("airports csv missing column %q", name)
		}
	}

	cell := func(row []string, name string) string {
		i := index[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	table := &Table{byCode: map[string]entry{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading airports row: %w", err)
		}

		code := strings.ToUpper(cell(row, "iata_code"))
		if code == "" {
			continue
		}

		e := entry{country: cell(row, "iso_country")}
		lat, latErr := strconv.ParseFloat(cell(row, "latitude_deg"), 64)
		lon, lonErr := strconv.ParseFloat(cell(row, "longitude_deg"), 64)
		if latErr == nil && lonErr == nil {
			coords := geo.Coordinates{Lat: lat, Lon: lon}
			if coords.IsValid() {
				e.coords = coords
				e.hasCoords = true
			}
		}
		table.byCode[code] = e
	}

	return table, nil
}

// LoadFile loads the reference table from a CSV file on disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening airports file: %w", err)
	}
	defer f.Close()

	table, err := Load(f)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded airport reference table", "path", path, "airports", table.Len())
	return table, nil
}

// Coords returns the coordinates for an IATA code.
func (t *Table) Coords(code string) (geo.Coordinates, bool) {
	e, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok || !e.hasCoords {
		return geo.Coordinates{}, false
	}
	return e.coords, true
}

// Country returns the ISO country code for an IATA code.
func (t *Table) Country(code string) (string, bool) {
	e, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok || e.country == "" {
		return "", false
	}
	return e.country, true
}

// Len reports the number of airports in the table.
func (t *Table) Len() int {
	return len(t.byCode)
}
