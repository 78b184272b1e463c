package airports

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAirportsCSV = `id,ident,type,name,latitude_deg,longitude_deg,iso_country,iata_code
1,KJFK,large_airport,John F Kennedy Intl,40.6413,-73.7781,US,JFK
2,KLAX,large_airport,Los Angeles Intl,33.9425,-118.4081,US,LAX
3,EGLL,large_airport,Heathrow,51.4700,-0.4543,GB,LHR
4,XXXX,small_airport,No IATA Code Field,10.0,10.0,ZZ,
5,YYYY,small_airport,Bad Coordinates,not-a-number,also-bad,FR,BAD
`

func loadSample(t *testing.T) *Table {
	t.Helper()
	table, err := Load(strings.NewReader(sampleAirportsCSV))
	require.NoError(t, err)
	return table
}

func TestLoad(t *testing.T) {
	table := loadSample(t)

	// Rows without an IATA code are skipped.
	assert.Equal(t, 4, table.Len())

	coords, ok := table.Coords("JFK")
	require.True(t, ok)
	assert.InDelta(t, 40.6413, coords.Lat, 0.0001)
	assert.InDelta(t, -73.7781, coords.Lon, 0.0001)

	country, ok := table.Country("LHR")
	require.True(t, ok)
	assert.Equal(t, "GB", country)
}

func TestLookup_AbsentResults(t *testing.T) {
	table := loadSample(t)

	_, ok := table.Coords("ZZZ")
	assert.False(t, ok)
	_, ok = table.Country("ZZZ")
	assert.False(t, ok)

	_, ok = table.Coords("")
	assert.False(t, ok)
}

func TestLookup_CaseInsensitiveCodes(t *testing.T) {
	table := loadSample(t)

	_, ok := table.Coords("jfk")
	assert.True(t, ok)
	_, ok = table.Country(" lax ")
	assert.True(t, ok)
}

func TestLoad_NonNumericCoordinatesKeepCountry(t *testing.T) {
	table := loadSample(t)

	// BAD has unparseable coordinates but a valid country: coordinates
	// report absent, country still resolves.
	_, ok := table.Coords("BAD")
	assert.False(t, ok)

	country, ok := table.Country("BAD")
	require.True(t, ok)
	assert.Equal(t, "FR", country)
}

func TestLoad_MissingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("iata_code,latitude_deg\nJFK,40.6\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "longitude_deg")
}

func TestEnsure_DownloadsWhenMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleAirportsCSV))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "airports.csv")
	table, err := Ensure(path, server.URL)
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	// The downloaded file is cached for the next start.
	_, err = os.Stat(path)
	require.NoError(t, err)

	table, err = Ensure(path, "")
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
}

func TestEnsure_MissingFileNoURL(t *testing.T) {
	_, err := Ensure(filepath.Join(t.TempDir(), "absent.csv"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no download url")
}
