package geoip

import (
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRanges(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geo.json")
	data := `[
	  {"net":"203.0.113.0/24","country":"KR","region":"11"},
	  {"net":"198.51.100.0/24","country":"JP"},
	  {"net":"not-a-cidr","country":"XX"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestOpenJSONRanges(t *testing.T) {
	g, err := Open(writeRanges(t))
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, Location{Country: "KR", Region: "11"}, g.Lookup(net.ParseIP("203.0.113.7")))
	assert.Equal(t, Location{Country: "JP"}, g.Lookup(net.ParseIP("198.51.100.1")))
	assert.Equal(t, Location{}, g.Lookup(net.ParseIP("192.0.2.1")))
	assert.Equal(t, Location{}, g.Lookup(nil))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)
}

func TestNilGeoIP(t *testing.T) {
	var g *GeoIP
	assert.Equal(t, Location{}, g.Lookup(net.ParseIP("203.0.113.7")))
	assert.NoError(t, g.Close())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "198.51.100.9:5123"
	assert.Equal(t, "198.51.100.9", ClientIP(r).String())

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(r).String())

	r.Header.Set("X-Forwarded-For", "garbage")
	assert.Equal(t, "198.51.100.9", ClientIP(r).String())
}

func TestLookupRequest(t *testing.T) {
	g, err := Open(writeRanges(t))
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.50")
	assert.Equal(t, "KR", g.LookupRequest(r).Country)
}
