// Package geoip tags console activity with the operator's location.
package geoip

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP resolves addresses through a MaxMind database, or through a JSON list
// of CIDR ranges when the file is not a MaxMind database.
type GeoIP struct {
	db     *geoip2.Reader
	ranges []cidrRange
}

type cidrRange struct {
	net     *net.IPNet
	country string
	region  string
}

// Location is what a lookup found. Zero values mean unknown.
type Location struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
}

// Open loads the database at path.
func Open(path string) (*GeoIP, error) {
	db, err := geoip2.Open(path)
	if err == nil {
		return &GeoIP{db: db}, nil
	}

	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	var entries []struct {
		Net     string `json:"net"`
		Country string `json:"country"`
		Region  string `json:"region"`
	}
	if jerr := json.Unmarshal(data, &entries); jerr != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	g := &GeoIP{}
	for _, e := range entries {
		if _, n, perr := net.ParseCIDR(e.Net); perr == nil {
			g.ranges = append(g.ranges, cidrRange{net: n, country: e.Country, region: e.Region})
		}
	}
	return g, nil
}

// Lookup returns the location of ip. A nil GeoIP finds nothing.
func (g *GeoIP) Lookup(ip net.IP) Location {
	if g == nil || ip == nil {
		return Location{}
	}
	if g.db != nil {
		rec, err := g.db.City(ip)
		if err != nil {
			return Location{}
		}
		loc := Location{Country: rec.Country.IsoCode}
		if len(rec.Subdivisions) > 0 {
			loc.Region = rec.Subdivisions[0].IsoCode
		}
		return loc
	}
	for _, r := range g.ranges {
		if r.net.Contains(ip) {
			return Location{Country: r.country, Region: r.region}
		}
	}
	return Location{}
}

// LookupRequest locates the client that sent r.
func (g *GeoIP) LookupRequest(r *http.Request) Location {
	return g.Lookup(ClientIP(r))
}

// Close releases the database.
func (g *GeoIP) Close() error {
	if g != nil && g.db != nil {
		return g.db.Close()
	}
	return nil
}

// ClientIP returns the first X-Forwarded-For hop, or the remote address when
// the header is missing.
func ClientIP(r *http.Request) net.IP {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
