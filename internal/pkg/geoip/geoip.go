// Package geoip wraps an optional MaxMind GeoLite2 country database.
// The database file is not bundled; when it is absent every lookup
// returns an empty country code and callers fall back to other signals.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Resolver answers country lookups for client IP addresses.
type Resolver struct {
	mu     sync.Mutex
	reader *geoip2.Reader
}

// NewResolver opens the GeoLite2 database at path. A missing file is not an
// error: the resolver is returned in a disabled state and CountryCode always
// returns "".
func NewResolver(path string) (*Resolver, error) {
	if path == "" {
		return &Resolver{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Resolver{}, nil
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database at %s: %w", path, err)
	}
	return &Resolver{reader: reader}, nil
}

// Enabled reports whether a database is loaded.
func (r *Resolver) Enabled() bool {
	return r != nil && r.reader != nil
}

// CountryCode returns the ISO 3166-1 alpha-2 code for the given IP, or ""
// when the resolver is disabled, the IP is unparseable, or the database has
// no record for it.
func (r *Resolver) CountryCode(ip string) string {
	if !r.Enabled() {
		return ""
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.reader.Country(parsed)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

// Close releases the underlying database handle.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
