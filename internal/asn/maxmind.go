package asn

import (
	"context"
	"fmt"

	"github.com/oschwald/maxminddb-golang"
)

// MaxMindResolver answers ASN lookups from a local GeoLite2-ASN database
type MaxMindResolver struct {
	db *maxminddb.Reader
}

type asnRecord struct {
	ASN          uint32 `maxminddb:"autonomous_system_number"`
	Organization string `maxminddb:"autonomous_system_organization"`
}

// NewMaxMindResolver opens the database at path
func NewMaxMindResolver(path string) (*MaxMindResolver, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &MaxMindResolver{db: db}, nil
}

// ResolveASN looks the address up in the database. Addresses without an
// entry yield ErrNotFound.
func (m *MaxMindResolver) ResolveASN(ctx context.Context, addr string) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ip, err := parseIPv4(addr)
	if err != nil {
		return 0, err
	}

	var record asnRecord
	if err := m.db.Lookup(ip, &record); err != nil {
		return 0, fmt.Errorf("lookup %s: %w", addr, err)
	}
	if record.ASN == 0 {
		return 0, fmt.Errorf("lookup %s: %w", addr, ErrNotFound)
	}

	return record.ASN, nil
}

// Close releases the database
func (m *MaxMindResolver) Close() error {
	return m.db.Close()
}
