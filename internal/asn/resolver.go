// Package asn resolves the origin autonomous system of IPv4 addresses.
//
// Three oracles are available: Team Cymru's DNS service (the default), a
// MaxMind GeoLite2-ASN database and the RIPEstat network-info API. Any of
// them can be wrapped in a CachingResolver.
package asn

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/cintamani/seedgen/internal/config"
	"github.com/cintamani/seedgen/internal/logger"
)

// Resolver looks up the origin ASN of an IPv4 address
type Resolver interface {
	ResolveASN(ctx context.Context, addr string) (uint32, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(ctx context.Context, addr string) (uint32, error)

// ResolveASN calls f(ctx, addr)
func (f ResolverFunc) ResolveASN(ctx context.Context, addr string) (uint32, error) {
	return f(ctx, addr)
}

// New builds the resolver described by cfg, wrapped in a cache when
// cfg.CacheSize is positive
func New(cfg config.ResolverConfig, log logger.Logger) (Resolver, error) {
	var (
		resolver Resolver
		err      error
	)

	switch cfg.Kind {
	case config.ResolverCymru, "":
		resolver, err = NewCymruResolver(cfg.Servers, cfg.Timeout, cfg.Retries, log)
	case config.ResolverMaxMind:
		resolver, err = NewMaxMindResolver(cfg.MMDBPath)
	case config.ResolverRIPEStat:
		resolver = NewRIPEStatResolver(cfg.RIPEStatURL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown resolver kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s resolver: %w", cfg.Kind, err)
	}

	if cfg.CacheSize > 0 {
		resolver = NewCachingResolver(resolver, cfg.CacheSize)
	}

	return resolver, nil
}

// Close releases the resources held by r, if any
func Close(r Resolver) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func parseIPv4(addr string) (net.IP, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return ip4, nil
}
