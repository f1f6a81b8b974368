package asn

import (
	"context"

	"github.com/projectdiscovery/gcache"
)

// CachingResolver memoises successful lookups of another resolver.
// Failures are never cached so they are retried on the next run.
type CachingResolver struct {
	next  Resolver
	cache gcache.Cache[string, uint32]
}

// NewCachingResolver wraps next with an LRU of the given size
func NewCachingResolver(next Resolver, size int) *CachingResolver {
	return &CachingResolver{
		next:  next,
		cache: gcache.New[string, uint32](size).LRU().Build(),
	}
}

// ResolveASN returns the cached ASN or asks the wrapped resolver
func (c *CachingResolver) ResolveASN(ctx context.Context, addr string) (uint32, error) {
	if asn, err := c.cache.Get(addr); err == nil {
		return asn, nil
	}

	asn, err := c.next.ResolveASN(ctx, addr)
	if err != nil {
		return 0, err
	}

	_ = c.cache.Set(addr, asn)
	return asn, nil
}

// Len returns the number of cached addresses
func (c *CachingResolver) Len() int {
	return c.cache.Len(false)
}

// Close closes the wrapped resolver
func (c *CachingResolver) Close() error {
	return Close(c.next)
}
