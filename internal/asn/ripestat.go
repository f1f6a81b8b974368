package asn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultRIPEStatURL is the RIPEstat network-info endpoint
const DefaultRIPEStatURL = "https://stat.ripe.net/data/network-info/data.json"

const maxRIPEStatBody = 1 << 20

// RIPEStatResolver looks up origin ASNs through the RIPEstat data API
type RIPEStatResolver struct {
	client  *http.Client
	baseURL string
}

// NewRIPEStatResolver creates a resolver against baseURL (DefaultRIPEStatURL when empty)
func NewRIPEStatResolver(baseURL string, timeout time.Duration) *RIPEStatResolver {
	if baseURL == "" {
		baseURL = DefaultRIPEStatURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RIPEStatResolver{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// ResolveASN returns the first ASN of data.asns in the network-info response
func (r *RIPEStatResolver) ResolveASN(ctx context.Context, addr string) (uint32, error) {
	if _, err := parseIPv4(addr); err != nil {
		return 0, err
	}

	u, err := url.Parse(r.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid RIPEstat URL: %w", err)
	}
	q := u.Query()
	q.Set("resource", addr)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("RIPEstat request for %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("RIPEstat request for %s: unexpected status %d", addr, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRIPEStatBody))
	if err != nil {
		return 0, fmt.Errorf("RIPEstat response for %s: %w", addr, err)
	}
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("%w: RIPEstat returned invalid JSON for %s", ErrMalformedAnswer, addr)
	}

	first := gjson.GetBytes(body, "data.asns.0")
	if !first.Exists() {
		return 0, fmt.Errorf("RIPEstat lookup %s: %w", addr, ErrNotFound)
	}

	asn, err := strconv.ParseUint(first.String(), 10, 32)
	if err != nil || asn == 0 {
		return 0, fmt.Errorf("%w: RIPEstat asn %q for %s", ErrMalformedAnswer, first.String(), addr)
	}

	return uint32(asn), nil
}
