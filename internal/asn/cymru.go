package asn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/cintamani/seedgen/internal/logger"
)

// CymruOriginZone is the Team Cymru IP-to-ASN origin zone
const CymruOriginZone = "origin.asn.cymru.com."

const resolvConfPath = "/etc/resolv.conf"

var fallbackServers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// CymruResolver resolves origin ASNs through Team Cymru's TXT records
type CymruResolver struct {
	client    *dns.Client
	servers   []string
	retries   int
	baseDelay time.Duration
	logger    logger.Logger
}

// NewCymruResolver creates a resolver querying the given DNS servers.
// With no servers the system resolvers from /etc/resolv.conf are used.
func NewCymruResolver(servers []string, timeout time.Duration, retries int, log logger.Logger) (*CymruResolver, error) {
	if len(servers) == 0 {
		servers = systemServers()
	}
	if len(servers) == 0 {
		return nil, errors.New("no DNS servers configured")
	}

	normalized := make([]string, 0, len(servers))
	for _, server := range servers {
		normalized = append(normalized, withDNSPort(server))
	}

	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &CymruResolver{
		client:    &dns.Client{Timeout: timeout},
		servers:   normalized,
		retries:   retries,
		baseDelay: 100 * time.Millisecond,
		logger:    log.WithComponent("cymru"),
	}, nil
}

// ReverseQueryName builds the Cymru query name for an IPv4 address,
// e.g. 1.2.3.4 becomes 4.3.2.1.origin.asn.cymru.com.
func ReverseQueryName(addr string) (string, error) {
	ip, err := parseIPv4(addr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d.%d.%d.%s", ip[3], ip[2], ip[1], ip[0], CymruOriginZone), nil
}

// ParseCymruTXT extracts the ASN from the text of a Cymru origin record:
// the first space-delimited field of "15169 | 8.8.8.0/24 | US | arin | 1992-12-01"
func ParseCymruTXT(txt string) (uint32, error) {
	fields := strings.Fields(txt)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty record", ErrMalformedAnswer)
	}
	asn, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAnswer, txt)
	}
	return uint32(asn), nil
}

// ResolveASN queries the origin zone, retrying transient network errors
// with exponential backoff and rotating through the configured servers
func (c *CymruResolver) ResolveASN(ctx context.Context, addr string) (uint32, error) {
	name, err := ReverseQueryName(addr)
	if err != nil {
		return 0, err
	}

	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypeTXT)
	msg.RecursionDesired = true

	var (
		r       *dns.Msg
		lastErr error
	)

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 100ms, 200ms, ...
			delay := c.baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		server := c.servers[attempt%len(c.servers)]
		r, _, lastErr = c.client.ExchangeContext(ctx, msg, server)
		if r != nil {
			lastErr = nil
			break
		}

		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		// Only network-level failures are worth another attempt
		if lastErr != nil && !isNetworkError(lastErr) {
			break
		}

		if lastErr != nil && attempt < c.retries {
			c.logger.Debug().
				Str("address", addr).
				Str("server", server).
				Int("attempt", attempt+1).
				Err(lastErr).
				Msg("retrying ASN query")
		}
	}

	if lastErr != nil {
		return 0, fmt.Errorf("query %s: %w", name, lastErr)
	}
	if r == nil {
		return 0, fmt.Errorf("query %s: %w", name, ErrNoAnswer)
	}

	switch r.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return 0, fmt.Errorf("query %s: %w", name, ErrNotFound)
	default:
		return 0, fmt.Errorf("query %s: DNS response %s", name, dns.RcodeToString[r.Rcode])
	}

	for _, rr := range r.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok || len(txt.Txt) == 0 {
			continue
		}
		return ParseCymruTXT(txt.Txt[0])
	}

	return 0, fmt.Errorf("query %s: %w", name, ErrNoAnswer)
}

// isNetworkError checks if an error is a network-level error (timeout, connection refused, etc.)
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout",
		"connection refused",
		"connection reset",
		"network is unreachable",
		"host unreachable",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

func systemServers() []string {
	conf, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil || len(conf.Servers) == 0 {
		return fallbackServers
	}

	servers := make([]string, 0, len(conf.Servers))
	for _, server := range conf.Servers {
		servers = append(servers, net.JoinHostPort(server, conf.Port))
	}
	return servers
}

func withDNSPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), "53")
}
