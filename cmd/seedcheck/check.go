package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cintamani/seedgen/internal/config"
)

// checkResult collects the findings for one configuration
type checkResult struct {
	DuplicateHosts  []string
	DuplicateAgents []string
	Problems        []string
}

// OK reports whether the configuration can be used as is
func (r *checkResult) OK() bool {
	return len(r.DuplicateHosts) == 0 && len(r.DuplicateAgents) == 0 && len(r.Problems) == 0
}

func checkConfig(cfg *config.Config) *checkResult {
	result := &checkResult{
		DuplicateHosts:  duplicates(cfg.SuspiciousHosts),
		DuplicateAgents: duplicates(cfg.UserAgents),
	}

	if err := cfg.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			if line != "" {
				result.Problems = append(result.Problems, line)
			}
		}
	}

	return result
}

func duplicates(values []string) []string {
	seen := make(map[string]int, len(values))
	for _, v := range values {
		seen[strings.TrimSpace(v)]++
	}

	var dups []string
	for v, n := range seen {
		if n > 1 {
			dups = append(dups, v)
		}
	}
	sort.Strings(dups)
	return dups
}

func printReport(w io.Writer, path string, cfg *config.Config, result *checkResult) {
	fmt.Fprintf(w, "Config: %s\n", path)
	fmt.Fprintf(w, "Network: %s (port %d, array %s)\n", cfg.Network, cfg.ListenPort(), cfg.SeedArrayName())
	fmt.Fprintf(w, "Caps: %d seeds, %d per ASN\n", cfg.MaxSeeds, cfg.MaxSeedsPerASN)
	fmt.Fprintf(w, "Thresholds: blocks >= %d, uptime > %.1f%%\n", cfg.MinBlocks, cfg.MinUptime)
	fmt.Fprintf(w, "Resolver: %s (%d workers, timeout %s)\n", cfg.Resolver.Kind, cfg.Resolver.Workers, cfg.Resolver.Timeout)
	fmt.Fprintf(w, "Suspicious hosts: %d\n", len(cfg.SuspiciousHosts))
	fmt.Fprintf(w, "User agent patterns: %d\n", len(cfg.UserAgents))

	if len(result.DuplicateHosts) > 0 {
		fmt.Fprintf(w, "\n❌ Duplicate suspicious hosts: %v\n", result.DuplicateHosts)
	} else {
		fmt.Fprintln(w, "\n✓ No duplicate suspicious hosts")
	}

	if len(result.DuplicateAgents) > 0 {
		fmt.Fprintf(w, "❌ Duplicate user agent patterns: %v\n", result.DuplicateAgents)
	} else {
		fmt.Fprintln(w, "✓ No duplicate user agent patterns")
	}

	if len(result.Problems) > 0 {
		fmt.Fprintln(w, "❌ Invalid settings:")
		for _, p := range result.Problems {
			fmt.Fprintf(w, "   - %s\n", p)
		}
	} else {
		fmt.Fprintln(w, "✓ All settings valid")
	}
}
