package models

import "time"

// PeerRecord is one candidate peer parsed from a crawler report line
type PeerRecord struct {
	Address      string  `json:"address"`
	AddressValue uint32  `json:"-"`
	Uptime30d    float64 `json:"uptime_30d"`
	LastSuccess  int64   `json:"last_success"`
	Version      int     `json:"protocol_version"`
	UserAgent    string  `json:"user_agent"`
	Services     uint64  `json:"services"`
	Blocks       int64   `json:"blocks"`
}

// Seed is a PeerRecord admitted by the ASN diversity selector
type Seed struct {
	PeerRecord
	ASN uint32 `json:"asn"`
}

// ResolveFailure records a candidate whose ASN could not be resolved
type ResolveFailure struct {
	Address string `json:"address"`
	Error   string `json:"error"`
}

// SelectionStats counts what happened to the report at each stage
type SelectionStats struct {
	LinesRead       int            `json:"lines_read"`
	Parsed          int            `json:"parsed"`
	Rejected        map[string]int `json:"rejected"`
	Candidates      int            `json:"candidates"`
	Duplicates      int            `json:"duplicates"`
	Resolved        int            `json:"resolved"`
	ResolveFailures int            `json:"resolve_failures"`
	ASNCapSkips     int            `json:"asn_cap_skips"`
	Admitted        int            `json:"admitted"`
	DistinctASNs    int            `json:"distinct_asns"`
}

// SelectionResult contains the output of one seed generation run
type SelectionResult struct {
	RunID     string           `json:"run_id"`
	Network   string           `json:"network"`
	Port      int              `json:"port"`
	Timestamp time.Time        `json:"timestamp"`
	Duration  time.Duration    `json:"duration"`
	Seeds     []Seed           `json:"seeds"`
	Failures  []ResolveFailure `json:"failures,omitempty"`
	Stats     SelectionStats   `json:"stats"`
}

// Addresses returns the dotted-quad addresses of the seeds in order
func (r *SelectionResult) Addresses() []string {
	out := make([]string, 0, len(r.Seeds))
	for _, s := range r.Seeds {
		out = append(out, s.Address)
	}
	return out
}

// ASNCounts returns the number of admitted seeds per ASN
func (r *SelectionResult) ASNCounts() map[uint32]int {
	counts := make(map[uint32]int)
	for _, s := range r.Seeds {
		counts[s.ASN]++
	}
	return counts
}
