package seeds

import (
	"regexp"

	"github.com/cintamani/seedgen/internal/config"
	"github.com/cintamani/seedgen/internal/models"
)

// NodeNetwork is the service bit advertised by full network nodes
const NodeNetwork uint64 = 1

// Filter is a single quality predicate applied to parsed records
type Filter interface {
	// Name identifies the filter in rejection statistics
	Name() string
	// Accept reports whether the record passes this filter
	Accept(rec models.PeerRecord) bool
}

// DenylistFilter drops known-abusive and sentinel addresses
type DenylistFilter struct {
	hosts map[string]struct{}
}

// NewDenylistFilter creates a filter rejecting exactly the given addresses
func NewDenylistFilter(hosts map[string]struct{}) *DenylistFilter {
	return &DenylistFilter{hosts: hosts}
}

func (f *DenylistFilter) Name() string { return "denylist" }

func (f *DenylistFilter) Accept(rec models.PeerRecord) bool {
	_, denied := f.hosts[rec.Address]
	return !denied
}

// MinBlocksFilter drops peers lagging behind the chain
type MinBlocksFilter struct {
	min int64
}

func NewMinBlocksFilter(min int64) *MinBlocksFilter {
	return &MinBlocksFilter{min: min}
}

func (f *MinBlocksFilter) Name() string { return "min_blocks" }

func (f *MinBlocksFilter) Accept(rec models.PeerRecord) bool {
	return rec.Blocks >= f.min
}

// ServiceFilter requires the NODE_NETWORK service bit
type ServiceFilter struct{}

func (ServiceFilter) Name() string { return "service" }

func (ServiceFilter) Accept(rec models.PeerRecord) bool {
	return rec.Services&NodeNetwork != 0
}

// UptimeFilter requires a 30 day uptime strictly above the threshold
type UptimeFilter struct {
	min float64
}

func NewUptimeFilter(min float64) *UptimeFilter {
	return &UptimeFilter{min: min}
}

func (f *UptimeFilter) Name() string { return "uptime" }

func (f *UptimeFilter) Accept(rec models.PeerRecord) bool {
	return rec.Uptime30d > f.min
}

// UserAgentFilter accepts only user agents matching one of the patterns
type UserAgentFilter struct {
	patterns []*regexp.Regexp
}

func NewUserAgentFilter(patterns []*regexp.Regexp) *UserAgentFilter {
	return &UserAgentFilter{patterns: patterns}
}

func (f *UserAgentFilter) Name() string { return "user_agent" }

func (f *UserAgentFilter) Accept(rec models.PeerRecord) bool {
	for _, re := range f.patterns {
		if re.MatchString(rec.UserAgent) {
			return true
		}
	}
	return false
}

// DefaultFilters builds the standard filter chain from cfg
func DefaultFilters(cfg *config.Config) ([]Filter, error) {
	patterns, err := cfg.AgentPatterns()
	if err != nil {
		return nil, err
	}

	return []Filter{
		NewDenylistFilter(cfg.Denylist()),
		NewMinBlocksFilter(cfg.MinBlocks),
		ServiceFilter{},
		NewUptimeFilter(cfg.MinUptime),
		NewUserAgentFilter(patterns),
	}, nil
}

// ApplyFilters returns the records accepted by every filter, in input order.
// Each rejection is counted under the name of the first filter that
// refused the record.
func ApplyFilters(records []models.PeerRecord, filters []Filter) ([]models.PeerRecord, map[string]int) {
	kept := make([]models.PeerRecord, 0, len(records))
	rejected := make(map[string]int)

	for _, rec := range records {
		accepted := true
		for _, f := range filters {
			if !f.Accept(rec) {
				rejected[f.Name()]++
				accepted = false
				break
			}
		}
		if accepted {
			kept = append(kept, rec)
		}
	}

	return kept, rejected
}
