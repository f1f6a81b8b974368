package seeds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cintamani/seedgen/internal/config"
	"github.com/cintamani/seedgen/internal/models"
)

func goodRecord() models.PeerRecord {
	return models.PeerRecord{
		Address:      "1.2.3.4",
		AddressValue: 0x01020304,
		Uptime30d:    75.0,
		LastSuccess:  1609459200,
		Version:      70015,
		UserAgent:    "/Core:0.12.0/",
		Services:     1,
		Blocks:       250000,
	}
}

func TestDefaultFilters(t *testing.T) {
	filters, err := DefaultFilters(config.DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name     string
		mutate   func(r *models.PeerRecord)
		rejectBy string
	}{
		{name: "good record", mutate: func(*models.PeerRecord) {}},
		{name: "denylisted", mutate: func(r *models.PeerRecord) { r.Address = "18.218.20.171" }, rejectBy: "denylist"},
		{name: "loopback sentinel", mutate: func(r *models.PeerRecord) { r.Address = "127.0.0.1" }, rejectBy: "denylist"},
		{name: "lagging chain", mutate: func(r *models.PeerRecord) { r.Blocks = 199999 }, rejectBy: "min_blocks"},
		{name: "exactly min blocks", mutate: func(r *models.PeerRecord) { r.Blocks = 200000 }},
		{name: "no network bit", mutate: func(r *models.PeerRecord) { r.Services = 0x408 }, rejectBy: "service"},
		{name: "network bit among others", mutate: func(r *models.PeerRecord) { r.Services = 0x40d }},
		{name: "low uptime", mutate: func(r *models.PeerRecord) { r.Uptime30d = 40.0 }, rejectBy: "uptime"},
		{name: "uptime at threshold", mutate: func(r *models.PeerRecord) { r.Uptime30d = 50.0 }, rejectBy: "uptime"},
		{name: "uptime just above threshold", mutate: func(r *models.PeerRecord) { r.Uptime30d = 50.01 }},
		{name: "old satoshi", mutate: func(r *models.PeerRecord) { r.UserAgent = "/Satoshi:0.8.6/" }},
		{name: "satoshi 0.9.2", mutate: func(r *models.PeerRecord) { r.UserAgent = "/Satoshi:0.9.2/" }},
		{name: "satoshi 0.9.4", mutate: func(r *models.PeerRecord) { r.UserAgent = "/Satoshi:0.9.4/" }, rejectBy: "user_agent"},
		{name: "core four part version", mutate: func(r *models.PeerRecord) { r.UserAgent = "/Core:0.11.2.1/" }},
		{name: "core too new", mutate: func(r *models.PeerRecord) { r.UserAgent = "/Core:0.13.0/" }, rejectBy: "user_agent"},
		{name: "unknown client", mutate: func(r *models.PeerRecord) { r.UserAgent = "/Evil:6.6.6/" }, rejectBy: "user_agent"},
		{name: "agent with suffix", mutate: func(r *models.PeerRecord) { r.UserAgent = "/Core:0.12.0/evil/" }, rejectBy: "user_agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := goodRecord()
			tt.mutate(&rec)

			kept, rejected := ApplyFilters([]models.PeerRecord{rec}, filters)
			if tt.rejectBy == "" {
				assert.Len(t, kept, 1)
				assert.Empty(t, rejected)
				return
			}
			assert.Empty(t, kept)
			assert.Equal(t, map[string]int{tt.rejectBy: 1}, rejected)
		})
	}
}

func TestApplyFiltersKeepsOrderAndCountsFirstFailure(t *testing.T) {
	filters, err := DefaultFilters(config.DefaultConfig())
	require.NoError(t, err)

	a := goodRecord()
	b := goodRecord()
	b.Address, b.AddressValue = "5.6.7.8", 0x05060708
	bad := goodRecord()
	bad.Address = "127.0.0.1"
	bad.Uptime30d = 10 // also fails uptime, but denylist runs first

	kept, rejected := ApplyFilters([]models.PeerRecord{b, bad, a}, filters)
	require.Len(t, kept, 2)
	assert.Equal(t, "5.6.7.8", kept[0].Address)
	assert.Equal(t, "1.2.3.4", kept[1].Address)
	assert.Equal(t, map[string]int{"denylist": 1}, rejected)
}

func TestDefaultFiltersBadPattern(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.UserAgents = []string{"("}

	_, err := DefaultFilters(cfg)
	require.Error(t, err)
}

func TestCustomThresholds(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MinBlocks = 10
	cfg.MinUptime = 90
	cfg.SuspiciousHosts = nil
	cfg.UserAgents = []string{`^/Cintamani:`}

	filters, err := DefaultFilters(cfg)
	require.NoError(t, err)

	rec := goodRecord()
	rec.Address = "127.0.0.1"
	rec.Blocks = 10
	rec.Uptime30d = 95
	rec.UserAgent = "/Cintamani:1.0/"

	kept, _ := ApplyFilters([]models.PeerRecord{rec}, filters)
	assert.Len(t, kept, 1)
}
