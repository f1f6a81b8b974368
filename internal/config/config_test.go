package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 512, cfg.MaxSeeds)
	assert.Equal(t, 2, cfg.MaxSeedsPerASN)
	assert.Equal(t, int64(200000), cfg.MinBlocks)
	assert.Equal(t, 1993, cfg.ListenPort())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigJSONKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seedgen.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"network": "test",
		"max_seeds": 100,
		"interval": "15m",
		"resolver": {"kind": "maxmind", "mmdb_path": "/var/lib/GeoLite2-ASN.mmdb", "timeout": "2s"}
	}`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.MaxSeeds)
	assert.Equal(t, 2, cfg.MaxSeedsPerASN)
	assert.Equal(t, 15*time.Minute, cfg.Interval)
	assert.Equal(t, 11993, cfg.ListenPort())
	assert.Equal(t, "pnSeed6_test", cfg.SeedArrayName())
	assert.Equal(t, ResolverMaxMind, cfg.Resolver.Kind)
	assert.Equal(t, 2*time.Second, cfg.Resolver.Timeout)
	assert.Equal(t, 8, cfg.Resolver.Workers)
	assert.Equal(t, GetDefaultUserAgents(), cfg.UserAgents)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seedgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
network: regtest
port: 20000
max_seeds_per_asn: 3
suspicious_hosts:
  - 192.0.2.1
resolver:
  kind: ripestat
  timeout: 750ms
  workers: 2
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 20000, cfg.ListenPort())
	assert.Equal(t, 3, cfg.MaxSeedsPerASN)
	assert.Equal(t, []string{"192.0.2.1"}, cfg.SuspiciousHosts)
	assert.Equal(t, 750*time.Millisecond, cfg.Resolver.Timeout)
	assert.Equal(t, 2, cfg.Resolver.Workers)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seedgen.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"interval": "soon"}`), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seedgen.json")

	cfg := DefaultConfig()
	cfg.MaxSeeds = 64
	cfg.Resolver.Timeout = 3 * time.Second
	require.NoError(t, SaveConfig(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timeout": "3s"`)
	assert.Contains(t, string(data), `"interval": "1h0m0s"`)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network = "moon"
	cfg.MaxSeeds = 0
	cfg.MaxSeedsPerASN = 0
	cfg.SuspiciousHosts = []string{"not-an-ip", "::1"}
	cfg.UserAgents = []string{"(unclosed"}
	cfg.Resolver.Kind = ResolverMaxMind
	cfg.Resolver.Workers = 0

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		`unknown network "moon"`,
		"max_seeds must be at least 1",
		"max_seeds_per_asn must be at least 1",
		`suspicious host "not-an-ip"`,
		`suspicious host "::1"`,
		"invalid user agent pattern",
		"mmdb_path is required",
		"resolver.workers must be at least 1",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestDefaultUserAgentPatterns(t *testing.T) {
	patterns, err := DefaultConfig().AgentPatterns()
	require.NoError(t, err)

	matches := func(agent string) bool {
		for _, re := range patterns {
			if re.MatchString(agent) {
				return true
			}
		}
		return false
	}

	for _, agent := range []string{
		"/Satoshi:0.8.6/",
		"/Satoshi:0.9.2/",
		"/Satoshi:0.9.3/",
		"/Core:0.10.2/",
		"/Core:0.12.0/",
		"/Core:0.12.1.1/",
	} {
		assert.True(t, matches(agent), agent)
	}

	for _, agent := range []string{
		"/Satoshi:0.9.1/",
		"/Core:0.13.0/",
		"/Core:0.9.0/",
		"/Core:0.12.0/extra",
		"/Evil:1.0/",
		"",
	} {
		assert.False(t, matches(agent), agent)
	}
}

func TestDenylist(t *testing.T) {
	cfg := DefaultConfig()
	deny := cfg.Denylist()

	assert.Contains(t, deny, "127.0.0.1")
	assert.Contains(t, deny, "18.218.20.171")
	assert.NotContains(t, deny, "1.2.3.4")
}
