package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Resolver kinds
const (
	ResolverCymru    = "cymru"
	ResolverMaxMind  = "maxmind"
	ResolverRIPEStat = "ripestat"
)

// Config holds the application configuration
type Config struct {
	Network         string         `json:"network" yaml:"network"`
	Port            int            `json:"port,omitempty" yaml:"port,omitempty"` // overrides the network's default port
	MaxSeeds        int            `json:"max_seeds" yaml:"max_seeds"`
	MaxSeedsPerASN  int            `json:"max_seeds_per_asn" yaml:"max_seeds_per_asn"`
	MinBlocks       int64          `json:"min_blocks" yaml:"min_blocks"`
	MinUptime       float64        `json:"min_uptime" yaml:"min_uptime"`
	SuspiciousHosts []string       `json:"suspicious_hosts" yaml:"suspicious_hosts"`
	UserAgents      []string       `json:"user_agents" yaml:"user_agents"`
	Resolver        ResolverConfig `json:"resolver" yaml:"resolver"`
	Interval        time.Duration  `json:"interval" yaml:"interval"` // seedbot rebuild interval
	TelegramToken   string         `json:"telegram_token,omitempty" yaml:"telegram_token,omitempty"`
	TelegramChannel string         `json:"telegram_channel,omitempty" yaml:"telegram_channel,omitempty"` // Channel username (e.g., @cintamani_seeds) or chat ID
}

// ResolverConfig configures the ASN lookup backend. An empty RIPEStatURL
// means the public RIPEstat endpoint.
type ResolverConfig struct {
	Kind        string        `json:"kind" yaml:"kind"`
	Servers     []string      `json:"servers,omitempty" yaml:"servers,omitempty"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Retries     int           `json:"retries" yaml:"retries"`
	Workers     int           `json:"workers" yaml:"workers"`
	CacheSize   int           `json:"cache_size" yaml:"cache_size"`
	MMDBPath    string        `json:"mmdb_path,omitempty" yaml:"mmdb_path,omitempty"`
	RIPEStatURL string        `json:"ripestat_url,omitempty" yaml:"ripestat_url,omitempty"`
}

// UnmarshalJSON implements custom JSON unmarshaling for Config
func (c *Config) UnmarshalJSON(data []byte) error {
	// Use a temporary struct to handle the interval as string
	type Alias Config
	aux := &struct {
		Interval string `json:"interval"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Interval != "" {
		duration, err := time.ParseDuration(aux.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", aux.Interval, err)
		}
		c.Interval = duration
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling for Config
func (c Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		Interval string `json:"interval"`
		*Alias
	}{
		Interval: c.Interval.String(),
		Alias:    (*Alias)(&c),
	})
}

// UnmarshalJSON accepts the timeout as a duration string
func (r *ResolverConfig) UnmarshalJSON(data []byte) error {
	type Alias ResolverConfig
	aux := &struct {
		Timeout string `json:"timeout"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Timeout != "" {
		duration, err := time.ParseDuration(aux.Timeout)
		if err != nil {
			return fmt.Errorf("invalid resolver timeout %q: %w", aux.Timeout, err)
		}
		r.Timeout = duration
	}

	return nil
}

// MarshalJSON writes the timeout as a duration string
func (r ResolverConfig) MarshalJSON() ([]byte, error) {
	type Alias ResolverConfig
	return json.Marshal(&struct {
		Timeout string `json:"timeout"`
		*Alias
	}{
		Timeout: r.Timeout.String(),
		Alias:   (*Alias)(&r),
	})
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Network:         NetworkMain,
		MaxSeeds:        512,
		MaxSeedsPerASN:  2,
		MinBlocks:       200000,
		MinUptime:       50.0,
		SuspiciousHosts: GetDefaultSuspiciousHosts(),
		UserAgents:      GetDefaultUserAgents(),
		Resolver:        DefaultResolverConfig(),
		Interval:        time.Hour,
	}
}

// DefaultResolverConfig returns the Team Cymru resolver defaults
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Kind:      ResolverCymru,
		Timeout:   5 * time.Second,
		Retries:   2,
		Workers:   8,
		CacheSize: 4096,
	}
}

// LoadConfig loads configuration from a JSON or YAML file, or returns default if file doesn't exist
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Start from defaults so omitted keys keep their default values
	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// Set defaults if empty
	if config.Network == "" {
		config.Network = NetworkMain
	}
	if len(config.UserAgents) == 0 {
		config.UserAgents = GetDefaultUserAgents()
	}
	if config.Resolver.Kind == "" {
		config.Resolver.Kind = ResolverCymru
	}

	return config, nil
}

// SaveConfig saves configuration to a JSON file
func SaveConfig(path string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnvironment fills the Telegram credentials from the environment when
// the config file leaves them empty
func (c *Config) ApplyEnvironment() {
	if c.TelegramToken == "" {
		c.TelegramToken = os.Getenv("SEEDGEN_TELEGRAM_TOKEN")
	}
	if c.TelegramChannel == "" {
		c.TelegramChannel = os.Getenv("SEEDGEN_TELEGRAM_CHANNEL")
	}
}

// ListenPort returns the port every accepted report address must carry
func (c *Config) ListenPort() int {
	if c.Port != 0 {
		return c.Port
	}
	return Networks[c.Network].DefaultPort
}

// SeedArrayName returns the chainparams array name for the configured network
func (c *Config) SeedArrayName() string {
	if params, ok := Networks[c.Network]; ok && params.SeedArrayName != "" {
		return params.SeedArrayName
	}
	return "pnSeed6_" + c.Network
}

// AgentPatterns compiles the user agent allow-list
func (c *Config) AgentPatterns() ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(c.UserAgents))
	for _, expr := range c.UserAgents {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid user agent pattern %q: %w", expr, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// Denylist returns the suspicious hosts as a set
func (c *Config) Denylist() map[string]struct{} {
	set := make(map[string]struct{}, len(c.SuspiciousHosts))
	for _, host := range c.SuspiciousHosts {
		set[strings.TrimSpace(host)] = struct{}{}
	}
	return set
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var errs []error

	if _, ok := Networks[c.Network]; !ok {
		errs = append(errs, fmt.Errorf("unknown network %q", c.Network))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxSeeds < 1 {
		errs = append(errs, fmt.Errorf("max_seeds must be at least 1, got %d", c.MaxSeeds))
	}
	if c.MaxSeedsPerASN < 1 {
		errs = append(errs, fmt.Errorf("max_seeds_per_asn must be at least 1, got %d", c.MaxSeedsPerASN))
	}
	if c.MinBlocks < 0 {
		errs = append(errs, fmt.Errorf("min_blocks must not be negative, got %d", c.MinBlocks))
	}
	if c.MinUptime < 0 || c.MinUptime > 100 {
		errs = append(errs, fmt.Errorf("min_uptime must be a percentage, got %.2f", c.MinUptime))
	}
	for _, host := range c.SuspiciousHosts {
		if ip := net.ParseIP(strings.TrimSpace(host)); ip == nil || ip.To4() == nil {
			errs = append(errs, fmt.Errorf("suspicious host %q is not an IPv4 address", host))
		}
	}
	if len(c.UserAgents) == 0 {
		errs = append(errs, errors.New("user_agents must not be empty"))
	}
	if _, err := c.AgentPatterns(); err != nil {
		errs = append(errs, err)
	}
	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval must not be negative, got %s", c.Interval))
	}

	errs = append(errs, c.Resolver.validate()...)

	return errors.Join(errs...)
}

func (r *ResolverConfig) validate() []error {
	var errs []error

	switch r.Kind {
	case ResolverCymru, ResolverRIPEStat:
	case ResolverMaxMind:
		if r.MMDBPath == "" {
			errs = append(errs, errors.New("resolver.mmdb_path is required for the maxmind resolver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown resolver kind %q", r.Kind))
	}
	if r.Workers < 1 {
		errs = append(errs, fmt.Errorf("resolver.workers must be at least 1, got %d", r.Workers))
	}
	if r.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("resolver.timeout must be positive, got %s", r.Timeout))
	}
	if r.Retries < 0 {
		errs = append(errs, fmt.Errorf("resolver.retries must not be negative, got %d", r.Retries))
	}
	if r.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("resolver.cache_size must not be negative, got %d", r.CacheSize))
	}

	return errs
}

// GetDefaultSuspiciousHosts returns hosts that have been observed behaving
// strangely (e.g. aggressively connecting to every node) plus sentinel
// addresses that must never be published
func GetDefaultSuspiciousHosts() []string {
	return []string{
		"18.218.20.171",
		"18.191.141.168",
		"10.211.55.7",
		"127.0.0.1",
	}
}

// GetDefaultUserAgents returns the allow-listed client versions.
// Anything else is considered unmaintained or hostile.
func GetDefaultUserAgents() []string {
	return []string{
		`^/Satoshi:0\.8\.6/$`,
		`^/Satoshi:0\.9\.[23]/$`,
		`^/Core:0\.1[0-2]\.\d{1,2}(\.\d{1,2})?/$`,
	}
}
