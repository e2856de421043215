package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/stylebook/tiermill/internal/domain"
)

// Default byte budgets per tier. The complete tier's budget is
// informational only and never enforced.
const (
	DefaultSummaryLimit  = 10000
	DefaultAbstractLimit = 1500
	DefaultCompleteLimit = 100000
)

// ProviderConfig defines how to launch an external compressor process.
type ProviderConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// Config holds the pipeline's runtime configuration.
type Config struct {
	Root               string                    `json:"root"`
	AggregateDir       string                    `json:"aggregate_dir"`
	AggregateBase      string                    `json:"aggregate_base"`
	SummaryLimit       int                       `json:"summary_limit"`
	AbstractLimit      int                       `json:"abstract_limit"`
	MaxAttempts        int                       `json:"max_attempts"`
	KeepOversized      *bool                     `json:"keep_oversized"`
	ContextLevel       domain.ContextLevel       `json:"context_level"`
	Provider           string                    `json:"provider"`
	Providers          map[string]ProviderConfig `json:"providers"`
	RateLimitPerMinute int                       `json:"rate_limit_per_minute"`
	JournalPath        string                    `json:"journal_path"`
	DebounceMillis     int                       `json:"debounce_millis"`

	// Runtime-only fields set from flags, never from the file.
	Mode   domain.RunMode `json:"-"`
	DryRun bool           `json:"-"`
	Tiers  []domain.Tier  `json:"-"`
}

// Load reads a JSON config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied, for runs
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields. Flag overlays run before this in the
// CLI, so only genuinely unset values are defaulted.
func (c *Config) ApplyDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
	if c.AggregateDir == "" {
		c.AggregateDir = c.Root
	}
	if c.AggregateBase == "" {
		c.AggregateBase = "STANDARD"
	}
	if c.SummaryLimit == 0 {
		c.SummaryLimit = DefaultSummaryLimit
	}
	if c.AbstractLimit == 0 {
		c.AbstractLimit = DefaultAbstractLimit
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.KeepOversized == nil {
		keep := true
		c.KeepOversized = &keep
	}
	if c.ContextLevel == "" {
		c.ContextLevel = domain.ContextNone
	}
	if c.Provider == "" {
		c.Provider = string(domain.ProviderClaude)
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	if _, ok := c.Providers[string(domain.ProviderClaude)]; !ok {
		c.Providers[string(domain.ProviderClaude)] = ProviderConfig{
			Command: "claude",
			Args:    []string{"-p"},
		}
	}
	if c.DebounceMillis == 0 {
		c.DebounceMillis = 500
	}
	if c.Mode == "" {
		c.Mode = domain.ModeReport
	}
	if len(c.Tiers) == 0 {
		c.Tiers = domain.DerivedTiers()
	}
}

// Limits returns the enforced byte budget table keyed by tier.
// The complete tier is deliberately absent: its budget is not enforced.
func (c *Config) Limits() map[domain.Tier]int {
	return map[domain.Tier]int{
		domain.TierSummary:  c.SummaryLimit,
		domain.TierAbstract: c.AbstractLimit,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var problems []string

	if c.SummaryLimit <= 0 {
		problems = append(problems, "summary_limit must be positive")
	}
	if c.AbstractLimit <= 0 {
		problems = append(problems, "abstract_limit must be positive")
	}
	if c.AbstractLimit > c.SummaryLimit {
		problems = append(problems, "abstract_limit must not exceed summary_limit")
	}
	if c.MaxAttempts <= 0 {
		problems = append(problems, "max_attempts must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		problems = append(problems, "rate_limit_per_minute must not be negative")
	}
	if _, err := domain.ParseContextLevel(string(c.ContextLevel)); err != nil {
		problems = append(problems, "context_level must be one of none|toc|abstract|summary|complete")
	}
	if _, ok := c.Providers[c.Provider]; !ok {
		problems = append(problems, fmt.Sprintf("provider %q is not defined in providers", c.Provider))
	}
	for _, tier := range c.Tiers {
		if tier != domain.TierSummary && tier != domain.TierAbstract {
			problems = append(problems, fmt.Sprintf("tier %q is not derivable", tier))
		}
	}

	if len(problems) > 0 {
		return &domain.PipelineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
