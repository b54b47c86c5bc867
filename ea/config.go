package ea

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters of a trainer.
type Config struct {
	EA      EAConfig
	Species SpeciesConfig
}

// EAConfig holds parameters of the threaded trainer itself.
type EAConfig struct {
	Threads            int            `ini:"threads"`             // 0 = runtime.NumCPU()
	MaxIndividualSize  int            `ini:"max_individual_size"` // 0 = unlimited
	Minimize           bool           `ini:"minimize"`
	OperatorPolicy     OperatorPolicy `ini:"-"`
	TournamentSize     int            `ini:"tournament_size"`
	SelectionTimeoutMS int            `ini:"selection_timeout_ms"`
	JoinTimeoutMS      int            `ini:"join_timeout_ms"` // 0 = wait forever
	Seed               int64          `ini:"seed"`            // 0 = time based
}

// SpeciesConfig holds parameters of speciated selection.
type SpeciesConfig struct {
	Enabled                bool    `ini:"enabled"`
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
	SurvivalRate           float64 `ini:"survival_rate"`
	MaxStagnation          int     `ini:"max_stagnation"`
	SpeciesElitism         int     `ini:"species_elitism"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		EA: EAConfig{
			OperatorPolicy:     OperatorPolicyUniform,
			TournamentSize:     4,
			SelectionTimeoutMS: 5000,
		},
		Species: SpeciesConfig{
			CompatibilityThreshold: 3.0,
			SurvivalRate:           0.2,
			MaxStagnation:          15,
			SpeciesElitism:         1,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file. Missing keys
// keep the values of DefaultConfig.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()
	if err := cfg.Section("EA").MapTo(&config.EA); err != nil {
		return nil, fmt.Errorf("failed to map [EA] section: %w", err)
	}
	if err := cfg.Section("Species").MapTo(&config.Species); err != nil {
		return nil, fmt.Errorf("failed to map [Species] section: %w", err)
	}

	if key, err := cfg.Section("EA").GetKey("operator_policy"); err == nil {
		config.EA.OperatorPolicy = OperatorPolicy(strings.ToLower(cleanIniString(key.String())))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks ranges and fills derived defaults.
func (c *Config) Validate() error {
	if c.EA.Threads < 0 {
		return fmt.Errorf("config error: threads cannot be negative")
	}
	if c.EA.MaxIndividualSize < 0 {
		return fmt.Errorf("config error: max_individual_size cannot be negative")
	}
	if c.EA.OperatorPolicy == "" {
		c.EA.OperatorPolicy = OperatorPolicyUniform
	}
	switch c.EA.OperatorPolicy {
	case OperatorPolicyUniform, OperatorPolicyWeighted:
	default:
		return fmt.Errorf("config error: invalid operator_policy '%s', must be one of 'uniform', 'weighted'", c.EA.OperatorPolicy)
	}
	if c.EA.TournamentSize <= 0 {
		c.EA.TournamentSize = 4
	}
	if c.EA.SelectionTimeoutMS <= 0 {
		c.EA.SelectionTimeoutMS = 5000
	}
	if c.EA.JoinTimeoutMS < 0 {
		return fmt.Errorf("config error: join_timeout_ms cannot be negative")
	}
	if c.Species.SurvivalRate < 0 || c.Species.SurvivalRate > 1 {
		return fmt.Errorf("config error: survival_rate must be between 0 and 1")
	}
	if c.Species.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if c.Species.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}
	if c.Species.SpeciesElitism < 0 {
		return fmt.Errorf("config error: species_elitism cannot be negative")
	}
	return nil
}

// ThreadCount resolves the configured worker count.
func (c *EAConfig) ThreadCount() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.NumCPU()
}

func (c *EAConfig) SelectionTimeout() time.Duration {
	return time.Duration(c.SelectionTimeoutMS) * time.Millisecond
}

func (c *EAConfig) JoinTimeout() time.Duration {
	return time.Duration(c.JoinTimeoutMS) * time.Millisecond
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
