package neat

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	// --- Top-level Genome parameters ---
	NumInputs                        int     `ini:"num_inputs"`
	NumOutputs                       int     `ini:"num_outputs"`
	NumHidden                        int     `ini:"num_hidden"`
	FeedForward                      bool    `ini:"feed_forward"` // If true, recurrent connections are disallowed
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
	ConnAddProb                      float64 `ini:"conn_add_prob"`
	ConnDeleteProb                   float64 `ini:"conn_delete_prob"`
	NodeAddProb                      float64 `ini:"node_add_prob"`
	NodeDeleteProb                   float64 `ini:"node_delete_prob"`
	SingleStructuralMutation         bool    `ini:"single_structural_mutation"`
	InitialConnection                string  `ini:"initial_connection"` // e.g. "full_direct" or "partial_direct 0.5"

	// --- Node Gene parameters ---
	BiasInitMean    float64 `ini:"bias_init_mean"`
	BiasInitStdev   float64 `ini:"bias_init_stdev"`
	BiasInitType    string  `ini:"bias_init_type"`
	BiasReplaceRate float64 `ini:"bias_replace_rate"`
	BiasMutateRate  float64 `ini:"bias_mutate_rate"`
	BiasMutatePower float64 `ini:"bias_mutate_power"`
	BiasMaxValue    float64 `ini:"bias_max_value"`
	BiasMinValue    float64 `ini:"bias_min_value"`

	ResponseInitMean    float64 `ini:"response_init_mean"`
	ResponseInitStdev   float64 `ini:"response_init_stdev"`
	ResponseInitType    string  `ini:"response_init_type"`
	ResponseReplaceRate float64 `ini:"response_replace_rate"`
	ResponseMutateRate  float64 `ini:"response_mutate_rate"`
	ResponseMutatePower float64 `ini:"response_mutate_power"`
	ResponseMaxValue    float64 `ini:"response_max_value"`
	ResponseMinValue    float64 `ini:"response_min_value"`

	ActivationDefault    string   `ini:"activation_default"`
	ActivationOptions    []string `ini:"activation_options" delim:" "` // Space-separated list
	ActivationMutateRate float64  `ini:"activation_mutate_rate"`

	AggregationDefault    string   `ini:"aggregation_default"`
	AggregationOptions    []string `ini:"aggregation_options" delim:" "` // Space-separated list
	AggregationMutateRate float64  `ini:"aggregation_mutate_rate"`

	// --- Connection Gene parameters ---
	WeightInitMean    float64 `ini:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev"`
	WeightInitType    string  `ini:"weight_init_type"`
	WeightReplaceRate float64 `ini:"weight_replace_rate"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power"`
	WeightMaxValue    float64 `ini:"weight_max_value"`
	WeightMinValue    float64 `ini:"weight_min_value"`

	EnabledDefault        string  `ini:"enabled_default"`
	EnabledMutateRate     float64 `ini:"enabled_mutate_rate"`
	EnabledRateToTrueAdd  float64 `ini:"enabled_rate_to_true_add"`
	EnabledRateToFalseAdd float64 `ini:"enabled_rate_to_false_add"`

	// --- Calculated/Derived ---
	InputKeys  []int `ini:"-"`
	OutputKeys []int `ini:"-"`

	innovations *innovationTable
}

// DefaultGenomeConfig returns a fully connected feed-forward configuration
// with the given number of inputs and outputs.
func DefaultGenomeConfig(numInputs, numOutputs int) *GenomeConfig {
	config := &GenomeConfig{
		NumInputs:                        numInputs,
		NumOutputs:                       numOutputs,
		FeedForward:                      true,
		CompatibilityDisjointCoefficient: 1.0,
		CompatibilityWeightCoefficient:   0.5,
		ConnAddProb:                      0.5,
		ConnDeleteProb:                   0.5,
		NodeAddProb:                      0.2,
		NodeDeleteProb:                   0.2,
		InitialConnection:                "full_direct",

		BiasInitStdev:   1.0,
		BiasMutateRate:  0.7,
		BiasReplaceRate: 0.1,
		BiasMutatePower: 0.5,
		BiasMaxValue:    30,
		BiasMinValue:    -30,

		ResponseInitMean: 1.0,
		ResponseMaxValue: 30,
		ResponseMinValue: -30,

		ActivationOptions:  []string{"sigmoid"},
		AggregationOptions: []string{"sum"},

		WeightInitStdev:   1.0,
		WeightMutateRate:  0.8,
		WeightReplaceRate: 0.1,
		WeightMutatePower: 0.5,
		WeightMaxValue:    30,
		WeightMinValue:    -30,

		EnabledMutateRate: 0.01,
	}
	config.applyDefaults()
	config.deriveKeys()
	return config
}

// LoadGenomeConfig loads the [DefaultGenome] section of an INI file.
func LoadGenomeConfig(filePath string) (*GenomeConfig, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true, // Allow # comments starting with # or ;
		UnescapeValueCommentSymbols: true, // If # or ; appear in value, treat as value
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := &GenomeConfig{}
	if err := cfg.Section("DefaultGenome").MapTo(config); err != nil {
		return nil, fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}

	// MapTo leaves bools false when a trailing comment slips into the value.
	genomeSection := cfg.Section("DefaultGenome")
	if key, err := genomeSection.GetKey("feed_forward"); err == nil {
		config.FeedForward, _ = strictBool(key.String())
	}
	if key, err := genomeSection.GetKey("single_structural_mutation"); err == nil {
		config.SingleStructuralMutation, _ = strictBool(key.String())
	}

	config.BiasInitType = cleanIniString(config.BiasInitType)
	config.ResponseInitType = cleanIniString(config.ResponseInitType)
	config.ActivationDefault = cleanIniString(config.ActivationDefault)
	config.AggregationDefault = cleanIniString(config.AggregationDefault)
	config.WeightInitType = cleanIniString(config.WeightInitType)
	config.EnabledDefault = cleanIniString(config.EnabledDefault)
	config.InitialConnection = cleanIniString(config.InitialConnection)
	config.ActivationOptions = cleanOptions(config.ActivationOptions)
	config.AggregationOptions = cleanOptions(config.AggregationOptions)

	if err := config.Init(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *GenomeConfig) applyDefaults() {
	if c.BiasInitType == "" {
		c.BiasInitType = "gaussian"
	}
	if c.ResponseInitType == "" {
		c.ResponseInitType = "gaussian"
	}
	if c.ActivationDefault == "" {
		c.ActivationDefault = "random"
	}
	if c.AggregationDefault == "" {
		c.AggregationDefault = "random"
	}
	if c.WeightInitType == "" {
		c.WeightInitType = "gaussian"
	}
	if c.EnabledDefault == "" {
		c.EnabledDefault = "True"
	}
	if c.InitialConnection == "" {
		c.InitialConnection = "unconnected"
	}
}

// Validate checks the value ranges of the configuration.
func (c *GenomeConfig) Validate() error {
	if c.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if c.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if c.NumHidden < 0 {
		return fmt.Errorf("config error: num_hidden cannot be negative")
	}
	if len(c.ActivationOptions) == 0 {
		return fmt.Errorf("config error: activation_options must be specified")
	}
	for _, name := range c.ActivationOptions {
		if _, err := GetActivation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if len(c.AggregationOptions) == 0 {
		return fmt.Errorf("config error: aggregation_options must be specified")
	}
	for _, name := range c.AggregationOptions {
		if _, err := GetAggregation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if c.CompatibilityDisjointCoefficient < 0 {
		return fmt.Errorf("config error: compatibility_disjoint_coefficient cannot be negative")
	}
	if c.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility_weight_coefficient cannot be negative")
	}
	probs := []struct {
		name  string
		value float64
	}{
		{"conn_add_prob", c.ConnAddProb},
		{"conn_delete_prob", c.ConnDeleteProb},
		{"node_add_prob", c.NodeAddProb},
		{"node_delete_prob", c.NodeDeleteProb},
	}
	for _, p := range probs {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", p.name)
		}
	}
	if c.BiasMaxValue < c.BiasMinValue {
		return fmt.Errorf("config error: bias_max_value cannot be less than bias_min_value")
	}
	if c.ResponseMaxValue < c.ResponseMinValue {
		return fmt.Errorf("config error: response_max_value cannot be less than response_min_value")
	}
	if c.WeightMaxValue < c.WeightMinValue {
		return fmt.Errorf("config error: weight_max_value cannot be less than weight_min_value")
	}
	if _, _, err := parseInitialConnection(c.InitialConnection); err != nil {
		return err
	}
	return nil
}

// deriveKeys assigns negative keys to inputs and 0..NumOutputs-1 to outputs.
// Initial hidden nodes follow the outputs; mutations allocate after them.
func (c *GenomeConfig) deriveKeys() {
	c.InputKeys = make([]int, c.NumInputs)
	for i := range c.InputKeys {
		c.InputKeys[i] = -(i + 1)
	}
	c.OutputKeys = make([]int, c.NumOutputs)
	for i := range c.OutputKeys {
		c.OutputKeys[i] = i
	}
	c.innovations = newInnovationTable(c.NumOutputs + c.NumHidden)
}

// Init fills defaults, validates and derives the node keys of a config built
// by hand. Loaded and default configs are already initialized.
func (c *GenomeConfig) Init() error {
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	c.deriveKeys()
	return nil
}

// GetNewNodeKey returns a node key never handed out before in this run.
func (c *GenomeConfig) GetNewNodeKey() int {
	return c.innovations.newNode()
}

func (c *GenomeConfig) isInput(key int) bool {
	return key < 0 && -key <= c.NumInputs
}

func (c *GenomeConfig) isOutput(key int) bool {
	return key >= 0 && key < c.NumOutputs
}

var initialConnections = map[string]bool{
	"unconnected": true, "fs_neat_nohidden": true, "fs_neat": true, "fs_neat_hidden": true,
	"full_nodirect": true, "full": true, "full_direct": true,
	"partial_nodirect": true, "partial": true, "partial_direct": true,
}

// parseInitialConnection splits "partial_direct 0.5" into its type and
// connection fraction. Non-partial types always have fraction 1.
func parseInitialConnection(s string) (string, float64, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 || !initialConnections[parts[0]] {
		return "", 0, fmt.Errorf("config error: invalid initial_connection type '%s'", s)
	}
	if !strings.HasPrefix(parts[0], "partial") {
		return parts[0], 1, nil
	}
	if len(parts) < 2 {
		return "", 0, fmt.Errorf("config error: initial_connection '%s' needs a connection fraction", s)
	}
	var fraction float64
	if _, err := fmt.Sscanf(parts[1], "%g", &fraction); err != nil || fraction < 0 || fraction > 1 {
		return "", 0, fmt.Errorf("config error: initial_connection fraction '%s' must be in [0, 1]", parts[1])
	}
	return parts[0], fraction, nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func cleanOptions(opts []string) []string {
	out := opts[:0]
	for _, opt := range opts {
		comment := strings.ContainsAny(opt, "#;")
		if opt = cleanIniString(opt); opt != "" {
			out = append(out, opt)
		}
		if comment {
			break
		}
	}
	return out
}
