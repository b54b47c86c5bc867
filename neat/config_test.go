package neat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xorGenomeConfig = `
[DefaultGenome]
num_inputs              = 2
num_hidden              = 1
num_outputs             = 1
feed_forward            = True   # no recurrence
initial_connection      = partial_direct 0.5
compatibility_disjoint_coefficient = 1.0
compatibility_weight_coefficient   = 0.5
conn_add_prob           = 0.5
conn_delete_prob        = 0.2
node_add_prob           = 0.2
node_delete_prob        = 0.1
activation_default      = sigmoid
activation_options      = sigmoid tanh # two options
aggregation_options     = sum
bias_max_value          = 30.0
bias_min_value          = -30.0
response_init_mean      = 1.0
response_max_value      = 30.0
response_min_value      = -30.0
weight_init_type        = uniform ; inline comment
weight_max_value        = 30
weight_min_value        = -30
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genome.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadGenomeConfig(t *testing.T) {
	cfg, err := LoadGenomeConfig(writeConfig(t, xorGenomeConfig))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.NumInputs)
	assert.True(t, cfg.FeedForward)
	assert.Equal(t, "partial_direct 0.5", cfg.InitialConnection)
	assert.Equal(t, []string{"sigmoid", "tanh"}, cfg.ActivationOptions)
	assert.Equal(t, "uniform", cfg.WeightInitType)
	assert.Equal(t, "gaussian", cfg.BiasInitType)
	assert.Equal(t, "True", cfg.EnabledDefault)
	assert.Equal(t, []int{-1, -2}, cfg.InputKeys)
	assert.Equal(t, []int{0}, cfg.OutputKeys)

	// Output 0 and hidden node 1 are taken by the initial topology.
	assert.Equal(t, 2, cfg.GetNewNodeKey())
	assert.Equal(t, 3, cfg.GetNewNodeKey())
}

func TestLoadGenomeConfigErrors(t *testing.T) {
	base := "[DefaultGenome]\nnum_inputs = 2\nnum_outputs = 1\nactivation_options = sigmoid\naggregation_options = sum\n"
	cases := map[string]string{
		"no inputs":          "[DefaultGenome]\nnum_outputs = 1\nactivation_options = sigmoid\naggregation_options = sum\n",
		"unknown activation": "[DefaultGenome]\nnum_inputs = 2\nnum_outputs = 1\nactivation_options = swish\naggregation_options = sum\n",
		"bad probability":    base + "conn_add_prob = 1.5\n",
		"bad connection":     base + "initial_connection = everything\n",
		"partial fraction":   base + "initial_connection = partial_direct\n",
		"weight range":       base + "weight_min_value = 1\nweight_max_value = -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadGenomeConfig(writeConfig(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config error")
		})
	}

	_, err := LoadGenomeConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestDefaultGenomeConfigIsValid(t *testing.T) {
	cfg := DefaultGenomeConfig(3, 2)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{-1, -2, -3}, cfg.InputKeys)
	assert.Equal(t, []int{0, 1}, cfg.OutputKeys)

	manual := &GenomeConfig{NumInputs: 1, NumOutputs: 1, ActivationOptions: []string{"relu"}, AggregationOptions: []string{"sum"}}
	require.NoError(t, manual.Init())
	assert.Equal(t, "unconnected", manual.InitialConnection)
	assert.Equal(t, 1, manual.GetNewNodeKey())
}
