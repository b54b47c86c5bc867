package neat

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenomeConfig(t *testing.T, inputs, outputs, hidden int, conn string) *GenomeConfig {
	t.Helper()
	cfg := DefaultGenomeConfig(inputs, outputs)
	cfg.NumHidden = hidden
	cfg.InitialConnection = conn
	require.NoError(t, cfg.Init())
	return cfg
}

func TestConfigureNewTopologies(t *testing.T) {
	cases := []struct {
		conn   string
		hidden int
		want   int
	}{
		{"unconnected", 0, 0},
		{"full_direct", 0, 6},
		{"full_nodirect", 0, 6},
		{"full_nodirect", 2, 3*2 + 2*2},
		{"full_direct", 2, 3*2 + 2*2 + 3*2},
		{"fs_neat", 0, 2},
		{"fs_neat_hidden", 2, 4},
		{"partial_direct 0.5", 0, 3},
	}
	for _, tc := range cases {
		t.Run(tc.conn, func(t *testing.T) {
			cfg := testGenomeConfig(t, 3, 2, tc.hidden, tc.conn)
			g, err := NewRandomGenome(rand.New(rand.NewSource(1)), cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, g.Size())
			assert.Len(t, g.Nodes, 2+tc.hidden)
			for key := range g.Connections {
				assert.False(t, cfg.isInput(key.OutNodeID), "connection into input %v", key)
			}
		})
	}
}

func TestConfigureNewRecurrentAddsSelfLoops(t *testing.T) {
	cfg := DefaultGenomeConfig(2, 1)
	cfg.FeedForward = false
	g, err := NewRandomGenome(rand.New(rand.NewSource(1)), cfg)
	require.NoError(t, err)
	assert.Contains(t, g.Connections, ConnectionKey{InNodeID: 0, OutNodeID: 0})
	assert.Equal(t, 3, g.Size())
}

func TestCopyIsDeep(t *testing.T) {
	cfg := DefaultGenomeConfig(2, 1)
	src, err := NewRandomGenome(rand.New(rand.NewSource(3)), cfg)
	require.NoError(t, err)
	src.SetScore(2.5)
	src.SetBirthGeneration(4)

	dst := NewGenome(cfg)
	dst.Nodes[99] = &NodeGene{Key: 99}
	dst.Copy(src)

	assert.Equal(t, 2.5, dst.Score())
	assert.Equal(t, 4, dst.BirthGeneration())
	assert.NotContains(t, dst.Nodes, 99)
	assert.Equal(t, src.Size(), dst.Size())
	assert.Zero(t, src.Distance(dst))

	for _, c := range dst.Connections {
		c.Weight += 10
	}
	dst.Nodes[0].Bias += 10
	assert.Greater(t, src.Distance(dst), 0.0)
	for k, c := range src.Connections {
		assert.NotEqual(t, c.Weight, dst.Connections[k].Weight)
	}
}

func TestDistance(t *testing.T) {
	cfg := DefaultGenomeConfig(2, 1)
	a := NewGenome(cfg)
	b := NewGenome(cfg)
	assert.Zero(t, a.Distance(b))

	a.Nodes[0] = &NodeGene{Key: 0, Response: 1, Activation: "sigmoid", Aggregation: "sum"}
	b.Nodes[0] = &NodeGene{Key: 0, Bias: 1, Response: 1, Activation: "sigmoid", Aggregation: "sum"}
	k1 := ConnectionKey{InNodeID: -1, OutNodeID: 0}
	k2 := ConnectionKey{InNodeID: -2, OutNodeID: 0}
	a.Connections[k1] = &ConnectionGene{Key: k1, Weight: 1, Enabled: true}
	b.Connections[k1] = &ConnectionGene{Key: k1, Weight: 3, Enabled: true}
	b.Connections[k2] = &ConnectionGene{Key: k2, Weight: 1, Enabled: true}

	// Nodes: bias diff 1 * 0.5 over 1 node. Connections: weight diff 2 * 0.5
	// plus one disjoint gene, over 2 connections.
	want := 0.5 + (1.0+1.0)/2
	assert.InDelta(t, want, a.Distance(b), 1e-12)
	assert.InDelta(t, want, b.Distance(a), 1e-12)
	assert.InDelta(t, want, Compatibility(a, b), 1e-12)
}

func TestCreatesCycle(t *testing.T) {
	cfg := DefaultGenomeConfig(1, 1)
	g := NewGenome(cfg)
	for _, k := range []ConnectionKey{{-1, 1}, {1, 2}, {2, 0}} {
		g.Connections[k] = &ConnectionGene{Key: k, Enabled: false}
	}
	assert.True(t, createsCycle(g, 2, 1), "disabled connections still count")
	assert.True(t, createsCycle(g, 0, -1))
	assert.True(t, createsCycle(g, 1, 1))
	assert.False(t, createsCycle(g, 1, 0))
	assert.False(t, createsCycle(g, 5, 6))
}

func TestSplitNodeSharesInnovation(t *testing.T) {
	cfg := DefaultGenomeConfig(1, 1)
	a, err := NewRandomGenome(rand.New(rand.NewSource(1)), cfg)
	require.NoError(t, err)
	b := NewGenome(cfg)
	b.Copy(a)

	require.True(t, a.mutateAddNode(rand.New(rand.NewSource(2))))
	require.True(t, b.mutateAddNode(rand.New(rand.NewSource(2))))
	assert.Equal(t, sortedNodeKeys(a.Nodes), sortedNodeKeys(b.Nodes))

	// Splitting the original link again must not reuse the node a already has.
	split := ConnectionKey{InNodeID: -1, OutNodeID: 0}
	a.Connections[split].Enabled = true
	for k := range a.Connections {
		if k != split {
			delete(a.Connections, k)
		}
	}
	require.True(t, a.mutateAddNode(rand.New(rand.NewSource(2))))
	assert.Len(t, a.Nodes, 3)
}

func TestMutateDeleteNodeKeepsOutputs(t *testing.T) {
	cfg := testGenomeConfig(t, 2, 1, 2, "full_nodirect")
	rng := rand.New(rand.NewSource(5))
	g, err := NewRandomGenome(rng, cfg)
	require.NoError(t, err)

	require.True(t, g.mutateDeleteNode(rng))
	require.True(t, g.mutateDeleteNode(rng))
	assert.False(t, g.mutateDeleteNode(rng))
	assert.Equal(t, []int{0}, sortedNodeKeys(g.Nodes))
	assert.Zero(t, g.Size())
}

func TestCheckpointRoundTrip(t *testing.T) {
	cfg := testGenomeConfig(t, 2, 1, 1, "full_direct")
	g, err := NewRandomGenome(rand.New(rand.NewSource(8)), cfg)
	require.NoError(t, err)
	g.SetScore(3.75)
	g.SetBirthGeneration(12)

	var buf bytes.Buffer
	require.NoError(t, WriteGenome(&buf, g))
	loaded, err := ReadGenome(&buf, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3.75, loaded.Score())
	assert.Equal(t, 12, loaded.BirthGeneration())
	assert.Equal(t, g.Nodes, loaded.Nodes)
	assert.Equal(t, g.Connections, loaded.Connections)
	assert.Same(t, cfg, loaded.Config)

	_, err = ReadGenome(bytes.NewReader([]byte("not gzip")), cfg)
	assert.Error(t, err)
}
