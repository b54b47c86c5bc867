package neat

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/baldhumanity/evotrain/ea"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Genome represents an individual organism in the population.
// It consists of NodeGenes and ConnectionGenes. Input nodes are implicit:
// they are referenced by connections but carry no NodeGene.
type Genome struct {
	ea.BasicGenome
	Nodes       map[int]*NodeGene                 // Map node ID -> NodeGene
	Connections map[ConnectionKey]*ConnectionGene // Map connection key -> ConnectionGene
	Config      *GenomeConfig
}

// NewGenome creates an empty genome bound to config.
func NewGenome(config *GenomeConfig) *Genome {
	return &Genome{
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Config:      config,
	}
}

// NewRandomGenome creates a genome with the initial topology of config.
func NewRandomGenome(rng *rand.Rand, config *GenomeConfig) (*Genome, error) {
	g := NewGenome(config)
	if err := g.ConfigureNew(rng); err != nil {
		return nil, err
	}
	return g, nil
}

// Factory returns an ea.GenomeFactory producing empty genomes bound to config.
func Factory(config *GenomeConfig) ea.GenomeFactory {
	return func() ea.Genome {
		return NewGenome(config)
	}
}

// Size is the number of connection genes, enabled or not.
func (g *Genome) Size() int {
	return len(g.Connections)
}

// Copy overwrites g with a deep copy of src, reusing g's maps.
func (g *Genome) Copy(src ea.Genome) {
	other := src.(*Genome)
	g.CopyBasic(other)
	g.Config = other.Config
	if g.Nodes == nil {
		g.Nodes = make(map[int]*NodeGene, len(other.Nodes))
	}
	if g.Connections == nil {
		g.Connections = make(map[ConnectionKey]*ConnectionGene, len(other.Connections))
	}
	clear(g.Nodes)
	clear(g.Connections)
	for k, n := range other.Nodes {
		g.Nodes[k] = n.Copy()
	}
	for k, c := range other.Connections {
		g.Connections[k] = c.Copy()
	}
}

// EnabledConnections counts the connections that take part in activation.
func (g *Genome) EnabledConnections() int {
	n := 0
	for _, c := range g.Connections {
		if c.Enabled {
			n++
		}
	}
	return n
}

func (g *Genome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[NEATGenome: score=%.4f, nodes=%d, connections=%d]", g.Score(), len(g.Nodes), len(g.Connections))
	for _, k := range sortedNodeKeys(g.Nodes) {
		fmt.Fprintf(&b, "\n\t%s", g.Nodes[k])
	}
	for _, k := range sortedConnectionKeys(g.Connections) {
		fmt.Fprintf(&b, "\n\t%s", g.Connections[k])
	}
	return b.String()
}

// ConfigureNew initializes a new genome based on the configuration.
// It creates output and hidden nodes and sets up the initial connections.
func (g *Genome) ConfigureNew(rng *rand.Rand) error {
	clear(g.Nodes)
	clear(g.Connections)
	for _, key := range g.Config.OutputKeys {
		g.Nodes[key] = NewNodeGene(rng, key, g.Config)
	}
	hidden := make([]int, g.Config.NumHidden)
	for i := range hidden {
		hidden[i] = g.Config.NumOutputs + i
		g.Nodes[hidden[i]] = NewNodeGene(rng, hidden[i], g.Config)
	}

	connType, fraction, err := parseInitialConnection(g.Config.InitialConnection)
	if err != nil {
		return err
	}
	var keys []ConnectionKey
	switch connType {
	case "unconnected":
	case "fs_neat_nohidden", "fs_neat":
		keys = g.fsNeatConnections(rng, nil)
	case "fs_neat_hidden":
		keys = g.fsNeatConnections(rng, hidden)
	case "full_nodirect", "full":
		keys = g.fullConnections(hidden, false)
	case "full_direct":
		keys = g.fullConnections(hidden, true)
	case "partial_nodirect", "partial":
		keys = partialConnections(rng, g.fullConnections(hidden, false), fraction)
	case "partial_direct":
		keys = partialConnections(rng, g.fullConnections(hidden, true), fraction)
	}
	for _, key := range keys {
		g.Connections[key] = NewConnectionGene(rng, key, g.Config)
	}
	return nil
}

// fsNeatConnections connects one randomly chosen input to every hidden and output node.
func (g *Genome) fsNeatConnections(rng *rand.Rand, hidden []int) []ConnectionKey {
	input := g.Config.InputKeys[rng.Intn(len(g.Config.InputKeys))]
	keys := make([]ConnectionKey, 0, len(hidden)+len(g.Config.OutputKeys))
	for _, h := range hidden {
		keys = append(keys, ConnectionKey{InNodeID: input, OutNodeID: h})
	}
	for _, o := range g.Config.OutputKeys {
		keys = append(keys, ConnectionKey{InNodeID: input, OutNodeID: o})
	}
	return keys
}

// fullConnections links inputs to hidden nodes and hidden nodes to outputs.
// Inputs link straight to outputs when direct is set or there are no hidden
// nodes. Recurrent genomes also get a self-connection on every node.
func (g *Genome) fullConnections(hidden []int, direct bool) []ConnectionKey {
	var keys []ConnectionKey
	for _, i := range g.Config.InputKeys {
		for _, h := range hidden {
			keys = append(keys, ConnectionKey{InNodeID: i, OutNodeID: h})
		}
	}
	for _, h := range hidden {
		for _, o := range g.Config.OutputKeys {
			keys = append(keys, ConnectionKey{InNodeID: h, OutNodeID: o})
		}
	}
	if direct || len(hidden) == 0 {
		for _, i := range g.Config.InputKeys {
			for _, o := range g.Config.OutputKeys {
				keys = append(keys, ConnectionKey{InNodeID: i, OutNodeID: o})
			}
		}
	}
	if !g.Config.FeedForward {
		for _, k := range sortedNodeKeys(g.Nodes) {
			keys = append(keys, ConnectionKey{InNodeID: k, OutNodeID: k})
		}
	}
	return keys
}

// partialConnections keeps a random fraction of the full connection set.
func partialConnections(rng *rand.Rand, all []ConnectionKey, fraction float64) []ConnectionKey {
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	n := int(fraction*float64(len(all)) + 0.5)
	return all[:n]
}

// configureCrossover fills g from two parents. fitter supplies the gene set;
// genes both parents share take each attribute from either one.
func (g *Genome) configureCrossover(rng *rand.Rand, fitter, other *Genome) {
	clear(g.Nodes)
	clear(g.Connections)
	g.Config = fitter.Config
	for _, key := range sortedConnectionKeys(fitter.Connections) {
		conn1 := fitter.Connections[key]
		if conn2, ok := other.Connections[key]; ok {
			g.Connections[key] = conn1.Crossover(rng, conn2)
		} else {
			g.Connections[key] = conn1.Copy()
		}
	}
	for _, key := range sortedNodeKeys(fitter.Nodes) {
		node1 := fitter.Nodes[key]
		if node2, ok := other.Nodes[key]; ok {
			g.Nodes[key] = node1.Crossover(rng, node2)
		} else {
			g.Nodes[key] = node1.Copy()
		}
	}
}

// mutate applies structural mutations followed by attribute mutations.
// With SingleStructuralMutation at most one structural change happens.
func (g *Genome) mutate(rng *rand.Rand) {
	c := g.Config
	if c.SingleStructuralMutation {
		div := max(1, c.NodeAddProb+c.NodeDeleteProb+c.ConnAddProb+c.ConnDeleteProb)
		r := rng.Float64()
		switch {
		case r < c.NodeAddProb/div:
			g.mutateAddNode(rng)
		case r < (c.NodeAddProb+c.NodeDeleteProb)/div:
			g.mutateDeleteNode(rng)
		case r < (c.NodeAddProb+c.NodeDeleteProb+c.ConnAddProb)/div:
			g.mutateAddConnection(rng)
		case r < (c.NodeAddProb+c.NodeDeleteProb+c.ConnAddProb+c.ConnDeleteProb)/div:
			g.mutateDeleteConnection(rng)
		}
	} else {
		if rng.Float64() < c.NodeAddProb {
			g.mutateAddNode(rng)
		}
		if rng.Float64() < c.NodeDeleteProb {
			g.mutateDeleteNode(rng)
		}
		if rng.Float64() < c.ConnAddProb {
			g.mutateAddConnection(rng)
		}
		if rng.Float64() < c.ConnDeleteProb {
			g.mutateDeleteConnection(rng)
		}
	}

	for _, key := range sortedConnectionKeys(g.Connections) {
		g.Connections[key].Mutate(rng, c)
	}
	for _, key := range sortedNodeKeys(g.Nodes) {
		g.Nodes[key].Mutate(rng, c)
	}
}

// mutateAddNode splits a random connection. The old connection is disabled;
// the incoming half gets weight 1 and the outgoing half the old weight.
func (g *Genome) mutateAddNode(rng *rand.Rand) bool {
	if len(g.Connections) == 0 {
		return false
	}
	keys := sortedConnectionKeys(g.Connections)
	split := g.Connections[keys[rng.Intn(len(keys))]]
	split.Enabled = false

	newKey := g.Config.innovations.splitNode(split.Key, func(k int) bool {
		_, ok := g.Nodes[k]
		return ok
	})
	g.Nodes[newKey] = NewNodeGene(rng, newKey, g.Config)

	in := ConnectionKey{InNodeID: split.Key.InNodeID, OutNodeID: newKey}
	g.Connections[in] = &ConnectionGene{Key: in, Weight: 1.0, Enabled: true}
	out := ConnectionKey{InNodeID: newKey, OutNodeID: split.Key.OutNodeID}
	g.Connections[out] = &ConnectionGene{Key: out, Weight: split.Weight, Enabled: true}
	return true
}

// maxConnectionAttempts bounds the search for an unconnected node pair.
const maxConnectionAttempts = 20

// mutateAddConnection adds a connection between two previously unconnected
// nodes. Output-to-output links are never added, and feed-forward genomes
// reject links that would close a cycle.
func (g *Genome) mutateAddConnection(rng *rand.Rand) bool {
	outputs := sortedNodeKeys(g.Nodes)
	if len(outputs) == 0 {
		return false
	}
	inputs := append(append([]int(nil), g.Config.InputKeys...), outputs...)

	for i := 0; i < maxConnectionAttempts; i++ {
		inKey := inputs[rng.Intn(len(inputs))]
		outKey := outputs[rng.Intn(len(outputs))]
		key := ConnectionKey{InNodeID: inKey, OutNodeID: outKey}
		if _, exists := g.Connections[key]; exists {
			continue
		}
		if g.Config.isOutput(inKey) && g.Config.isOutput(outKey) {
			continue
		}
		if g.Config.FeedForward && createsCycle(g, inKey, outKey) {
			continue
		}
		g.Connections[key] = NewConnectionGene(rng, key, g.Config)
		return true
	}
	return false
}

// mutateDeleteNode removes a random hidden node and every connection touching it.
func (g *Genome) mutateDeleteNode(rng *rand.Rand) bool {
	var hidden []int
	for _, k := range sortedNodeKeys(g.Nodes) {
		if !g.Config.isOutput(k) {
			hidden = append(hidden, k)
		}
	}
	if len(hidden) == 0 {
		return false
	}
	del := hidden[rng.Intn(len(hidden))]
	for key := range g.Connections {
		if key.InNodeID == del || key.OutNodeID == del {
			delete(g.Connections, key)
		}
	}
	delete(g.Nodes, del)
	return true
}

func (g *Genome) mutateDeleteConnection(rng *rand.Rand) bool {
	if len(g.Connections) == 0 {
		return false
	}
	keys := sortedConnectionKeys(g.Connections)
	delete(g.Connections, keys[rng.Intn(len(keys))])
	return true
}

// Distance calculates the genetic distance between this genome and another.
// Node and connection distances are each normalized by the larger gene count
// and summed; disjoint genes weigh CompatibilityDisjointCoefficient each.
func (g *Genome) Distance(other *Genome) float64 {
	c := g.Config

	nodeDistance := 0.0
	if len(g.Nodes) > 0 || len(other.Nodes) > 0 {
		disjoint := 0
		for k := range other.Nodes {
			if _, ok := g.Nodes[k]; !ok {
				disjoint++
			}
		}
		for k, n1 := range g.Nodes {
			if n2, ok := other.Nodes[k]; ok {
				nodeDistance += n1.Distance(n2, c)
			} else {
				disjoint++
			}
		}
		maxNodes := max(len(g.Nodes), len(other.Nodes))
		nodeDistance = (nodeDistance + c.CompatibilityDisjointCoefficient*float64(disjoint)) / float64(maxNodes)
	}

	connDistance := 0.0
	if len(g.Connections) > 0 || len(other.Connections) > 0 {
		disjoint := 0
		for k := range other.Connections {
			if _, ok := g.Connections[k]; !ok {
				disjoint++
			}
		}
		for k, c1 := range g.Connections {
			if c2, ok := other.Connections[k]; ok {
				connDistance += c1.Distance(c2, c)
			} else {
				disjoint++
			}
		}
		maxConns := max(len(g.Connections), len(other.Connections))
		connDistance = (connDistance + c.CompatibilityDisjointCoefficient*float64(disjoint)) / float64(maxConns)
	}

	return nodeDistance + connDistance
}

// Compatibility is the ea.CompatibilityFunc for NEAT genomes.
func Compatibility(a, b ea.Genome) float64 {
	return a.(*Genome).Distance(b.(*Genome))
}

// createsCycle reports whether adding inNode->outNode would close a cycle.
// Every connection gene counts, enabled or not, so toggling the enabled flag
// can never make a feed-forward genome recurrent.
func createsCycle(genome *Genome, inNode, outNode int) bool {
	if inNode == outNode {
		return true
	}
	dg := simple.NewDirectedGraph()
	for key := range genome.Connections {
		if key.InNodeID == key.OutNodeID {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(key.InNodeID), simple.Node(key.OutNodeID)))
	}
	if dg.Node(int64(outNode)) == nil || dg.Node(int64(inNode)) == nil {
		return false
	}
	return topo.PathExistsIn(dg, simple.Node(outNode), simple.Node(inNode))
}

func castGenomes(genomes []ea.Genome, what string) ([]*Genome, error) {
	out := make([]*Genome, len(genomes))
	for i, g := range genomes {
		ng, ok := g.(*Genome)
		if !ok {
			return nil, fmt.Errorf("%s %d is %T, want *neat.Genome", what, i, g)
		}
		out[i] = ng
	}
	return out, nil
}
