// Package nn turns NEAT genomes into runnable networks.
package nn

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/evotrain/neat"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

type link struct {
	from   int
	weight float64
}

// neuralNode represents a node during network activation.
// It stores pre-fetched activation/aggregation functions and node properties.
type neuralNode struct {
	key         int
	bias        float64
	response    float64
	activation  neat.ActivationType
	aggregation neat.AggregationType
	inputs      []link
}

// FeedForwardNetwork represents a phenotype network that can be activated.
// It is safe for concurrent Activate calls.
type FeedForwardNetwork struct {
	InputKeys  []int
	OutputKeys []int
	evalOrder  []neuralNode
}

// CreateFeedForwardNetwork builds a runnable feed-forward network from a genome.
// Only enabled connections take part; nodes are evaluated in topological order.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	if g.Config == nil || !g.Config.FeedForward {
		return nil, fmt.Errorf("cannot create FeedForwardNetwork for a genome configured with FeedForward=false")
	}

	dg := simple.NewDirectedGraph()
	for _, ik := range g.Config.InputKeys {
		dg.AddNode(simple.Node(ik))
	}
	for key := range g.Nodes {
		dg.AddNode(simple.Node(key))
	}

	incoming := make(map[int][]link)
	for key, conn := range g.Connections {
		if !conn.Enabled {
			continue
		}
		if key.InNodeID == key.OutNodeID {
			return nil, fmt.Errorf("failed topological sort: node %d connects to itself", key.InNodeID)
		}
		if dg.Node(int64(key.InNodeID)) == nil || dg.Node(int64(key.OutNodeID)) == nil {
			return nil, fmt.Errorf("connection %d->%d references an unknown node", key.InNodeID, key.OutNodeID)
		}
		dg.SetEdge(dg.NewEdge(simple.Node(key.InNodeID), simple.Node(key.OutNodeID)))
		incoming[key.OutNodeID] = append(incoming[key.OutNodeID], link{from: key.InNodeID, weight: conn.Weight})
	}

	sorted, err := topo.SortStabilized(dg, byID)
	if err != nil {
		return nil, fmt.Errorf("failed topological sort: %w", err)
	}

	net := &FeedForwardNetwork{
		InputKeys:  g.Config.InputKeys,
		OutputKeys: g.Config.OutputKeys,
	}
	for _, n := range sorted {
		key := int(n.ID())
		gene, ok := g.Nodes[key]
		if !ok {
			continue // input node
		}
		act, err := neat.GetActivation(gene.Activation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", key, err)
		}
		agg, err := neat.GetAggregation(gene.Aggregation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", key, err)
		}
		inputs := incoming[key]
		sort.Slice(inputs, func(i, j int) bool { return inputs[i].from < inputs[j].from })
		net.evalOrder = append(net.evalOrder, neuralNode{
			key:         key,
			bias:        gene.Bias,
			response:    gene.Response,
			activation:  act,
			aggregation: agg,
			inputs:      inputs,
		})
	}
	return net, nil
}

func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

// Activate computes the network's output for a given slice of input values.
// The input slice must match the number of input nodes.
func (net *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(net.InputKeys) {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), len(net.InputKeys))
	}

	values := make(map[int]float64, len(net.InputKeys)+len(net.evalOrder))
	for i, ik := range net.InputKeys {
		values[ik] = inputs[i]
	}

	var buf []float64
	for _, node := range net.evalOrder {
		buf = buf[:0]
		for _, in := range node.inputs {
			buf = append(buf, values[in.from]*in.weight)
		}
		// Bias is added after aggregation, then the response scales the sum.
		values[node.key] = node.activation((node.aggregation(buf) + node.bias) * node.response)
	}

	// Outputs without a computed value (deleted or unreachable) read as 0.
	outputs := make([]float64, len(net.OutputKeys))
	for i, ok := range net.OutputKeys {
		outputs[i] = values[ok]
	}
	return outputs, nil
}
