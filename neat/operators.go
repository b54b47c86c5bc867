package neat

import (
	"fmt"
	"math/rand"

	"github.com/baldhumanity/evotrain/ea"
)

// Crossover combines two parents into one child. The better-scored parent
// supplies the gene set.
type Crossover struct {
	Comparator ea.Comparator
}

func (c *Crossover) Name() string           { return "neat-crossover" }
func (c *Crossover) ParentsNeeded() int     { return 2 }
func (c *Crossover) OffspringProduced() int { return 1 }

func (c *Crossover) PerformOperation(rng *rand.Rand, parents, offspring []ea.Genome) error {
	p, err := castGenomes(parents, "parent")
	if err != nil {
		return err
	}
	o, err := castGenomes(offspring, "offspring")
	if err != nil {
		return err
	}
	fitter, other := p[0], p[1]
	if c.Comparator.IsBetterThan(other.Score(), fitter.Score()) {
		fitter, other = other, fitter
	}
	o[0].configureCrossover(rng, fitter, other)
	return nil
}

// Mutate applies the config-driven structural and attribute mutations to a
// copy of its parent.
type Mutate struct{}

func (Mutate) Name() string           { return "neat-mutate" }
func (Mutate) ParentsNeeded() int     { return 1 }
func (Mutate) OffspringProduced() int { return 1 }

func (Mutate) PerformOperation(rng *rand.Rand, parents, offspring []ea.Genome) error {
	child, err := copyParent(parents, offspring)
	if err != nil {
		return err
	}
	child.mutate(rng)
	return nil
}

// AddNode splits one connection of a copy of its parent with a new hidden node.
// A parent without connections is copied unchanged.
type AddNode struct{}

func (AddNode) Name() string           { return "add-node" }
func (AddNode) ParentsNeeded() int     { return 1 }
func (AddNode) OffspringProduced() int { return 1 }

func (AddNode) PerformOperation(rng *rand.Rand, parents, offspring []ea.Genome) error {
	child, err := copyParent(parents, offspring)
	if err != nil {
		return err
	}
	child.mutateAddNode(rng)
	return nil
}

// AddConnection links two previously unconnected nodes of a copy of its
// parent. The child is an unchanged copy when no valid pair turns up.
type AddConnection struct{}

func (AddConnection) Name() string           { return "add-connection" }
func (AddConnection) ParentsNeeded() int     { return 1 }
func (AddConnection) OffspringProduced() int { return 1 }

func (AddConnection) PerformOperation(rng *rand.Rand, parents, offspring []ea.Genome) error {
	child, err := copyParent(parents, offspring)
	if err != nil {
		return err
	}
	child.mutateAddConnection(rng)
	return nil
}

// LinkSelector chooses the connections a weight mutation touches.
type LinkSelector interface {
	SelectLinks(rng *rand.Rand, g *Genome) []*ConnectionGene
}

// WeightMutator changes the weight of a single connection.
type WeightMutator interface {
	MutateWeight(rng *rand.Rand, link *ConnectionGene, config *GenomeConfig)
}

// MutateLinkWeight mutates the weights of the links picked by Selector.
type MutateLinkWeight struct {
	Selector LinkSelector
	Mutator  WeightMutator
}

func NewMutateLinkWeight(selector LinkSelector, mutator WeightMutator) *MutateLinkWeight {
	return &MutateLinkWeight{Selector: selector, Mutator: mutator}
}

func (m *MutateLinkWeight) Name() string           { return "link-weight" }
func (m *MutateLinkWeight) ParentsNeeded() int     { return 1 }
func (m *MutateLinkWeight) OffspringProduced() int { return 1 }

func (m *MutateLinkWeight) PerformOperation(rng *rand.Rand, parents, offspring []ea.Genome) error {
	if m.Selector == nil || m.Mutator == nil {
		return fmt.Errorf("link weight mutation needs a selector and a mutator")
	}
	child, err := copyParent(parents, offspring)
	if err != nil {
		return err
	}
	for _, link := range m.Selector.SelectLinks(rng, child) {
		m.Mutator.MutateWeight(rng, link, child.Config)
	}
	return nil
}

func (m *MutateLinkWeight) String() string {
	return fmt.Sprintf("[MutateLinkWeight: selector=%v, mutator=%v]", m.Selector, m.Mutator)
}

// SelectProportion picks each link with probability Proportion. When none
// is picked a single random link is returned instead.
type SelectProportion struct {
	Proportion float64
}

func (s SelectProportion) SelectLinks(rng *rand.Rand, g *Genome) []*ConnectionGene {
	keys := sortedConnectionKeys(g.Connections)
	if len(keys) == 0 {
		return nil
	}
	var result []*ConnectionGene
	for _, key := range keys {
		if rng.Float64() < s.Proportion {
			result = append(result, g.Connections[key])
		}
	}
	if len(result) == 0 {
		result = append(result, g.Connections[keys[rng.Intn(len(keys))]])
	}
	return result
}

func (s SelectProportion) String() string {
	return fmt.Sprintf("[SelectProportion:proportion=%v]", s.Proportion)
}

// SelectFixed picks Count distinct links at random, or every link when the
// genome has fewer.
type SelectFixed struct {
	Count int
}

func (s SelectFixed) SelectLinks(rng *rand.Rand, g *Genome) []*ConnectionGene {
	keys := sortedConnectionKeys(g.Connections)
	n := min(s.Count, len(keys))
	result := make([]*ConnectionGene, 0, n)
	for _, i := range rng.Perm(len(keys))[:n] {
		result = append(result, g.Connections[keys[i]])
	}
	return result
}

func (s SelectFixed) String() string {
	return fmt.Sprintf("[SelectFixed:linkCount=%d]", s.Count)
}

// MutatePerturbLinkWeight adds gaussian noise with deviation Sigma, clamped
// to the configured weight range.
type MutatePerturbLinkWeight struct {
	Sigma float64
}

func (m MutatePerturbLinkWeight) MutateWeight(rng *rand.Rand, link *ConnectionGene, config *GenomeConfig) {
	link.Weight = clamp(link.Weight+rng.NormFloat64()*m.Sigma, config.WeightMinValue, config.WeightMaxValue)
}

func (m MutatePerturbLinkWeight) String() string {
	return fmt.Sprintf("[MutatePerturbLinkWeight:sigma=%v]", m.Sigma)
}

// MutateResetLinkWeight replaces the weight with a fresh uniform draw from
// the configured weight range.
type MutateResetLinkWeight struct{}

func (MutateResetLinkWeight) MutateWeight(rng *rand.Rand, link *ConnectionGene, config *GenomeConfig) {
	link.Weight = config.WeightMinValue + rng.Float64()*(config.WeightMaxValue-config.WeightMinValue)
}

func (MutateResetLinkWeight) String() string {
	return "[MutateResetLinkWeight]"
}

func copyParent(parents, offspring []ea.Genome) (*Genome, error) {
	p, err := castGenomes(parents, "parent")
	if err != nil {
		return nil, err
	}
	o, err := castGenomes(offspring, "offspring")
	if err != nil {
		return nil, err
	}
	o[0].Copy(p[0])
	return o[0], nil
}
