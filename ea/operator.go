package ea

import (
	"fmt"
	"math/rand"
	"strings"
)

// Operator is an evolutionary operator (crossover or mutation). It reads
// ParentsNeeded parents and writes OffspringProduced offspring in place.
// Offspring slots are worker-owned scratch genomes; parents must not be
// modified.
type Operator interface {
	Name() string
	ParentsNeeded() int
	OffspringProduced() int
	PerformOperation(rng *rand.Rand, parents []Genome, offspring []Genome) error
}

// OperatorPolicy decides how a worker picks the operator for a work unit.
type OperatorPolicy string

const (
	// OperatorPolicyUniform picks every registered operator with equal odds.
	OperatorPolicyUniform OperatorPolicy = "uniform"
	// OperatorPolicyWeighted picks operators proportionally to their weights.
	OperatorPolicyWeighted OperatorPolicy = "weighted"
)

// WeightedOperator pairs an operator with its selection weight.
type WeightedOperator struct {
	Operator Operator
	Weight   float64
}

// OperatorList is the ordered operator registry of a trainer.
type OperatorList struct {
	policy    OperatorPolicy
	items     []WeightedOperator
	total     float64
	finalized bool
}

// NewOperatorList creates an empty registry using the given pick policy.
func NewOperatorList(policy OperatorPolicy) *OperatorList {
	if policy == "" {
		policy = OperatorPolicyUniform
	}
	return &OperatorList{policy: policy}
}

// Add registers an operator. Weights must be >= 0; a zero weight disables the
// operator under the weighted policy.
func (l *OperatorList) Add(op Operator, weight float64) error {
	if op == nil {
		return fmt.Errorf("%w: operator is required", ErrConfiguration)
	}
	if weight < 0 {
		return fmt.Errorf("%w: operator %s weight must be >= 0", ErrConfiguration, op.Name())
	}
	if op.ParentsNeeded() <= 0 || op.OffspringProduced() <= 0 {
		return fmt.Errorf("%w: operator %s must need parents and produce offspring", ErrConfiguration, op.Name())
	}
	if l.finalized {
		return fmt.Errorf("%w: operators cannot be added after training started", ErrConfiguration)
	}
	l.items = append(l.items, WeightedOperator{Operator: op, Weight: weight})
	return nil
}

// Len returns the number of registered operators.
func (l *OperatorList) Len() int {
	return len(l.items)
}

// Items returns a copy of the registered operators.
func (l *OperatorList) Items() []WeightedOperator {
	return append([]WeightedOperator(nil), l.items...)
}

// MaxParents is the largest parent count of any registered operator.
func (l *OperatorList) MaxParents() int {
	n := 0
	for _, item := range l.items {
		n = max(n, item.Operator.ParentsNeeded())
	}
	return n
}

// MaxOffspring is the largest offspring count of any registered operator.
func (l *OperatorList) MaxOffspring() int {
	n := 0
	for _, item := range l.items {
		n = max(n, item.Operator.OffspringProduced())
	}
	return n
}

// Finalize freezes the registry. It fails when nothing can be picked.
func (l *OperatorList) Finalize() error {
	if len(l.items) == 0 {
		return fmt.Errorf("%w: can't train, there are no evolutionary operators", ErrConfiguration)
	}
	l.total = 0
	for _, item := range l.items {
		l.total += item.Weight
	}
	if l.policy == OperatorPolicyWeighted && l.total <= 0 {
		return fmt.Errorf("%w: weighted operator policy requires at least one positive weight", ErrConfiguration)
	}
	l.finalized = true
	return nil
}

// Pick chooses the operator for one work unit. It is safe for concurrent use
// once the list is finalized.
func (l *OperatorList) Pick(rng *rand.Rand) Operator {
	if len(l.items) == 1 {
		return l.items[0].Operator
	}
	if l.policy != OperatorPolicyWeighted {
		return l.items[rng.Intn(len(l.items))].Operator
	}
	pick := rng.Float64() * l.total
	acc := 0.0
	for _, item := range l.items {
		acc += item.Weight
		if pick < acc {
			return item.Operator
		}
	}
	for i := len(l.items) - 1; i > 0; i-- {
		if l.items[i].Weight > 0 {
			return l.items[i].Operator
		}
	}
	return l.items[0].Operator
}

func (l *OperatorList) String() string {
	names := make([]string, 0, len(l.items))
	for _, item := range l.items {
		names = append(names, fmt.Sprintf("%s(%.2f)", item.Operator.Name(), item.Weight))
	}
	return fmt.Sprintf("[OperatorList: policy=%s, operators=%s]", l.policy, strings.Join(names, ","))
}
