package ea

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// valueGenome is a one-number genome used across the package tests.
type valueGenome struct {
	BasicGenome
	value float64
	size  int
}

func newValueGenome() Genome {
	return &valueGenome{size: 1}
}

func (g *valueGenome) Size() int {
	return g.size
}

func (g *valueGenome) Copy(src Genome) {
	s := src.(*valueGenome)
	g.CopyBasic(s)
	g.value = s.value
	g.size = s.size
}

// valueScore maximizes value.
var valueScore = ScoreFunc(func(g Genome) (float64, error) {
	return g.(*valueGenome).value, nil
})

// nudgeOp copies one parent and moves its value by a random step.
type nudgeOp struct{}

func (nudgeOp) Name() string           { return "nudge" }
func (nudgeOp) ParentsNeeded() int     { return 1 }
func (nudgeOp) OffspringProduced() int { return 1 }

func (nudgeOp) PerformOperation(rng *rand.Rand, parents, offspring []Genome) error {
	offspring[0].Copy(parents[0])
	offspring[0].(*valueGenome).value += rng.Float64() - 0.4
	return nil
}

// averageOp produces two children around the mean of two parents.
type averageOp struct{}

func (averageOp) Name() string           { return "average" }
func (averageOp) ParentsNeeded() int     { return 2 }
func (averageOp) OffspringProduced() int { return 2 }

func (averageOp) PerformOperation(rng *rand.Rand, parents, offspring []Genome) error {
	a := parents[0].(*valueGenome).value
	b := parents[1].(*valueGenome).value
	mean := (a + b) / 2
	for i, child := range offspring {
		child.Copy(parents[i])
		child.(*valueGenome).value = mean + rng.NormFloat64()*0.1
	}
	return nil
}

type failingOp struct {
	panics bool
}

func (failingOp) Name() string           { return "failing" }
func (failingOp) ParentsNeeded() int     { return 1 }
func (failingOp) OffspringProduced() int { return 1 }

func (o failingOp) PerformOperation(*rand.Rand, []Genome, []Genome) error {
	if o.panics {
		panic("broken operator")
	}
	return errors.New("broken operator")
}

func valuePopulation(t *testing.T, size, maxIndividualSize int) *Population {
	t.Helper()
	pop, err := NewPopulation(size, maxIndividualSize, newValueGenome)
	require.NoError(t, err)
	require.NoError(t, pop.Fill(func(i int) (Genome, error) {
		return &valueGenome{value: float64(i % 7), size: 1}, nil
	}))
	return pop
}

func testConfig(threads int) *Config {
	cfg := DefaultConfig()
	cfg.EA.Threads = threads
	cfg.EA.Seed = 42
	cfg.EA.SelectionTimeoutMS = 2000
	cfg.EA.JoinTimeoutMS = 5000
	return cfg
}

func withScore(value float64, birth int) Genome {
	g := &valueGenome{value: value, size: 1}
	g.SetScore(value)
	g.SetBirthGeneration(birth)
	return g
}

func valueDistance(a, b Genome) float64 {
	return math.Abs(a.(*valueGenome).value - b.(*valueGenome).value)
}

func iterate(t *testing.T, tr *Trainer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := tr.Iteration(ctx)
		cancel()
		require.NoError(t, err)
	}
}
