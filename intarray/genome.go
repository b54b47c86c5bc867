// Package intarray provides an integer-array genome and the permutation
// operators used for ordering problems such as the travelling salesman.
package intarray

import (
	"fmt"
	"math/rand"

	"github.com/baldhumanity/evotrain/ea"
)

// Genome is a fixed-length array of integers.
type Genome struct {
	ea.BasicGenome
	Data []int
}

// New creates a zeroed genome of the given length.
func New(size int) *Genome {
	return &Genome{Data: make([]int, size)}
}

// NewPermutation creates a random permutation of 0..n-1.
func NewPermutation(rng *rand.Rand, n int) *Genome {
	return &Genome{Data: rng.Perm(n)}
}

// Factory returns an ea.GenomeFactory producing genomes of length size.
func Factory(size int) ea.GenomeFactory {
	return func() ea.Genome {
		return New(size)
	}
}

func (g *Genome) Size() int {
	return len(g.Data)
}

// Copy overwrites g with src, reusing g's backing array when it fits.
func (g *Genome) Copy(src ea.Genome) {
	other := src.(*Genome)
	g.CopyBasic(other)
	g.Data = append(g.Data[:0], other.Data...)
}

func (g *Genome) resize(n int) {
	if cap(g.Data) < n {
		g.Data = make([]int, n)
		return
	}
	g.Data = g.Data[:n]
}

func (g *Genome) String() string {
	return fmt.Sprintf("[IntArrayGenome: score=%.4f, data=%v]", g.Score(), g.Data)
}

// IsPermutation reports whether Data holds every value of 0..len-1 once.
func (g *Genome) IsPermutation() bool {
	seen := make([]bool, len(g.Data))
	for _, v := range g.Data {
		if v < 0 || v >= len(seen) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func cast(genomes []ea.Genome, what string) ([]*Genome, error) {
	out := make([]*Genome, len(genomes))
	for i, g := range genomes {
		ig, ok := g.(*Genome)
		if !ok {
			return nil, fmt.Errorf("%s %d is %T, want *intarray.Genome", what, i, g)
		}
		out[i] = ig
	}
	return out, nil
}
