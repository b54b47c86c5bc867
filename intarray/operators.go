package intarray

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/baldhumanity/evotrain/ea"
)

// ErrRanOutOfIntegers is returned by SpliceNoRepeat when the parents are not
// permutations of the same values.
var ErrRanOutOfIntegers = errors.New("ran out of integers to select")

// SpliceNoRepeat is a two-point crossover that keeps every value at most
// once per child. The cut section is swapped between the parents; the outer
// sections are refilled in the other parent's order with values not yet taken.
type SpliceNoRepeat struct {
	CutLength int
}

func NewSpliceNoRepeat(cutLength int) *SpliceNoRepeat {
	return &SpliceNoRepeat{CutLength: cutLength}
}

func (s *SpliceNoRepeat) Name() string           { return "splice-no-repeat" }
func (s *SpliceNoRepeat) ParentsNeeded() int     { return 2 }
func (s *SpliceNoRepeat) OffspringProduced() int { return 2 }

func (s *SpliceNoRepeat) PerformOperation(rng *rand.Rand, parents, offspring []ea.Genome) error {
	p, err := cast(parents, "parent")
	if err != nil {
		return err
	}
	o, err := cast(offspring, "offspring")
	if err != nil {
		return err
	}
	mother, father := p[0], p[1]
	child1, child2 := o[0], o[1]

	geneLength := mother.Size()
	if father.Size() != geneLength {
		return fmt.Errorf("parents differ in length: %d vs %d", geneLength, father.Size())
	}
	if s.CutLength < 0 || s.CutLength >= geneLength {
		return fmt.Errorf("cut length %d must be in [0, %d)", s.CutLength, geneLength)
	}
	child1.resize(geneLength)
	child2.resize(geneLength)

	// The chromosome is cut at two positions.
	cut1 := rng.Intn(geneLength - s.CutLength)
	cut2 := cut1 + s.CutLength

	taken1 := make(map[int]struct{}, geneLength)
	taken2 := make(map[int]struct{}, geneLength)
	inCut := func(i int) bool { return i >= cut1 && i <= cut2 }

	for i := 0; i < geneLength; i++ {
		if inCut(i) {
			child1.Data[i] = father.Data[i]
			child2.Data[i] = mother.Data[i]
			taken1[father.Data[i]] = struct{}{}
			taken2[mother.Data[i]] = struct{}{}
		}
	}

	for i := 0; i < geneLength; i++ {
		if inCut(i) {
			continue
		}
		if child1.Data[i], err = notTaken(mother, taken1); err != nil {
			return err
		}
		if child2.Data[i], err = notTaken(father, taken2); err != nil {
			return err
		}
	}
	return nil
}

// notTaken returns the first value of source not in taken and marks it.
func notTaken(source *Genome, taken map[int]struct{}) (int, error) {
	for _, v := range source.Data {
		if _, ok := taken[v]; !ok {
			taken[v] = struct{}{}
			return v, nil
		}
	}
	return 0, ErrRanOutOfIntegers
}

// MutateShuffle copies the parent and swaps two random positions.
type MutateShuffle struct{}

func (MutateShuffle) Name() string           { return "mutate-shuffle" }
func (MutateShuffle) ParentsNeeded() int     { return 1 }
func (MutateShuffle) OffspringProduced() int { return 1 }

func (MutateShuffle) PerformOperation(rng *rand.Rand, parents, offspring []ea.Genome) error {
	p, err := cast(parents, "parent")
	if err != nil {
		return err
	}
	o, err := cast(offspring, "offspring")
	if err != nil {
		return err
	}
	child := o[0]
	child.Copy(p[0])

	n := child.Size()
	if n < 2 {
		return nil
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	child.Data[i], child.Data[j] = child.Data[j], child.Data[i]
	return nil
}
