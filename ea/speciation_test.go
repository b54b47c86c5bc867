package ea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueGenomes(values ...float64) []Genome {
	out := make([]Genome, len(values))
	for i, v := range values {
		out[i] = withScore(v, 0)
	}
	return out
}

func newValueSpeciesSet(t *testing.T, cfg SpeciesConfig) *SpeciesSet {
	t.Helper()
	set, err := NewSpeciesSet(&cfg, valueDistance, Comparator{}, newValueGenome)
	require.NoError(t, err)
	return set
}

func TestSpeciateGroupsByDistance(t *testing.T) {
	cfg := DefaultConfig().Species
	cfg.CompatibilityThreshold = 1.0
	set := newValueSpeciesSet(t, cfg)

	pop := valueGenomes(0, 0.5, 10, 10.2, 20)
	result, err := set.Speciate(pop, 0)
	require.NoError(t, err)

	require.Equal(t, 3, set.Len())
	assert.Len(t, result.Created, 3)
	assert.Empty(t, result.Removed)

	total := 0
	for _, sp := range set.Species {
		total += sp.OffspringCount
		assert.Equal(t, sp.Members[0].Score(), sp.BestScore)
	}
	assert.Equal(t, len(pop), total)

	sp, ok := set.SpeciesOf(pop[3])
	require.True(t, ok)
	assert.Equal(t, 2, sp.ID)
	assert.Equal(t, 10.2, sp.Leader.Score())
}

func TestSpeciateKeepsSpeciesAcrossGenerations(t *testing.T) {
	cfg := DefaultConfig().Species
	cfg.CompatibilityThreshold = 1.0
	set := newValueSpeciesSet(t, cfg)

	pop := valueGenomes(0, 5)
	_, err := set.Speciate(pop, 0)
	require.NoError(t, err)

	// Slot 1 drifts close to species 1; species 2 keeps only its leader.
	pop[1].Copy(withScore(0.3, 1))
	_, err = set.Speciate(pop, 1)
	require.NoError(t, err)

	require.Equal(t, 2, set.Len())
	first, second := set.Species[0], set.Species[1]
	assert.Equal(t, 1, first.ID)
	assert.Len(t, first.Members, 3) // leader plus both slots
	assert.Equal(t, 1, first.Age)
	assert.Equal(t, 0.3, first.BestScore)
	assert.Zero(t, first.GensNoImprovement)

	assert.Equal(t, 2, second.ID)
	assert.Equal(t, []Genome{second.Leader}, second.Members)
	assert.Equal(t, 5.0, second.Leader.Score())
	assert.Equal(t, 1, second.GensNoImprovement)
	assert.Equal(t, len(pop), first.OffspringCount+second.OffspringCount)
}

func TestLeaderOnlySpeciesLivesUntilStagnant(t *testing.T) {
	cfg := DefaultConfig().Species
	cfg.CompatibilityThreshold = 1.0
	cfg.MaxStagnation = 3
	cfg.SpeciesElitism = 1
	set := newValueSpeciesSet(t, cfg)

	pop := valueGenomes(1, 100)
	_, err := set.Speciate(pop, 0)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	pop[0].Copy(withScore(100, 1))
	pop[1].Copy(withScore(100.5, 1))
	for gen := 1; gen <= cfg.MaxStagnation; gen++ {
		result, err := set.Speciate(pop, gen)
		require.NoError(t, err)
		require.Equal(t, 2, set.Len(), "generation %d", gen)
		assert.Empty(t, result.Removed)

		abandoned := set.Species[0]
		assert.Equal(t, 1, abandoned.ID)
		assert.Equal(t, []Genome{abandoned.Leader}, abandoned.Members)
		assert.Equal(t, gen, abandoned.GensNoImprovement)
	}

	result, err := set.Speciate(pop, cfg.MaxStagnation+1)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	require.Len(t, result.Removed, 1)
	assert.Equal(t, 1, result.Removed[0].SpeciesID)
	assert.Equal(t, 2, set.Species[0].ID)
}

func TestStagnantSpeciesAreRemovedExceptElite(t *testing.T) {
	cfg := DefaultConfig().Species
	cfg.MaxStagnation = 2
	cfg.SpeciesElitism = 1
	stagnation := NewStagnation(&cfg, Comparator{})

	best := &Species{ID: 1, BestScore: 9, GensNoImprovement: 5}
	stale := &Species{ID: 2, BestScore: 3, GensNoImprovement: 3}
	fresh := &Species{ID: 3, BestScore: 1, GensNoImprovement: 2}

	kept, removed := stagnation.Update([]*Species{best, stale, fresh})
	assert.Equal(t, []*Species{best, fresh}, kept)
	require.Len(t, removed, 1)
	assert.Equal(t, 2, removed[0].SpeciesID)
	assert.Equal(t, 3, removed[0].GensNoImprovement)
}

func TestStagnationAlwaysKeepsBestSpecies(t *testing.T) {
	cfg := DefaultConfig().Species
	cfg.MaxStagnation = 1
	cfg.SpeciesElitism = 0
	stagnation := NewStagnation(&cfg, Comparator{Minimize: true})

	a := &Species{ID: 1, BestScore: 4, GensNoImprovement: 9}
	b := &Species{ID: 2, BestScore: 2, GensNoImprovement: 9}
	kept, removed := stagnation.Update([]*Species{a, b})
	assert.Equal(t, []*Species{b}, kept)
	assert.Len(t, removed, 1)
}

func TestNewSpeciesSetValidation(t *testing.T) {
	cfg := DefaultConfig().Species
	_, err := NewSpeciesSet(&cfg, nil, Comparator{}, newValueGenome)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = NewSpeciesSet(&cfg, valueDistance, Comparator{}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
