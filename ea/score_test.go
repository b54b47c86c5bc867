package ea

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelScore(t *testing.T) {
	genomes := valueGenomes(1, 2, 3, 4, 5, 6, 7, 8)
	for _, g := range genomes {
		g.(*valueGenome).value *= 10
	}
	require.NoError(t, ParallelScore(context.Background(), genomes, valueScore, 3))
	for i, g := range genomes {
		assert.Equal(t, float64(i+1)*10, g.Score())
	}
}

func TestParallelScoreReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	fn := ScoreFunc(func(g Genome) (float64, error) {
		if g.(*valueGenome).value == 3 {
			return 0, boom
		}
		return 1, nil
	})
	err := ParallelScore(context.Background(), valueGenomes(1, 2, 3, 4), fn, 0)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, ParallelScore(context.Background(), nil, nil, 1), ErrConfiguration)
}

func TestParallelScoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ParallelScore(ctx, valueGenomes(1, 2), valueScore, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(3, []float64{1, math.NaN(), 3, math.Inf(1), 5}, 5, 2)
	assert.Equal(t, 3, stats.Generation)
	assert.Equal(t, 3, stats.FiniteScores)
	assert.Equal(t, 3.0, stats.MeanScore)
	assert.InDelta(t, 2.0, stats.StdevScore, 1e-12)
	assert.Equal(t, 3.0, stats.MedianScore)
	assert.Equal(t, 2, stats.SpeciesCount)

	empty := ComputeStats(0, []float64{math.NaN()}, math.NaN(), 0)
	assert.True(t, math.IsNaN(empty.MeanScore))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
}
