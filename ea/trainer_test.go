package ea

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValueTrainer(t *testing.T, popSize, threads int, opts ...TrainerOption) *Trainer {
	t.Helper()
	pop := valuePopulation(t, popSize, 0)
	tr, err := NewTrainer(pop, valueScore, testConfig(threads), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown() })
	return tr
}

func TestIterationRequiresOperators(t *testing.T) {
	tr := newValueTrainer(t, 10, 2)

	err := tr.Iteration(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "no evolutionary operators")

	// The failed start shut the trainer down.
	assert.ErrorIs(t, tr.Iteration(context.Background()), ErrTrainerStopped)
}

func TestBestGenomeIsMonotonic(t *testing.T) {
	tr := newValueTrainer(t, 20, 4, WithOperator(nudgeOp{}, 1), WithOperator(averageOp{}, 1))

	previous := tr.Comparator().WorstScore()
	for gen := 0; gen < 8; gen++ {
		iterate(t, tr, 1)

		snapshot := tr.Snapshot()
		best := tr.BestGenome()
		require.NotNil(t, best)
		assert.GreaterOrEqual(t, best.Score(), previous, "best got worse in generation %d", gen)
		for _, g := range snapshot {
			assert.GreaterOrEqual(t, best.Score(), g.Score())
		}
		previous = best.Score()
	}
	assert.GreaterOrEqual(t, tr.Generation(), 8)
}

func TestSubmitOffspringSizeViolationLeavesPopulationUntouched(t *testing.T) {
	pop := valuePopulation(t, 5, 3)
	tr, err := NewTrainer(pop, valueScore, testConfig(1), WithOperator(nudgeOp{}, 1))
	require.NoError(t, err)

	before := tr.Snapshot()
	err = tr.SubmitOffspring([]Genome{
		&valueGenome{value: 100, size: 2},
		&valueGenome{value: 200, size: 4},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSizeViolation)
	assert.Equal(t, before, tr.Snapshot())
	assert.Nil(t, tr.BestGenome())
}

func TestSubmitOffspringReplacesWorstAndTracksBest(t *testing.T) {
	pop, err := NewPopulation(3, 0, newValueGenome)
	require.NoError(t, err)
	for _, v := range []float64{1, 2, 3} {
		require.NoError(t, pop.Add(withScore(v, 0)))
	}
	cfg := testConfig(1)
	cfg.EA.TournamentSize = 16
	tr, err := NewTrainer(pop, valueScore, cfg, WithOperator(nudgeOp{}, 1))
	require.NoError(t, err)

	require.NoError(t, tr.SubmitOffspring([]Genome{withScore(10, 1)}))

	scores := pop.Scores()
	assert.Contains(t, scores, 10.0)
	assert.Equal(t, 3, pop.Size())
	best := tr.BestGenome()
	require.NotNil(t, best)
	assert.Equal(t, 10.0, best.Score())
}

func TestNoMutationAfterShutdown(t *testing.T) {
	tr := newValueTrainer(t, 16, 4, WithOperator(nudgeOp{}, 1), WithOperator(averageOp{}, 2))
	iterate(t, tr, 2)

	require.NoError(t, tr.Shutdown())
	first := tr.Snapshot()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, first, tr.Snapshot())

	assert.ErrorIs(t, tr.SubmitOffspring([]Genome{withScore(1, 1)}), ErrTrainerStopped)
	assert.NoError(t, tr.Shutdown(), "shutdown must be idempotent")
}

func TestBarrierCountsEachOffspring(t *testing.T) {
	tr := newValueTrainer(t, 10, 1, WithOperator(averageOp{}, 1))

	// Five submissions of two offspring reach the population size without
	// closing the generation.
	for i := 0; i < 5; i++ {
		tr.NotifyProgress()
		tr.NotifyProgress()
	}
	assert.Equal(t, 0, tr.Generation())

	// The sixth pair exceeds it: the eleventh offspring fires the barrier and
	// the twelfth counts toward the next generation.
	tr.NotifyProgress()
	assert.Equal(t, 1, tr.Generation())
	tr.NotifyProgress()
	assert.Equal(t, 1, tr.Generation())

	tr.mu.Lock()
	assert.Equal(t, 1, tr.offspringCount)
	tr.mu.Unlock()
}

func TestIterationCatchesUpOnMissedGenerations(t *testing.T) {
	tr := newValueTrainer(t, 4, 1, WithOperator(nudgeOp{}, 1))
	tr.started = true // drive the barrier by hand

	for i := 0; i < 3*5; i++ {
		tr.NotifyProgress()
	}
	require.Equal(t, 3, tr.Generation())

	require.NoError(t, tr.Iteration(context.Background()))
	assert.Equal(t, 3, tr.observed)
}

func TestOperatorFailureStopsTraining(t *testing.T) {
	for name, op := range map[string]failingOp{"error": {}, "panic": {panics: true}} {
		t.Run(name, func(t *testing.T) {
			tr := newValueTrainer(t, 8, 2, WithOperator(op, 1))

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := tr.Iteration(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrOperatorFailure)
			assert.ErrorIs(t, tr.Err(), ErrOperatorFailure)
			assert.ErrorIs(t, tr.Iteration(ctx), ErrOperatorFailure)
		})
	}
}

// growOp emits offspring larger than any limit.
type growOp struct{}

func (growOp) Name() string           { return "grow" }
func (growOp) ParentsNeeded() int     { return 1 }
func (growOp) OffspringProduced() int { return 1 }

func (growOp) PerformOperation(_ *rand.Rand, parents, offspring []Genome) error {
	offspring[0].Copy(parents[0])
	offspring[0].(*valueGenome).size = 100
	return nil
}

func TestWorkerSizeViolationIsFatal(t *testing.T) {
	pop := valuePopulation(t, 8, 10)
	tr, err := NewTrainer(pop, valueScore, testConfig(2), WithOperator(growOp{}, 1))
	require.NoError(t, err)
	defer tr.Shutdown()

	// Score up front so the startup rescoring pass changes nothing.
	require.NoError(t, ParallelScore(context.Background(), pop.Genomes(), valueScore, 1))
	before := tr.Snapshot()
	err = tr.Iteration(context.Background())
	assert.ErrorIs(t, err, ErrSizeViolation)
	assert.Equal(t, before, tr.Snapshot())
}

func TestScoreErrorStopsTraining(t *testing.T) {
	boom := errors.New("fitness backend down")
	var calls sync.Map
	score := ScoreFunc(func(g Genome) (float64, error) {
		if _, seen := calls.LoadOrStore(g, true); seen {
			return 0, boom
		}
		return g.(*valueGenome).value, nil
	})
	pop := valuePopulation(t, 6, 0)
	tr, err := NewTrainer(pop, score, testConfig(1), WithOperator(nudgeOp{}, 1))
	require.NoError(t, err)
	defer tr.Shutdown()

	err = tr.Iteration(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSpeciatedTraining(t *testing.T) {
	pop := valuePopulation(t, 30, 0)
	cfg := testConfig(3)
	cfg.Species.Enabled = true
	cfg.Species.CompatibilityThreshold = 1.5
	tr, err := NewTrainer(pop, valueScore, cfg,
		WithOperator(nudgeOp{}, 1),
		WithOperator(averageOp{}, 1),
		WithCompatibility(valueDistance),
	)
	require.NoError(t, err)
	defer tr.Shutdown()

	previous := tr.Comparator().WorstScore()
	for i := 0; i < 4; i++ {
		iterate(t, tr, 1)

		species := tr.Species()
		require.NotEmpty(t, species)
		total := 0
		members := 0
		for _, sp := range species {
			total += sp.OffspringCount
			for _, m := range sp.Members {
				if m != sp.Leader {
					members++
				}
			}
		}
		assert.Equal(t, pop.Size(), total)
		assert.Equal(t, pop.Size(), members)

		best := tr.BestGenome()
		assert.GreaterOrEqual(t, best.Score(), previous)
		previous = best.Score()
	}
}

func TestTrainerSelectorsObserveTermination(t *testing.T) {
	for _, speciated := range []bool{false, true} {
		cfg := testConfig(1)
		cfg.Species.Enabled = speciated
		tr, err := NewTrainer(valuePopulation(t, 4, 0), valueScore, cfg, WithCompatibility(valueDistance))
		require.NoError(t, err)

		var slots *slotTable
		switch sel := tr.selector.(type) {
		case *TournamentSelector:
			slots = sel.slots
		case *SpeciesSelector:
			slots = sel.slots
		}
		require.NotNil(t, slots)
		require.NotNil(t, slots.stopped)
		assert.False(t, slots.stopped())
		require.NoError(t, tr.Shutdown())
		assert.True(t, slots.stopped())
	}
}

func TestSpeciationRequiresCompatibility(t *testing.T) {
	cfg := testConfig(1)
	cfg.Species.Enabled = true
	_, err := NewTrainer(valuePopulation(t, 4, 0), valueScore, cfg)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestTrainerRegistersWhileRunning(t *testing.T) {
	registry := NewShutdownRegistry()
	tr := newValueTrainer(t, 10, 2, WithOperator(nudgeOp{}, 1), WithShutdownRegistry(registry))
	assert.Empty(t, registry.Registered())

	iterate(t, tr, 1)
	assert.Equal(t, []string{tr.ID()}, registry.Registered())

	require.NoError(t, registry.ShutdownAll())
	assert.Empty(t, registry.Registered())
	assert.ErrorIs(t, tr.Iteration(context.Background()), ErrTrainerStopped)
}

type recordingHistory struct {
	mu      sync.Mutex
	records []GenerationRecord
}

func (h *recordingHistory) RecordGeneration(_ context.Context, rec GenerationRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

func TestTrainerRecordsHistory(t *testing.T) {
	history := &recordingHistory{}
	tr := newValueTrainer(t, 10, 2, WithOperator(nudgeOp{}, 1), WithHistory(history), WithRunID("run-1"))
	iterate(t, tr, 3)

	history.mu.Lock()
	defer history.mu.Unlock()
	require.Len(t, history.records, 3)
	for i, rec := range history.records {
		assert.Equal(t, "run-1", rec.RunID)
		if i > 0 {
			assert.Greater(t, rec.Generation, history.records[i-1].Generation)
		}
	}
}

func TestIterationHonoursContext(t *testing.T) {
	tr := newValueTrainer(t, 4, 1, WithOperator(nudgeOp{}, 1))
	tr.started = true // no workers, the barrier never fires

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tr.Iteration(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, tr.Err())
}

func TestNewTrainerValidation(t *testing.T) {
	_, err := NewTrainer(nil, valueScore, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewTrainer(valuePopulation(t, 2, 0), nil, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewTrainer(valuePopulation(t, 2, 0), valueScore, nil, WithRunID(""))
	assert.ErrorIs(t, err, ErrConfiguration)

	empty, err := NewPopulation(3, 0, newValueGenome)
	require.NoError(t, err)
	_, err = NewTrainer(empty, valueScore, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
