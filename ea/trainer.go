package ea

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Trainer evolves a population with a pool of worker goroutines. Workers
// submit offspring continuously; the trainer counts them and closes a
// generation once more offspring than the population size have been
// accepted. Offspring finished after that point count toward the next
// generation.
type Trainer struct {
	id        string
	pop       *Population
	score     ScoreFunction
	cfg       *Config
	cmp       Comparator
	operators *OperatorList
	reporters *ReporterSet
	registry  *ShutdownRegistry
	history   HistoryRecorder

	selector   GenomeSelector
	speciesSel *SpeciesSelector
	speciesSet *SpeciesSet
	compat     CompatibilityFunc

	// mu guards the population slots, the best genome, the counters and the
	// error slot. It is never held while an operator runs.
	mu             sync.Mutex
	cond           *sync.Cond
	best           Genome
	bestSet        bool
	generation     int
	offspringCount int
	err            error
	submitRng      *rand.Rand

	// phase is held shared by workers for one unit of work and exclusively
	// while the species are rebuilt between generations.
	phase sync.RWMutex

	iterMu       sync.Mutex
	started      bool
	observed     int
	reportedBest float64

	terminated   atomic.Bool
	workers      sync.WaitGroup
	shutdownMu   sync.Mutex
	shutdownDone bool
	seed         int64
}

// TrainerOption configures optional collaborators of a Trainer.
type TrainerOption func(*Trainer) error

// WithOperator registers an evolutionary operator with its selection weight.
func WithOperator(op Operator, weight float64) TrainerOption {
	return func(t *Trainer) error {
		return t.operators.Add(op, weight)
	}
}

// WithShutdownRegistry registers the trainer with r while its workers run.
func WithShutdownRegistry(r *ShutdownRegistry) TrainerOption {
	return func(t *Trainer) error {
		t.registry = r
		return nil
	}
}

// WithReporter adds a progress reporter.
func WithReporter(r Reporter) TrainerOption {
	return func(t *Trainer) error {
		t.reporters.Add(r)
		return nil
	}
}

// WithHistory records every completed generation to h.
func WithHistory(h HistoryRecorder) TrainerOption {
	return func(t *Trainer) error {
		t.history = h
		return nil
	}
}

// WithCompatibility sets the genetic distance used for speciation.
func WithCompatibility(fn CompatibilityFunc) TrainerOption {
	return func(t *Trainer) error {
		t.compat = fn
		return nil
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) TrainerOption {
	return func(t *Trainer) error {
		if id == "" {
			return fmt.Errorf("%w: run id must not be empty", ErrConfiguration)
		}
		t.id = id
		return nil
	}
}

// NewTrainer validates its inputs and prepares a trainer. Workers start on
// the first call to Iteration. A nil cfg uses DefaultConfig.
func NewTrainer(pop *Population, score ScoreFunction, cfg *Config, opts ...TrainerOption) (*Trainer, error) {
	if pop == nil {
		return nil, fmt.Errorf("%w: population is required", ErrConfiguration)
	}
	if score == nil {
		return nil, fmt.Errorf("%w: score function is required", ErrConfiguration)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := pop.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.EA.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	t := &Trainer{
		id:        uuid.NewString(),
		pop:       pop,
		score:     score,
		cfg:       cfg,
		cmp:       Comparator{Minimize: cfg.EA.Minimize},
		operators: NewOperatorList(cfg.EA.OperatorPolicy),
		reporters: NewReporterSet(),
		best:      pop.NewGenome(),
		submitRng: rand.New(rand.NewSource(seed)),
		seed:      seed,
	}
	t.cond = sync.NewCond(&t.mu)
	t.reportedBest = t.cmp.WorstScore()
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	if cfg.Species.Enabled {
		set, err := NewSpeciesSet(&cfg.Species, t.compat, t.cmp, pop.NewGenome)
		if err != nil {
			return nil, err
		}
		t.speciesSet = set
		t.speciesSel = NewSpeciesSelector(pop, t.cmp, cfg.EA.TournamentSize, cfg.EA.SelectionTimeout())
		t.selector = t.speciesSel
	} else {
		t.selector = NewTournamentSelector(pop, t.cmp, cfg.EA.TournamentSize, cfg.EA.SelectionTimeout())
	}
	if s, ok := t.selector.(stoppable); ok {
		s.setStopCheck(t.terminated.Load)
	}
	return t, nil
}

// AddOperator registers an operator before training starts.
func (t *Trainer) AddOperator(op Operator, weight float64) error {
	return t.operators.Add(op, weight)
}

// Iteration blocks until a generation the caller has not seen yet completes.
// The first call scores the population and starts the workers. Any worker
// error is returned and shuts the trainer down.
func (t *Trainer) Iteration(ctx context.Context) error {
	t.iterMu.Lock()
	defer t.iterMu.Unlock()

	if t.terminated.Load() {
		if err := t.Err(); err != nil {
			return err
		}
		return ErrTrainerStopped
	}
	if !t.started {
		if err := t.start(ctx); err != nil {
			return multierr.Append(err, t.Shutdown())
		}
	}

	t.reporters.StartGeneration(t.observed + 1)
	gen, err := t.awaitGeneration(ctx)
	if err != nil {
		if ctx.Err() != nil && t.Err() == nil {
			return err
		}
		return multierr.Append(err, t.Shutdown())
	}
	t.observed = gen

	if t.speciesSet != nil {
		if err := t.respeciate(gen); err != nil {
			return multierr.Append(err, t.Shutdown())
		}
	}
	if err := t.endGeneration(ctx, gen); err != nil {
		return multierr.Append(err, t.Shutdown())
	}
	return nil
}

func (t *Trainer) start(ctx context.Context) error {
	if err := t.operators.Finalize(); err != nil {
		return err
	}

	t.mu.Lock()
	t.err = nil
	t.generation = 0
	t.offspringCount = 0
	t.mu.Unlock()

	threads := t.cfg.EA.ThreadCount()
	if err := ParallelScore(ctx, t.pop.Genomes(), t.score, threads); err != nil {
		return fmt.Errorf("initial scoring: %w", err)
	}

	t.mu.Lock()
	if best := t.pop.FindBest(t.cmp); best != nil {
		t.best.Copy(best)
		t.bestSet = true
	}
	t.mu.Unlock()

	if t.speciesSet != nil {
		if err := t.respeciate(0); err != nil {
			return err
		}
	}

	if t.registry != nil {
		if err := t.registry.Register(t.id, t); err != nil {
			return err
		}
	}

	maxParents := t.operators.MaxParents()
	maxOffspring := t.operators.MaxOffspring()
	for i := 0; i < threads; i++ {
		w := newWorker(i, t, rand.New(rand.NewSource(t.seed+int64(i)+1)), maxParents, maxOffspring)
		t.workers.Add(1)
		go w.run()
	}
	t.started = true
	return nil
}

// awaitGeneration waits on the barrier condition. The loop re-checks the
// generation so spurious wakeups and context wakeups are harmless.
func (t *Trainer) awaitGeneration(ctx context.Context) (int, error) {
	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.cond.Broadcast()
	})
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for t.generation <= t.observed && t.err == nil && ctx.Err() == nil && !t.terminated.Load() {
		t.cond.Wait()
	}
	switch {
	case t.err != nil:
		return 0, t.err
	case ctx.Err() != nil:
		return 0, ctx.Err()
	case t.generation <= t.observed:
		return 0, ErrTrainerStopped
	}
	return t.generation, nil
}

func (t *Trainer) respeciate(gen int) error {
	t.phase.Lock()
	defer t.phase.Unlock()

	result, err := t.speciesSet.Speciate(t.pop.Genomes(), gen)
	if err != nil {
		return fmt.Errorf("speciate generation %d: %w", gen, err)
	}
	t.speciesSel.SetSpecies(t.speciesSet.Species)
	for _, info := range result.Removed {
		t.reporters.SpeciesStagnant(info)
	}
	return nil
}

func (t *Trainer) endGeneration(ctx context.Context, gen int) error {
	t.mu.Lock()
	scores := t.pop.Scores()
	best := t.best.Score()
	t.mu.Unlock()

	speciesCount := 0
	if t.speciesSet != nil {
		t.phase.RLock()
		speciesCount = t.speciesSet.Len()
		t.phase.RUnlock()
	}

	stats := ComputeStats(gen, scores, best, speciesCount)
	if t.cmp.IsBetterThan(best, t.reportedBest) {
		t.reportedBest = best
		t.reporters.NewBest(gen, best)
	}
	t.reporters.EndGeneration(stats)

	if t.history != nil {
		if err := t.history.RecordGeneration(ctx, NewGenerationRecord(t.id, stats)); err != nil {
			return fmt.Errorf("record generation %d: %w", gen, err)
		}
	}
	return nil
}

// SubmitOffspring writes offspring into the population. Each genome replaces
// an anti-selected slot and may become the new best genome. If any genome is
// too large the whole batch is rejected before the population is touched.
func (t *Trainer) SubmitOffspring(offspring []Genome) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.terminated.Load() {
		return ErrTrainerStopped
	}
	for i, g := range offspring {
		if !t.fits(g) {
			return fmt.Errorf("%w: offspring %d has size %d, limit %d", ErrSizeViolation, i, g.Size(), t.sizeLimit())
		}
	}

	for _, g := range offspring {
		target, err := t.selector.AntiSelect(t.submitRng)
		if err != nil {
			return fmt.Errorf("anti-select: %w", err)
		}
		target.Copy(g)
		if !t.bestSet || t.cmp.IsBetterThan(g.Score(), t.best.Score()) {
			t.best.Copy(g)
			t.bestSet = true
		}
		t.selector.Release(target)
	}
	return nil
}

// NotifyProgress counts one accepted offspring toward the current
// generation and fires the barrier once the count exceeds the population size.
func (t *Trainer) NotifyProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.offspringCount++
	if t.offspringCount > t.pop.Size() {
		t.offspringCount = 0
		t.generation++
		t.cond.Broadcast()
	}
}

// ReportError records the first fatal error and wakes Iteration. It does not
// stop the workers; Iteration shuts the trainer down when it sees the error.
func (t *Trainer) ReportError(err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
	t.cond.Broadcast()
}

// Shutdown stops the workers after their current unit of work and waits for
// them. It is safe to call more than once and before training started.
func (t *Trainer) Shutdown() error {
	t.shutdownMu.Lock()
	defer t.shutdownMu.Unlock()

	t.terminated.Store(true)
	t.mu.Lock()
	t.cond.Broadcast()
	t.mu.Unlock()

	err := t.joinWorkers()
	if t.registry != nil {
		t.registry.Unregister(t.id)
	}
	if !t.shutdownDone && err == nil {
		t.shutdownDone = true
		t.reporters.Shutdown(t.Err())
	}
	return err
}

func (t *Trainer) joinWorkers() error {
	done := make(chan struct{})
	go func() {
		t.workers.Wait()
		close(done)
	}()

	timeout := t.cfg.EA.JoinTimeout()
	if timeout <= 0 {
		<-done
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w within %s", ErrShutdownJoin, timeout)
	}
}

// BestGenome returns a copy of the best genome seen so far, or nil before
// anything was scored.
func (t *Trainer) BestGenome() Genome {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.bestSet {
		return nil
	}
	out := t.pop.NewGenome()
	out.Copy(t.best)
	return out
}

// CopyBestInto copies the best genome into target. It reports false when no
// best genome is known yet.
func (t *Trainer) CopyBestInto(target Genome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.bestSet {
		return false
	}
	target.Copy(t.best)
	return true
}

// Generation returns the number of completed generations.
func (t *Trainer) Generation() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// Err returns the first error reported by a worker.
func (t *Trainer) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// ID identifies the run in the shutdown registry and the history store.
func (t *Trainer) ID() string {
	return t.id
}

// Population returns the trained population. Read slots through Snapshot
// while workers run.
func (t *Trainer) Population() *Population {
	return t.pop
}

// Comparator returns the score ordering the trainer was configured with.
func (t *Trainer) Comparator() Comparator {
	return t.cmp
}

// Species returns the current species. It is empty without speciation.
func (t *Trainer) Species() []*Species {
	if t.speciesSet == nil {
		return nil
	}
	t.phase.RLock()
	defer t.phase.RUnlock()
	return append([]*Species(nil), t.speciesSet.Species...)
}

// Snapshot copies every population slot under the trainer lock.
func (t *Trainer) Snapshot() []Genome {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Genome, t.pop.Size())
	for i, g := range t.pop.genomes {
		c := t.pop.NewGenome()
		c.Copy(g)
		out[i] = c
	}
	return out
}

func (t *Trainer) sizeLimit() int {
	limit := t.pop.MaxIndividualSize()
	if cfgLimit := t.cfg.EA.MaxIndividualSize; cfgLimit > 0 && (limit == 0 || cfgLimit < limit) {
		limit = cfgLimit
	}
	return limit
}

func (t *Trainer) fits(g Genome) bool {
	limit := t.sizeLimit()
	return limit <= 0 || g.Size() <= limit
}
