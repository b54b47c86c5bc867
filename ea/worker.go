package ea

import (
	"errors"
	"fmt"
	"math/rand"
)

// worker repeatedly turns selected parents into offspring and submits them.
// It owns its random source and scratch offspring.
type worker struct {
	id        int
	t         *Trainer
	rng       *rand.Rand
	parents   []Genome
	offspring []Genome
}

func newWorker(id int, t *Trainer, rng *rand.Rand, maxParents, maxOffspring int) *worker {
	w := &worker{
		id:        id,
		t:         t,
		rng:       rng,
		parents:   make([]Genome, maxParents),
		offspring: make([]Genome, maxOffspring),
	}
	for i := range w.offspring {
		w.offspring[i] = t.pop.NewGenome()
	}
	return w
}

func (w *worker) run() {
	defer w.t.workers.Done()
	defer func() {
		if r := recover(); r != nil {
			w.fail(fmt.Errorf("worker %d panicked: %v", w.id, r))
		}
	}()

	for !w.t.terminated.Load() {
		if err := w.step(); err != nil {
			if errors.Is(err, ErrTrainerStopped) {
				return
			}
			w.fail(err)
			return
		}
	}
}

func (w *worker) fail(err error) {
	w.t.reporters.WorkerError(w.id, err)
	w.t.ReportError(err)
}

// step performs one unit of work: select, operate, score, submit, notify.
func (w *worker) step() error {
	t := w.t
	t.phase.RLock()
	defer t.phase.RUnlock()
	if t.terminated.Load() {
		return ErrTrainerStopped
	}

	op := t.operators.Pick(w.rng)
	parents := w.parents[:op.ParentsNeeded()]
	held := 0
	releaseParents := func() {
		for _, p := range parents[:held] {
			t.selector.Release(p)
		}
		held = 0
	}
	defer releaseParents()

	for i := range parents {
		p, err := t.selector.SelectParent(w.rng)
		if err != nil {
			return fmt.Errorf("select parent: %w", err)
		}
		parents[i] = p
		held++
	}

	offspring := w.offspring[:op.OffspringProduced()]
	if err := w.perform(op, parents, offspring); err != nil {
		return err
	}
	releaseParents()

	birth := t.Generation() + 1
	for _, g := range offspring {
		score, err := t.score.CalculateScore(g)
		if err != nil {
			return fmt.Errorf("score offspring of %s: %w", op.Name(), err)
		}
		g.SetScore(score)
		g.SetBirthGeneration(birth)
	}

	if err := t.SubmitOffspring(offspring); err != nil {
		return err
	}
	for range offspring {
		t.NotifyProgress()
	}
	return nil
}

func (w *worker) perform(op Operator, parents, offspring []Genome) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s panicked: %v", ErrOperatorFailure, op.Name(), r)
		}
	}()
	if err := op.PerformOperation(w.rng, parents, offspring); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOperatorFailure, op.Name(), err)
	}
	return nil
}
