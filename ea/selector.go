package ea

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// GenomeSelector picks parents and eviction targets under concurrent access.
// Every genome returned by SelectParent or AntiSelect must be handed back with
// Release once the caller is done reading or overwriting it.
type GenomeSelector interface {
	SelectParent(rng *rand.Rand) (Genome, error)
	AntiSelect(rng *rand.Rand) (Genome, error)
	Release(g Genome)
}

const (
	minSelectBackoff = 50 * time.Microsecond
	maxSelectBackoff = 10 * time.Millisecond
)

// slotTable tracks reservations on population slots. Parents hold a shared
// reader count; an eviction target is held exclusively and only when no reader
// holds it. The table has its own mutex and never touches the trainer lock.
type slotTable struct {
	mu       sync.Mutex
	genomes  []Genome
	index    map[Genome]int
	readers  []int
	evicting []bool
	released chan struct{}
	timeout  time.Duration
	stopped  func() bool
}

// stoppable selectors give up waiting once the trainer is terminated.
type stoppable interface {
	setStopCheck(stopped func() bool)
}

func newSlotTable(pop *Population, timeout time.Duration) *slotTable {
	genomes := pop.Genomes()
	index := make(map[Genome]int, len(genomes))
	for i, g := range genomes {
		index[g] = i
	}
	return &slotTable{
		genomes:  genomes,
		index:    index,
		readers:  make([]int, len(genomes)),
		evicting: make([]bool, len(genomes)),
		released: make(chan struct{}),
		timeout:  timeout,
	}
}

func (t *slotTable) readable(i int) bool {
	return !t.evicting[i]
}

func (t *slotTable) evictable(i int) bool {
	return !t.evicting[i] && t.readers[i] == 0
}

// tournament draws size random slots and keeps the eligible one that ranks
// best (or worst). When no draw is eligible it falls back to a scan from a
// random offset, so an eligible slot is found whenever one exists.
func (t *slotTable) tournament(rng *rand.Rand, size int, eligible func(int) bool, prefer func(a, b Genome) bool) int {
	n := len(t.genomes)
	pick := -1
	for i := 0; i < size; i++ {
		idx := rng.Intn(n)
		if !eligible(idx) {
			continue
		}
		if pick == -1 || prefer(t.genomes[idx], t.genomes[pick]) {
			pick = idx
		}
	}
	if pick != -1 {
		return pick
	}
	start := rng.Intn(n)
	for k := 0; k < n; k++ {
		idx := (start + k) % n
		if eligible(idx) {
			return idx
		}
	}
	return -1
}

// await retries try until it succeeds, the selection timeout elapses or the
// stop check fires. try runs with t.mu held.
func (t *slotTable) await(try func() (Genome, bool)) (Genome, error) {
	deadline := time.Now().Add(t.timeout)
	backoff := minSelectBackoff
	for {
		t.mu.Lock()
		g, ok := try()
		wait := t.released
		t.mu.Unlock()
		if ok {
			return g, nil
		}
		if t.stopped != nil && t.stopped() {
			return nil, ErrTrainerStopped
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w after %s", ErrSelectorExhausted, t.timeout)
		}
		timer := time.NewTimer(min(backoff, remaining))
		select {
		case <-wait:
		case <-timer.C:
		}
		timer.Stop()
		backoff = min(backoff*2, maxSelectBackoff)
	}
}

func (t *slotTable) reserveRead(i int) Genome {
	t.readers[i]++
	return t.genomes[i]
}

func (t *slotTable) reserveEvict(i int) Genome {
	t.evicting[i] = true
	return t.genomes[i]
}

// release drops one reservation on g. Genomes outside the table, such as
// species leader copies, are ignored.
func (t *slotTable) release(g Genome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.index[g]
	if !ok {
		return
	}
	switch {
	case t.evicting[i]:
		t.evicting[i] = false
	case t.readers[i] > 0:
		t.readers[i]--
	default:
		return
	}
	close(t.released)
	t.released = make(chan struct{})
}

func (t *slotTable) evictWorst(rng *rand.Rand, size int, cmp Comparator) (Genome, error) {
	worse := func(a, b Genome) bool { return cmp.Less(b, a) }
	return t.await(func() (Genome, bool) {
		idx := t.tournament(rng, size, t.evictable, worse)
		if idx == -1 {
			return nil, false
		}
		return t.reserveEvict(idx), true
	})
}

// TournamentSelector treats the whole population as one pool. Parents are
// the best of a random tournament, eviction targets the worst.
type TournamentSelector struct {
	slots *slotTable
	cmp   Comparator
	size  int
}

// NewTournamentSelector creates a non-speciated selector over pop.
func NewTournamentSelector(pop *Population, cmp Comparator, tournamentSize int, timeout time.Duration) *TournamentSelector {
	if tournamentSize <= 0 {
		tournamentSize = 1
	}
	return &TournamentSelector{
		slots: newSlotTable(pop, timeout),
		cmp:   cmp,
		size:  tournamentSize,
	}
}

func (s *TournamentSelector) SelectParent(rng *rand.Rand) (Genome, error) {
	return s.slots.await(func() (Genome, bool) {
		idx := s.slots.tournament(rng, s.size, s.slots.readable, s.cmp.Less)
		if idx == -1 {
			return nil, false
		}
		return s.slots.reserveRead(idx), true
	})
}

func (s *TournamentSelector) AntiSelect(rng *rand.Rand) (Genome, error) {
	return s.slots.evictWorst(rng, s.size, s.cmp)
}

func (s *TournamentSelector) Release(g Genome) {
	s.slots.release(g)
}

func (s *TournamentSelector) setStopCheck(stopped func() bool) {
	s.slots.stopped = stopped
}

// SpeciesSelector picks a species proportionally to its offspring count and
// then a parent from that species' elite. Eviction uses the population-wide
// worst-of-tournament rule. The species list is replaced only while workers
// are paused between generations.
//
// Members are population slots that workers overwrite in place, so the elite
// ranking reflects the last speciation pass. Within a generation a slot in
// the elite may already hold newer offspring, possibly of another species.
type SpeciesSelector struct {
	slots   *slotTable
	cmp     Comparator
	size    int
	species []*Species
	total   int
}

// NewSpeciesSelector creates a speciated selector over pop.
func NewSpeciesSelector(pop *Population, cmp Comparator, tournamentSize int, timeout time.Duration) *SpeciesSelector {
	if tournamentSize <= 0 {
		tournamentSize = 1
	}
	return &SpeciesSelector{
		slots: newSlotTable(pop, timeout),
		cmp:   cmp,
		size:  tournamentSize,
	}
}

// SetSpecies installs the species of the coming generation.
func (s *SpeciesSelector) SetSpecies(species []*Species) {
	s.species = append([]*Species(nil), species...)
	s.total = 0
	for _, sp := range s.species {
		s.total += sp.OffspringCount
	}
}

func (s *SpeciesSelector) chooseSpecies(rng *rand.Rand) *Species {
	if len(s.species) == 1 {
		return s.species[0]
	}
	if s.total <= 0 {
		return s.species[rng.Intn(len(s.species))]
	}
	pick := rng.Intn(s.total)
	for _, sp := range s.species {
		pick -= sp.OffspringCount
		if pick < 0 {
			return sp
		}
	}
	return s.species[len(s.species)-1]
}

func (s *SpeciesSelector) SelectParent(rng *rand.Rand) (Genome, error) {
	if len(s.species) == 0 {
		return nil, fmt.Errorf("%w: no species available", ErrSelectorExhausted)
	}
	return s.slots.await(func() (Genome, bool) {
		for attempt := 0; attempt < s.size; attempt++ {
			candidate := s.chooseSpecies(rng).ChooseParent(rng)
			if candidate == nil {
				continue
			}
			idx, inPopulation := s.slots.index[candidate]
			if !inPopulation {
				return candidate, true
			}
			if s.slots.readable(idx) {
				return s.slots.reserveRead(idx), true
			}
		}
		return nil, false
	})
}

func (s *SpeciesSelector) AntiSelect(rng *rand.Rand) (Genome, error) {
	return s.slots.evictWorst(rng, s.size, s.cmp)
}

func (s *SpeciesSelector) Release(g Genome) {
	s.slots.release(g)
}

func (s *SpeciesSelector) setStopCheck(stopped func() bool) {
	s.slots.stopped = stopped
}
