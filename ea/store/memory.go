package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/baldhumanity/evotrain/ea"
)

// MemoryStore keeps run history in process. Records are stored encoded, so
// the memory and sqlite backends apply the same codec.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string][]byte
	generations map[string]map[int][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string][]byte)
	s.generations = make(map[string]map[int][]byte)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = payload
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return Run{}, false, errNotInitialized
	}

	payload, ok := s.runs[id]
	if !ok {
		return Run{}, false, nil
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

func (s *MemoryStore) RecordGeneration(_ context.Context, rec ea.GenerationRecord) error {
	if rec.RunID == "" {
		return errors.New("run id is required")
	}
	payload, err := EncodeGeneration(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errNotInitialized
	}
	byGen, ok := s.generations[rec.RunID]
	if !ok {
		byGen = make(map[int][]byte)
		s.generations[rec.RunID] = byGen
	}
	byGen[rec.Generation] = payload
	return nil
}

func (s *MemoryStore) ListGenerations(_ context.Context, runID string) ([]ea.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, errNotInitialized
	}

	byGen := s.generations[runID]
	gens := make([]int, 0, len(byGen))
	for gen := range byGen {
		gens = append(gens, gen)
	}
	sort.Ints(gens)

	out := make([]ea.GenerationRecord, 0, len(gens))
	for _, gen := range gens {
		rec, err := DecodeGeneration(byGen[gen])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

var errNotInitialized = errors.New("store is not initialized")
