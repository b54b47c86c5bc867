package ea

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"

	"go.uber.org/multierr"
)

// Stopper is anything a ShutdownRegistry can stop.
type Stopper interface {
	Shutdown() error
}

// ShutdownRegistry tracks running trainers so that an abnormal process exit
// can still join their workers. Trainers register when their workers start
// and unregister when they stop.
type ShutdownRegistry struct {
	mu      sync.Mutex
	running map[string]Stopper
}

func NewShutdownRegistry() *ShutdownRegistry {
	return &ShutdownRegistry{running: make(map[string]Stopper)}
}

// Register adds a running trainer under id.
func (r *ShutdownRegistry) Register(id string, s Stopper) error {
	if id == "" {
		return fmt.Errorf("shutdown registry: id is required")
	}
	if s == nil {
		return fmt.Errorf("shutdown registry: stopper is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.running[id]; exists {
		return fmt.Errorf("shutdown registry: %s already registered", id)
	}
	r.running[id] = s
	return nil
}

// Unregister removes id. Unknown ids are ignored.
func (r *ShutdownRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, id)
}

// Registered returns the registered ids in sorted order.
func (r *ShutdownRegistry) Registered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.running))
	for id := range r.running {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ShutdownAll stops every registered trainer and returns their combined errors.
func (r *ShutdownRegistry) ShutdownAll() error {
	r.mu.Lock()
	ids := make([]string, 0, len(r.running))
	stoppers := make(map[string]Stopper, len(r.running))
	for id, s := range r.running {
		ids = append(ids, id)
		stoppers[id] = s
	}
	r.mu.Unlock()
	sort.Strings(ids)

	// Stoppers unregister themselves, so the lock is not held here.
	var err error
	for _, id := range ids {
		if stopErr := stoppers[id].Shutdown(); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown %s: %w", id, stopErr))
		}
	}
	return err
}

// NotifySignals stops every registered trainer when one of sigs arrives
// (os.Interrupt when none are given). The returned function detaches the hook.
func (r *ShutdownRegistry) NotifySignals(ctx context.Context, sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	detach := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ch:
			_ = r.ShutdownAll()
		case <-ctx.Done():
		case <-detach:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(detach)
			<-done
		})
	}
}
