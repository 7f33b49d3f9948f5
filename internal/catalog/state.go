package catalog

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// SearchDebounce is the trailing-edge delay applied to free-text search
// triggered refreshes.
const SearchDebounce = 300 * time.Millisecond

// Loader fetches the full product snapshot from the backend.
type Loader func(ctx context.Context) ([]Product, error)

// ViewState owns the in-memory product snapshot the pipeline runs over. The
// snapshot is loaded once and then immutable; filtering and sorting derive
// views without touching it. Refreshes are sequenced: every fetch takes a
// token, and a response is applied only if no newer response won the race, so
// a stale upstream reply can never overwrite fresher data.
type ViewState struct {
	loader Loader

	mu       sync.RWMutex
	products []Product
	loaded   bool
	nextSeq  uint64
	applied  uint64
}

func NewViewState(loader Loader) *ViewState {
	return &ViewState{loader: loader}
}

// Load populates the snapshot on first use. Subsequent calls are no-ops.
func (s *ViewState) Load(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Refresh(ctx)
}

// Refresh fetches a new snapshot and applies it unless a later refresh
// already completed.
func (s *ViewState) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.nextSeq++
	token := s.nextSeq
	s.mu.Unlock()

	products, err := s.loader(ctx)
	if err != nil {
		return fmt.Errorf("catalog refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token < s.applied {
		log.Printf("Discarding stale catalog snapshot (token %d, applied %d)", token, s.applied)
		return nil
	}
	s.products = products
	s.loaded = true
	s.applied = token
	return nil
}

// Products returns the current snapshot. Callers must not mutate it.
func (s *ViewState) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

// Apply runs the filter chain and sort over the current snapshot and returns
// the derived view.
func (s *ViewState) Apply(c Criteria, direction SortDirection, limits CategoryLimits) []Product {
	return SortByEffectivePrice(Filter(s.Products(), c, limits), direction)
}

// Debouncer coalesces rapid triggers into one trailing-edge call: each
// trigger cancels the pending one and re-arms the delay.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the delay, cancelling any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
