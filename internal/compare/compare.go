// Package compare tracks the user's compare selection. The backend session is
// the source of truth; this keeps a local mirror so views can render tick
// marks without a round trip, and only replaces the mirror after the backend
// confirms a mutation.
package compare

import (
	"context"
	"sync"

	"github.com/rideal/bike-catalog/internal/upstream"
)

// Backend is the slice of the upstream client the selection needs.
type Backend interface {
	CompareList(ctx context.Context, session *upstream.Session) ([]string, error)
	AddToCompare(ctx context.Context, session *upstream.Session, bikeID string) ([]string, error)
	RemoveFromCompare(ctx context.Context, session *upstream.Session, bikeID string) ([]string, error)
	ClearCompare(ctx context.Context, session *upstream.Session) error
}

// Selection mirrors one session's compare list. Mutations hold an in-flight
// lock across the check and the backend call, so two rapid toggles of the
// same card cannot both observe the pre-toggle state.
type Selection struct {
	backend Backend
	session *upstream.Session

	// inflight serializes mutations end to end; mu only guards items.
	inflight sync.Mutex

	mu    sync.Mutex
	items []string
}

func NewSelection(backend Backend, session *upstream.Session) *Selection {
	return &Selection{
		backend: backend,
		session: session,
		items:   []string{},
	}
}

// Current returns a copy of the mirrored list.
func (s *Selection) Current() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Contains reports whether the product is currently selected.
func (s *Selection) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item == id {
			return true
		}
	}
	return false
}

// Refresh replaces the mirror with the backend's authoritative list.
func (s *Selection) Refresh(ctx context.Context) error {
	list, err := s.backend.CompareList(ctx, s.session)
	if err != nil {
		return err
	}
	s.replace(list)
	return nil
}

// Add selects a product. On backend rejection (the four-item cap included)
// the mirror is left untouched and the error is returned for display.
func (s *Selection) Add(ctx context.Context, id string) ([]string, error) {
	s.inflight.Lock()
	defer s.inflight.Unlock()
	return s.add(ctx, id)
}

// Remove deselects a product.
func (s *Selection) Remove(ctx context.Context, id string) ([]string, error) {
	s.inflight.Lock()
	defer s.inflight.Unlock()
	return s.remove(ctx, id)
}

// Toggle adds the product when absent and removes it when present. The
// presence check and the backend call happen under the in-flight lock, so
// concurrent toggles of the same item alternate instead of both adding.
func (s *Selection) Toggle(ctx context.Context, id string) ([]string, error) {
	s.inflight.Lock()
	defer s.inflight.Unlock()
	if s.Contains(id) {
		return s.remove(ctx, id)
	}
	return s.add(ctx, id)
}

func (s *Selection) add(ctx context.Context, id string) ([]string, error) {
	list, err := s.backend.AddToCompare(ctx, s.session, id)
	if err != nil {
		return s.Current(), err
	}
	s.replace(list)
	return s.Current(), nil
}

func (s *Selection) remove(ctx context.Context, id string) ([]string, error) {
	list, err := s.backend.RemoveFromCompare(ctx, s.session, id)
	if err != nil {
		return s.Current(), err
	}
	s.replace(list)
	return s.Current(), nil
}

// Clear empties the selection on the backend, then the mirror.
func (s *Selection) Clear(ctx context.Context) error {
	if err := s.backend.ClearCompare(ctx, s.session); err != nil {
		return err
	}
	s.replace(nil)
	return nil
}

func (s *Selection) replace(list []string) {
	if list == nil {
		list = []string{}
	}
	s.mu.Lock()
	s.items = list
	s.mu.Unlock()
}
