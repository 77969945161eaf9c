// Package memory holds the most recently rendered dashboard for the HTTP API.
package memory

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/couchcryptid/medal-flow-etl/internal/domain"
)

// ErrNoSnapshot is returned before the first render has been stored.
var ErrNoSnapshot = errors.New("no dashboard rendered yet")

// Store keeps the latest dashboard. A render replaces the previous one
// wholesale, so readers never see charts from two different renders.
// It implements pipeline.Loader.
type Store struct {
	latest atomic.Pointer[domain.Dashboard]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string {
	return "memory"
}

// Load replaces the stored dashboard.
func (s *Store) Load(_ context.Context, d domain.Dashboard) error {
	s.latest.Store(&d)
	return nil
}

// Latest returns the stored dashboard or ErrNoSnapshot.
func (s *Store) Latest() (domain.Dashboard, error) {
	d := s.latest.Load()
	if d == nil {
		return domain.Dashboard{}, ErrNoSnapshot
	}
	return *d, nil
}
