package client

import (
	"errors"
	"sync"
)

// ErrSubmissionInFlight is returned when a submission for the same key is
// still waiting for its response.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// InFlight admits at most one submission per key (usually a contract id).
type InFlight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewInFlight returns an empty guard.
func NewInFlight() *InFlight {
	return &InFlight{keys: map[string]struct{}{}}
}

// Acquire claims key.  The returned release must be called exactly once
// when the submission resolves.
func (g *InFlight) Acquire(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.keys[key]; busy {
		return nil, ErrSubmissionInFlight
	}
	g.keys[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.keys, key)
			g.mu.Unlock()
		})
	}, nil
}

// Busy reports whether key is currently claimed.
func (g *InFlight) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.keys[key]
	return busy
}
