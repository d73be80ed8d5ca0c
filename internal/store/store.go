// Package store is the client-side state container.  A single goroutine owns
// the state and applies dispatched actions through Reduce; everything else
// reads copies.
package store

import (
	"sync"

	"github.com/iliyamo/rental-contracts/internal/billing"
	"github.com/iliyamo/rental-contracts/internal/model"
)

// Action is a message applied by the reducer.
type Action interface{ action() }

// ContractLoaded replaces one contract with fresh server detail.
type ContractLoaded struct{ Contract model.Contract }

// ContractsListed stores a list page and remembers its order.
type ContractsListed struct{ Page model.ContractPage }

// InvoiceCreated records the last invoice created for a contract.
type InvoiceCreated struct {
	ContractID string
	InvoiceID  string
	Period     billing.Period
}

// LoadingChanged toggles the loading flag of a screen or operation key.
type LoadingChanged struct {
	Key     string
	Loading bool
}

// SessionStarted stores the bearer token.
type SessionStarted struct{ Token string }

// SessionCleared drops the token and all cached server data.
type SessionCleared struct{}

func (ContractLoaded) action()  {}
func (ContractsListed) action() {}
func (InvoiceCreated) action()  {}
func (LoadingChanged) action()  {}
func (SessionStarted) action()  {}
func (SessionCleared) action()  {}

// State is the whole client state.
type State struct {
	Token         string
	Contracts     map[string]model.Contract
	ListOrder     []string
	ListTotal     int
	Loading       map[string]bool
	LastInvoiceID string
	Invoices      map[string]billing.Period // invoice id -> period
}

func emptyState() State {
	return State{
		Contracts: map[string]model.Contract{},
		Loading:   map[string]bool{},
		Invoices:  map[string]billing.Period{},
	}
}

// Reduce returns the state after applying a.  It never mutates s.
func Reduce(s State, a Action) State {
	next := s.clone()
	switch act := a.(type) {
	case ContractLoaded:
		next.Contracts[act.Contract.ID] = act.Contract
	case ContractsListed:
		next.ListOrder = next.ListOrder[:0]
		for _, c := range act.Page.Items {
			next.Contracts[c.ID] = c
			next.ListOrder = append(next.ListOrder, c.ID)
		}
		next.ListTotal = act.Page.Total
	case InvoiceCreated:
		next.LastInvoiceID = act.InvoiceID
		if act.InvoiceID != "" {
			next.Invoices[act.InvoiceID] = act.Period
		}
	case LoadingChanged:
		if act.Loading {
			next.Loading[act.Key] = true
		} else {
			delete(next.Loading, act.Key)
		}
	case SessionStarted:
		next.Token = act.Token
	case SessionCleared:
		next = emptyState()
	}
	return next
}

func (s State) clone() State {
	out := State{
		Token:         s.Token,
		ListTotal:     s.ListTotal,
		LastInvoiceID: s.LastInvoiceID,
		Contracts:     make(map[string]model.Contract, len(s.Contracts)),
		ListOrder:     append([]string(nil), s.ListOrder...),
		Loading:       make(map[string]bool, len(s.Loading)),
		Invoices:      make(map[string]billing.Period, len(s.Invoices)),
	}
	for k, v := range s.Contracts {
		out.Contracts[k] = v
	}
	for k, v := range s.Loading {
		out.Loading[k] = v
	}
	for k, v := range s.Invoices {
		out.Invoices[k] = v
	}
	return out
}

type envelope struct {
	action Action
	done   chan struct{}
}

// Store serialises all writes through one goroutine.
type Store struct {
	actions chan envelope
	quit    chan struct{}
	once    sync.Once

	mu    sync.RWMutex
	state State
}

// New starts the reducer goroutine.  Call Close to stop it.
func New() *Store {
	s := &Store{
		actions: make(chan envelope, 16),
		quit:    make(chan struct{}),
		state:   emptyState(),
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	for {
		select {
		case env := <-s.actions:
			s.mu.RLock()
			next := Reduce(s.state, env.action)
			s.mu.RUnlock()
			s.mu.Lock()
			s.state = next
			s.mu.Unlock()
			close(env.done)
		case <-s.quit:
			return
		}
	}
}

// Dispatch applies a and returns once the new state is visible to readers.
// It returns immediately when the store is closed.
func (s *Store) Dispatch(a Action) {
	env := envelope{action: a, done: make(chan struct{})}
	select {
	case s.actions <- env:
	case <-s.quit:
		return
	}
	select {
	case <-env.done:
	case <-s.quit:
	}
}

// Close stops the reducer goroutine.
func (s *Store) Close() {
	s.once.Do(func() { close(s.quit) })
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Contract returns the cached contract with the given id.
func (s *Store) Contract(id string) (model.Contract, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.Contracts[id]
	return c, ok
}

// Loading reports whether key is marked as in progress.
func (s *Store) Loading(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading[key]
}

// LastInvoiceID returns the id of the most recently created invoice.
func (s *Store) LastInvoiceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastInvoiceID
}

// Token implements client.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}
