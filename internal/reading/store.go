package reading

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/pkg/clock"
)

// Store keeps at most one live reading per account. Starting a new
// reading replaces any previous one for that account.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Controller

	clock      clock.Clock
	shuffleDur time.Duration
	stagger    time.Duration
	seed       func() rand.Source
}

func NewStore(clk clock.Clock, shuffleDur, stagger time.Duration) *Store {
	return &Store{
		sessions:   make(map[string]*Controller),
		clock:      clk,
		shuffleDur: shuffleDur,
		stagger:    stagger,
		seed: func() rand.Source {
			return rand.NewSource(time.Now().UnixNano())
		},
	}
}

// SetSeeder overrides the random source factory. Used by tests for
// deterministic decks.
func (s *Store) SetSeeder(fn func() rand.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed = fn
}

// Begin creates a fresh session for the account, discarding any live one.
func (s *Store) Begin(accountID string, topic Topic) (*Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.sessions[accountID]; ok {
		old.Reset()
	}
	c, err := NewController(uuid.NewString(), topic, s.seed(), s.clock, s.shuffleDur, s.stagger)
	if err != nil {
		return nil, err
	}
	s.sessions[accountID] = c
	return c, nil
}

// Get returns the account's live session.
func (s *Store) Get(accountID string) (*Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// Drop removes the account's session, cancelling its timers.
func (s *Store) Drop(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.sessions[accountID]; ok {
		c.Reset()
		delete(s.sessions, accountID)
	}
}
