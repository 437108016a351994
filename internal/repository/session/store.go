package session

import (
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/vecrec/internal/domain/enrichment"
)

const (
	defaultMaxSessions = 10000
	defaultKeep        = 20
)

// Store keeps the most recent interactions of the most recently active sessions.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, []enrichment.Interaction]
	keep  int
}

// New creates a session store holding up to maxSessions sessions with keep
// interactions each.
func New(maxSessions, keep int) (*Store, error) {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	if keep <= 0 {
		keep = defaultKeep
	}
	c, err := lru.New[string, []enrichment.Interaction](maxSessions)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Store{cache: c, keep: keep}, nil
}

// History returns up to limit most recent interactions, oldest first.
func (s *Store) History(sessionID string, limit int) []enrichment.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.cache.Get(sessionID)
	if !ok {
		return nil
	}
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return slices.Clone(h)
}

// Append records an interaction.
func (s *Store) Append(sessionID string, it enrichment.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, _ := s.cache.Get(sessionID)
	h = append(slices.Clone(h), it)
	if len(h) > s.keep {
		h = h[len(h)-s.keep:]
	}
	s.cache.Add(sessionID, h)
}
