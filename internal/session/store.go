package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/smithers-ai/smithers/internal/agent"
	"github.com/smithers-ai/smithers/internal/log"
)

const (
	defaultMaxSessions = 1000
	defaultIdleTTL     = 30 * time.Minute
	defaultMaxTurns    = 100
)

// Config holds store bounds.
type Config struct {
	Logger log.Logger // Required

	// MaxSessions caps total sessions; the oldest idle session is evicted
	// to admit a new one (default: 1000).
	MaxSessions int
	// IdleTTL expires sessions untouched for this long, enforced lazily
	// on access (default: 30m). Zero uses the default; negative disables.
	IdleTTL time.Duration
	// MaxTurns caps turns per session; whole exchange groups are trimmed
	// from the front when exceeded (default: 100).
	MaxTurns int
}

func (c *Config) validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Meta is a summary of one session for listings.
type Meta struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
	TurnCount  int       `json:"turnCount"`
}

type state struct {
	id         string
	createdAt  time.Time
	lastActive time.Time
	busy       bool
	turns      []agent.Turn
}

// Store is an in-memory conversation store safe for concurrent use.
// It implements the agent loop's Sessions interface.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state

	logger      log.Logger
	maxSessions int
	idleTTL     time.Duration
	maxTurns    int
}

// New creates a Store from cfg, applying defaults for zero bounds.
func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid session store config: %w", err)
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.IdleTTL == 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = defaultMaxTurns
	}

	return &Store{
		sessions:    make(map[string]*state),
		logger:      cfg.Logger,
		maxSessions: cfg.MaxSessions,
		idleTTL:     cfg.IdleTTL,
		maxTurns:    cfg.MaxTurns,
	}, nil
}

// BeginTurn marks the session busy for the duration of one turn. It fails
// with ErrBusy while another turn for the same session is in flight.
func (s *Store) BeginTurn(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	sess := s.getOrCreateLocked(id)
	if sess.busy {
		return ErrBusy
	}
	sess.busy = true
	sess.lastActive = time.Now()
	return nil
}

// EndTurn releases the session. Safe to call for unknown sessions.
func (s *Store) EndTurn(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.busy = false
		sess.lastActive = time.Now()
	}
}

// History returns a snapshot of the session's turns, creating the session
// if it does not exist.
func (s *Store) History(id string) []agent.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	sess := s.getOrCreateLocked(id)
	out := make([]agent.Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Append adds turns to the session atomically and trims history to the
// turn cap. The agent loop calls this once per completed turn with the
// whole batch, so a reader never observes a partial exchange.
func (s *Store) Append(id string, turns ...agent.Turn) {
	if len(turns) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(id)
	sess.turns = append(sess.turns, turns...)
	sess.lastActive = time.Now()

	if trimmed := s.trimLocked(sess); trimmed > 0 {
		s.logger.Debug("trimmed session history",
			"session_id", id,
			"trimmed_turns", trimmed,
			"remaining", len(sess.turns),
		)
	}
}

// Delete removes a session. Fails with ErrNotFound for unknown IDs.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Get returns metadata for one session.
func (s *Store) Get(id string) (Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Meta{}, ErrNotFound
	}
	return metaOf(sess), nil
}

// List returns metadata for all sessions, most recently active first.
func (s *Store) List() []Meta {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	metas := make([]Meta, 0, len(s.sessions))
	for _, sess := range s.sessions {
		metas = append(metas, metaOf(sess))
	}
	slices.SortFunc(metas, func(a, b Meta) int {
		return b.LastActive.Compare(a.LastActive)
	})
	return metas
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func metaOf(sess *state) Meta {
	return Meta{
		ID:         sess.id,
		CreatedAt:  sess.createdAt,
		LastActive: sess.lastActive,
		TurnCount:  len(sess.turns),
	}
}

// getOrCreateLocked returns the session, creating it and evicting the
// oldest idle session if the store is at capacity.
func (s *Store) getOrCreateLocked(id string) *state {
	if sess, ok := s.sessions[id]; ok {
		return sess
	}

	if len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}

	now := time.Now()
	sess := &state{id: id, createdAt: now, lastActive: now}
	s.sessions[id] = sess
	return sess
}

func (s *Store) evictExpiredLocked() {
	if s.idleTTL < 0 {
		return
	}
	now := time.Now()
	for id, sess := range s.sessions {
		if sess.busy {
			continue
		}
		if now.Sub(sess.lastActive) > s.idleTTL {
			delete(s.sessions, id)
			s.logger.Debug("evicted expired session", "session_id", id)
		}
	}
}

func (s *Store) evictOldestLocked() {
	var oldest *state
	for _, sess := range s.sessions {
		if sess.busy {
			continue
		}
		if oldest == nil || sess.lastActive.Before(oldest.lastActive) {
			oldest = sess
		}
	}
	if oldest != nil {
		delete(s.sessions, oldest.id)
		s.logger.Info("evicted session at capacity", "session_id", oldest.id)
	}
}

// trimLocked drops whole exchange groups from the front until the session
// is within the turn cap. An exchange group runs from a user turn through
// its final assistant text turn, so trimming never leaves a dangling tool
// call without its result.
func (s *Store) trimLocked(sess *state) int {
	trimmed := 0
	for len(sess.turns) > s.maxTurns {
		end := exchangeEnd(sess.turns)
		if end < 0 || end >= len(sess.turns)-1 {
			// A single exchange larger than the cap stays whole.
			break
		}
		trimmed += end + 1
		sess.turns = sess.turns[end+1:]
	}
	return trimmed
}

// exchangeEnd returns the index of the first assistant text turn, which
// closes the first exchange group. Returns -1 if no exchange is complete.
func exchangeEnd(turns []agent.Turn) int {
	for i, turn := range turns {
		if turn.Role == agent.RoleAssistant && turn.Call == nil {
			return i
		}
	}
	return -1
}
