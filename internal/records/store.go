// Package records caches training-session records fetched from the backend.
// The cache is the single source of truth for rendering: every mutation path
// ends in a full Refresh rather than a partial optimistic write.
package records

import (
	"context"
	"log/slog"
	"sync"

	"github.com/claude/trainlog/internal/api"
	"github.com/claude/trainlog/internal/models"
)

// Fetcher is the slice of the REST client the store needs.
type Fetcher interface {
	ListSessions(ctx context.Context, userID string) ([]models.SessionSummary, error)
	GetSession(ctx context.Context, userID, sessionID string) (*models.TrainingSession, error)
}

// Compile-time check: *api.Client satisfies Fetcher.
var _ Fetcher = (*api.Client)(nil)

// Store holds the hydrated session list, most recent first. Position 0 is
// the active session when one exists; the UI keys the start/finish choice
// off that position.
type Store struct {
	mu       sync.Mutex
	client   Fetcher
	userID   string
	log      *slog.Logger
	snapshot *SnapshotCache
	sessions []models.TrainingSession
}

// New creates a Store for one user.
func New(client Fetcher, userID string, log *slog.Logger) *Store {
	return &Store{client: client, userID: userID, log: log}
}

// SetSnapshotCache attaches an offline snapshot cache. Each successful
// Refresh persists the hydrated list; LoadSnapshot restores the last one.
func (s *Store) SetSnapshotCache(c *SnapshotCache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = c
}

// LoadSnapshot populates the store from the snapshot cache, so the UI can
// render stale data before the first Refresh completes. No-op without a
// cache or a stored snapshot.
func (s *Store) LoadSnapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return nil
	}
	sessions, ok, err := s.snapshot.Load(s.userID)
	if err != nil {
		return err
	}
	if ok {
		s.sessions = sessions
	}
	return nil
}

// Refresh re-fetches the summary list, hydrates every session in parallel,
// and replaces the cached array wholesale. A failed detail fetch drops that
// session from this refresh rather than failing the whole reload.
func (s *Store) Refresh(ctx context.Context) error {
	summaries, err := s.client.ListSessions(ctx, s.userID)
	if err != nil {
		return err
	}

	details := make([]*models.TrainingSession, len(summaries))
	var wg sync.WaitGroup
	for i, sum := range summaries {
		wg.Add(1)
		go func(i int, sessionID string) {
			defer wg.Done()
			detail, err := s.client.GetSession(ctx, s.userID, sessionID)
			if err != nil {
				s.log.Warn("hydrating session failed", "session", sessionID, "error", err)
				return
			}
			details[i] = detail
		}(i, sum.PubID)
	}
	wg.Wait()

	sessions := make([]models.TrainingSession, 0, len(details))
	for _, d := range details {
		if d != nil {
			sessions = append(sessions, *d)
		}
	}

	s.mu.Lock()
	s.sessions = sessions
	snapshot := s.snapshot
	s.mu.Unlock()

	if snapshot != nil {
		if err := snapshot.Save(s.userID, sessions); err != nil {
			s.log.Warn("saving snapshot failed", "error", err)
		}
	}
	return nil
}

// ListSummaries returns a copy of the cached sessions, most recent first.
func (s *Store) ListSummaries() []models.TrainingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TrainingSession(nil), s.sessions...)
}

// Get returns the cached session with the given id.
func (s *Store) Get(sessionID string) (models.TrainingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.PubID == sessionID {
			return sess, true
		}
	}
	return models.TrainingSession{}, false
}

// Active returns the current active session. Only position 0 can be active:
// the list is ordered most-recent-first and at most one session per user is
// ever unfinished.
func (s *Store) Active() (models.TrainingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) > 0 && s.sessions[0].Active() {
		return s.sessions[0], true
	}
	return models.TrainingSession{}, false
}

// Hydrate fetches fresh detail for one session directly from the backend,
// bypassing the cache.
func (s *Store) Hydrate(ctx context.Context, sessionID string) (*models.TrainingSession, error) {
	return s.client.GetSession(ctx, s.userID, sessionID)
}
