// Package partners implements the debounced training-partner search used by
// the finish and edit dialogs.
package partners

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/claude/trainlog/internal/api"
	"github.com/claude/trainlog/internal/models"
)

const defaultLimit = 10

// Client is the slice of the REST client the searcher needs.
type Client interface {
	SearchUsers(ctx context.Context, fragment string, limit int) ([]models.Partner, error)
}

// Compile-time check: *api.Client satisfies Client.
var _ Client = (*api.Client)(nil)

// Searcher debounces handle lookups and discards stale responses. Each typed
// term restarts the debounce window; once it elapses, one request fires, and
// its response is applied only when no newer request has been issued and the
// term is still what the user sees. Dialogs each own their own Searcher; two
// open dialogs never share state.
type Searcher struct {
	client   Client
	log      *slog.Logger
	debounce time.Duration
	limit    int

	mu        sync.Mutex
	timer     *time.Timer
	seq       uint64
	applied   uint64
	term      string
	results   []models.Partner
	searching bool

	// onApplied is a test hook invoked after a response is accepted or
	// discarded.
	onApplied func()
}

// New creates a Searcher with the given debounce window.
func New(client Client, debounce time.Duration, log *slog.Logger) *Searcher {
	return &Searcher{client: client, debounce: debounce, limit: defaultLimit, log: log}
}

// SetTerm records what the user has typed. A pending debounce window is
// cancelled and restarted; a blank term clears the results immediately with
// no network traffic.
func (s *Searcher) SetTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.term = term

	if strings.TrimSpace(term) == "" {
		s.results = nil
		s.searching = false
		return
	}

	s.searching = true
	s.seq++
	seq := s.seq
	s.timer = time.AfterFunc(s.debounce, func() {
		s.fire(seq, term)
	})
}

// fire runs one search request after the debounce window. The response is
// dropped when a newer request exists or the term has moved on; a keystroke
// during a slow request must never resurface old results.
func (s *Searcher) fire(seq uint64, term string) {
	results, err := s.client.SearchUsers(context.Background(), term, s.limit)
	if err != nil {
		s.log.Warn("partner search failed", "term", term, "error", err)
		results = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq > s.applied && term == s.term {
		s.applied = seq
		s.results = results
		s.searching = false
	}
	if s.onApplied != nil {
		s.onApplied()
	}
}

// Results returns a copy of the current result list.
func (s *Searcher) Results() []models.Partner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Partner(nil), s.results...)
}

// Searching reports whether a lookup is pending for the current term.
func (s *Searcher) Searching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searching
}

// Term returns the current input text.
func (s *Searcher) Term() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}

// Reset clears the input and results, e.g. after a partner is selected.
func (s *Searcher) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.term = ""
	s.results = nil
	s.searching = false
}

// AddPartner appends a selected partner to a tag list unless the same pub_id
// is already tagged. The input slice is not mutated.
func AddPartner(list []models.Partner, p models.Partner) []models.Partner {
	for _, existing := range list {
		if existing.PubID == p.PubID {
			return list
		}
	}
	out := make([]models.Partner, 0, len(list)+1)
	out = append(out, list...)
	return append(out, p)
}

// RemovePartner drops a tagged partner by pub_id. The input slice is not
// mutated.
func RemovePartner(list []models.Partner, pubID string) []models.Partner {
	out := make([]models.Partner, 0, len(list))
	for _, p := range list {
		if p.PubID != pubID {
			out = append(out, p)
		}
	}
	return out
}
