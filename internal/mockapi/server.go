// Package mockapi is an in-memory stand-in for the fitness-social backend.
// It implements the training-state surface consumed by this client: session
// lifecycle, menu catalogs, bodyparts, and user search. cmd/trainlog-mockd
// serves it for local development; package tests run it via httptest.
package mockapi

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/claude/trainlog/internal/models"
	"github.com/go-chi/chi/v5"
)

// Server holds the mock state and routes.
type Server struct {
	mu        sync.Mutex
	log       *slog.Logger
	token     string
	router    chi.Router
	users     map[string]*userState
	directory []models.Partner
	bodyparts map[string]string
	gyms      map[string]models.Gym
}

type userState struct {
	sessions []*sessionRecord
	menus    []models.MenuDefinition
	cardio   []models.CardioMenuDefinition
}

type sessionRecord struct {
	models.TrainingSession
}

// New creates a mock server. token is the bearer token accepted on
// authenticated routes; an empty token disables the check.
func New(token string, log *slog.Logger) *Server {
	s := &Server{
		log:       log,
		token:     token,
		router:    chi.NewRouter(),
		users:     map[string]*userState{},
		bodyparts: map[string]string{},
		gyms:      map[string]models.Gym{},
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))

	s.router.Get("/bodyparts", s.handleBodyparts)
	s.router.Get("/users", s.handleSearchUsers)

	s.router.Route("/users/{userID}", func(r chi.Router) {
		r.Use(BearerAuth(s.token))

		r.Route("/status", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleStartSession)
			r.Get("/{sessionID}", s.handleGetSession)
			r.Patch("/{sessionID}", s.handleEditSession)
			r.Delete("/{sessionID}", s.handleDeleteSession)
			r.Post("/{sessionID}/finish", s.handleFinishSession)
		})

		r.Route("/menus", func(r chi.Router) {
			r.Get("/", s.handleListMenus)
			r.Post("/", s.handleCreateMenu)
			r.Patch("/{menuID}", s.handleRenameMenu)
			r.Delete("/{menuID}", s.handleDeleteMenu)
		})

		r.Route("/menus_cardio", func(r chi.Router) {
			r.Get("/", s.handleListCardioMenus)
			r.Post("/", s.handleCreateCardioMenu)
			r.Patch("/{menuID}", s.handleRenameCardioMenu)
			r.Delete("/{menuID}", s.handleDeleteCardioMenu)
		})
	})
}

// BearerAuth returns middleware that validates the Authorization header.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}
			if auth != "Bearer "+token {
				http.Error(w, `{"error":"invalid bearer token"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", sw.status)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// --- Seeding (used by trainlog-mockd and tests) ---

// AddUser registers an empty user state.
func (s *Server) AddUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID)
}

// SeedDirectory sets the searchable user directory.
func (s *Server) SeedDirectory(users []models.Partner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory = append([]models.Partner(nil), users...)
}

// SeedBodyparts sets the bodypart id→name map.
func (s *Server) SeedBodyparts(parts map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, name := range parts {
		s.bodyparts[id] = name
	}
}

// SeedGyms registers gyms resolvable by pub_id on start/edit.
func (s *Server) SeedGyms(gyms []models.Gym) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range gyms {
		s.gyms[g.PubID] = g
	}
}

// SeedMenus installs catalog entries for a user.
func (s *Server) SeedMenus(userID string, menus []models.MenuDefinition, cardio []models.CardioMenuDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	u.menus = append(u.menus, menus...)
	u.cardio = append(u.cardio, cardio...)
}

// user returns (creating if needed) a user's state. Caller holds mu.
func (s *Server) user(userID string) *userState {
	u, ok := s.users[userID]
	if !ok {
		u = &userState{}
		s.users[userID] = u
	}
	return u
}

// sortedSummaries returns summaries most-recent-first. Caller holds mu.
func (u *userState) sortedSummaries() []models.SessionSummary {
	records := append([]*sessionRecord(nil), u.sessions...)
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	summaries := make([]models.SessionSummary, 0, len(records))
	for _, rec := range records {
		sum := models.SessionSummary{
			PubID:          rec.PubID,
			StartedAt:      rec.StartedAt,
			FinishedAt:     rec.FinishedAt,
			IsAutoDetected: rec.IsAutoDetected,
		}
		if rec.Gym != nil {
			sum.GymPubID = rec.Gym.PubID
		}
		summaries = append(summaries, sum)
	}
	return summaries
}

// findSession returns the record with the given id. Caller holds mu.
func (u *userState) findSession(sessionID string) *sessionRecord {
	for _, rec := range u.sessions {
		if rec.PubID == sessionID {
			return rec
		}
	}
	return nil
}

// activeSession returns the unfinished record, if any. Caller holds mu.
func (u *userState) activeSession() *sessionRecord {
	for _, rec := range u.sessions {
		if rec.FinishedAt == nil {
			return rec
		}
	}
	return nil
}

func (s *Server) searchDirectory(fragment string, limit int) []models.Partner {
	var out []models.Partner
	for _, p := range s.directory {
		if strings.Contains(strings.ToLower(p.Handle), strings.ToLower(fragment)) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
