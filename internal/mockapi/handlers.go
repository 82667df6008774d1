package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/claude/trainlog/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Sessions ---

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	writeJSON(w, http.StatusOK, u.sortedSummaries())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	rec := u.findSession(chi.URLParam(r, "sessionID"))
	if rec == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, rec.TrainingSession)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.StartedAt.IsZero() {
		writeError(w, http.StatusBadRequest, "started_at is required")
		return
	}
	if req.StartedAt.After(time.Now().Add(time.Minute)) {
		writeError(w, http.StatusBadRequest, "started_at cannot be in the future")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	if u.activeSession() != nil {
		writeError(w, http.StatusConflict, "an active session already exists")
		return
	}

	rec := &sessionRecord{TrainingSession: models.TrainingSession{
		PubID:          uuid.NewString(),
		StartedAt:      req.StartedAt,
		IsAutoDetected: req.IsAutoDetected,
		Partners:       []models.Partner{},
		Menus:          []models.StrengthEntry{},
		CardioMenus:    []models.CardioEntry{},
	}}
	if req.GymPubID != "" {
		gym, ok := s.gyms[req.GymPubID]
		if !ok {
			writeError(w, http.StatusBadRequest, "gym not found: "+req.GymPubID)
			return
		}
		rec.Gym = &gym
	}

	u.sessions = append(u.sessions, rec)
	writeJSON(w, http.StatusOK, map[string]string{"pub_id": rec.PubID})
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	var req models.FinishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.FinishedAt.IsZero() {
		writeError(w, http.StatusBadRequest, "finished_at is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	rec := u.findSession(chi.URLParam(r, "sessionID"))
	if rec == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if rec.FinishedAt != nil {
		writeError(w, http.StatusConflict, "session already finished")
		return
	}
	if req.FinishedAt.Before(rec.StartedAt) {
		writeError(w, http.StatusBadRequest, "finished_at before started_at")
		return
	}

	menus, ok := s.resolveEntries(w, u, req.Menus)
	if !ok {
		return
	}
	cardio, ok := s.resolveCardioEntries(w, u, req.CardioMenus)
	if !ok {
		return
	}

	partners := []models.Partner{}
	for _, p := range req.Partners {
		snap, ok := s.partnerByHandle(p.Handle)
		if !ok {
			writeError(w, http.StatusBadRequest, "partner not found: "+p.Handle)
			return
		}
		partners = append(partners, snap)
	}

	finished := req.FinishedAt
	rec.FinishedAt = &finished
	rec.Menus = menus
	rec.CardioMenus = cardio
	rec.Partners = partners
	writeJSON(w, http.StatusOK, map[string]string{"pub_id": rec.PubID})
}

func (s *Server) handleEditSession(w http.ResponseWriter, r *http.Request) {
	var req models.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	rec := u.findSession(chi.URLParam(r, "sessionID"))
	if rec == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	menus, ok := s.resolveEntries(w, u, req.Menus)
	if !ok {
		return
	}
	cardio, ok := s.resolveCardioEntries(w, u, req.CardioMenus)
	if !ok {
		return
	}

	partners := []models.Partner{}
	for _, p := range req.Partners {
		snap, ok := s.partnerByID(p.PubID)
		if !ok {
			writeError(w, http.StatusBadRequest, "partner not found: "+p.PubID)
			return
		}
		partners = append(partners, snap)
	}

	// Full replace. gym_pub_id: null clears the gym.
	if req.GymPubID == nil {
		rec.Gym = nil
	} else {
		gym, ok := s.gyms[*req.GymPubID]
		if !ok {
			writeError(w, http.StatusBadRequest, "gym not found: "+*req.GymPubID)
			return
		}
		rec.Gym = &gym
	}
	rec.Menus = menus
	rec.CardioMenus = cardio
	rec.Partners = partners
	writeJSON(w, http.StatusOK, map[string]string{"pub_id": rec.PubID})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	sessionID := chi.URLParam(r, "sessionID")
	for i, rec := range u.sessions {
		if rec.PubID == sessionID {
			u.sessions = append(u.sessions[:i], u.sessions[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"pub_id": sessionID})
			return
		}
	}
	writeError(w, http.StatusNotFound, "session not found")
}

// resolveEntries snapshots menu names into entries. Callers hold mu; a false
// return means an error response was already written.
func (s *Server) resolveEntries(w http.ResponseWriter, u *userState, payloads []models.EntryPayload) ([]models.StrengthEntry, bool) {
	entries := []models.StrengthEntry{}
	for _, p := range payloads {
		var def *models.MenuDefinition
		for i := range u.menus {
			if u.menus[i].PubID == p.Menu.PubID {
				def = &u.menus[i]
				break
			}
		}
		if def == nil {
			writeError(w, http.StatusBadRequest, "menu not found: "+p.Menu.PubID)
			return nil, false
		}
		entries = append(entries, models.StrengthEntry{Menu: *def, Sets: p.Sets})
	}
	return entries, true
}

func (s *Server) resolveCardioEntries(w http.ResponseWriter, u *userState, payloads []models.CardioEntryPayload) ([]models.CardioEntry, bool) {
	entries := []models.CardioEntry{}
	for _, p := range payloads {
		var def *models.CardioMenuDefinition
		for i := range u.cardio {
			if u.cardio[i].PubID == p.Menu.PubID {
				def = &u.cardio[i]
				break
			}
		}
		if def == nil {
			writeError(w, http.StatusBadRequest, "cardio menu not found: "+p.Menu.PubID)
			return nil, false
		}
		entries = append(entries, models.CardioEntry{Menu: *def, Duration: p.Duration, Distance: p.Distance})
	}
	return entries, true
}

func (s *Server) partnerByHandle(handle string) (models.Partner, bool) {
	for _, p := range s.directory {
		if p.Handle == handle {
			return p, true
		}
	}
	return models.Partner{}, false
}

func (s *Server) partnerByID(pubID string) (models.Partner, bool) {
	for _, p := range s.directory {
		if p.PubID == pubID {
			return p, true
		}
	}
	return models.Partner{}, false
}

// --- Menu catalogs ---

func (s *Server) handleListMenus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	menus := u.menus
	if menus == nil {
		menus = []models.MenuDefinition{}
	}
	writeJSON(w, http.StatusOK, menus)
}

func (s *Server) handleListCardioMenus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	menus := u.cardio
	if menus == nil {
		menus = []models.CardioMenuDefinition{}
	}
	writeJSON(w, http.StatusOK, menus)
}

func (s *Server) handleCreateMenu(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def := models.MenuDefinition{PubID: uuid.NewString(), Name: req.Name}
	if req.Bodypart != nil {
		name, ok := s.bodyparts[req.Bodypart.PubID]
		if !ok {
			writeError(w, http.StatusBadRequest, "bodypart not found: "+req.Bodypart.PubID)
			return
		}
		def.Bodypart = &models.Bodypart{PubID: req.Bodypart.PubID, Name: name}
	}

	u := s.user(chi.URLParam(r, "userID"))
	u.menus = append(u.menus, def)
	writeJSON(w, http.StatusOK, map[string]string{"pub_id": def.PubID})
}

func (s *Server) handleCreateCardioMenu(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def := models.CardioMenuDefinition{PubID: uuid.NewString(), Name: req.Name}
	u := s.user(chi.URLParam(r, "userID"))
	u.cardio = append(u.cardio, def)
	writeJSON(w, http.StatusOK, map[string]string{"pub_id": def.PubID})
}

func (s *Server) handleRenameMenu(w http.ResponseWriter, r *http.Request) {
	var req models.RenameMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	menuID := chi.URLParam(r, "menuID")
	for i := range u.menus {
		if u.menus[i].PubID == menuID {
			u.menus[i].Name = req.Name
			writeJSON(w, http.StatusOK, map[string]string{"pub_id": menuID})
			return
		}
	}
	writeError(w, http.StatusNotFound, "menu not found")
}

func (s *Server) handleRenameCardioMenu(w http.ResponseWriter, r *http.Request) {
	var req models.RenameMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	menuID := chi.URLParam(r, "menuID")
	for i := range u.cardio {
		if u.cardio[i].PubID == menuID {
			u.cardio[i].Name = req.Name
			writeJSON(w, http.StatusOK, map[string]string{"pub_id": menuID})
			return
		}
	}
	writeError(w, http.StatusNotFound, "cardio menu not found")
}

func (s *Server) handleDeleteMenu(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	menuID := chi.URLParam(r, "menuID")
	for i := range u.menus {
		if u.menus[i].PubID == menuID {
			u.menus = append(u.menus[:i], u.menus[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"pub_id": menuID})
			return
		}
	}
	writeError(w, http.StatusNotFound, "menu not found")
}

func (s *Server) handleDeleteCardioMenu(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(chi.URLParam(r, "userID"))
	menuID := chi.URLParam(r, "menuID")
	for i := range u.cardio {
		if u.cardio[i].PubID == menuID {
			u.cardio = append(u.cardio[:i], u.cardio[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"pub_id": menuID})
			return
		}
	}
	writeError(w, http.StatusNotFound, "cardio menu not found")
}

// --- Lookups ---

func (s *Server) handleBodyparts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.bodyparts)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	fragment := r.URL.Query().Get("handle_id")
	if fragment == "" {
		writeError(w, http.StatusBadRequest, "handle_id parameter required")
		return
	}
	limit := 10

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.searchDirectory(fragment, limit)
	if users == nil {
		users = []models.Partner{}
	}
	writeJSON(w, http.StatusOK, users)
}
