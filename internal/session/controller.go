// Package session enforces the training-session state machine:
// NONE → ACTIVE (start) → HISTORICAL (finish). Historical sessions can be
// edited or deleted but never reactivated.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/claude/trainlog/internal/api"
	"github.com/claude/trainlog/internal/models"
	"github.com/claude/trainlog/internal/records"
)

var (
	// ErrActiveSessionExists rejects start while an unfinished session exists.
	ErrActiveSessionExists = errors.New("an active session already exists")
	// ErrNoActiveSession rejects finish when the id is not the active session.
	ErrNoActiveSession = errors.New("no matching active session")
	// ErrSessionNotFound rejects edit/delete of ids absent from the record store.
	ErrSessionNotFound = errors.New("session not found")
	// ErrOperationInFlight rejects a re-entrant trigger of the same action kind.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrFutureStart rejects a start timestamp in the future.
	ErrFutureStart = errors.New("started_at cannot be in the future")
)

// Mutator is the slice of the REST client the controller needs.
type Mutator interface {
	StartSession(ctx context.Context, userID string, req models.StartRequest) (string, error)
	FinishSession(ctx context.Context, userID, sessionID string, req models.FinishRequest) error
	EditSession(ctx context.Context, userID, sessionID string, req models.EditRequest) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
}

// Compile-time check: *api.Client satisfies Mutator.
var _ Mutator = (*api.Client)(nil)

// Controller validates lifecycle preconditions against the record store and
// applies mutations through the REST client. Every successful mutation ends
// in a full store refresh; no local state is created before server
// confirmation.
//
// Re-entrancy is guarded per action kind, not globally: a pending finish
// leaves start/edit/delete available, matching the one-flag-per-button UI.
type Controller struct {
	client Mutator
	store  *records.Store
	userID string
	log    *slog.Logger
	now    func() time.Time

	inflight inflightFlags
}

type inflightFlags struct {
	start  flag
	finish flag
	edit   flag
	del    flag
}

// New creates a Controller.
func New(client Mutator, store *records.Store, userID string, log *slog.Logger) *Controller {
	return &Controller{
		client: client,
		store:  store,
		userID: userID,
		log:    log,
		now:    time.Now,
	}
}

// StartPending reports whether a start request is in flight. The UI disables
// the corresponding button while true; the matching accessors below cover the
// other action kinds.
func (c *Controller) StartPending() bool { return c.inflight.start.Busy() }

// FinishPending reports whether a finish request is in flight.
func (c *Controller) FinishPending() bool { return c.inflight.finish.Busy() }

// EditPending reports whether an edit request is in flight.
func (c *Controller) EditPending() bool { return c.inflight.edit.Busy() }

// DeletePending reports whether a delete request is in flight.
func (c *Controller) DeletePending() bool { return c.inflight.del.Busy() }

// Start begins a new session at the current time, optionally at a gym.
// The most recent known session must be absent or finished.
func (c *Controller) Start(ctx context.Context, gym *models.Gym, autoDetected bool) (string, error) {
	release, err := c.inflight.start.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	if _, active := c.store.Active(); active {
		return "", ErrActiveSessionExists
	}

	startedAt := c.now().UTC()
	req := models.StartRequest{StartedAt: startedAt, IsAutoDetected: autoDetected}
	if gym != nil {
		req.GymPubID = gym.PubID
	}

	id, err := c.client.StartSession(ctx, c.userID, req)
	if err != nil {
		c.log.Error("start session failed", "error", err)
		return "", err
	}
	c.log.Info("session started", "session", id, "gym", req.GymPubID)

	if err := c.store.Refresh(ctx); err != nil {
		c.log.Warn("refresh after start failed", "error", err)
	}
	return id, nil
}

// StartAt begins a session with an explicit start time (retroactive entry).
func (c *Controller) StartAt(ctx context.Context, startedAt time.Time, gym *models.Gym, autoDetected bool) (string, error) {
	if startedAt.After(c.now()) {
		return "", ErrFutureStart
	}

	release, err := c.inflight.start.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	if _, active := c.store.Active(); active {
		return "", ErrActiveSessionExists
	}

	req := models.StartRequest{StartedAt: startedAt.UTC(), IsAutoDetected: autoDetected}
	if gym != nil {
		req.GymPubID = gym.PubID
	}

	id, err := c.client.StartSession(ctx, c.userID, req)
	if err != nil {
		c.log.Error("start session failed", "error", err)
		return "", err
	}

	if err := c.store.Refresh(ctx); err != nil {
		c.log.Warn("refresh after start failed", "error", err)
	}
	return id, nil
}

// Finish closes the active session, attaching the chosen entries and
// partners. sessionID must identify the currently-active session. Placeholder
// sets are dropped before submission; entries whose sets are all placeholders
// are kept with an empty set list.
func (c *Controller) Finish(ctx context.Context, sessionID string, entries []models.StrengthEntry, cardio []models.CardioEntry, partners []models.Partner) error {
	release, err := c.inflight.finish.acquire()
	if err != nil {
		return err
	}
	defer release()

	active, ok := c.store.Active()
	if !ok || active.PubID != sessionID {
		return ErrNoActiveSession
	}

	req := models.FinishRequest{FinishedAt: c.now().UTC()}
	if len(entries) > 0 {
		req.Menus = models.EntryPayloads(entries)
	}
	if len(cardio) > 0 {
		req.CardioMenus = models.CardioEntryPayloads(cardio)
	}
	if len(partners) > 0 {
		req.Partners = models.PartnersByHandle(partners)
	}

	if err := c.client.FinishSession(ctx, c.userID, sessionID, req); err != nil {
		c.log.Error("finish session failed", "session", sessionID, "error", err)
		return err
	}
	c.log.Info("session finished", "session", sessionID, "menus", len(entries), "partners", len(partners))

	if err := c.store.Refresh(ctx); err != nil {
		c.log.Warn("refresh after finish failed", "error", err)
	}
	return nil
}

// Edit replaces the editable fields of a session wholesale. started_at and
// finished_at are never touched. A nil gym clears the gym reference.
func (c *Controller) Edit(ctx context.Context, sessionID string, gym *models.Gym, entries []models.StrengthEntry, cardio []models.CardioEntry, partners []models.Partner) error {
	release, err := c.inflight.edit.acquire()
	if err != nil {
		return err
	}
	defer release()

	if _, ok := c.store.Get(sessionID); !ok {
		return ErrSessionNotFound
	}

	req := models.EditRequest{
		Menus:       models.EntryPayloads(entries),
		CardioMenus: models.CardioEntryPayloads(cardio),
		Partners:    models.PartnersByID(partners),
	}
	if gym != nil {
		req.GymPubID = models.String(gym.PubID)
	}

	if err := c.client.EditSession(ctx, c.userID, sessionID, req); err != nil {
		c.log.Error("edit session failed", "session", sessionID, "error", err)
		return err
	}
	c.log.Info("session edited", "session", sessionID)

	if err := c.store.Refresh(ctx); err != nil {
		c.log.Warn("refresh after edit failed", "error", err)
	}
	return nil
}

// Delete removes a session. Deleting an id the store does not know is an
// error: the UI always deletes from a currently-displayed list.
func (c *Controller) Delete(ctx context.Context, sessionID string) error {
	release, err := c.inflight.del.acquire()
	if err != nil {
		return err
	}
	defer release()

	if _, ok := c.store.Get(sessionID); !ok {
		return ErrSessionNotFound
	}

	if err := c.client.DeleteSession(ctx, c.userID, sessionID); err != nil {
		c.log.Error("delete session failed", "session", sessionID, "error", err)
		return err
	}
	c.log.Info("session deleted", "session", sessionID)

	if err := c.store.Refresh(ctx); err != nil {
		c.log.Warn("refresh after delete failed", "error", err)
	}
	return nil
}
