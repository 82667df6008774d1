package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/trainlog/internal/api"
	"github.com/claude/trainlog/internal/mockapi"
	"github.com/claude/trainlog/internal/models"
	"github.com/claude/trainlog/internal/records"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	backend    *mockapi.Server
	client     *api.Client
	store      *records.Store
	controller *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := mockapi.New("", testLogger())
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	backend.AddUser("me")
	backend.SeedGyms([]models.Gym{{PubID: "g1", Name: "Shibuya"}})
	backend.SeedMenus("me",
		[]models.MenuDefinition{{PubID: "m1", Name: "Bench Press"}},
		[]models.CardioMenuDefinition{{PubID: "c1", Name: "Treadmill"}})
	backend.SeedDirectory([]models.Partner{{PubID: "u2", Handle: "@taro"}})

	client := api.New(ts.URL, "")
	store := records.New(client, "me", testLogger())
	return &fixture{
		backend:    backend,
		client:     client,
		store:      store,
		controller: New(client, store, "me", testLogger()),
	}
}

// TestStartWithoutGym covers the bare start scenario: position 0 becomes an
// active session with no gym.
func TestStartWithoutGym(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Start(ctx, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	sessions := f.store.ListSummaries()
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].PubID != id {
		t.Errorf("position 0 = %s, want %s", sessions[0].PubID, id)
	}
	if sessions[0].FinishedAt != nil {
		t.Error("finished_at should be absent on a fresh session")
	}
	if sessions[0].Gym != nil {
		t.Error("gym should be absent when started without one")
	}
}

// TestStartRejectedWhileActive: the controller must not rely on UI
// disablement alone.
func TestStartRejectedWhileActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.controller.Start(ctx, nil, false); err != nil {
		t.Fatal(err)
	}
	if _, err := f.controller.Start(ctx, nil, false); !errors.Is(err, ErrActiveSessionExists) {
		t.Errorf("second start err = %v, want ErrActiveSessionExists", err)
	}
}

// TestFinishDropsPlaceholderSets covers the [{60,10},{}] → [{60,10}] scenario.
func TestFinishDropsPlaceholderSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Start(ctx, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	entries := []models.StrengthEntry{{
		Menu: models.MenuDefinition{PubID: "m1", Name: "Bench Press"},
		Sets: []models.SetRecord{{Weight: models.Float(60), Reps: models.Int(10)}, {}},
	}}
	if err := f.controller.Finish(ctx, id, entries, nil, nil); err != nil {
		t.Fatal(err)
	}

	detail, err := f.store.Hydrate(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.Menus) != 1 {
		t.Fatalf("got %d entries, want 1", len(detail.Menus))
	}
	sets := detail.Menus[0].Sets
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want exactly the one real set", len(sets))
	}
	if sets[0].Weight == nil || *sets[0].Weight != 60 || sets[0].Reps == nil || *sets[0].Reps != 10 {
		t.Errorf("set = %+v, want {60,10}", sets[0])
	}
}

// TestFinishIdempotenceRejection: a second finish of a historical session is
// rejected client-side and finished_at is untouched.
func TestFinishIdempotenceRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Start(ctx, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.controller.Finish(ctx, id, nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	before, ok := f.store.Get(id)
	if !ok || before.FinishedAt == nil {
		t.Fatal("session should be historical")
	}

	if err := f.controller.Finish(ctx, id, nil, nil, nil); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("second finish err = %v, want ErrNoActiveSession", err)
	}

	after, _ := f.store.Get(id)
	if !after.FinishedAt.Equal(*before.FinishedAt) {
		t.Error("finished_at changed on rejected finish")
	}
}

// TestEditGymRoundTrip covers gym null → g1 → null, and full replace.
func TestEditGymRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Start(ctx, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.controller.Finish(ctx, id, nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	gym := &models.Gym{PubID: "g1", Name: "Shibuya"}
	partners := []models.Partner{{PubID: "u2", Handle: "@taro"}}
	if err := f.controller.Edit(ctx, id, gym, nil, nil, partners); err != nil {
		t.Fatal(err)
	}

	detail, _ := f.store.Get(id)
	if detail.Gym == nil || detail.Gym.PubID != "g1" {
		t.Fatalf("gym = %+v, want g1", detail.Gym)
	}
	if len(detail.Partners) != 1 || detail.Partners[0].PubID != "u2" {
		t.Errorf("partners = %+v, want u2", detail.Partners)
	}

	if err := f.controller.Edit(ctx, id, nil, nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	detail, _ = f.store.Get(id)
	if detail.Gym != nil {
		t.Errorf("gym = %+v, want absent after explicit clear", detail.Gym)
	}
	if len(detail.Partners) != 0 {
		t.Errorf("partners = %+v, want replaced to empty", detail.Partners)
	}
}

// TestEditUnknownSession is rejected before any network call.
func TestEditUnknownSession(t *testing.T) {
	f := newFixture(t)
	if err := f.controller.Edit(context.Background(), "nope", nil, nil, nil, nil); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

// TestDeleteOnlySession: list empties and a new start succeeds.
func TestDeleteOnlySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.controller.Start(ctx, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.controller.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if got := f.store.ListSummaries(); len(got) != 0 {
		t.Fatalf("sessions = %+v, want empty", got)
	}

	if err := f.controller.Delete(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second delete err = %v, want ErrSessionNotFound", err)
	}

	if _, err := f.controller.Start(ctx, nil, false); err != nil {
		t.Errorf("start after delete failed: %v", err)
	}
}

// TestStartAtRejectsFuture covers the retroactive-start validation.
func TestStartAtRejectsFuture(t *testing.T) {
	f := newFixture(t)
	_, err := f.controller.StartAt(context.Background(), time.Now().Add(time.Hour), nil, false)
	if !errors.Is(err, ErrFutureStart) {
		t.Errorf("err = %v, want ErrFutureStart", err)
	}
}

// blockingMutator blocks FinishSession until released, for in-flight tests.
type blockingMutator struct {
	Mutator
	started chan struct{}
	release chan struct{}
}

func (m *blockingMutator) FinishSession(ctx context.Context, userID, sessionID string, req models.FinishRequest) error {
	close(m.started)
	<-m.release
	return nil
}

type staticFetcher struct {
	sessions []models.SessionSummary
	details  map[string]*models.TrainingSession
}

func (f *staticFetcher) ListSessions(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	return f.sessions, nil
}

func (f *staticFetcher) GetSession(ctx context.Context, userID, sessionID string) (*models.TrainingSession, error) {
	return f.details[sessionID], nil
}

// TestFinishDoubleSubmitGuard: a second finish while one is pending is
// rejected, not queued; an unrelated action kind stays available.
func TestFinishDoubleSubmitGuard(t *testing.T) {
	started := time.Now().Add(-time.Hour)
	fetcher := &staticFetcher{
		sessions: []models.SessionSummary{{PubID: "s1", StartedAt: started}},
		details:  map[string]*models.TrainingSession{"s1": {PubID: "s1", StartedAt: started}},
	}
	store := records.New(fetcher, "me", testLogger())
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	blocking := &blockingMutator{started: make(chan struct{}), release: make(chan struct{})}
	controller := New(blocking, store, "me", testLogger())

	done := make(chan error, 1)
	go func() {
		done <- controller.Finish(context.Background(), "s1", nil, nil, nil)
	}()
	<-blocking.started

	if err := controller.Finish(context.Background(), "s1", nil, nil, nil); !errors.Is(err, ErrOperationInFlight) {
		t.Errorf("concurrent finish err = %v, want ErrOperationInFlight", err)
	}
	if !controller.FinishPending() {
		t.Error("FinishPending() = false during pending finish")
	}

	// Unrelated action kinds are not blocked by the pending finish.
	if err := controller.Delete(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("delete during finish err = %v, want precondition error, not in-flight", err)
	}

	close(blocking.release)
	if err := <-done; err != nil {
		t.Fatalf("first finish failed: %v", err)
	}
	if controller.FinishPending() {
		t.Error("FinishPending() = true after completion")
	}
}
