package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/claude/trainlog/internal/api"
	"github.com/claude/trainlog/internal/mockapi"
	"github.com/claude/trainlog/internal/models"
	"github.com/google/go-cmp/cmp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCatalog(t *testing.T) (*mockapi.Server, *api.Client, *Catalog) {
	t.Helper()
	backend := mockapi.New("", testLogger())
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	backend.AddUser("me")
	backend.SeedBodyparts(map[string]string{"bp1": "Chest", "bp2": "Legs"})
	backend.SeedMenus("me",
		[]models.MenuDefinition{
			{PubID: "m1", Name: "Bench Press", Bodypart: &models.Bodypart{PubID: "bp1", Name: "Chest"}},
			{PubID: "m2", Name: "Squat", Bodypart: &models.Bodypart{PubID: "bp2", Name: "Legs"}},
		},
		[]models.CardioMenuDefinition{{PubID: "c1", Name: "Treadmill"}})

	client := api.New(ts.URL, "")
	cat := New(client, "me", testLogger())
	if err := cat.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	return backend, client, cat
}

func TestFilterCategories(t *testing.T) {
	_, _, cat := newCatalog(t)

	tests := []struct {
		category string
		want     []Item
	}{
		{CategoryAll, []Item{
			{PubID: "m1", Name: "Bench Press", Bodypart: "Chest"},
			{PubID: "m2", Name: "Squat", Bodypart: "Legs"},
			{PubID: "c1", Name: "Treadmill", Cardio: true},
		}},
		{CategoryCardio, []Item{
			{PubID: "c1", Name: "Treadmill", Cardio: true},
		}},
		{"Chest", []Item{
			{PubID: "m1", Name: "Bench Press", Bodypart: "Chest"},
		}},
		{"Back", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, cat.Filter(tt.category)); diff != "" {
			t.Errorf("Filter(%q) mismatch (-want +got):\n%s", tt.category, diff)
		}
	}
}

func TestCategoryOptions(t *testing.T) {
	_, _, cat := newCatalog(t)

	want := []string{CategoryAll, CategoryCardio, "Chest", "Legs"}
	if diff := cmp.Diff(want, cat.CategoryOptions()); diff != "" {
		t.Errorf("CategoryOptions mismatch (-want +got):\n%s", diff)
	}
}

// TestRenameDispatch: the same Rename call routes to whichever catalog holds
// the id, and patches the cache without a full refresh.
func TestRenameDispatch(t *testing.T) {
	_, client, cat := newCatalog(t)
	ctx := context.Background()

	if err := cat.Rename(ctx, "c1", "Rowing Machine"); err != nil {
		t.Fatal(err)
	}
	if got := cat.CardioMenus(); got[0].Name != "Rowing Machine" {
		t.Errorf("cached cardio name = %q, want patched", got[0].Name)
	}
	serverCardio, err := client.ListCardioMenus(ctx, "me")
	if err != nil {
		t.Fatal(err)
	}
	if serverCardio[0].Name != "Rowing Machine" {
		t.Errorf("server cardio name = %q, want renamed", serverCardio[0].Name)
	}

	if err := cat.Rename(ctx, "m1", "Incline Bench"); err != nil {
		t.Fatal(err)
	}
	if got := cat.Menus(); got[0].Name != "Incline Bench" {
		t.Errorf("cached menu name = %q, want patched", got[0].Name)
	}

	if err := cat.Rename(ctx, "missing", "X"); !errors.Is(err, ErrMenuNotFound) {
		t.Errorf("rename unknown err = %v, want ErrMenuNotFound", err)
	}
	if err := cat.Rename(ctx, "m1", "  "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("rename blank err = %v, want ErrEmptyName", err)
	}
}

// TestDeleteDispatch mirrors the rename routing for deletion.
func TestDeleteDispatch(t *testing.T) {
	_, client, cat := newCatalog(t)
	ctx := context.Background()

	if err := cat.Delete(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if got := cat.CardioMenus(); len(got) != 0 {
		t.Errorf("cached cardio = %+v, want empty", got)
	}
	serverCardio, err := client.ListCardioMenus(ctx, "me")
	if err != nil {
		t.Fatal(err)
	}
	if len(serverCardio) != 0 {
		t.Errorf("server cardio = %+v, want empty", serverCardio)
	}

	if err := cat.Delete(ctx, "m2"); err != nil {
		t.Fatal(err)
	}
	got := cat.Menus()
	if len(got) != 1 || got[0].PubID != "m1" {
		t.Errorf("cached menus = %+v, want only m1", got)
	}

	if err := cat.Delete(ctx, "c1"); !errors.Is(err, ErrMenuNotFound) {
		t.Errorf("delete twice err = %v, want ErrMenuNotFound", err)
	}
}

func TestCreateStrengthWithBodypart(t *testing.T) {
	_, _, cat := newCatalog(t)
	ctx := context.Background()

	if err := cat.Create(ctx, "Deadlift", "bp2", false); err != nil {
		t.Fatal(err)
	}

	menus := cat.Menus()
	if len(menus) != 3 {
		t.Fatalf("got %d menus, want 3", len(menus))
	}
	created := menus[2]
	if created.Name != "Deadlift" {
		t.Errorf("name = %q, want Deadlift", created.Name)
	}
	if created.Bodypart == nil || created.Bodypart.Name != "Legs" {
		t.Errorf("bodypart = %+v, want Legs", created.Bodypart)
	}
	if created.PubID == "" {
		t.Error("created menu should carry a server-assigned id")
	}
}

// TestCreateCardioIgnoresBodypart: the body-part choice is meaningless for
// cardio and must not leak into the request.
func TestCreateCardioIgnoresBodypart(t *testing.T) {
	_, _, cat := newCatalog(t)
	ctx := context.Background()

	if err := cat.Create(ctx, "Cycling", "bp1", true); err != nil {
		t.Fatal(err)
	}

	cardio := cat.CardioMenus()
	if len(cardio) != 2 || cardio[1].Name != "Cycling" {
		t.Fatalf("cardio = %+v, want Treadmill + Cycling", cardio)
	}
	// Strength catalog untouched.
	if got := cat.Menus(); len(got) != 2 {
		t.Errorf("menus = %+v, want unchanged", got)
	}
}

func TestCreateEmptyName(t *testing.T) {
	_, _, cat := newCatalog(t)
	if err := cat.Create(context.Background(), "   ", "", false); !errors.Is(err, ErrEmptyName) {
		t.Errorf("err = %v, want ErrEmptyName", err)
	}
}
