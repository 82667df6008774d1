package partners

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/trainlog/internal/models"
	"github.com/google/go-cmp/cmp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDirectory records search calls and can hold a response open to force
// out-of-order completion.
type fakeDirectory struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]models.Partner
	started map[string]chan struct{}
	block   map[string]chan struct{}
}

func (f *fakeDirectory) SearchUsers(ctx context.Context, fragment string, limit int) ([]models.Partner, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fragment)
	started := f.started[fragment]
	block := f.block[fragment]
	results := f.results[fragment]
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	return results, nil
}

func (f *fakeDirectory) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newSearcher(fake *fakeDirectory, debounce time.Duration) (*Searcher, chan struct{}) {
	s := New(fake, debounce, testLogger())
	applied := make(chan struct{}, 16)
	s.onApplied = func() { applied <- struct{}{} }
	return s, applied
}

func waitApplied(t *testing.T, applied chan struct{}) {
	t.Helper()
	select {
	case <-applied:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a search response")
	}
}

// TestDebounceCoalesces: three quick keystrokes produce one request, for the
// final term only.
func TestDebounceCoalesces(t *testing.T) {
	fake := &fakeDirectory{results: map[string][]models.Partner{
		"tar": {{PubID: "u2", Handle: "@taro"}},
	}}
	s, applied := newSearcher(fake, 40*time.Millisecond)

	s.SetTerm("t")
	s.SetTerm("ta")
	s.SetTerm("tar")
	if !s.Searching() {
		t.Error("Searching() = false during the debounce window")
	}
	waitApplied(t, applied)

	if got := fake.callLog(); len(got) != 1 || got[0] != "tar" {
		t.Errorf("calls = %v, want exactly [tar]", got)
	}
	want := []models.Partner{{PubID: "u2", Handle: "@taro"}}
	if diff := cmp.Diff(want, s.Results()); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if s.Searching() {
		t.Error("Searching() = true after response applied")
	}
}

// TestBlankTermClearsImmediately: clearing the input needs no network round
// trip and cancels any pending request.
func TestBlankTermClearsImmediately(t *testing.T) {
	fake := &fakeDirectory{results: map[string][]models.Partner{
		"ta": {{PubID: "u2", Handle: "@taro"}},
	}}
	s, applied := newSearcher(fake, time.Millisecond)

	s.SetTerm("ta")
	waitApplied(t, applied)
	if len(s.Results()) != 1 {
		t.Fatal("expected results before clearing")
	}

	s.SetTerm("")
	if got := s.Results(); len(got) != 0 {
		t.Errorf("results = %+v, want cleared", got)
	}
	if s.Searching() {
		t.Error("Searching() = true for a blank term")
	}
	if got := fake.callLog(); len(got) != 1 {
		t.Errorf("calls = %v, want no request for the blank term", got)
	}
}

// TestStaleResponseDiscarded: a slow response for an older term must not
// overwrite results for a newer one.
func TestStaleResponseDiscarded(t *testing.T) {
	fake := &fakeDirectory{
		results: map[string][]models.Partner{
			"a":  {{PubID: "u1", Handle: "@anna"}},
			"ab": {{PubID: "u2", Handle: "@abel"}},
		},
		started: map[string]chan struct{}{"a": make(chan struct{})},
		block:   map[string]chan struct{}{"a": make(chan struct{})},
	}
	s, applied := newSearcher(fake, time.Millisecond)

	s.SetTerm("a")
	<-fake.started["a"]

	s.SetTerm("ab")
	waitApplied(t, applied)
	want := []models.Partner{{PubID: "u2", Handle: "@abel"}}
	if diff := cmp.Diff(want, s.Results()); diff != "" {
		t.Fatalf("results mismatch before stale arrival (-want +got):\n%s", diff)
	}

	close(fake.block["a"])
	waitApplied(t, applied)
	if diff := cmp.Diff(want, s.Results()); diff != "" {
		t.Errorf("stale response overwrote results (-want +got):\n%s", diff)
	}
	if s.Searching() {
		t.Error("Searching() = true after stale response discarded")
	}
}

// TestInstancesIndependent: two dialogs searching at once do not share
// results.
func TestInstancesIndependent(t *testing.T) {
	fake := &fakeDirectory{results: map[string][]models.Partner{
		"taro": {{PubID: "u2", Handle: "@taro"}},
	}}
	first, applied := newSearcher(fake, time.Millisecond)
	second := New(fake, time.Millisecond, testLogger())

	first.SetTerm("taro")
	waitApplied(t, applied)

	if len(first.Results()) != 1 {
		t.Error("first searcher should have results")
	}
	if got := second.Results(); len(got) != 0 {
		t.Errorf("second searcher results = %+v, want untouched", got)
	}
	if second.Term() != "" {
		t.Errorf("second searcher term = %q, want untouched", second.Term())
	}
}

func TestResetClearsState(t *testing.T) {
	fake := &fakeDirectory{results: map[string][]models.Partner{
		"taro": {{PubID: "u2", Handle: "@taro"}},
	}}
	s, applied := newSearcher(fake, time.Millisecond)

	s.SetTerm("taro")
	waitApplied(t, applied)

	s.Reset()
	if s.Term() != "" || len(s.Results()) != 0 || s.Searching() {
		t.Errorf("Reset left state behind: term=%q results=%v searching=%v",
			s.Term(), s.Results(), s.Searching())
	}
}

func TestAddPartnerDeduplicates(t *testing.T) {
	taro := models.Partner{PubID: "u2", Handle: "@taro"}
	hana := models.Partner{PubID: "u3", Handle: "@hana"}

	list := AddPartner(nil, taro)
	list = AddPartner(list, hana)
	if len(list) != 2 {
		t.Fatalf("got %d partners, want 2", len(list))
	}

	again := AddPartner(list, taro)
	if len(again) != 2 {
		t.Errorf("duplicate pub_id was added: %+v", again)
	}
}

func TestRemovePartner(t *testing.T) {
	list := []models.Partner{
		{PubID: "u2", Handle: "@taro"},
		{PubID: "u3", Handle: "@hana"},
	}
	got := RemovePartner(list, "u2")
	if len(got) != 1 || got[0].PubID != "u3" {
		t.Errorf("RemovePartner = %+v, want only u3", got)
	}
	if len(list) != 2 {
		t.Error("input slice was mutated")
	}
	if got := RemovePartner(list, "missing"); len(got) != 2 {
		t.Errorf("removing unknown id changed the list: %+v", got)
	}
}
