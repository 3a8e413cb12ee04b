package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"volunteerhub/internal/database"
	"volunteerhub/internal/model"
)

func newTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := database.NewStore(dir, time.UTC)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	repo := NewRepository(store)
	if err := repo.Load(); err != nil {
		t.Fatalf("load empty store: %v", err)
	}
	return repo, dir
}

func testEvent(t *testing.T, name string) *model.Event {
	t.Helper()
	e, err := model.NewEventBuilder(name, "2024-05-04", "casey", model.RecurNone, time.UTC).Build()
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	return e
}

func TestAddEventAndCaseInsensitiveLookup(t *testing.T) {
	repo, _ := newTestRepo(t)

	if err := repo.AddEvent(testEvent(t, "Park Cleanup")); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := repo.FindEvent("Park Cleanup"); err != nil {
		t.Fatalf("exact lookup: %v", err)
	}
	if _, err := repo.FindEvent("park CLEANUP"); err != nil {
		t.Fatalf("case-variant lookup: %v", err)
	}
	if _, err := repo.FindEvent("Beach Cleanup"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateEventRejected(t *testing.T) {
	repo, _ := newTestRepo(t)

	if err := repo.AddEvent(testEvent(t, "Park Cleanup")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.AddEvent(testEvent(t, "PARK cleanup")); !errors.Is(err, ErrDuplicateEvent) {
		t.Fatalf("expected ErrDuplicateEvent, got %v", err)
	}
	if err := repo.AddEvent(testEvent(t, "Beach Cleanup")); err != nil {
		t.Fatalf("distinct name should succeed: %v", err)
	}
}

func TestWriteThroughPersistence(t *testing.T) {
	repo, dir := newTestRepo(t)

	if err := repo.AddEvent(testEvent(t, "Park Cleanup")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.AddUser(&model.User{Username: "casey", Password: "pw", Phone: "1", Email: "c@x.com", Zip: "55401"}); err != nil {
		t.Fatalf("add user: %v", err)
	}

	// A second repository over the same directory must see everything.
	store, err := database.NewStore(dir, time.UTC)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	fresh := NewRepository(store)
	if err := fresh.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, err := fresh.FindEvent("Park Cleanup"); err != nil {
		t.Fatalf("event not persisted: %v", err)
	}
	if _, err := fresh.FindUser("casey"); err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
}

func TestRetireMovesEventAndInsertsSuccessor(t *testing.T) {
	repo, _ := newTestRepo(t)

	e, err := model.NewEventBuilder("Cleanup", "2024-01-01", "casey", model.RecurWeekly, time.UTC).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := repo.AddEvent(e); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := repo.Retire("Cleanup", e.NextOccurrence()); err != nil {
		t.Fatalf("retire: %v", err)
	}

	retired, err := repo.FindRetiredEvent("Cleanup")
	if err != nil {
		t.Fatalf("retired event missing: %v", err)
	}
	if retired.DateString() != "2024-01-01" {
		t.Fatalf("retired wrong instance: %s", retired.DateString())
	}

	successor, err := repo.FindEvent("Cleanup")
	if err != nil {
		t.Fatalf("successor missing: %v", err)
	}
	if successor.DateString() != "2024-01-08" {
		t.Fatalf("expected successor on 2024-01-08, got %s", successor.DateString())
	}
}

func TestQueriesReturnCopies(t *testing.T) {
	repo, _ := newTestRepo(t)
	if err := repo.AddEvent(testEvent(t, "Park Cleanup")); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := repo.FindEvent("Park Cleanup")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	got.AddRSVP("mallory")

	again, err := repo.FindEvent("Park Cleanup")
	if err != nil {
		t.Fatalf("refind: %v", err)
	}
	if again.HasRSVP("mallory") {
		t.Fatal("mutating a query result must not touch canonical storage")
	}
}

func TestSearchPredicates(t *testing.T) {
	repo, _ := newTestRepo(t)

	a, _ := model.NewEventBuilder("Spring Cleanup", "2024-05-04", "Casey", model.RecurNone, time.UTC).
		Zip("55401").RSVP([]string{"ana"}).Build()
	b, _ := model.NewEventBuilder("fall cleanup", "2024-10-04", "dana", model.RecurNone, time.UTC).
		Zip("55402").Build()
	for _, e := range []*model.Event{a, b} {
		if err := repo.AddEvent(e); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	// Substring search is case-sensitive.
	if got := repo.SearchName("Cleanup"); len(got) != 1 || got[0].Name != "Spring Cleanup" {
		t.Fatalf("expected only Spring Cleanup, got %d results", len(got))
	}
	if got := repo.SearchName("cleanup"); len(got) != 1 || got[0].Name != "fall cleanup" {
		t.Fatalf("expected only fall cleanup, got %d results", len(got))
	}

	// Organizer search is case-insensitive.
	if got := repo.SearchOrganizer("casey"); len(got) != 1 || got[0].Name != "Spring Cleanup" {
		t.Fatalf("organizer search failed, got %d results", len(got))
	}

	if got := repo.SearchZip("55402"); len(got) != 1 || got[0].Name != "fall cleanup" {
		t.Fatalf("zip search failed, got %d results", len(got))
	}

	if got := repo.SearchRSVP("ana"); len(got) != 1 || got[0].Name != "Spring Cleanup" {
		t.Fatalf("rsvp search failed, got %d results", len(got))
	}
}

func TestUsersDuplicateAndUpdate(t *testing.T) {
	repo, _ := newTestRepo(t)

	u := &model.User{Username: "Casey", Password: "pw", Phone: "1", Email: "c@x.com", Zip: ""}
	if err := repo.AddUser(u); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if err := repo.AddUser(&model.User{Username: "casey"}); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}

	changed, err := repo.UpdateUser("casey", func(user *model.User) (bool, error) {
		user.Email = "new@x.com"
		return true, nil
	})
	if err != nil || !changed {
		t.Fatalf("update: changed=%v err=%v", changed, err)
	}
	got, err := repo.FindUser("casey")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Email != "new@x.com" {
		t.Fatalf("expected updated email, got %q", got.Email)
	}
}

func TestUpdateEventFailureLeavesStoredEventUntouched(t *testing.T) {
	repo, _ := newTestRepo(t)
	if err := repo.AddEvent(testEvent(t, "Park Cleanup")); err != nil {
		t.Fatalf("add: %v", err)
	}

	boom := errors.New("boom")
	changed, err := repo.UpdateEvent("Park Cleanup", func(e *model.Event) (bool, error) {
		e.SetLocation("Half Applied")
		return false, boom
	})
	if !errors.Is(err, boom) || changed {
		t.Fatalf("want the fn error back, got changed=%v err=%v", changed, err)
	}

	got, err := repo.FindEvent("Park Cleanup")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Location != model.TBD {
		t.Fatalf("failed update leaked partial state: %q", got.Location)
	}

	if _, err := repo.UpdateEvent("No Such Event", func(e *model.Event) (bool, error) {
		return true, nil
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadAbortsOnDuplicateUsers(t *testing.T) {
	dir := t.TempDir()
	lines := "casey pw 1 c@x.com 55401\nCASEY pw2 2 c2@x.com 55402\n"
	if err := os.WriteFile(filepath.Join(dir, "users.txt"), []byte(lines), 0o644); err != nil {
		t.Fatalf("seed users file: %v", err)
	}

	store, err := database.NewStore(dir, time.UTC)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := NewRepository(store).Load(); err == nil {
		t.Fatal("expected load to abort on duplicate usernames")
	}
}

func TestLoadAbortsOnMalformedEventFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "events.txt"), []byte("too few tokens\n"), 0o644); err != nil {
		t.Fatalf("seed events file: %v", err)
	}

	store, err := database.NewStore(dir, time.UTC)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := NewRepository(store).Load(); err == nil {
		t.Fatal("expected load to fail on malformed event record")
	}
}
