package notify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"volunteerhub/internal/config"
	"volunteerhub/internal/database"
	"volunteerhub/internal/model"
	"volunteerhub/internal/repository"
	"volunteerhub/internal/service"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestNotifier(t *testing.T, now time.Time) (*Notifier, *service.EventService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := database.NewStore(dir, time.UTC)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	repo := repository.NewRepository(store)
	if err := repo.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	events := service.NewEventService(repo, fixedClock{now: now}, time.UTC)
	users := service.NewUserService(repo)

	// SMTP deliberately unconfigured: sends are skipped, bookkeeping runs.
	n, err := NewNotifier(dir, config.SMTPConfig{}, events, users)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	return n, events, dir
}

func TestOneDayRemindersMarkOnce(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	n, events, dir := newTestNotifier(t, now)

	if _, err := events.CreateEvent(model.CreateEventRequest{
		Name: "Park Cleanup", Date: "2024-05-11", Organizer: "casey", Time: "10:00",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	n.OneDayReminders()
	if !n.wasNotified("Park Cleanup", oneDayType) {
		t.Fatal("event should be marked notified after the pass")
	}

	// The mark persists with underscore escaping.
	data, err := os.ReadFile(filepath.Join(dir, notifiedFile))
	if err != nil {
		t.Fatalf("read notified list: %v", err)
	}
	if !strings.Contains(string(data), "Park_Cleanup oneday") {
		t.Fatalf("unexpected notified list contents: %q", string(data))
	}

	// A second pass finds the mark and stays idempotent.
	n.OneDayReminders()
	if got := len(n.notified); got != 1 {
		t.Fatalf("want one notified entry, got %d", got)
	}
}

func TestNotifiedListReloads(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	n, events, dir := newTestNotifier(t, now)

	if _, err := events.CreateEvent(model.CreateEventRequest{
		Name: "Park Cleanup", Date: "2024-05-11", Organizer: "casey", Time: "10:00",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	n.OneDayReminders()

	store, err := database.NewStore(dir, time.UTC)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	repo := repository.NewRepository(store)
	if err := repo.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	fresh, err := NewNotifier(dir, config.SMTPConfig{}, events, service.NewUserService(repo))
	if err != nil {
		t.Fatalf("reload notifier: %v", err)
	}
	if !fresh.wasNotified("Park Cleanup", oneDayType) {
		t.Fatal("notified mark lost across reload")
	}
}

func TestCatchUpReminderGating(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	n, events, _ := newTestNotifier(t, now)

	if _, err := events.CreateEvent(model.CreateEventRequest{
		Name: "Park Cleanup", Date: "2024-05-11", Organizer: "casey", Time: "10:00",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := events.CreateEvent(model.CreateEventRequest{
		Name: "Next Week", Date: "2024-05-17", Organizer: "casey",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Before the bulk pass there is no mark: the regular pass will cover
	// the joiner, so the catch-up does nothing.
	n.CatchUpReminder("ana", "Park Cleanup")
	if len(n.notified) != 0 {
		t.Fatalf("catch-up before the bulk pass must not mark, got %v", n.notified)
	}

	n.OneDayReminders()
	if !n.wasNotified("Park Cleanup", oneDayType) {
		t.Fatal("bulk pass did not mark the event")
	}

	// The catch-up send is per-user and never adds a second mark.
	n.CatchUpReminder("ana", "Park Cleanup")
	n.CatchUpReminder("ghost", "Park Cleanup")
	if got := len(n.notified); got != 1 {
		t.Fatalf("want exactly one mark after catch-ups, got %d", got)
	}

	// An event outside the one-day window is ignored even if marked.
	n.notified = append(n.notified, [2]string{"Next Week", oneDayType})
	n.CatchUpReminder("ana", "Next Week")
	if got := len(n.notified); got != 2 {
		t.Fatalf("out-of-window catch-up must not touch the list, got %d", got)
	}
}

func TestForgetDropsMarks(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	n, events, _ := newTestNotifier(t, now)

	if _, err := events.CreateEvent(model.CreateEventRequest{
		Name: "Park Cleanup", Date: "2024-05-11", Organizer: "casey", Time: "10:00",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	n.OneDayReminders()

	forgotten, err := events.Event("Park Cleanup")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	n.Forget([]*model.Event{forgotten})

	if n.wasNotified("Park Cleanup", oneDayType) {
		t.Fatal("forget left the mark behind")
	}
	n.OneDayReminders()
	if !n.wasNotified("Park Cleanup", oneDayType) {
		t.Fatal("forgotten event should be eligible for reminding again")
	}
}
