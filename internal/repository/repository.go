// Package repository owns the canonical in-memory collections (active
// events, retired events, users), loaded from the flat-file store at
// startup and flushed in full after every mutation.
//
// All mutating operations serialize behind one writer lock and rewrite all
// three store files before returning, so two concurrent RSVPs can never
// drop each other's change. Queries hand out clones, never aliases of
// canonical storage.
package repository

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"volunteerhub/internal/database"
	"volunteerhub/internal/model"
)

// ErrNotFound is returned when a requested event or user does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEvent is returned when an event's name collides with an
// existing active event, case-insensitively.
var ErrDuplicateEvent = errors.New("an event with that name already exists")

// ErrDuplicateUser is returned when a username is already taken,
// case-insensitively.
var ErrDuplicateUser = errors.New("that username is already taken")

// Repository holds the three collections. Scale is tens to low hundreds of
// entities, so every lookup is a linear scan.
type Repository struct {
	mu      sync.Mutex
	store   *database.Store
	active  []*model.Event
	retired []*model.Event
	users   []*model.User
}

// NewRepository constructs an empty repository over the given store.
// Call Load before serving requests.
func NewRepository(store *database.Store) *Repository {
	return &Repository{store: store}
}

// Load reads all three files and rebuilds the collections. Duplicate keys
// abort the load: partial or conflicting data must not come up as a
// healthy store.
func (r *Repository) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	active, retired, users, err := r.store.LoadAll()
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(active))
	for _, e := range active {
		key := strings.ToLower(e.Name)
		if seen[key] {
			return fmt.Errorf("load events: duplicate event name %q", e.Name)
		}
		seen[key] = true
	}
	seen = make(map[string]bool, len(users))
	for _, u := range users {
		key := strings.ToLower(u.Username)
		if seen[key] {
			return fmt.Errorf("load users: duplicate username %q", u.Username)
		}
		seen[key] = true
	}

	r.active, r.retired, r.users = active, retired, users
	return nil
}

// save flushes all three collections. Callers must hold the lock.
func (r *Repository) save() error {
	return r.store.SaveAll(r.active, r.retired, r.users)
}

// ─── Events ──────────────────────────────────────────────────────────────

// Events returns a fresh copy of the active collection in storage order.
func (r *Repository) Events() []*model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneEvents(r.active)
}

// RetiredEvents returns a fresh copy of the retired collection.
func (r *Repository) RetiredEvents() []*model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneEvents(r.retired)
}

// FindEvent returns the active event with the given name
// (case-insensitive) or ErrNotFound.
func (r *Repository) FindEvent(name string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := findEvent(r.active, name); e != nil {
		return e.Clone(), nil
	}
	return nil, ErrNotFound
}

// FindRetiredEvent returns the retired event with the given name or
// ErrNotFound.
func (r *Repository) FindRetiredEvent(name string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := findEvent(r.retired, name); e != nil {
		return e.Clone(), nil
	}
	return nil, ErrNotFound
}

// AddEvent appends a new active event and persists. The name must be free
// among active events, case-insensitively.
func (r *Repository) AddEvent(e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if findEvent(r.active, e.Name) != nil {
		return ErrDuplicateEvent
	}
	r.active = append(r.active, e.Clone())
	return r.save()
}

// RemoveEvent deletes the named active event and persists.
func (r *Repository) RemoveEvent(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.active {
		if e.HasName(name) {
			r.active = append(r.active[:i], r.active[i+1:]...)
			return r.save()
		}
	}
	return ErrNotFound
}

// UpdateEvent applies fn to the named active event and persists, all under
// the writer lock, so a concurrent read-modify-write can never drop a
// change. fn reports whether it changed the event; an unchanged event skips
// the save. fn works on a clone that becomes canonical only on success, so
// an error partway leaves the stored event untouched. fn must not retain
// the event past its return.
func (r *Repository) UpdateEvent(name string, fn func(*model.Event) (bool, error)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.active {
		if cur.HasName(name) {
			updated := cur.Clone()
			changed, err := fn(updated)
			if err != nil || !changed {
				return false, err
			}
			r.active[i] = updated
			return true, r.save()
		}
	}
	return false, ErrNotFound
}

// Retire moves the named event from active to retired, inserts successor
// into active when non-nil, and persists once. The transition is one-way.
func (r *Repository) Retire(name string, successor *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.active {
		if e.HasName(name) {
			r.active = append(r.active[:i], r.active[i+1:]...)
			r.retired = append(r.retired, e)
			if successor != nil {
				r.active = append(r.active, successor.Clone())
			}
			return r.save()
		}
	}
	return ErrNotFound
}

// ─── Event queries ───────────────────────────────────────────────────────

// SearchName returns active events whose name contains text. The match is
// case-sensitive, unlike exact-name lookup; both behaviors are pinned by
// tests.
func (r *Repository) SearchName(text string) []*model.Event {
	return r.filter(func(e *model.Event) bool {
		return strings.Contains(e.Name, text)
	})
}

// SearchOrganizer returns active events organized by the given user
// (case-insensitive exact match).
func (r *Repository) SearchOrganizer(username string) []*model.Event {
	return r.filter(func(e *model.Event) bool {
		return e.IsOrganizer(username)
	})
}

// SearchZip returns active events in the given postal code.
func (r *Repository) SearchZip(zip string) []*model.Event {
	return r.filter(func(e *model.Event) bool {
		return e.InZip(zip)
	})
}

// SearchRSVP returns active events with the given user on the RSVP list.
func (r *Repository) SearchRSVP(username string) []*model.Event {
	return r.filter(func(e *model.Event) bool {
		return e.HasRSVP(username)
	})
}

func (r *Repository) filter(keep func(*model.Event) bool) []*model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Event
	for _, e := range r.active {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// ─── Users ───────────────────────────────────────────────────────────────

// Users returns a fresh copy of the user collection.
func (r *Repository) Users() []*model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, len(r.users))
	for i, u := range r.users {
		out[i] = u.Clone()
	}
	return out
}

// FindUser returns the user with the given username (case-insensitive) or
// ErrNotFound.
func (r *Repository) FindUser(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := findUser(r.users, username); u != nil {
		return u.Clone(), nil
	}
	return nil, ErrNotFound
}

// AddUser appends a new user and persists. The username must be free,
// case-insensitively.
func (r *Repository) AddUser(u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if findUser(r.users, u.Username) != nil {
		return ErrDuplicateUser
	}
	r.users = append(r.users, u.Clone())
	return r.save()
}

// UpdateUser applies fn to the named user and persists under the writer
// lock, with the same contract as UpdateEvent.
func (r *Repository) UpdateUser(username string, fn func(*model.User) (bool, error)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.users {
		if cur.Is(username) {
			updated := cur.Clone()
			changed, err := fn(updated)
			if err != nil || !changed {
				return false, err
			}
			r.users[i] = updated
			return true, r.save()
		}
	}
	return false, ErrNotFound
}

func findEvent(events []*model.Event, name string) *model.Event {
	for _, e := range events {
		if e.HasName(name) {
			return e
		}
	}
	return nil
}

func findUser(users []*model.User, username string) *model.User {
	for _, u := range users {
		if u.Is(username) {
			return u
		}
	}
	return nil
}

func cloneEvents(events []*model.Event) []*model.Event {
	out := make([]*model.Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}
