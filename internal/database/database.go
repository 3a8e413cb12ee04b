// Package database owns the flat-file stores on disk: active events,
// retired events, and users, one file each under the data directory.
package database

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"volunteerhub/internal/codec"
	"volunteerhub/internal/model"
)

const (
	eventsFile    = "events.txt"
	oldEventsFile = "old_events.txt"
	usersFile     = "users.txt"
)

// Store reads and writes the three flat files. Every save is a full
// rewrite of all three, each written atomically (temp file + rename).
type Store struct {
	dir string
	loc *time.Location
}

// NewStore creates the data directory if needed and returns a Store whose
// event times are interpreted in loc.
func NewStore(dir string, loc *time.Location) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, loc: loc}, nil
}

// Dir returns the data directory path.
func (s *Store) Dir() string { return s.dir }

// LoadAll reads every store file. Missing files are first-run and load as
// empty collections; any malformed record fails the whole load.
func (s *Store) LoadAll() (active, retired []*model.Event, users []*model.User, err error) {
	active, err = s.loadEvents(eventsFile)
	if err != nil {
		return nil, nil, nil, err
	}
	retired, err = s.loadEvents(oldEventsFile)
	if err != nil {
		return nil, nil, nil, err
	}
	users, err = s.loadUsers()
	if err != nil {
		return nil, nil, nil, err
	}
	return active, retired, users, nil
}

// SaveAll rewrites all three store files from the given collections.
func (s *Store) SaveAll(active, retired []*model.Event, users []*model.User) error {
	if err := s.writeFile(eventsFile, func(f *os.File) error {
		return codec.WriteEvents(f, active)
	}); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := s.writeFile(oldEventsFile, func(f *os.File) error {
		return codec.WriteEvents(f, retired)
	}); err != nil {
		return fmt.Errorf("save retired events: %w", err)
	}
	if err := s.writeFile(usersFile, func(f *os.File) error {
		return codec.WriteUsers(f, users)
	}); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

func (s *Store) loadEvents(name string) ([]*model.Event, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	events, err := codec.ReadEvents(f, s.loc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return events, nil
}

func (s *Store) loadUsers() ([]*model.User, error) {
	f, err := os.Open(filepath.Join(s.dir, usersFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", usersFile, err)
	}
	defer f.Close()

	users, err := codec.ReadUsers(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", usersFile, err)
	}
	return users, nil
}

// writeFile writes one store file atomically: encode into a temp file in
// the same directory, then rename it over the target.
func (s *Store) writeFile(name string, encode func(*os.File) error) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(s.dir, name))
}
