// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"volunteerhub/internal/model"
	"volunteerhub/internal/repository"
)

// EventService orchestrates event-related operations: creation, editing,
// RSVPs, the search pipeline, and popularity ranking.
type EventService struct {
	repo     *repository.Repository
	clock    model.Clock
	loc      *time.Location
	validate *validator.Validate
}

// NewEventService constructs an EventService. loc is the zone event times
// are entered and displayed in.
func NewEventService(repo *repository.Repository, clock model.Clock, loc *time.Location) *EventService {
	return &EventService{
		repo:     repo,
		clock:    clock,
		loc:      loc,
		validate: validator.New(),
	}
}

// CreateEvent validates the request, builds the event, and stores it.
// Callers can distinguish model.ErrInvalidRecurrence from
// repository.ErrDuplicateEvent.
func (s *EventService) CreateEvent(req model.CreateEventRequest) (*model.Event, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}

	event, err := model.NewEventBuilder(req.Name, req.Date, req.Organizer, model.ParseRecurrence(req.Recurrence), s.loc).
		Time(req.Time).
		Location(req.Location).
		Zip(req.Zip).
		Tags(req.Tags).
		Summary(req.Summary).
		Build()
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// EditEvent applies optional-field overrides to an existing event. With
// req.Reset the optional fields are cleared to sentinels first, then the
// non-empty overrides are applied ("clear then patch"). Required fields
// never change. The whole edit runs under the repository's writer lock so
// it cannot interleave with a concurrent mutation.
func (s *EventService) EditEvent(name string, req model.EditEventRequest) error {
	_, err := s.repo.UpdateEvent(name, func(event *model.Event) (bool, error) {
		if req.Reset {
			event.ResetOptional()
		}
		if req.Time != "" {
			if err := event.SetTime(req.Time, s.loc); err != nil {
				return false, fmt.Errorf("edit %q: %w", name, err)
			}
		}
		if req.Location != "" {
			event.SetLocation(req.Location)
		}
		if req.Zip != "" {
			event.SetZip(req.Zip)
		}
		if len(req.Tags) > 0 {
			event.SetTags(req.Tags)
		}
		if req.Summary != "" {
			event.SetSummary(req.Summary)
		}
		return true, nil
	})
	return err
}

// RemoveEvent deletes the named active event.
func (s *EventService) RemoveEvent(name string) error {
	return s.repo.RemoveEvent(name)
}

// Event returns the named active event.
func (s *EventService) Event(name string) (*model.Event, error) {
	return s.repo.FindEvent(name)
}

// RetiredEvent returns the named retired event.
func (s *EventService) RetiredEvent(name string) (*model.Event, error) {
	return s.repo.FindRetiredEvent(name)
}

// AllEvents returns every active event in chronological order.
func (s *EventService) AllEvents() []*model.Event {
	return sortEvents(s.repo.Events())
}

// AllRetiredEvents returns every retired event in chronological order.
func (s *EventService) AllRetiredEvents() []*model.Event {
	return sortEvents(s.repo.RetiredEvents())
}

// AddRSVP adds username to the named event's RSVP list. It returns false
// with a nil error when the user is already on the list; the list is left
// unchanged. The check and the append run under one lock hold, so two
// simultaneous RSVPs both land.
func (s *EventService) AddRSVP(username, eventName string) (bool, error) {
	return s.repo.UpdateEvent(eventName, func(event *model.Event) (bool, error) {
		if event.IsOrganizer(username) {
			return false, nil
		}
		return event.AddRSVP(username), nil
	})
}

// RemoveRSVP drops username from the named event's RSVP list. The
// organizer can never be removed: the call returns false and the list is
// untouched.
func (s *EventService) RemoveRSVP(username, eventName string) (bool, error) {
	return s.repo.UpdateEvent(eventName, func(event *model.Event) (bool, error) {
		if event.IsOrganizer(username) {
			return false, nil
		}
		return event.RemoveRSVP(username), nil
	})
}

// Search runs the fixed pipeline: base predicate, then date refinement,
// then tag refinement, then chronological sort. Filters compose with AND
// semantics.
func (s *EventService) Search(req model.SearchRequest) ([]*model.Event, error) {
	var results []*model.Event
	switch req.Type {
	case "name":
		results = s.repo.SearchName(req.Value)
	case "organizer":
		results = s.repo.SearchOrganizer(req.Value)
	case "zip":
		results = s.repo.SearchZip(req.Value)
	default:
		return nil, fmt.Errorf("unknown search type %q", req.Type)
	}

	if req.Date != "" {
		date, err := time.Parse(model.DateFormat, req.Date)
		if err != nil {
			return nil, fmt.Errorf("search date %q: %w", req.Date, err)
		}
		results = RefineByDate(results, date)
	}
	if len(req.Tags) > 0 {
		results = RefineByTags(results, req.Tags)
	}
	return sortEvents(results), nil
}

// EventsByRSVP returns the events username has RSVP'd to, chronologically.
func (s *EventService) EventsByRSVP(username string) []*model.Event {
	return sortEvents(s.repo.SearchRSVP(username))
}

// PopularEvents returns the n active events with the most RSVPs, most
// popular first. Ties break toward the earlier event in storage order.
// With n or fewer events in total, all of them come back unranked.
func (s *EventService) PopularEvents(n int) []*model.Event {
	events := s.repo.Events()
	if len(events) <= n {
		return events
	}

	picked := make([]bool, len(events))
	var out []*model.Event
	for len(out) < n {
		best := -1
		for i, e := range events {
			if picked[i] {
				continue
			}
			if best < 0 || len(e.RSVP) > len(events[best].RSVP) {
				best = i
			}
		}
		picked[best] = true
		out = append(out, events[best])
	}
	return out
}

// EventsWithinDay returns active events starting within the next 24 hours.
// All-day events count from midnight of their date in the display zone.
func (s *EventService) EventsWithinDay() []*model.Event {
	now := s.clock.Now()
	cutoff := now.Add(24 * time.Hour)

	var out []*model.Event
	for _, e := range s.repo.Events() {
		start := e.Start
		if !e.HasTime() {
			start = time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, s.loc)
		}
		if start.After(now) && !start.After(cutoff) {
			out = append(out, e)
		}
	}
	return sortEvents(out)
}

// RefineByDate keeps events falling exactly on date.
func RefineByDate(events []*model.Event, date time.Time) []*model.Event {
	var out []*model.Event
	for _, e := range events {
		if e.OnDate(date) {
			out = append(out, e)
		}
	}
	return out
}

// RefineByTags keeps events whose tag set contains every requested tag.
func RefineByTags(events []*model.Event, tags []string) []*model.Event {
	var out []*model.Event
	for _, e := range events {
		if e.HasTags(tags) {
			out = append(out, e)
		}
	}
	return out
}

// IsNotFound reports whether err is the repository's absence sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func sortEvents(events []*model.Event) []*model.Event {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Less(events[j])
	})
	return events
}
