package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRecurrence rejects monthly events dated past the 28th, since
// later days do not exist in every month.
var ErrInvalidRecurrence = errors.New("monthly events must fall on day 28 or earlier")

// EventBuilder assembles an Event from its required fields plus any number
// of chained optional setters. Setters record the first failure; Build
// surfaces it.
//
//	e, err := model.NewEventBuilder("Park Cleanup", "2024-05-04", "casey", model.RecurWeekly, loc).
//		Time("09:30").
//		Location("Riverside Park").
//		Tags([]string{"Moving"}).
//		Build()
type EventBuilder struct {
	event Event
	loc   *time.Location
	err   error
}

// NewEventBuilder starts a builder with the required fields. date must be
// YYYY-MM-DD; loc is the zone event times are entered in.
func NewEventBuilder(name, date, organizer string, recurrence Recurrence, loc *time.Location) *EventBuilder {
	b := &EventBuilder{
		event: Event{
			Name:       name,
			Organizer:  organizer,
			Recurrence: recurrence,
			Location:   TBD,
			Zip:        TBD,
			Tags:       []string{NoTags},
			Summary:    NoSummary,
		},
		loc: loc,
	}
	d, err := time.Parse(DateFormat, date)
	if err != nil {
		b.err = fmt.Errorf("event date %q: %w", date, err)
		return b
	}
	b.event.Date = DateOnly(d)
	return b
}

// Time sets the start time from an HH:MM string. Empty or TBD leaves the
// event all-day.
func (b *EventBuilder) Time(hhmm string) *EventBuilder {
	if b.err != nil {
		return b
	}
	start, err := resolveStart(b.event.Date, hhmm, b.loc)
	if err != nil {
		b.err = fmt.Errorf("event time %q: %w", hhmm, err)
		return b
	}
	b.event.Start = start
	return b
}

func (b *EventBuilder) Location(location string) *EventBuilder {
	b.event.SetLocation(location)
	return b
}

func (b *EventBuilder) Zip(zip string) *EventBuilder {
	b.event.SetZip(zip)
	return b
}

func (b *EventBuilder) Tags(tags []string) *EventBuilder {
	b.event.SetTags(tags)
	return b
}

// RSVP seeds the RSVP list. Duplicates and the organizer are dropped at
// Build time.
func (b *EventBuilder) RSVP(usernames []string) *EventBuilder {
	b.event.RSVP = append([]string(nil), usernames...)
	return b
}

func (b *EventBuilder) Summary(summary string) *EventBuilder {
	b.event.SetSummary(summary)
	return b
}

// Build finalizes the event. It fails with ErrInvalidRecurrence for a
// monthly event dated after the 28th, and with the first setter error
// otherwise recorded.
func (b *EventBuilder) Build() (*Event, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.event.Recurrence == RecurMonthly && b.event.Date.Day() > 28 {
		return nil, ErrInvalidRecurrence
	}

	e := b.event
	e.RSVP = dedupRSVP(e.RSVP, e.Organizer)
	e.Tags = append([]string(nil), e.Tags...)
	return &e, nil
}

// dedupRSVP keeps the first occurrence of each username and drops the
// organizer, preserving order.
func dedupRSVP(rsvp []string, organizer string) []string {
	var out []string
	seen := make(map[string]bool, len(rsvp))
	for _, u := range rsvp {
		if seen[u] || u == organizer {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
