// Package model defines the core domain types for the volunteer event hub.
package model

import (
	"strings"
	"time"
)

// Sentinel values for unset optional event fields. They are persisted
// verbatim, so they double as the on-disk representation of "not set".
const (
	TBD        = "TBD"
	NoTags     = "No Tags"
	NoSummary  = "No Summary"
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

// Recurrence describes how an event repeats after it passes.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// ParseRecurrence maps a stored or submitted recurrence value, case
// insensitively. Unknown values fall back to none.
func ParseRecurrence(s string) Recurrence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RecurWeekly):
		return RecurWeekly
	case string(RecurMonthly):
		return RecurMonthly
	default:
		return RecurNone
	}
}

// Event represents one volunteer opportunity.
//
// Name, Date, Organizer and Recurrence are fixed at construction; the
// remaining fields are optional and hold sentinel values until set.
// Start is the real instant the event begins, carrying the canonical
// display zone, so local rendering stays correct across DST transitions.
// A zero Start means the time is still TBD and the event is all-day.
type Event struct {
	Name       string
	Date       time.Time // calendar date, midnight UTC
	Organizer  string
	Recurrence Recurrence

	Start    time.Time
	Location string
	Zip      string
	Tags     []string
	RSVP     []string
	Summary  string
}

// HasTime reports whether a start time has been set.
func (e *Event) HasTime() bool { return !e.Start.IsZero() }

// DateString renders the calendar date as YYYY-MM-DD.
func (e *Event) DateString() string { return e.Date.Format(DateFormat) }

// TimeString renders the local start time as HH:MM, or TBD when unset.
func (e *Event) TimeString() string {
	if !e.HasTime() {
		return TBD
	}
	return e.Start.Format(TimeFormat)
}

// HasName reports whether name matches the event name, case-insensitively.
func (e *Event) HasName(name string) bool {
	return strings.EqualFold(name, e.Name)
}

// IsOrganizer reports whether username is the event's organizer,
// case-insensitively.
func (e *Event) IsOrganizer(username string) bool {
	return strings.EqualFold(username, e.Organizer)
}

// InZip reports whether the event is in the given postal code (exact match).
func (e *Event) InZip(zip string) bool { return e.Zip == zip }

// OnDate reports whether the event falls on the given calendar date.
func (e *Event) OnDate(date time.Time) bool {
	return e.Date.Equal(DateOnly(date))
}

// HasRSVP reports whether username is on the RSVP list.
func (e *Event) HasRSVP(username string) bool {
	for _, u := range e.RSVP {
		if u == username {
			return true
		}
	}
	return false
}

// HasTags reports whether the event carries every tag in tags. The event
// may have additional tags.
func (e *Event) HasTags(tags []string) bool {
	for _, t := range tags {
		found := false
		for _, have := range e.Tags {
			if have == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// AddRSVP appends username to the RSVP list. It returns false and leaves
// the list unchanged when username is already present.
func (e *Event) AddRSVP(username string) bool {
	if e.HasRSVP(username) {
		return false
	}
	e.RSVP = append(e.RSVP, username)
	return true
}

// RemoveRSVP drops username from the RSVP list. It returns false when
// username was not present.
func (e *Event) RemoveRSVP(username string) bool {
	for i, u := range e.RSVP {
		if u == username {
			e.RSVP = append(e.RSVP[:i], e.RSVP[i+1:]...)
			return true
		}
	}
	return false
}

// Active reports whether the event has not yet passed at the given moment.
// An event with no start time is all-day: it stays active through the whole
// of its date.
func (e *Event) Active(now time.Time) bool {
	today := DateOnly(now)
	if today.Before(e.Date) {
		return true
	}
	if today.After(e.Date) {
		return false
	}
	if !e.HasTime() {
		return true
	}
	return now.Before(e.Start)
}

// Recurring reports whether the event spawns a successor when it retires.
func (e *Event) Recurring() bool { return e.Recurrence != RecurNone }

// NextOccurrence builds the successor for a recurring event: the date is
// advanced one week or one calendar month, the RSVP list is emptied, and
// every other optional field is copied. The start time keeps the same wall
// clock on the new date in the same zone.
func (e *Event) NextOccurrence() *Event {
	next := e.Clone()
	switch e.Recurrence {
	case RecurWeekly:
		next.Date = e.Date.AddDate(0, 0, 7)
	case RecurMonthly:
		next.Date = e.Date.AddDate(0, 1, 0)
	default:
		return nil
	}
	if e.HasTime() {
		next.Start = time.Date(
			next.Date.Year(), next.Date.Month(), next.Date.Day(),
			e.Start.Hour(), e.Start.Minute(), 0, 0, e.Start.Location(),
		)
	}
	next.RSVP = nil
	return next
}

// Less orders events by (date, local time string, name) ascending. TBD
// sorts after any concrete time, so all-day events land last within a date.
func (e *Event) Less(other *Event) bool {
	if !e.Date.Equal(other.Date) {
		return e.Date.Before(other.Date)
	}
	if ts, ots := e.TimeString(), other.TimeString(); ts != ots {
		return ts < ots
	}
	return e.Name < other.Name
}

// Clone returns a deep copy. Repository queries hand out clones so callers
// can never mutate canonical storage by accident.
func (e *Event) Clone() *Event {
	c := *e
	c.Tags = append([]string(nil), e.Tags...)
	c.RSVP = append([]string(nil), e.RSVP...)
	return &c
}

// Setters for the optional fields, used by the edit flow. Required fields
// (name, date, organizer, recurrence) cannot change after construction.

// SetTime sets the start time from an HH:MM wall-clock string resolved on
// the event's date in loc. Empty or TBD clears it.
func (e *Event) SetTime(hhmm string, loc *time.Location) error {
	start, err := resolveStart(e.Date, hhmm, loc)
	if err != nil {
		return err
	}
	e.Start = start
	return nil
}

func (e *Event) SetLocation(location string) {
	if location == "" {
		location = TBD
	}
	e.Location = location
}

func (e *Event) SetZip(zip string) {
	if zip == "" {
		zip = TBD
	}
	e.Zip = zip
}

func (e *Event) SetTags(tags []string) {
	if len(tags) == 0 {
		tags = []string{NoTags}
	}
	e.Tags = append([]string(nil), tags...)
}

func (e *Event) SetSummary(summary string) {
	if summary == "" {
		summary = NoSummary
	}
	e.Summary = summary
}

// ResetOptional restores every optional field except the RSVP list to its
// sentinel. The edit flow calls this first, then re-applies the submitted
// overrides ("clear then patch").
func (e *Event) ResetOptional() {
	e.Start = time.Time{}
	e.Location = TBD
	e.Zip = TBD
	e.Tags = []string{NoTags}
	e.Summary = NoSummary
}

// DateOnly truncates t to its calendar date in t's own zone, re-anchored at
// midnight UTC so dates compare with Equal/Before regardless of source zone.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// resolveStart combines a calendar date with an HH:MM wall-clock string in
// loc, producing the real instant. Empty and TBD yield the zero time.
func resolveStart(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	if hhmm == "" || hhmm == TBD {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeFormat, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
