// Package codec serializes events and users to the line-oriented text
// format of the store files.
//
// An event record is three lines:
//
//	name time date location zip recurrence [tag]...
//	organizer [rsvpUser]...
//	summary
//
// A user record is one line of five tokens:
//
//	username password phone email zip
//
// Fields on token lines are space-joined, with interior spaces written as
// underscores and reversed on read. A field containing a literal underscore
// would be indistinguishable from an escaped space, so such values are
// rejected at encode time. Summary lines are written raw and read whole.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"volunteerhub/internal/model"
)

// ErrMalformed wraps any decode fault: wrong token count, unparseable date
// or time, or a truncated record. A load hitting one fails entirely;
// partial data is worse than no data here.
var ErrMalformed = errors.New("malformed record")

// ErrUnescapable rejects field values containing a literal underscore,
// which the escaping scheme cannot round-trip.
var ErrUnescapable = errors.New("field value contains the escape character '_'")

const eventTokenMin = 6 // name time date location zip recurrence
const userTokens = 5

func escape(field string) (string, error) {
	if strings.Contains(field, "_") {
		return "", fmt.Errorf("%w: %q", ErrUnescapable, field)
	}
	return strings.ReplaceAll(field, " ", "_"), nil
}

func unescape(token string) string {
	return strings.ReplaceAll(token, "_", " ")
}

// WriteEvents encodes events to w in slice order.
func WriteEvents(w io.Writer, events []*model.Event) error {
	bw := bufio.NewWriter(w)
	for _, e := range events {
		if err := writeEvent(bw, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeEvent(bw *bufio.Writer, e *model.Event) error {
	fields := []string{
		e.Name, e.TimeString(), e.DateString(), e.Location, e.Zip, string(e.Recurrence),
	}
	fields = append(fields, e.Tags...)
	escaped := make([]string, len(fields))
	for i, f := range fields {
		esc, err := escape(f)
		if err != nil {
			return fmt.Errorf("event %q: %w", e.Name, err)
		}
		escaped[i] = esc
	}
	if _, err := fmt.Fprintln(bw, strings.Join(escaped, " ")); err != nil {
		return err
	}

	people := append([]string{e.Organizer}, e.RSVP...)
	escaped = escaped[:0]
	for _, p := range people {
		esc, err := escape(p)
		if err != nil {
			return fmt.Errorf("event %q: %w", e.Name, err)
		}
		escaped = append(escaped, esc)
	}
	if _, err := fmt.Fprintln(bw, strings.Join(escaped, " ")); err != nil {
		return err
	}

	// Summary is a whole line; interior spaces are fine, newlines are not.
	if strings.ContainsAny(e.Summary, "\r\n") {
		return fmt.Errorf("event %q: summary contains a newline", e.Name)
	}
	_, err := fmt.Fprintln(bw, e.Summary)
	return err
}

// ReadEvents decodes every event record from r. Event times are resolved in
// loc. Any malformed record fails the whole read.
func ReadEvents(r io.Reader, loc *time.Location) ([]*model.Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []*model.Event
	line := 0
	for sc.Scan() {
		header := strings.TrimSpace(sc.Text())
		line++
		if header == "" {
			continue
		}

		tokens := strings.Fields(header)
		if len(tokens) < eventTokenMin {
			return nil, fmt.Errorf("%w: line %d: want at least %d fields, got %d",
				ErrMalformed, line, eventTokenMin, len(tokens))
		}
		for i, t := range tokens {
			tokens[i] = unescape(t)
		}
		name, timeStr, dateStr := tokens[0], tokens[1], tokens[2]
		location, zip, recurrence := tokens[3], tokens[4], tokens[5]
		tags := tokens[6:]

		if !sc.Scan() {
			return nil, fmt.Errorf("%w: line %d: event %q missing attendee line", ErrMalformed, line, name)
		}
		line++
		people := strings.Fields(strings.TrimSpace(sc.Text()))
		if len(people) == 0 {
			return nil, fmt.Errorf("%w: line %d: event %q has no organizer", ErrMalformed, line, name)
		}
		for i, p := range people {
			people[i] = unescape(p)
		}

		if !sc.Scan() {
			return nil, fmt.Errorf("%w: line %d: event %q missing summary line", ErrMalformed, line, name)
		}
		line++
		summary := strings.TrimSpace(sc.Text())

		b := model.NewEventBuilder(name, dateStr, people[0], model.ParseRecurrence(recurrence), loc).
			Time(timeStr).
			Location(location).
			Zip(zip).
			Summary(summary).
			RSVP(people[1:])
		if !(len(tags) == 1 && tags[0] == model.NoTags) {
			b.Tags(tags)
		}
		event, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line-2, err)
		}
		events = append(events, event)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// WriteUsers encodes users to w in slice order.
func WriteUsers(w io.Writer, users []*model.User) error {
	bw := bufio.NewWriter(w)
	for _, u := range users {
		fields := []string{u.Username, u.Password, u.Phone, u.Email, u.Zip}
		escaped := make([]string, len(fields))
		for i, f := range fields {
			esc, err := escape(f)
			if err != nil {
				return fmt.Errorf("user %q: %w", u.Username, err)
			}
			escaped[i] = esc
		}
		if _, err := fmt.Fprintln(bw, strings.Join(escaped, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadUsers decodes every user line from r. A line with the wrong token
// count fails the whole read.
func ReadUsers(r io.Reader) ([]*model.User, error) {
	sc := bufio.NewScanner(r)

	var users []*model.User
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		tokens := strings.Fields(text)
		if len(tokens) != userTokens {
			return nil, fmt.Errorf("%w: line %d: want %d fields, got %d",
				ErrMalformed, line, userTokens, len(tokens))
		}
		users = append(users, &model.User{
			Username: unescape(tokens[0]),
			Password: unescape(tokens[1]),
			Phone:    unescape(tokens[2]),
			Email:    unescape(tokens[3]),
			Zip:      unescape(tokens[4]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
