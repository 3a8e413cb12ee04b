package codec

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"volunteerhub/internal/model"
)

func buildEvent(t *testing.T, b *model.EventBuilder) *model.Event {
	t.Helper()
	e, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return e
}

func TestEventRoundTripWithInteriorSpaces(t *testing.T) {
	original := buildEvent(t, model.NewEventBuilder("Spring Park Cleanup", "2024-05-04", "casey", model.RecurWeekly, time.UTC).
		Time("09:30").
		Location("Riverside Park Pavilion").
		Zip("55401").
		Tags([]string{"Food Bank", "Short Duration (<2 Hrs)"}).
		RSVP([]string{"ana", "ben"}).
		Summary("Bring gloves and a water bottle."))

	var buf bytes.Buffer
	if err := WriteEvents(&buf, []*model.Event{original}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := ReadEvents(&buf, time.UTC)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 event, got %d", len(decoded))
	}
	if !reflect.DeepEqual(original, decoded[0]) {
		t.Fatalf("round trip mismatch:\n  in:  %+v\n  out: %+v", original, decoded[0])
	}
}

func TestEventRoundTripDefaults(t *testing.T) {
	original := buildEvent(t, model.NewEventBuilder("Bare", "2024-06-01", "casey", model.RecurNone, time.UTC))

	var buf bytes.Buffer
	if err := WriteEvents(&buf, []*model.Event{original}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := ReadEvents(&buf, time.UTC)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(original, decoded[0]) {
		t.Fatalf("round trip mismatch:\n  in:  %+v\n  out: %+v", original, decoded[0])
	}
}

func TestEncodeRejectsLiteralUnderscore(t *testing.T) {
	e := buildEvent(t, model.NewEventBuilder("bad_name", "2024-06-01", "casey", model.RecurNone, time.UTC))

	var buf bytes.Buffer
	err := WriteEvents(&buf, []*model.Event{e})
	if !errors.Is(err, ErrUnescapable) {
		t.Fatalf("expected ErrUnescapable, got %v", err)
	}
}

func TestDecodeFailsOnShortHeaderLine(t *testing.T) {
	input := "OnlyThree Fields Here\ncasey\nsummary\n"
	_, err := ReadEvents(strings.NewReader(input), time.UTC)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeFailsOnTruncatedRecord(t *testing.T) {
	input := "Cleanup 09:30 2024-05-04 Park 55401 none No_Tags\ncasey\n"
	// Summary line missing entirely (no trailing newline content).
	input = strings.TrimSuffix(input, "\n")
	_, err := ReadEvents(strings.NewReader(input), time.UTC)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for truncated record, got %v", err)
	}
}

func TestDecodeFailsOnBadDate(t *testing.T) {
	input := "Cleanup 09:30 05/04/2024 Park 55401 none No_Tags\ncasey\nsummary\n"
	_, err := ReadEvents(strings.NewReader(input), time.UTC)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for bad date, got %v", err)
	}
}

func TestDecodeSummaryKeepsSpaces(t *testing.T) {
	input := "Cleanup TBD 2024-05-04 TBD TBD none No_Tags\ncasey ana ben\nBring gloves and a friend\n"
	events, err := ReadEvents(strings.NewReader(input), time.UTC)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	e := events[0]
	if e.Summary != "Bring gloves and a friend" {
		t.Fatalf("expected raw summary line, got %q", e.Summary)
	}
	if len(e.RSVP) != 2 || e.RSVP[0] != "ana" || e.RSVP[1] != "ben" {
		t.Fatalf("expected RSVP [ana ben], got %v", e.RSVP)
	}
	if e.Organizer != "casey" {
		t.Fatalf("expected organizer casey, got %q", e.Organizer)
	}
}

func TestUserRoundTrip(t *testing.T) {
	users := []*model.User{
		{Username: "casey", Password: "hunter two", Phone: "555 0100", Email: "casey@example.com", Zip: "55401"},
		{Username: "ana", Password: "pw", Phone: "5550101", Email: "ana@example.com", Zip: "TBD"},
	}

	var buf bytes.Buffer
	if err := WriteUsers(&buf, users); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := ReadUsers(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(users, decoded) {
		t.Fatalf("round trip mismatch:\n  in:  %+v\n  out: %+v", users[0], decoded[0])
	}
}

func TestUserDecodeFailsOnWrongTokenCount(t *testing.T) {
	_, err := ReadUsers(strings.NewReader("casey pw 5550100 casey@example.com\n"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for 4 tokens, got %v", err)
	}
}
