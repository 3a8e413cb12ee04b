// Package notify sends event reminder emails and tracks which events have
// already been notified, so reminders go out at most once per event.
package notify

import (
	"errors"
	"fmt"
	"io/fs"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"

	"volunteerhub/internal/config"
	"volunteerhub/internal/log"
	"volunteerhub/internal/model"
	"volunteerhub/internal/service"
)

const notifiedFile = "notified.txt"

const oneDayType = "oneday"

// Notifier sends one-day-before reminders to an event's organizer and
// RSVP'd users. The notified list persists as a flat file of
// "eventName notificationType" lines with the same underscore escaping as
// the stores.
type Notifier struct {
	dir    string
	smtp   config.SMTPConfig
	events *service.EventService
	users  *service.UserService

	// notified holds one [eventName, notificationType] pair per entry.
	notified [][2]string
}

// NewNotifier loads the notified list from dir.
func NewNotifier(dir string, smtp config.SMTPConfig, events *service.EventService, users *service.UserService) (*Notifier, error) {
	n := &Notifier{dir: dir, smtp: smtp, events: events, users: users}
	if err := n.load(); err != nil {
		return nil, err
	}
	return n, nil
}

// OneDayReminders emails every user attached to an event starting within
// the next 24 hours, unless that event was already reminded. Send failures
// are logged and the event stays unmarked so a later pass retries.
func (n *Notifier) OneDayReminders() {
	for _, event := range n.events.EventsWithinDay() {
		if n.wasNotified(event.Name, oneDayType) {
			continue
		}
		if err := n.sendEventReminder(event); err != nil {
			log.Error("reminder failed", err, "event", event.Name)
			continue
		}
		n.notified = append(n.notified, [2]string{event.Name, oneDayType})
		if err := n.save(); err != nil {
			log.Error("save notified list", err)
		}
		log.Info("one-day reminder sent", "event", event.Name, "rsvps", len(event.RSVP))
	}
}

// CatchUpReminder emails one user who just RSVP'd to an event starting
// within the next day, but only when the bulk reminder for that event has
// already gone out; otherwise the regular pass will cover them.
func (n *Notifier) CatchUpReminder(username, eventName string) {
	if !n.wasNotified(eventName, oneDayType) {
		return
	}
	for _, event := range n.events.EventsWithinDay() {
		if !event.HasName(eventName) {
			continue
		}
		user, err := n.users.User(username)
		if err != nil || user.Email == "" {
			return
		}
		subject, body := reminderMessage(event)
		if err := n.send([]string{user.Email}, subject, body); err != nil {
			log.Error("catch-up reminder failed", err, "event", eventName, "user", username)
		}
		return
	}
}

// Forget drops every mention of the given events from the notified list.
// The lifecycle pass feeds its retired set here; the delete route feeds the
// removed event, so a later event reusing the name gets its own reminder.
func (n *Notifier) Forget(events []*model.Event) {
	if len(events) == 0 {
		return
	}
	names := make(map[string]bool, len(events))
	for _, e := range events {
		names[e.Name] = true
	}
	kept := n.notified[:0]
	for _, entry := range n.notified {
		if !names[entry[0]] {
			kept = append(kept, entry)
		}
	}
	n.notified = kept
	if err := n.save(); err != nil {
		log.Error("save notified list", err)
	}
}

func (n *Notifier) wasNotified(eventName, notificationType string) bool {
	for _, entry := range n.notified {
		if entry[0] == eventName && entry[1] == notificationType {
			return true
		}
	}
	return false
}

func (n *Notifier) sendEventReminder(event *model.Event) error {
	recipients := n.recipientAddresses(event)
	if len(recipients) == 0 {
		return nil
	}

	subject, body := reminderMessage(event)
	return n.send(recipients, subject, body)
}

func reminderMessage(event *model.Event) (subject, body string) {
	subject = fmt.Sprintf("Reminder: %s is coming up", event.Name)
	body = fmt.Sprintf(
		"%s starts on %s at %s.\r\nLocation: %s\r\n\r\n%s\r\n",
		event.Name, event.DateString(), event.TimeString(), event.Location, event.Summary,
	)
	return subject, body
}

// recipientAddresses resolves the organizer plus RSVP'd users to email
// addresses, skipping dangling usernames.
func (n *Notifier) recipientAddresses(event *model.Event) []string {
	var out []string
	if organizer, err := n.users.User(event.Organizer); err == nil && organizer.Email != "" {
		out = append(out, organizer.Email)
	}
	for _, u := range n.users.RSVPDetails(event) {
		if u.Email != "" {
			out = append(out, u.Email)
		}
	}
	return out
}

func (n *Notifier) send(to []string, subject, body string) error {
	if n.smtp.Host == "" || n.smtp.Sender == "" {
		log.Debug("smtp not configured, skipping send", "recipients", len(to))
		return nil
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.smtp.Sender, strings.Join(to, ", "), subject, body,
	)
	addr := fmt.Sprintf("%s:%d", n.smtp.Host, n.smtp.Port)
	auth := smtp.PlainAuth("", n.smtp.Sender, n.smtp.Password, n.smtp.Host)
	return smtp.SendMail(addr, auth, n.smtp.Sender, to, []byte(msg))
}

// load reads the notified list. A missing file is a fresh install.
func (n *Notifier) load() error {
	data, err := os.ReadFile(filepath.Join(n.dir, notifiedFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load notified list: %w", err)
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) != 2 {
			return fmt.Errorf("load notified list: line %d: want 2 fields, got %d", i+1, len(tokens))
		}
		n.notified = append(n.notified, [2]string{
			strings.ReplaceAll(tokens[0], "_", " "),
			tokens[1],
		})
	}
	return nil
}

func (n *Notifier) save() error {
	var b strings.Builder
	for _, entry := range n.notified {
		fmt.Fprintf(&b, "%s %s\n", strings.ReplaceAll(entry[0], " ", "_"), entry[1])
	}
	return os.WriteFile(filepath.Join(n.dir, notifiedFile), []byte(b.String()), 0o644)
}
