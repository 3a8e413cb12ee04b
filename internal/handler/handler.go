// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer: a JSON API under /api
// and the server-rendered pages.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"volunteerhub/internal/model"
	"volunteerhub/internal/notify"
	"volunteerhub/internal/repository"
	"volunteerhub/internal/service"
)

// Handler holds all HTTP handlers.
type Handler struct {
	events   *service.EventService
	users    *service.UserService
	notifier *notify.Notifier
	sessions *Sessions
	uploads  *Uploads
}

// New constructs a Handler.
func New(events *service.EventService, users *service.UserService, notifier *notify.Notifier, sessions *Sessions, uploads *Uploads) *Handler {
	return &Handler{events: events, users: users, notifier: notifier, sessions: sessions, uploads: uploads}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── API handlers ─────────────────────────────────────────────────────────────

// CreateEvent handles POST /api/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEvent):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, model.ErrInvalidRecurrence):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, eventView(event))
}

// ListEvents handles GET /api/events.
// Returns all active events in chronological order.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	views := make([]eventJSON, 0)
	for _, e := range h.events.AllEvents() {
		views = append(views, eventView(e))
	}
	writeJSON(w, http.StatusOK, views)
}

// PopularEvents handles GET /api/events/popular.
func (h *Handler) PopularEvents(w http.ResponseWriter, r *http.Request) {
	views := make([]eventJSON, 0)
	for _, e := range h.events.PopularEvents(3) {
		views = append(views, eventView(e))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetEvent handles GET /api/events/{name}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	event, err := h.events.Event(name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, eventView(event))
}

// JoinRSVP handles POST /api/events/{name}/rsvp for the logged-in user.
func (h *Handler) JoinRSVP(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessions.Username(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	added, err := h.events.AddRSVP(username, chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to RSVP")
		return
	}
	if !added {
		writeError(w, http.StatusConflict, "already on the RSVP list")
		return
	}
	h.notifier.CatchUpReminder(username, chi.URLParam(r, "name"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// LeaveRSVP handles DELETE /api/events/{name}/rsvp for the logged-in user.
// The organizer cannot leave their own event.
func (h *Handler) LeaveRSVP(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessions.Username(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	removed, err := h.events.RemoveRSVP(username, chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to leave")
		return
	}
	if !removed {
		writeError(w, http.StatusConflict, "not removable from the RSVP list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// eventJSON is the API representation of an event.
type eventJSON struct {
	Name       string   `json:"name"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Location   string   `json:"location"`
	Zip        string   `json:"zip"`
	Recurrence string   `json:"recurrence"`
	Organizer  string   `json:"organizer"`
	Tags       []string `json:"tags"`
	RSVP       []string `json:"rsvp"`
	Summary    string   `json:"summary"`
}

func eventView(e *model.Event) eventJSON {
	return eventJSON{
		Name:       e.Name,
		Date:       e.DateString(),
		Time:       e.TimeString(),
		Location:   e.Location,
		Zip:        e.Zip,
		Recurrence: string(e.Recurrence),
		Organizer:  e.Organizer,
		Tags:       e.Tags,
		RSVP:       e.RSVP,
		Summary:    e.Summary,
	}
}
