package handler

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"volunteerhub/internal/log"
	"volunteerhub/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageData is the payload handed to every template.
type pageData struct {
	// Username of the logged-in user, empty when anonymous.
	Username string

	ValidTags []string

	Events      []*model.Event
	Event       *model.Event
	Account     *model.User
	RSVPUsers   []*model.User
	RSVPEvents  []*model.Event
	OwnAccount  bool
	FailedLogin bool
	Error       string
	Search      model.SearchRequest
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	data.Username, _ = h.sessions.Username(r)
	data.ValidTags = model.ValidTags

	tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page)
	if err != nil {
		log.Error("parse template", err, "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.Error("render template", err, "page", page)
	}
}

// ─── Pages ───────────────────────────────────────────────────────────────

// Index handles GET /: the home page with the three most popular events.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index.html", pageData{Events: h.events.PopularEvents(3)})
}

// LoginPage handles GET and POST /login. A logged-in user is sent to their
// account page.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if username, ok := h.sessions.Username(r); ok {
		http.Redirect(w, r, "/account?user="+url.QueryEscape(username), http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodPost {
		username := r.FormValue("username")
		if h.users.Login(username, r.FormValue("password")) {
			if err := h.sessions.Issue(w, username); err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, "/account?user="+url.QueryEscape(username), http.StatusSeeOther)
			return
		}
		h.render(w, r, "login.html", pageData{FailedLogin: true})
		return
	}
	h.render(w, r, "login.html", pageData{})
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage handles GET and POST /register.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Username(r); ok {
		http.Redirect(w, r, "/account", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		h.render(w, r, "register.html", pageData{})
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil && err != http.ErrNotMultipart {
		h.render(w, r, "register.html", pageData{Error: "could not read form"})
		return
	}
	req := model.RegisterRequest{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		Phone:    r.FormValue("phone"),
		Email:    r.FormValue("email"),
		Zip:      r.FormValue("zip"),
	}
	if _, err := h.users.Register(req); err != nil {
		h.render(w, r, "register.html", pageData{Error: err.Error()})
		return
	}
	if r.MultipartForm != nil {
		if err := h.uploads.SaveUserImage(r, "image"); err != nil {
			log.Error("save user image", err, "user", req.Username)
		}
	}
	if err := h.sessions.Issue(w, req.Username); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/account?user="+url.QueryEscape(req.Username), http.StatusSeeOther)
}

// AccountPage handles GET /account?user=NAME. The viewer sees the user's
// organized events; viewing your own account also shows your RSVPs.
func (h *Handler) AccountPage(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("user")
	viewer, loggedIn := h.sessions.Username(r)
	if name == "" {
		if !loggedIn {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		name = viewer
	}

	account, err := h.users.User(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data := pageData{
		Account: account,
		Events:  mustSearch(h, model.SearchRequest{Type: "organizer", Value: account.Username}),
	}
	if loggedIn && account.Is(viewer) {
		data.OwnAccount = true
		data.RSVPEvents = h.events.EventsByRSVP(account.Username)
	}
	h.render(w, r, "account.html", data)
}

// AccountEdit handles POST /account/edit for the logged-in user. Blank
// fields keep their current values.
func (h *Handler) AccountEdit(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessions.Username(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := h.users.UpdateContact(username, r.FormValue("phone"), r.FormValue("email")); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/account?user="+url.QueryEscape(username), http.StatusSeeOther)
}

// EventsPage handles GET /events: all active events, or search results when
// the search form was submitted.
func (h *Handler) EventsPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.SearchRequest{
		Type:  q.Get("type"),
		Value: q.Get("value"),
		Date:  q.Get("date"),
		Tags:  q["tags"],
	}

	var events []*model.Event
	if req.Type == "" {
		events = h.events.AllEvents()
	} else {
		var err error
		events, err = h.events.Search(req)
		if err != nil {
			h.render(w, r, "events.html", pageData{Error: err.Error(), Search: req})
			return
		}
	}
	h.render(w, r, "events.html", pageData{Events: events, Search: req})
}

// ArchivePage handles GET /events/archive: past events, read-only.
func (h *Handler) ArchivePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "archive.html", pageData{Events: h.events.AllRetiredEvents()})
}

// EventDetailPage handles GET /events/detail?name=NAME.
func (h *Handler) EventDetailPage(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Event(r.URL.Query().Get("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "event_detail.html", pageData{
		Event:     event,
		RSVPUsers: h.users.RSVPDetails(event),
	})
}

// ArchiveDetailPage handles GET /events/archive/detail?name=NAME.
func (h *Handler) ArchiveDetailPage(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.RetiredEvent(r.URL.Query().Get("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "archive_detail.html", pageData{Event: event})
}

// EventRSVPForm handles POST /events/rsvp: the join/leave buttons on the
// detail page.
func (h *Handler) EventRSVPForm(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessions.Username(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	name := r.FormValue("name")
	switch r.FormValue("action") {
	case "leave":
		_, _ = h.events.RemoveRSVP(username, name)
	default:
		if added, _ := h.events.AddRSVP(username, name); added {
			// A joiner after the bulk reminder went out still gets one.
			h.notifier.CatchUpReminder(username, name)
		}
	}
	http.Redirect(w, r, "/events/detail?name="+url.QueryEscape(name), http.StatusSeeOther)
}

// NewEventPage handles GET and POST /events/new. The logged-in user becomes
// the organizer.
func (h *Handler) NewEventPage(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessions.Username(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		h.render(w, r, "new_event.html", pageData{})
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil && err != http.ErrNotMultipart {
		h.render(w, r, "new_event.html", pageData{Error: "could not read form"})
		return
	}
	req := model.CreateEventRequest{
		Name:       r.FormValue("name"),
		Date:       r.FormValue("date"),
		Organizer:  username,
		Recurrence: r.FormValue("recurrence"),
		Time:       r.FormValue("time"),
		Location:   r.FormValue("location"),
		Zip:        r.FormValue("zip"),
		Tags:       r.Form["tags"],
		Summary:    r.FormValue("summary"),
	}
	event, err := h.events.CreateEvent(req)
	if err != nil {
		h.render(w, r, "new_event.html", pageData{Error: err.Error()})
		return
	}
	if r.MultipartForm != nil {
		if err := h.uploads.SaveEventImage(r, "image"); err != nil {
			log.Error("save event image", err, "event", event.Name)
		}
	}
	http.Redirect(w, r, "/events/detail?name="+url.QueryEscape(event.Name), http.StatusSeeOther)
}

// EditEventPage handles GET and POST /events/edit?name=NAME. Only the
// organizer may edit.
func (h *Handler) EditEventPage(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessions.Username(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = r.FormValue("name")
	}
	event, err := h.events.Event(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !event.IsOrganizer(username) {
		http.Error(w, "only the organizer can edit this event", http.StatusForbidden)
		return
	}

	if r.Method != http.MethodPost {
		h.render(w, r, "edit_event.html", pageData{Event: event})
		return
	}

	req := model.EditEventRequest{
		Reset:    r.FormValue("reset") == "on",
		Time:     r.FormValue("time"),
		Location: r.FormValue("location"),
		Zip:      r.FormValue("zip"),
		Tags:     r.Form["tags"],
		Summary:  r.FormValue("summary"),
	}
	if err := h.events.EditEvent(event.Name, req); err != nil {
		h.render(w, r, "edit_event.html", pageData{Event: event, Error: err.Error()})
		return
	}
	http.Redirect(w, r, "/events/detail?name="+url.QueryEscape(event.Name), http.StatusSeeOther)
}

// DeleteEvent handles POST /events/delete. Only the organizer may remove
// an event.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessions.Username(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	name := r.FormValue("name")
	event, err := h.events.Event(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !event.IsOrganizer(username) {
		http.Error(w, "only the organizer can remove this event", http.StatusForbidden)
		return
	}
	if err := h.events.RemoveEvent(name); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	// A later event reusing this name must get its own reminder.
	h.notifier.Forget([]*model.Event{event})
	http.Redirect(w, r, "/events", http.StatusSeeOther)
}

func mustSearch(h *Handler, req model.SearchRequest) []*model.Event {
	events, err := h.events.Search(req)
	if err != nil {
		return nil
	}
	return events
}
