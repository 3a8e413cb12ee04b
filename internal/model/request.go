package model

// CreateEventRequest is the input for creating a new event. Optional fields
// left empty fall back to their sentinels.
type CreateEventRequest struct {
	Name       string   `json:"name" validate:"required"`
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	Organizer  string   `json:"organizer" validate:"required"`
	Recurrence string   `json:"recurrence"`
	Time       string   `json:"time"`
	Location   string   `json:"location"`
	Zip        string   `json:"zip"`
	Tags       []string `json:"tags"`
	Summary    string   `json:"summary"`
}

// EditEventRequest carries optional-field overrides for an existing event.
// Reset clears all optional fields back to sentinels before the overrides
// are applied; empty overrides leave the current value alone.
type EditEventRequest struct {
	Reset    bool     `json:"reset"`
	Time     string   `json:"time"`
	Location string   `json:"location"`
	Zip      string   `json:"zip"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
}

// RegisterRequest is the input for creating a new account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Zip      string `json:"zip"`
}

// SearchRequest describes one search-form submission. Type selects the base
// predicate (name, organizer or zip); Date and Tags refine the result.
type SearchRequest struct {
	Type  string   `json:"type"`
	Value string   `json:"value"`
	Date  string   `json:"date"`
	Tags  []string `json:"tags"`
}

// ErrorResponse is the standard JSON error envelope for the API.
type ErrorResponse struct {
	Error string `json:"error"`
}
