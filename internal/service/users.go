package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"volunteerhub/internal/model"
	"volunteerhub/internal/repository"
)

// UserService handles registration, login, and profile edits.
type UserService struct {
	repo     *repository.Repository
	validate *validator.Validate
}

// NewUserService constructs a UserService.
func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo, validate: validator.New()}
}

// Register validates the request and creates the account. Usernames
// collide case-insensitively (repository.ErrDuplicateUser).
func (s *UserService) Register(req model.RegisterRequest) (*model.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid registration: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Password: req.Password,
		Phone:    req.Phone,
		Email:    req.Email,
		Zip:      req.Zip,
	}
	if err := s.repo.AddUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login reports whether the credentials match an account. The password
// comparison is an exact string match against the stored value.
func (s *UserService) Login(username, password string) bool {
	user, err := s.repo.FindUser(username)
	if err != nil {
		return false
	}
	return user.CheckPassword(password)
}

// User returns the account with the given username.
func (s *UserService) User(username string) (*model.User, error) {
	return s.repo.FindUser(username)
}

// UpdateContact edits the user's phone and email in place. Blank values
// keep the current field. Accounts are never deleted.
func (s *UserService) UpdateContact(username, phone, email string) error {
	if phone == "" && email == "" {
		return nil
	}
	_, err := s.repo.UpdateUser(username, func(user *model.User) (bool, error) {
		if phone != "" {
			user.Phone = phone
		}
		if email != "" {
			user.Email = email
		}
		return true, nil
	})
	return err
}

// RSVPDetails resolves an event's RSVP usernames to accounts. Dangling
// references (RSVPs from users that no longer resolve) are skipped.
func (s *UserService) RSVPDetails(event *model.Event) []*model.User {
	var out []*model.User
	for _, username := range event.RSVP {
		user, err := s.repo.FindUser(username)
		if err != nil {
			continue
		}
		out = append(out, user)
	}
	return out
}
