package model

import "strings"

// User represents an account. Usernames are unique case-insensitively.
//
// Passwords are stored and compared verbatim to stay byte-compatible with
// the existing user file. Known security gap.
type User struct {
	Username string
	Password string
	Phone    string
	Email    string
	Zip      string
}

// Is reports whether username names this user, case-insensitively.
func (u *User) Is(username string) bool {
	return strings.EqualFold(username, u.Username)
}

// CheckPassword reports whether password matches exactly.
func (u *User) CheckPassword(password string) bool {
	return password == u.Password
}

// Clone returns a copy so callers never alias repository storage.
func (u *User) Clone() *User {
	c := *u
	return &c
}
