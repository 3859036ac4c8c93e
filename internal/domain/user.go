// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// User is an authenticated identity. The name is immutable for the
// lifetime of any connection bound to it.
type User struct {
	Name string `json:"name"`
}

// NewUser validates the name once so adapters never build raw literals.
func NewUser(name string) (*User, error) {
	if len(name) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &User{Name: name}, nil
}
