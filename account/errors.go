package account

import (
	"errors"
	"fmt"
)

type (
	// ValidationError reports missing or malformed client input.
	ValidationError struct {
		Field string
		Msg   string
	}
)

var (
	// ErrNotFound is returned by stores when no identity matches.
	ErrNotFound = errors.New("account: not found")
	// ErrEmailTaken is returned when signup hits an email that is
	// already registered.
	ErrEmailTaken = errors.New("account: email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password. Login failures are deliberately indistinguishable so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("account: invalid credentials")
)

func (v ValidationError) Error() string {
	return fmt.Sprintf("account: invalid %v: %v", v.Field, v.Msg)
}
