package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

type (
	// PasswordHasher is the one-way credential transform consumed by
	// the authenticator (see the credential package).
	PasswordHasher interface {
		Hash(plaintext string) (string, error)
		Verify(plaintext, encoded string) bool
	}

	// TokenIssuer mints a session token for an account id (see the
	// session package).
	TokenIssuer interface {
		Issue(subject string) (string, error)
	}

	// Authenticator orchestrates signup and login. It owns no state
	// beyond its collaborators and is safe for concurrent use.
	Authenticator struct {
		store  Store
		hasher PasswordHasher
		tokens TokenIssuer
	}

	SignupRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)

// MinPasswordLen is the minimum accepted password length.
const MinPasswordLen = 6

func NewAuthenticator(store Store, hasher PasswordHasher, tokens TokenIssuer) *Authenticator {
	return &Authenticator{store: store, hasher: hasher, tokens: tokens}
}

// Signup registers a new identity and logs it in. On success exactly
// one identity was persisted and exactly one token issued. If the
// insert fails nothing observable happened: no token exists and no
// partial record is readable.
func (a *Authenticator) Signup(ctx context.Context, req SignupRequest) (Public, string, error) {
	if err := validateSignup(req); err != nil {
		return Public{}, "", err
	}
	email := normalizeEmail(req.Email)
	switch _, err := a.store.FindByEmail(ctx, email); {
	case err == nil:
		return Public{}, "", ErrEmailTaken
	case !errors.Is(err, ErrNotFound):
		return Public{}, "", fmt.Errorf("account: unable to check for existing email, cause %w", err)
	}
	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		return Public{}, "", fmt.Errorf("account: unable to hash password, cause %w", err)
	}
	identity := &Identity{
		ID:           NewID(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.store.Insert(ctx, identity); err != nil {
		// a concurrent signup may have won the race after our
		// FindByEmail check, the unique index reports it here
		if errors.Is(err, ErrEmailTaken) {
			return Public{}, "", ErrEmailTaken
		}
		return Public{}, "", fmt.Errorf("account: unable to persist identity, cause %w", err)
	}
	token, err := a.tokens.Issue(string(identity.ID))
	if err != nil {
		return Public{}, "", fmt.Errorf("account: unable to issue session token, cause %w", err)
	}
	return identity.Public(), token, nil
}

// Login verifies credentials and issues a fresh session token. An
// unknown email and a wrong password fail with the same error.
func (a *Authenticator) Login(ctx context.Context, req LoginRequest) (Public, string, error) {
	if err := validateLogin(req); err != nil {
		return Public{}, "", err
	}
	identity, err := a.store.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, ErrNotFound) {
		return Public{}, "", ErrInvalidCredentials
	} else if err != nil {
		return Public{}, "", fmt.Errorf("account: unable to look up identity, cause %w", err)
	}
	if !a.hasher.Verify(req.Password, identity.PasswordHash) {
		return Public{}, "", ErrInvalidCredentials
	}
	token, err := a.tokens.Issue(string(identity.ID))
	if err != nil {
		return Public{}, "", fmt.Errorf("account: unable to issue session token, cause %w", err)
	}
	return identity.Public(), token, nil
}

func validateSignup(req SignupRequest) error {
	if len(strings.TrimSpace(req.Username)) == 0 {
		return ValidationError{Field: "username", Msg: "must not be empty"}
	}
	if len(req.Email) == 0 {
		return ValidationError{Field: "email", Msg: "must not be empty"}
	}
	if !wellFormedEmail(req.Email) {
		return ValidationError{Field: "email", Msg: "must be a well-formed address"}
	}
	if len(req.Password) == 0 {
		return ValidationError{Field: "password", Msg: "must not be empty"}
	}
	if len(req.Password) < MinPasswordLen {
		return ValidationError{Field: "password", Msg: fmt.Sprintf("must have at least %v characters", MinPasswordLen)}
	}
	return nil
}

func validateLogin(req LoginRequest) error {
	if len(req.Email) == 0 {
		return ValidationError{Field: "email", Msg: "must not be empty"}
	}
	if !wellFormedEmail(req.Email) {
		return ValidationError{Field: "email", Msg: "must be a well-formed address"}
	}
	if len(req.Password) == 0 {
		return ValidationError{Field: "password", Msg: "must not be empty"}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// wellFormedEmail accepts plain addresses only (no display names)
// and insists on a dot in the domain, which is what every client of
// this API sends in practice.
func wellFormedEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}
