// Package account holds the identity model and the signup/login
// orchestration around it.
package account

import (
	"context"

	"github.com/google/uuid"
)

type (
	// ID is an opaque account identifier. It is only ever compared
	// for equality, never parsed or coerced.
	ID string

	// Identity is an authenticated principal. PasswordHash is the
	// only secret material and must never leave the server, use
	// Public for anything client facing.
	Identity struct {
		ID           ID
		Username     string
		Email        string
		PasswordHash string
	}

	// Public is the client-safe projection of an Identity.
	Public struct {
		ID       ID     `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	// Store is the persistence contract the authenticator consumes.
	// Emails are stored and compared lowercased. Insert must reject
	// a duplicate email with ErrEmailTaken even when two signups
	// race past FindByEmail, the storage engine's uniqueness
	// constraint is the final arbiter.
	Store interface {
		FindByEmail(ctx context.Context, email string) (*Identity, error)
		FindByID(ctx context.Context, id ID) (*Identity, error)
		Insert(ctx context.Context, identity *Identity) error
	}
)

func NewID() ID {
	return ID(uuid.NewString())
}

func (i *Identity) Public() Public {
	return Public{ID: i.ID, Username: i.Username, Email: i.Email}
}
