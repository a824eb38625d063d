package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/reelfeed/reelfeed/account"
)

// emailHash64 shrinks email lookups to an integer index probe, the
// text column is still compared to rule out hash collisions.
func emailHash64(email string) int64 {
	return int64(xxhash.Sum64String(email))
}

func (a *Accounts) FindByEmail(ctx context.Context, email string) (*account.Identity, error) {
	var identity account.Identity
	err := a.s.db.QueryRowContext(ctx,
		`select account_id, username, email, password_hash from accounts where email_hash64 = ? and email = ?`,
		emailHash64(email), email).
		Scan(&identity.ID, &identity.Username, &identity.Email, &identity.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("store: unable to load account by email, cause %w", err)
	}
	return &identity, nil
}

func (a *Accounts) FindByID(ctx context.Context, id account.ID) (*account.Identity, error) {
	var identity account.Identity
	err := a.s.db.QueryRowContext(ctx,
		`select account_id, username, email, password_hash from accounts where account_id = ?`, string(id)).
		Scan(&identity.ID, &identity.Username, &identity.Email, &identity.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("store: unable to load account %v, cause %w", id, err)
	}
	return &identity, nil
}

// Insert persists a new identity. The unique index on email is the
// final arbiter for concurrent signups, a violation surfaces as
// account.ErrEmailTaken.
func (a *Accounts) Insert(ctx context.Context, identity *account.Identity) error {
	_, err := a.s.db.ExecContext(ctx,
		`insert into accounts (account_id, username, email, email_hash64, password_hash, created_at) values (?, ?, ?, ?, ?, ?)`,
		string(identity.ID), identity.Username, identity.Email,
		emailHash64(identity.Email), identity.PasswordHash, time.Now().UTC())
	if isUniqueViolation(err) {
		return account.ErrEmailTaken
	} else if err != nil {
		return fmt.Errorf("store: unable to insert account, cause %w", err)
	}
	return nil
}
