// Package post models the user-owned feed entries and the ownership
// rule guarding their mutation.
package post

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/reelfeed/reelfeed/account"
)

type (
	// ID is an opaque post identifier.
	ID string

	// Post is a feed entry. Author is set at creation and immutable
	// afterwards, it is the single owner for authorization purposes.
	Post struct {
		ID        ID
		Author    account.ID
		Title     string
		Caption   string
		Hashtags  []string
		MediaURL  string
		MediaType string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Filter narrows List results. Zero values match everything.
	Filter struct {
		Hashtag string
		Author  account.ID
	}

	// Store is the persistence contract for posts. List returns
	// newest first.
	Store interface {
		FindByID(ctx context.Context, id ID) (*Post, error)
		List(ctx context.Context, filter Filter) ([]Post, error)
		Insert(ctx context.Context, p *Post) error
		Save(ctx context.Context, p *Post) error
		Delete(ctx context.Context, id ID) error
	}
)

var (
	ErrNotFound = errors.New("post: not found")
)

func NewID() ID {
	return ID(uuid.NewString())
}
