// Package store persists accounts and posts in a single sqlite
// database and implements the storage contracts consumed by the
// account and post packages.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/mattn/go-sqlite3"
)

type (
	// Store wraps the sqlite handle plus a small in-memory cache for
	// hot post lookups. Safe for concurrent use. The Accounts and
	// Posts facades expose the storage contracts consumed by the
	// account and post packages.
	Store struct {
		db        *sql.DB
		postCache *bigcache.BigCache
	}

	Accounts struct {
		s *Store
	}

	Posts struct {
		s *Store
	}
)

const postCacheTTL = 10 * time.Minute

func openFeedDatabase(ctx context.Context, dir string) (*sql.DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: unable to create directory %v, cause %w", dir, err)
	}
	dbfile := filepath.Join(dir, "feed.db")
	connstr := fmt.Sprintf("file:%v?_journal=wal&mode=rwc", dbfile)
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("store: unable to open %v, cause %w", dbfile, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: unable to ping %v, cause %w", dbfile, err)
	}
	return conn, nil
}

// Open loads (creating if needed) the feed database under dir.
func Open(ctx context.Context, dir string) (*Store, error) {
	conn, err := openFeedDatabase(ctx, dir)
	if err != nil {
		return nil, err
	}
	cache, err := bigcache.New(ctx, bigcache.DefaultConfig(postCacheTTL))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: unable to create post cache, cause %w", err)
	}
	s := &Store{db: conn, postCache: cache}
	if err := s.init(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: unable to init schema, cause %w", err)
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		`create table if not exists accounts (
			account_id text primary key,
			username text not null,
			email text not null unique,
			email_hash64 integer not null,
			password_hash text not null,
			created_at timestamp not null
		)`,
		`create index if not exists idx_accounts_email_hash64 on accounts (email_hash64)`,
		`create table if not exists posts (
			post_id text primary key,
			author_id text not null,
			title text not null,
			caption text not null default '',
			hashtags text not null default '[]',
			media_url text not null,
			media_type text not null,
			created_at timestamp not null,
			updated_at timestamp not null
		)`,
		`create index if not exists idx_posts_author on posts (author_id)`,
		`create index if not exists idx_posts_created_at on posts (created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: unable to run %q, cause %w", stmt, err)
		}
	}
	return nil
}

func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

func (s *Store) Posts() *Posts { return &Posts{s: s} }

func (s *Store) Close() error {
	s.postCache.Close()
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
