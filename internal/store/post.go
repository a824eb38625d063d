package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reelfeed/reelfeed/account"
	"github.com/reelfeed/reelfeed/post"
)

type (
	// postRow is the sqlite shape of a post, hashtags are kept as a
	// JSON array in a text column. The same encoding doubles as the
	// cache entry format.
	postRow struct {
		ID        string    `json:"id"`
		Author    string    `json:"author"`
		Title     string    `json:"title"`
		Caption   string    `json:"caption"`
		Hashtags  string    `json:"hashtags"`
		MediaURL  string    `json:"mediaUrl"`
		MediaType string    `json:"mediaType"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

func toRow(p *post.Post) (postRow, error) {
	tags := p.Hashtags
	if tags == nil {
		tags = []string{}
	}
	buf, err := json.Marshal(tags)
	if err != nil {
		return postRow{}, fmt.Errorf("store: unable to encode hashtags, cause %w", err)
	}
	return postRow{
		ID:        string(p.ID),
		Author:    string(p.Author),
		Title:     p.Title,
		Caption:   p.Caption,
		Hashtags:  string(buf),
		MediaURL:  p.MediaURL,
		MediaType: p.MediaType,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (r postRow) toPost() (post.Post, error) {
	var tags []string
	if err := json.Unmarshal([]byte(r.Hashtags), &tags); err != nil {
		return post.Post{}, fmt.Errorf("store: unable to decode hashtags of post %v, cause %w", r.ID, err)
	}
	return post.Post{
		ID:        post.ID(r.ID),
		Author:    account.ID(r.Author),
		Title:     r.Title,
		Caption:   r.Caption,
		Hashtags:  tags,
		MediaURL:  r.MediaURL,
		MediaType: r.MediaType,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func (p *Posts) FindByID(ctx context.Context, id post.ID) (*post.Post, error) {
	if buf, err := p.s.postCache.Get(string(id)); err == nil {
		var row postRow
		if err := json.Unmarshal(buf, &row); err == nil {
			out, err := row.toPost()
			if err == nil {
				return &out, nil
			}
		}
		// a cache entry we cannot decode is dropped and reloaded
		p.s.postCache.Delete(string(id))
	}
	row, err := p.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if buf, err := json.Marshal(row); err == nil {
		p.s.postCache.Set(string(id), buf)
	}
	out, err := row.toPost()
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *Posts) load(ctx context.Context, id post.ID) (postRow, error) {
	var row postRow
	err := p.s.db.QueryRowContext(ctx,
		`select post_id, author_id, title, caption, hashtags, media_url, media_type, created_at, updated_at
		from posts where post_id = ?`, string(id)).
		Scan(&row.ID, &row.Author, &row.Title, &row.Caption, &row.Hashtags,
			&row.MediaURL, &row.MediaType, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return postRow{}, post.ErrNotFound
	} else if err != nil {
		return postRow{}, fmt.Errorf("store: unable to load post %v, cause %w", id, err)
	}
	return row, nil
}

func (p *Posts) List(ctx context.Context, filter post.Filter) ([]post.Post, error) {
	query := strings.Builder{}
	query.WriteString(`select post_id, author_id, title, caption, hashtags, media_url, media_type, created_at, updated_at from posts`)
	var conds []string
	var args []interface{}
	if len(filter.Hashtag) > 0 {
		// exact, case-sensitive match against the JSON array elements.
		// LIKE would be ASCII case-insensitive and would honor %/_
		// wildcards from the client.
		conds = append(conds, `exists (select 1 from json_each(posts.hashtags) where json_each.value = ?)`)
		args = append(args, filter.Hashtag)
	}
	if len(filter.Author) > 0 {
		conds = append(conds, `author_id = ?`)
		args = append(args, string(filter.Author))
	}
	if len(conds) > 0 {
		query.WriteString(" where ")
		query.WriteString(strings.Join(conds, " and "))
	}
	query.WriteString(" order by created_at desc, post_id desc")
	rows, err := p.s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: unable to list posts, cause %w", err)
	}
	defer rows.Close()
	var out []post.Post
	for rows.Next() {
		var row postRow
		err = rows.Scan(&row.ID, &row.Author, &row.Title, &row.Caption, &row.Hashtags,
			&row.MediaURL, &row.MediaType, &row.CreatedAt, &row.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("store: unable to scan post row, cause %w", err)
		}
		item, err := row.toPost()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (p *Posts) Insert(ctx context.Context, item *post.Post) error {
	row, err := toRow(item)
	if err != nil {
		return err
	}
	_, err = p.s.db.ExecContext(ctx,
		`insert into posts (post_id, author_id, title, caption, hashtags, media_url, media_type, created_at, updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Author, row.Title, row.Caption, row.Hashtags,
		row.MediaURL, row.MediaType, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: unable to insert post, cause %w", err)
	}
	return nil
}

func (p *Posts) Save(ctx context.Context, item *post.Post) error {
	row, err := toRow(item)
	if err != nil {
		return err
	}
	res, err := p.s.db.ExecContext(ctx,
		`update posts set title = ?, caption = ?, hashtags = ?, media_url = ?, media_type = ?, updated_at = ?
		where post_id = ?`,
		row.Title, row.Caption, row.Hashtags, row.MediaURL, row.MediaType, row.UpdatedAt, row.ID)
	if err != nil {
		return fmt.Errorf("store: unable to update post %v, cause %w", item.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return post.ErrNotFound
	}
	p.s.postCache.Delete(row.ID)
	return nil
}

func (p *Posts) Delete(ctx context.Context, id post.ID) error {
	res, err := p.s.db.ExecContext(ctx, `delete from posts where post_id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("store: unable to delete post %v, cause %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return post.ErrNotFound
	}
	p.s.postCache.Delete(string(id))
	return nil
}
