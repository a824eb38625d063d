// Package api exposes the feed endpoints. Reads are public,
// mutations require a session and pass the ownership check. The
// existence check deliberately runs before the ownership check, so a
// missing post is a 404 for everyone while an existing post owned by
// someone else is a 403.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/reelfeed/reelfeed/account"
	"github.com/reelfeed/reelfeed/internal/logutil"
	"github.com/reelfeed/reelfeed/post"
	sessionapi "github.com/reelfeed/reelfeed/session/api"
)

const maxPayloadBytes = 1 << 20

type (
	postBody struct {
		ID        post.ID        `json:"id"`
		Title     string         `json:"title"`
		Caption   string         `json:"caption,omitempty"`
		Hashtags  []string       `json:"hashtags"`
		MediaURL  string         `json:"mediaUrl"`
		MediaType string         `json:"mediaType"`
		CreatedAt time.Time      `json:"createdAt"`
		UpdatedAt time.Time      `json:"updatedAt"`
		Author    account.Public `json:"author"`
	}

	listBody struct {
		Count int        `json:"count"`
		Posts []postBody `json:"posts"`
	}

	mutationBody struct {
		Message string    `json:"message"`
		Post    *postBody `json:"post,omitempty"`
	}

	messageBody struct {
		Message string `json:"message"`
	}

	// payload is shared by create and update, update treats absent
	// fields (and a nil hashtag list) as keep-current.
	payload struct {
		Title     string   `json:"title"`
		Caption   string   `json:"caption"`
		Hashtags  []string `json:"hashtags"`
		MediaURL  string   `json:"mediaUrl"`
		MediaType string   `json:"mediaType"`
	}
)

// Register mounts the feed endpoints on the router.
func Register(router *httprouter.Router, posts post.Store, accounts account.Store, realm *sessionapi.Realm) {
	router.HandlerFunc("GET", "/posts", list(posts, accounts))
	router.Handler("POST", "/posts", realm.Protect(create(posts, accounts)))
	router.Handler("PUT", "/posts/:id", realm.Protect(update(posts, accounts)))
	router.Handler("DELETE", "/posts/:id", realm.Protect(remove(posts)))
}

func list(posts post.Store, accounts account.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := post.Filter{
			Hashtag: r.URL.Query().Get("hashtag"),
			Author:  account.ID(r.URL.Query().Get("author")),
		}
		items, err := posts.List(r.Context(), filter)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}
		authors := map[account.ID]account.Public{}
		out := make([]postBody, 0, len(items))
		for i := range items {
			body, err := render(r, accounts, &items[i], authors)
			if err != nil {
				writeInternalError(w, r, err)
				return
			}
			out = append(out, body)
		}
		writeJSON(w, http.StatusOK, listBody{Count: len(out), Posts: out})
	}
}

func create(posts post.Store, accounts account.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := sessionapi.Caller(r.Context())
		if !ok {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		var req payload
		if !readJSON(w, r, &req) {
			return
		}
		if len(req.Title) == 0 || len(req.MediaURL) == 0 || len(req.MediaType) == 0 {
			writeJSON(w, http.StatusBadRequest, messageBody{Message: "Title, mediaUrl & mediaType are required"})
			return
		}
		if !validMediaType(req.MediaType) {
			writeJSON(w, http.StatusBadRequest, messageBody{Message: "mediaType must be image or video"})
			return
		}
		now := time.Now().UTC()
		item := &post.Post{
			ID:        post.NewID(),
			Author:    account.ID(caller),
			Title:     req.Title,
			Caption:   req.Caption,
			Hashtags:  req.Hashtags,
			MediaURL:  req.MediaURL,
			MediaType: req.MediaType,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := posts.Insert(r.Context(), item); err != nil {
			writeInternalError(w, r, err)
			return
		}
		body, err := render(r, accounts, item, map[account.ID]account.Public{})
		if err != nil {
			writeInternalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, mutationBody{Message: "Post created successfully", Post: &body})
	})
}

func update(posts post.Store, accounts account.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item, ok := loadOwned(w, r, posts, "update")
		if !ok {
			return
		}
		var req payload
		if !readJSON(w, r, &req) {
			return
		}
		if len(req.Title) > 0 {
			item.Title = req.Title
		}
		if len(req.Caption) > 0 {
			item.Caption = req.Caption
		}
		if req.Hashtags != nil {
			item.Hashtags = req.Hashtags
		}
		if len(req.MediaURL) > 0 {
			item.MediaURL = req.MediaURL
		}
		if len(req.MediaType) > 0 {
			if !validMediaType(req.MediaType) {
				writeJSON(w, http.StatusBadRequest, messageBody{Message: "mediaType must be image or video"})
				return
			}
			item.MediaType = req.MediaType
		}
		item.UpdatedAt = time.Now().UTC()
		if err := posts.Save(r.Context(), item); err != nil {
			writeInternalError(w, r, err)
			return
		}
		body, err := render(r, accounts, item, map[account.ID]account.Public{})
		if err != nil {
			writeInternalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mutationBody{Message: "Post updated successfully", Post: &body})
	})
}

func remove(posts post.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item, ok := loadOwned(w, r, posts, "delete")
		if !ok {
			return
		}
		if err := posts.Delete(r.Context(), item.ID); err != nil && !errors.Is(err, post.ErrNotFound) {
			writeInternalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageBody{Message: "Post deleted successfully"})
	})
}

func validMediaType(mt string) bool {
	return mt == "image" || mt == "video"
}

// loadOwned fetches the post named in the route and runs the
// ownership check for the caller: existence first (404), ownership
// second (403).
func loadOwned(w http.ResponseWriter, r *http.Request, posts post.Store, action string) (*post.Post, bool) {
	caller, ok := sessionapi.Caller(r.Context())
	if !ok {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return nil, false
	}
	id := post.ID(httprouter.ParamsFromContext(r.Context()).ByName("id"))
	item, err := posts.FindByID(r.Context(), id)
	if errors.Is(err, post.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, messageBody{Message: "Post not found"})
		return nil, false
	} else if err != nil {
		writeInternalError(w, r, err)
		return nil, false
	}
	if post.Authorize(account.ID(caller), item.Author) != post.Allowed {
		writeJSON(w, http.StatusForbidden, messageBody{Message: "Not authorized to " + action + " this post"})
		return nil, false
	}
	return item, true
}

// render projects a post for clients, embedding the author without
// any credential material. authors memoizes lookups across one
// request.
func render(r *http.Request, accounts account.Store, item *post.Post, authors map[account.ID]account.Public) (postBody, error) {
	author, ok := authors[item.Author]
	if !ok {
		identity, err := accounts.FindByID(r.Context(), item.Author)
		switch {
		case errors.Is(err, account.ErrNotFound):
			// accounts are never hard-deleted, but a dangling author
			// must not take the whole listing down
			author = account.Public{ID: item.Author}
		case err != nil:
			return postBody{}, err
		default:
			author = identity.Public()
		}
		authors[item.Author] = author
	}
	tags := item.Hashtags
	if tags == nil {
		tags = []string{}
	}
	return postBody{
		ID:        item.ID,
		Title:     item.Title,
		Caption:   item.Caption,
		Hashtags:  tags,
		MediaURL:  item.MediaURL,
		MediaType: item.MediaType,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
		Author:    author,
	}, nil
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logutil.GetOrDefault(r.Context())
	logger.Error().Err(err).Msg("Unexpected error handling feed request")
	writeJSON(w, http.StatusInternalServerError, messageBody{Message: "Server error"})
}

func readJSON(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err := dec.Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: "Invalid JSON payload"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.Header().Add("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(status)
	w.Write(buf)
}
