// Package api exposes signup, login and logout over HTTP. It is a
// thin translation layer: decode the payload, call the
// authenticator, map the error taxonomy onto status codes and move
// the session token in or out of the cookie.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/reelfeed/reelfeed/account"
	"github.com/reelfeed/reelfeed/internal/logutil"
	sessionapi "github.com/reelfeed/reelfeed/session/api"
)

const maxPayloadBytes = 1 << 20

type (
	identityBody struct {
		Message string         `json:"message"`
		User    account.Public `json:"user"`
	}

	messageBody struct {
		Message string `json:"message"`
	}
)

// Register mounts the authentication endpoints on the router.
func Register(router *httprouter.Router, auth *account.Authenticator, realm *sessionapi.Realm) {
	router.HandlerFunc("POST", "/signup", signup(auth, realm))
	router.HandlerFunc("POST", "/login", login(auth, realm))
	router.HandlerFunc("POST", "/logout", logout(realm))
}

func signup(auth *account.Authenticator, realm *sessionapi.Realm) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req account.SignupRequest
		if !readJSON(w, r, &req) {
			return
		}
		public, token, err := auth.Signup(r.Context(), req)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		realm.SetSession(w, token)
		writeJSON(w, http.StatusCreated, identityBody{Message: "User registered successfully", User: public})
	}
}

func login(auth *account.Authenticator, realm *sessionapi.Realm) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req account.LoginRequest
		if !readJSON(w, r, &req) {
			return
		}
		public, token, err := auth.Login(r.Context(), req)
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		realm.SetSession(w, token)
		writeJSON(w, http.StatusOK, identityBody{Message: "Login successful", User: public})
	}
}

// logout clears the cookie and nothing else, it is idempotent by
// construction. The token itself stays valid until expiry, there is
// no server side revocation.
func logout(realm *sessionapi.Realm) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		realm.ClearSession(w)
		writeJSON(w, http.StatusOK, messageBody{Message: "Logged out successfully"})
	}
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var verr account.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, messageBody{Message: verr.Error()})
	case errors.Is(err, account.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, messageBody{Message: "User already exists"})
	case errors.Is(err, account.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, messageBody{Message: "Invalid credentials"})
	default:
		// backend failure, log the cause but never leak it
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Msg("Unexpected error handling auth request")
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: "Server error"})
	}
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
