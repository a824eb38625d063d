// Package api protects HTTP handlers with session verification and
// owns the session cookie contract (name, flags, lifetime).
package api

import (
	"context"
	"net/http"
	"regexp"

	"github.com/reelfeed/reelfeed/internal/logutil"
	"github.com/reelfeed/reelfeed/session"
)

type (
	// Realm verifies the session presented by a request, either as
	// the session cookie or as an Authorization bearer header, and
	// injects the recovered account id into the request context.
	Realm struct {
		tokens         *session.Issuer
		insecureCookie bool
	}

	callerKey struct{}
)

// CookieName is the name of the session cookie.
const CookieName = "reelfeed_session"

var (
	bearerTokenRE = regexp.MustCompile(`^Bearer ([^\s]+)$`)
)

func NewRealm(tokens *session.Issuer, allowHTTPCookie bool) *Realm {
	return &Realm{
		tokens:         tokens,
		insecureCookie: allowHTTPCookie,
	}
}

// Protect rejects requests without a valid session with a 401 before
// they reach the sensitive handler. All verification failures look
// identical to the client.
func (s *Realm) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := s.checkToken(r)
		if !ok {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		sensitive.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func (s *Realm) checkToken(r *http.Request) (string, bool) {
	ctx := r.Context()
	log := logutil.GetOrDefault(ctx)
	tk := s.extractToken(r)
	if len(tk) == 0 {
		return "", false
	}
	subject, err := s.tokens.Verify(tk)
	if err != nil {
		log.Debug().Err(err).Msg("Rejecting request with unverifiable session token")
		return "", false
	}
	return subject, true
}

func (s *Realm) extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && len(cookie.Value) > 0 {
		return cookie.Value
	}
	groups := bearerTokenRE.FindStringSubmatch(r.Header.Get("Authorization"))
	if len(groups) == 0 {
		return ""
	}
	return groups[1]
}

// SetSession writes the session cookie carrying the given token. The
// cookie is never script accessible and its max-age mirrors the
// token lifetime.
func (s *Realm) SetSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokens.Lifetime().Seconds()),
		HttpOnly: true,
		Secure:   !s.insecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession expires the session cookie with attributes matching
// the ones used at issuance. Clearing an absent cookie is fine.
func (s *Realm) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.insecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// WithCaller returns a context carrying the verified account id.
func WithCaller(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, callerKey{}, accountID)
}

// Caller recovers the account id placed in the context by Protect.
func Caller(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(callerKey{}).(string)
	return v, ok && len(v) > 0
}
