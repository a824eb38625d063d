package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelfeed/reelfeed/account"
	accountapi "github.com/reelfeed/reelfeed/account/api"
	"github.com/reelfeed/reelfeed/credential"
	"github.com/reelfeed/reelfeed/internal/testutil"
	"github.com/reelfeed/reelfeed/session"
	sessionapi "github.com/reelfeed/reelfeed/session/api"
)

func authHandler(ctx context.Context, t *testing.T) (http.Handler, func()) {
	s, cleanup := testutil.AcquireStore(ctx, t)
	issuer, err := session.NewIssuer(session.Config{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Lifetime: time.Hour,
	})
	require.NoError(t, err)
	hasher := credential.NewHasher(credential.WithTime(1), credential.WithMemory(8*1024), credential.WithThreads(1))
	auth := account.NewAuthenticator(s.Accounts(), hasher, issuer)
	realm := sessionapi.NewRealm(issuer, true)

	router := httprouter.New()
	accountapi.Register(router, auth, realm)
	return router, cleanup
}

func TestSignupEndpoint(t *testing.T) {
	ctx := context.Background()
	handler, cleanup := authHandler(ctx, t)
	defer cleanup()

	result := apitest.New().
		Handler(handler).
		Post("/signup").
		JSON(`{"username":"alice","email":"alice@x.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal(`$.user.username`, "alice")).
		Assert(jsonpath.Equal(`$.user.email`, "alice@x.com")).
		Assert(jsonpath.Present(`$.user.id`)).
		Assert(jsonpath.NotPresent(`$.user.passwordHash`)).
		Assert(jsonpath.NotPresent(`$.user.password`)).
		End()

	cookie := sessionCookie(t, result)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestSignupRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	handler, cleanup := authHandler(ctx, t)
	defer cleanup()

	cases := map[string]string{
		"missing fields": `{"username":"alice"}`,
		"bad email":      `{"username":"alice","email":"nope","password":"secret1"}`,
		"short password": `{"username":"alice","email":"alice@x.com","password":"nope"}`,
		"not json":       `not json at all`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			apitest.New().
				Handler(handler).
				Post("/signup").
				JSON(body).
				Expect(t).
				Status(http.StatusBadRequest).
				End()
		})
	}
}

func TestSignupDuplicateEmailEndpoint(t *testing.T) {
	ctx := context.Background()
	handler, cleanup := authHandler(ctx, t)
	defer cleanup()

	signup(t, handler, `{"username":"alice","email":"alice@x.com","password":"secret1"}`)

	apitest.New().
		Handler(handler).
		Post("/signup").
		JSON(`{"username":"impostor","email":"alice@x.com","password":"secret2"}`).
		Expect(t).
		Status(http.StatusConflict).
		Assert(jsonpath.Equal(`$.message`, "User already exists")).
		End()
}

func TestLoginEndpoint(t *testing.T) {
	ctx := context.Background()
	handler, cleanup := authHandler(ctx, t)
	defer cleanup()

	created := signup(t, handler, `{"username":"alice","email":"alice@x.com","password":"secret1"}`)

	apitest.New().
		Handler(handler).
		Post("/login").
		JSON(`{"email":"alice@x.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.user.id`, created)).
		Assert(jsonpath.NotPresent(`$.user.passwordHash`)).
		End()
}

func TestLoginFailuresAreUniform(t *testing.T) {
	ctx := context.Background()
	handler, cleanup := authHandler(ctx, t)
	defer cleanup()

	signup(t, handler, `{"username":"alice","email":"alice@x.com","password":"secret1"}`)

	// unknown email and wrong password must be indistinguishable
	for name, body := range map[string]string{
		"unknown email":  `{"email":"nobody@x.com","password":"secret1"}`,
		"wrong password": `{"email":"alice@x.com","password":"wrong1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			apitest.New().
				Handler(handler).
				Post("/login").
				JSON(body).
				Expect(t).
				Status(http.StatusUnauthorized).
				Assert(jsonpath.Equal(`$.message`, "Invalid credentials")).
				End()
		})
	}
}

func TestLogoutEndpoint(t *testing.T) {
	ctx := context.Background()
	handler, cleanup := authHandler(ctx, t)
	defer cleanup()

	result := apitest.New().
		Handler(handler).
		Post("/logout").
		Expect(t).
		Status(http.StatusOK).
		End()
	cookie := sessionCookie(t, result)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0, "logout must expire the session cookie")

	// logging out twice is not an error
	apitest.New().
		Handler(handler).
		Post("/logout").
		Expect(t).
		Status(http.StatusOK).
		End()
}

func signup(t *testing.T, handler http.Handler, body string) string {
	result := apitest.New().
		Handler(handler).
		Post("/signup").
		JSON(body).
		Expect(t).
		Status(http.StatusCreated).
		End()
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	defer result.Response.Body.Close()
	require.NoError(t, json.NewDecoder(result.Response.Body).Decode(&out))
	require.NotEmpty(t, out.User.ID)
	return out.User.ID
}

func sessionCookie(t *testing.T, result apitest.Result) *http.Cookie {
	for _, cookie := range result.Response.Cookies() {
		if cookie.Name == sessionapi.CookieName {
			return cookie
		}
	}
	t.Fatalf("no %v cookie in response", sessionapi.CookieName)
	return nil
}
