package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testIssuer(t *testing.T, lifetime time.Duration) *Issuer {
	iss, err := NewIssuer(Config{Secret: testSecret, Lifetime: lifetime})
	require.NoError(t, err)
	return iss
}

func TestIssueAndVerify(t *testing.T) {
	iss := testIssuer(t, time.Hour)

	token, err := iss.Issue("account-1")
	require.NoError(t, err)

	subject, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "account-1", subject)
}

func TestVerifyExpired(t *testing.T) {
	iss := testIssuer(t, time.Millisecond)

	token, err := iss.Issue("account-1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = iss.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTamperedSignature(t *testing.T) {
	iss := testIssuer(t, time.Hour)

	token, err := iss.Issue("account-1")
	require.NoError(t, err)

	// flip one byte of the signature segment
	dot := strings.LastIndexByte(token, '.')
	require.True(t, dot > 0)
	sig := []byte(token[dot+1:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = iss.Verify(token[:dot+1] + string(sig))
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestVerifyWrongSecret(t *testing.T) {
	iss := testIssuer(t, time.Hour)
	other, err := NewIssuer(Config{Secret: []byte("ffffffffffffffffffffffffffffffff"), Lifetime: time.Hour})
	require.NoError(t, err)

	token, err := other.Issue("account-1")
	require.NoError(t, err)

	_, err = iss.Verify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestVerifyMalformed(t *testing.T) {
	iss := testIssuer(t, time.Hour)
	for _, token := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := iss.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestIssuerConfig(t *testing.T) {
	_, err := NewIssuer(Config{Secret: []byte("too-short"), Lifetime: time.Hour})
	assert.Error(t, err)

	_, err = NewIssuer(Config{Secret: testSecret, Lifetime: 0})
	assert.Error(t, err)

	iss := testIssuer(t, time.Hour)
	_, err = iss.Issue("")
	assert.Error(t, err)
}

func TestSecretFromEnv(t *testing.T) {
	env := map[string]string{"SECRET": string(testSecret)}
	getfn := func(k string) string { return env[k] }
	setfn := func(k, v string) error { env[k] = v; return nil }

	secret, err := SecretFromEnv("SECRET", getfn, setfn)
	require.NoError(t, err)
	assert.Equal(t, testSecret, secret)
	assert.Empty(t, env["SECRET"], "secret must be wiped from the environment")

	_, err = SecretFromEnv("SECRET", getfn, setfn)
	assert.Error(t, err, "wiped secret must not be readable twice")
}
