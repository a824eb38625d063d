package credential

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher()

	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "expected PHC encoding, got %v", hash)

	assert.True(t, h.Verify("secret1", hash))
	assert.False(t, h.Verify("secret2", hash))
	assert.False(t, h.Verify("", hash))
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher()

	first, err := h.Hash("secret1")
	require.NoError(t, err)
	second, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must use distinct salts")
	assert.True(t, h.Verify("secret1", first))
	assert.True(t, h.Verify("secret1", second))
}

func TestEmptyPassword(t *testing.T) {
	h := NewHasher()
	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewHasher()
	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	malformed := []string{
		"",
		"plaintext",
		"$argon2id$",
		"$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
	}
	for _, enc := range malformed {
		assert.False(t, h.Verify("secret1", enc), "encoding %q must not verify", enc)
	}

	// corrupt the salt of an otherwise valid hash
	parts := strings.Split(hash, "$")
	require.Len(t, parts, 6)
	parts[4] = "invalid!base64"
	assert.False(t, h.Verify("secret1", strings.Join(parts, "$")))
}

func TestCustomWorkFactor(t *testing.T) {
	// cheap parameters keep the test fast, the encoding carries them
	// so verification still works
	h := NewHasher(WithTime(1), WithMemory(8*1024), WithThreads(1))
	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.Contains(t, hash, "m=8192,t=1,p=1")

	// a default hasher verifies hashes produced with other parameters
	assert.True(t, NewHasher().Verify("secret1", hash))
}

func TestConcurrentVerify(t *testing.T) {
	h := NewHasher(WithTime(1), WithMemory(8*1024), WithThreads(1))
	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, h.Verify("secret1", hash))
		}()
	}
	wg.Wait()
}
