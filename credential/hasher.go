// Package credential implements one-way password hashing.
//
// Hashes are Argon2id keys encoded in the PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$key), so the work factor
// used at hash time travels with the stored value and can be raised
// for new accounts without invalidating old ones.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	defaultTime    = 3
	defaultMemory  = 64 * 1024 // KiB
	defaultThreads = 4
	defaultSaltLen = 16
	defaultKeyLen  = 32
)

type (
	// Hasher derives and verifies Argon2id password hashes. The zero
	// value is not usable, call NewHasher.
	Hasher struct {
		time    uint32
		memory  uint32
		threads uint8
		saltLen uint32
		keyLen  uint32
	}

	// Option tunes the work factor of a Hasher.
	Option func(*Hasher)
)

var (
	ErrEmptyPassword = errors.New("credential: password must not be empty")
)

// WithTime sets the number of Argon2 passes.
func WithTime(t uint32) Option {
	return func(h *Hasher) {
		if t > 0 {
			h.time = t
		}
	}
}

// WithMemory sets the Argon2 memory cost in KiB.
func WithMemory(m uint32) Option {
	return func(h *Hasher) {
		if m > 0 {
			h.memory = m
		}
	}
}

// WithThreads sets the Argon2 parallelism.
func WithThreads(t uint8) Option {
	return func(h *Hasher) {
		if t > 0 {
			h.threads = t
		}
	}
}

func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		time:    defaultTime,
		memory:  defaultMemory,
		threads: defaultThreads,
		saltLen: defaultSaltLen,
		keyLen:  defaultKeyLen,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash derives a fresh salted hash of plaintext. Two calls with the
// same plaintext yield different encodings (distinct salts), both of
// which verify.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) == 0 {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("credential: unable to generate salt, cause %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, h.time, h.memory, h.threads, h.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify reports whether plaintext matches the encoded hash. The
// comparison runs in constant time over the derived key. Malformed
// encodings verify false, they never panic and never error out.
func (h *Hasher) Verify(plaintext, encoded string) bool {
	if len(plaintext) == 0 {
		return false
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false
	}
	var version int
	if n, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || n != 1 || version != argon2.Version {
		return false
	}
	var memory, time uint32
	var threads uint8
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil || n != 3 {
		return false
	}
	if memory == 0 || time == 0 || threads == 0 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}
	got := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
