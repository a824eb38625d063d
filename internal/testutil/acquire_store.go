// Package testutil has helpers to stand up throwaway infrastructure
// for tests.
package testutil

import (
	"context"
	"os"

	"github.com/reelfeed/reelfeed/internal/store"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireStore opens a feed store backed by a temporary directory
// and returns it along with its cleanup function.
func AcquireStore(ctx context.Context, t TestLog) (*store.Store, func()) {
	dir, err := os.MkdirTemp("", "reelfeed-tests")
	if err != nil {
		t.Fatal(err)
	}
	s, err := store.Open(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	return s, func() {
		if err := s.Close(); err != nil {
			t.Log("unable to close store", err)
		}
		if err := os.RemoveAll(dir); err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
