// Package testutil provides shared helpers for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/dfilippo/lavoro/store"
)

// NewDB opens a throwaway bolt database in a temp directory. The connection
// is closed when the test finishes.
func NewDB(t *testing.T) *store.Client {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "lavoro.db")

	client, err := store.NewClient(dbPath)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}
