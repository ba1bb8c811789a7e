package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestWatchSignalsOnWrite tests that writing the watched file is reported.
func TestWatchSignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed, err := Watch(ctx, path)
	if err != nil {
		t.Fatalf("Watch error: %v", err)
	}

	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	cancel()
	for range changed {
	}
}
