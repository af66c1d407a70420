package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestWriteAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oniond.pid")

	f, err := Write(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected pid file to exist: %v", err)
	}
	if strconv.Itoa(os.Getpid()) != string(data) {
		t.Fatalf("expected pid file to contain %d, got %q", os.Getpid(), data)
	}

	if err := f.Remove(); err != nil {
		t.Fatalf("unexpected error removing pid file: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected pid file to be gone after Remove")
	}
}

func TestWriteRefusesWhileOwnerAlive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oniond.pid")

	first, err := Write(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer first.Remove()

	if _, err := Write(path); err == nil {
		t.Fatal("expected second Write to fail while the first process is alive")
	}
}

func TestWriteReplacesStalePidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oniond.pid")

	// A pid that is vanishingly unlikely to be alive.
	if err := os.WriteFile(path, []byte("999999"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	f, err := Write(path)
	if err != nil {
		t.Fatalf("expected stale pid file to be replaced, got error: %v", err)
	}
	defer f.Remove()
}
