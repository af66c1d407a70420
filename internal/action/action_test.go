package action

import (
	"context"
	"testing"
)

func TestRunSuccess(t *testing.T) {
	code, err := Run(context.Background(), Command{"/bin/true"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	code, err := Run(context.Background(), Command{"/bin/sh", "-c", "exit 3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}
}

func TestRunEmptyCommandIsNoop(t *testing.T) {
	code, err := Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Command{"/no/such/binary-oniond-test"})
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}
