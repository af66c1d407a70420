// Package action runs the user-configured activation/deactivation
// commands as argv vectors, never through a shell, matching the
// original implementation's parse_command + subprocess invocation.
package action

import (
	"context"
	"fmt"
	"os/exec"
)

// Command is a parsed argv vector ready to run.
type Command []string

// Run executes the command and returns its exit code. A command with
// no argv (unset in configuration) is a no-op that returns 0.
func Run(ctx context.Context, cmd Command) (int, error) {
	if len(cmd) == 0 {
		return 0, nil
	}

	c := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
	err := c.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("action: run %v: %w", cmd, err)
}
