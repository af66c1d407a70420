// Package pidfile implements the single-instance guard oniond uses at
// startup: write the running PID to a well-known file, refuse to start
// a second instance while that PID is alive, and remove the file on
// clean shutdown. There is no third-party PID-file library anywhere in
// the retrieval pack, and the job is a handful of stdlib os calls, so
// this stays on the standard library.
package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// File is an open PID-file guard.
type File struct {
	path string
}

// Write creates path containing the current process's PID, failing if
// another live process already holds it.
func Write(path string) (*File, error) {
	if pid, err := read(path); err == nil && processAlive(pid) {
		return nil, fmt.Errorf("pidfile: %s already running with pid %d", path, pid)
	}

	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return nil, fmt.Errorf("pidfile: write %s: %w", path, err)
	}
	return &File{path: path}, nil
}

// Remove deletes the PID file. It is a no-op if the file is already
// gone.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pidfile: remove %s: %w", f.path, err)
	}
	return nil
}

func read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("pidfile: malformed pid in %s: %w", path, err)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; signal 0 probes liveness
	// without actually signalling the process.
	return proc.Signal(syscall.Signal(0)) == nil
}
