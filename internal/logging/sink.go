package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/CodexForgeBR/setup-tools/internal/fsx"
)

// Sink appends timestamped lines to a log file. The path is injected at
// construction time and never inferred from the process environment.
//
// A Sink never surfaces write failures to its callers: if the file cannot
// be bootstrapped or a write fails, the sink degrades to stderr-only
// output for that and all subsequent lines. Each Append is a single
// write syscall, so concurrent invocations of the CLI interleave whole
// lines in a shared log file but never corrupt one.
type Sink struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writable bool
}

// NewSink resolves the log destination at path, creating the directory
// and file if needed. A sink that failed to bootstrap is still usable;
// it just writes nothing to disk.
func NewSink(path string) *Sink {
	s := &Sink{path: path}
	if path == "" {
		return s
	}

	if err := fsx.EnsureFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "log sink unavailable, continuing with console only: %v\n", err)
		return s
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log sink unavailable, continuing with console only: %v\n", err)
		return s
	}

	s.file = f
	s.writable = true
	return s
}

// Writable reports whether the sink's file destination is usable.
func (s *Sink) Writable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writable
}

// Path returns the resolved log file path.
func (s *Sink) Path() string {
	return s.path
}

// Append writes one timestamped line to the log file. Failures degrade
// the sink to stderr-only; they are never returned.
func (s *Sink) Append(msg string) {
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format(time.RFC3339), msg)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.writable {
		return
	}

	if _, err := s.file.WriteString(line); err != nil {
		s.writable = false
		s.file.Close()
		s.file = nil
		fmt.Fprintf(os.Stderr, "log write failed, continuing with console only: %v\n", err)
	}
}

// Close releases the underlying file. Safe to call on a degraded sink.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writable = false
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
