package pty

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	creackpty "github.com/creack/pty"
)

// Session wraps one shell child process running inside a PTY. It is created
// through Registry/Manager and exclusively owned by one registry entry; the
// write path (facade) and the read path (output pump) are its only users.
type Session struct {
	id        string
	workDir   string
	createdAt time.Time

	cmd  *exec.Cmd
	ptmx *os.File

	events   chan Event
	readDone chan struct{}

	mu        sync.Mutex
	rows      uint16
	cols      uint16
	closed    bool
	closeOnce sync.Once
}

// newSession spawns the user's interactive login shell inside a new PTY.
// workDir may be empty, in which case the child inherits our cwd. Zero
// dimensions are clamped to 1 so transient layout glitches in the caller
// never make the spawn fail.
func newSession(id, workDir string, rows, cols uint16) (*Session, error) {
	if workDir != "" {
		info, err := os.Stat(workDir)
		if err != nil {
			return nil, fmt.Errorf("pty: working directory %q: %w", workDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("pty: working directory %q is not a directory", workDir)
		}
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	// Login + interactive so the user's profile (PATH, aliases) is loaded;
	// the terminal panes are expected to behave like a real terminal app.
	cmd := exec.Command(shell, "-l", "-i")
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	rows = clampDim(rows)
	cols = clampDim(cols)

	ptmx, err := creackpty.StartWithSize(cmd, &creackpty.Winsize{
		Rows: rows,
		Cols: cols,
	})
	if err != nil {
		return nil, fmt.Errorf("pty: spawn %s: %w", shell, err)
	}

	s := &Session{
		id:        id,
		workDir:   workDir,
		createdAt: time.Now(),
		cmd:       cmd,
		ptmx:      ptmx,
		events:    make(chan Event, 1024),
		readDone:  make(chan struct{}),
		rows:      rows,
		cols:      cols,
	}

	go s.readLoop()
	go s.waitExit()

	return s, nil
}

// readLoop reads raw bytes from the PTY fd and sends EventOutput events.
// Output is forwarded as opaque bytes; chunk boundaries may split multi-byte
// sequences and the display widget is responsible for re-synchronizing.
func (s *Session) readLoop() {
	defer close(s.readDone)

	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.events <- Event{
				Type: EventOutput,
				ID:   s.id,
				Data: string(buf[:n]),
			}
		}
		if err != nil {
			return
		}
	}
}

// waitExit reaps the child process, then sends a single EventClosed event
// and closes the events channel. It waits for the read loop to drain any
// buffered output first so EventClosed is always the final event.
func (s *Session) waitExit() {
	_ = s.cmd.Wait()
	<-s.readDone

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.events <- Event{
		Type: EventClosed,
		ID:   s.id,
	}
	close(s.events)
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// WorkDir returns the working directory the session was started with.
func (s *Session) WorkDir() string { return s.workDir }

// Events returns the read-only channel of session events. The channel is
// closed after the final EventClosed once the child has exited.
func (s *Session) Events() <-chan Event { return s.events }

// Size returns the current PTY dimensions.
func (s *Session) Size() (rows, cols uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows, s.cols
}

// Closed reports whether the child has exited or the session was killed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Write forwards raw bytes (user keystrokes) to the child via the PTY master.
func (s *Session) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}
	return s.ptmx.Write(data)
}

// Resize updates the PTY window size so the child's line discipline and any
// full-screen program inside it reflows. Zero dimensions are clamped to 1;
// unchanged dimensions are a no-op.
func (s *Session) Resize(rows, cols uint16) error {
	rows = clampDim(rows)
	cols = clampDim(cols)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if rows == s.rows && cols == s.cols {
		return nil
	}

	if err := creackpty.Setsize(s.ptmx, &creackpty.Winsize{
		Rows: rows,
		Cols: cols,
	}); err != nil {
		return fmt.Errorf("pty: resize: %w", err)
	}

	s.rows = rows
	s.cols = cols
	return nil
}

// Close terminates the child process (SIGTERM) and closes the PTY fd.
// It is safe to call Close multiple times and after natural exit.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if s.cmd.Process != nil {
			_ = s.cmd.Process.Signal(syscall.SIGTERM)
		}

		err = s.ptmx.Close()
	})
	return err
}

func clampDim(v uint16) uint16 {
	if v == 0 {
		return 1
	}
	return v
}
