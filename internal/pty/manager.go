package pty

import (
	"log/slog"
)

// EventSink receives per-session output and lifecycle notifications.
// The websocket hub implements it; the pty package never imports the hub.
type EventSink interface {
	// SessionOutput delivers a chunk of raw terminal output for a session.
	SessionOutput(id string, data string)
	// SessionClosed signals, exactly once per session, that the child has
	// exited and no further output will follow.
	SessionClosed(id string)
}

// Manager is the public surface the UI boundary talks to: spawn, write,
// resize and teardown, coordinating the Registry and one output pump
// goroutine per session.
type Manager struct {
	registry *Registry
	sink     EventSink
}

// NewManager creates a Manager around the given registry and sink.
func NewManager(registry *Registry, sink EventSink) *Manager {
	return &Manager{
		registry: registry,
		sink:     sink,
	}
}

// Spawn creates a new shell session for the identifier and starts pumping
// its output to the sink. A live session already registered under the same
// identifier is killed and replaced. On spawn failure nothing is registered.
func (m *Manager) Spawn(id, workDir string, rows, cols uint16) error {
	s, err := newSession(id, workDir, rows, cols)
	if err != nil {
		return err
	}

	m.registry.Register(s)
	go m.pump(s)

	slog.Info("terminal session spawned", "session_id", id, "work_dir", workDir, "rows", rows, "cols", cols)
	return nil
}

// pump drains one session's events and forwards them to the sink. It holds
// no registry lock while reading, so a slow consumer never stalls other
// sessions. At end-of-stream it retires the registry entry and signals the
// sink exactly once.
func (m *Manager) pump(s *Session) {
	for ev := range s.Events() {
		if ev.Type == EventOutput && m.sink != nil {
			m.sink.SessionOutput(s.id, ev.Data)
		}
	}

	m.registry.retire(s)
	if m.sink != nil {
		m.sink.SessionClosed(s.id)
	}
	slog.Info("terminal session ended", "session_id", s.id)
}

// Write forwards raw keystroke bytes to the session's child process.
// Returns ErrSessionNotFound for unknown or retired identifiers, or
// ErrSessionClosed if the child exited between lookup and write.
func (m *Manager) Write(id string, data []byte) error {
	s, err := m.registry.Get(id)
	if err != nil {
		return err
	}
	_, err = s.Write(data)
	return err
}

// Resize updates the session's PTY window size.
func (m *Manager) Resize(id string, rows, cols uint16) error {
	s, err := m.registry.Get(id)
	if err != nil {
		return err
	}
	return s.Resize(rows, cols)
}

// Teardown kills and removes the session. It never fails observably: the
// session is being discarded, so errors are logged and swallowed.
func (m *Manager) Teardown(id string) {
	if _, err := m.registry.Get(id); err != nil {
		return
	}
	m.registry.Remove(id)
	slog.Info("terminal session torn down", "session_id", id)
}

// List returns metadata for all registered sessions.
func (m *Manager) List() []SessionInfo {
	return m.registry.List()
}

// Close tears down every session. Called once at application shutdown.
func (m *Manager) Close() {
	m.registry.Close()
}
