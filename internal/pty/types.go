package pty

import (
	"errors"
	"time"
)

// EventType distinguishes the kind of event produced by a Session.
type EventType int

const (
	// EventOutput indicates that new data was read from the PTY.
	EventOutput EventType = iota
	// EventClosed indicates that the child process has exited.
	EventClosed
)

// Event is a single notification emitted by a Session.
type Event struct {
	Type EventType
	ID   string
	Data string
}

var (
	// ErrSessionNotFound is returned when an identifier has no live session,
	// either because it was never spawned or because it was already retired.
	ErrSessionNotFound = errors.New("pty: session not found")
	// ErrSessionClosed is returned by Write and Resize after the child has
	// exited or the session was killed. Callers must treat it as "session
	// gone" rather than retry.
	ErrSessionClosed = errors.New("pty: session closed")
)

// Topic returns the per-session event channel name the UI subscribes to.
// It is deterministic so the frontend can derive it from the tab identifier.
func Topic(id string) string {
	return "pty-output-" + id
}

// SessionInfo is a read-only snapshot of session metadata returned by Registry.List.
type SessionInfo struct {
	ID        string
	WorkDir   string
	Rows      uint16
	Cols      uint16
	Active    bool
	CreatedAt time.Time
}
