package pty

import "sync"

// Registry is the single source of truth mapping session identifiers to live
// Sessions. It is the only holder of strong Session references; everything
// else addresses sessions by identifier so a removed session immediately
// becomes unreachable to late-arriving writes and resizes.
//
// A Registry is an ordinary value wired in by the caller, not a package-level
// singleton, so tests can run several independent registries side by side.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a new, empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register inserts the session under its identifier. If a live session is
// already registered under the same identifier it is killed and replaced,
// so a reused tab id never leaks an orphaned child process.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	old := r.sessions[s.id]
	r.sessions[s.id] = s
	r.mu.Unlock()

	if old != nil && old != s {
		_ = old.Close()
	}
}

// Get returns the session for the identifier, or ErrSessionNotFound if it
// was never registered or already retired.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove drops the entry and kills the session if it has not already exited.
// Removing an unknown identifier is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if s != nil {
		_ = s.Close()
	}
}

// retire removes the entry only if it still maps to the given session. The
// output pump calls this at end-of-stream; the pointer comparison keeps a
// stale pump from retiring a replacement session registered under the same
// identifier in the meantime.
func (r *Registry) retire(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[s.id] != s {
		return false
	}
	delete(r.sessions, s.id)
	return true
}

// List returns metadata for every registered session.
func (r *Registry) List() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		rows, cols := s.Size()
		infos = append(infos, SessionInfo{
			ID:        s.id,
			WorkDir:   s.workDir,
			Rows:      rows,
			Cols:      cols,
			Active:    !s.Closed(),
			CreatedAt: s.createdAt,
		})
	}
	return infos
}

// Close kills and removes all sessions. Used as the shutdown safety net so
// no child process outlives the application even if the UI never tore its
// tabs down.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}
}
