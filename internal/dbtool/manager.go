package dbtool

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/user/workshop/internal/db"
	"github.com/user/workshop/internal/project"
)

// Manager caches one open Backend per project so the browser panel does not
// reconnect on every request. Safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	conns map[string]Backend
}

func NewManager() *Manager {
	return &Manager{
		conns: make(map[string]Backend),
	}
}

// Backend returns the cached backend for the project, opening one if needed.
func (m *Manager) Backend(p *db.Project) (Backend, error) {
	m.mu.Lock()
	if b, ok := m.conns[p.ID]; ok {
		m.mu.Unlock()
		return b, nil
	}
	m.mu.Unlock()

	creds, err := ResolveCredentials(p)
	if err != nil {
		return nil, err
	}

	var backend Backend
	switch creds.Connection {
	case "sqlite":
		backend, err = NewSQLiteBackend(creds.Database)
	case "mysql", "mariadb":
		backend, err = NewMySQLBackend(creds)
	default:
		return nil, fmt.Errorf("dbtool: unsupported connection type %q", creds.Connection)
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.conns[p.ID]; ok {
		_ = backend.Close()
		return existing, nil
	}
	m.conns[p.ID] = backend
	return backend, nil
}

// Invalidate drops a project's cached connection, e.g. after its credentials
// were changed.
func (m *Manager) Invalidate(projectID string) {
	m.mu.Lock()
	b := m.conns[projectID]
	delete(m.conns, projectID)
	m.mu.Unlock()

	if b != nil {
		_ = b.Close()
	}
}

// Close releases all cached connections.
func (m *Manager) Close() {
	m.mu.Lock()
	conns := m.conns
	m.conns = make(map[string]Backend)
	m.mu.Unlock()

	for _, b := range conns {
		_ = b.Close()
	}
}

// ResolveCredentials determines how to reach a project's database: saved
// credentials on the project record win, otherwise the project's .env is
// read the way Laravel itself would.
func ResolveCredentials(p *db.Project) (Credentials, error) {
	if p.DBConfig != "" {
		var creds Credentials
		if err := json.Unmarshal([]byte(p.DBConfig), &creds); err != nil {
			return Credentials{}, fmt.Errorf("dbtool: parse saved credentials: %w", err)
		}
		return normalizeCredentials(creds, p.Location), nil
	}

	env, err := project.ReadEnv(p.Location)
	if err != nil {
		// No .env: assume the default sqlite layout.
		return normalizeCredentials(Credentials{Connection: "sqlite"}, p.Location), nil
	}

	creds := Credentials{
		Connection: env["DB_CONNECTION"],
		Host:       env["DB_HOST"],
		Port:       env["DB_PORT"],
		Database:   env["DB_DATABASE"],
		Username:   env["DB_USERNAME"],
		Password:   env["DB_PASSWORD"],
	}
	return normalizeCredentials(creds, p.Location), nil
}

// ConnectionType reports which backend a project would get, for the UI to
// pick the right panel affordances.
func ConnectionType(p *db.Project) string {
	creds, err := ResolveCredentials(p)
	if err != nil {
		return ""
	}
	return creds.Connection
}

func normalizeCredentials(creds Credentials, location string) Credentials {
	if creds.Connection == "" {
		creds.Connection = "sqlite"
	}
	if creds.Connection == "sqlite" && (creds.Database == "" || !filepath.IsAbs(creds.Database)) {
		name := creds.Database
		if name == "" {
			name = filepath.Join("database", "database.sqlite")
		}
		creds.Database = filepath.Join(location, name)
	}
	return creds
}
