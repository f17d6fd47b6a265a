package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/user/workshop/internal/dbtool"
	"github.com/user/workshop/internal/logs"
	"github.com/user/workshop/internal/project"
	"github.com/user/workshop/internal/pty"
)

type handler struct {
	projects *project.Service
	terminal *pty.Manager
	dbtools  *dbtool.Manager
	watcher  *logs.Watcher
}

// NewRouter builds the REST surface. The watcher may be nil in tests; log
// change notifications are then simply not wired.
func NewRouter(projects *project.Service, terminal *pty.Manager, dbtools *dbtool.Manager, watcher *logs.Watcher, token string) http.Handler {
	handler := &handler{
		projects: projects,
		terminal: terminal,
		dbtools:  dbtools,
		watcher:  watcher,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects", handler.createProject)
	mux.HandleFunc("GET /api/projects", handler.listProjects)
	mux.HandleFunc("GET /api/projects/{id}", handler.getProject)
	mux.HandleFunc("PATCH /api/projects/{id}", handler.updateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", handler.deleteProject)
	mux.HandleFunc("POST /api/projects/{id}/open-folder", handler.openProjectFolder)
	mux.HandleFunc("POST /api/projects/{id}/open-editor", handler.openProjectInEditor)
	mux.HandleFunc("GET /api/projects/{id}/config", handler.getProjectConfig)
	mux.HandleFunc("GET /api/projects/{id}/artisan", handler.listArtisanCommands)

	mux.HandleFunc("GET /api/editors", handler.listEditors)

	mux.HandleFunc("GET /api/terminal/sessions", handler.listTerminalSessions)
	mux.HandleFunc("POST /api/terminal/sessions", handler.spawnTerminalSession)
	mux.HandleFunc("POST /api/terminal/sessions/{id}/input", handler.writeTerminalSession)
	mux.HandleFunc("POST /api/terminal/sessions/{id}/resize", handler.resizeTerminalSession)
	mux.HandleFunc("DELETE /api/terminal/sessions/{id}", handler.closeTerminalSession)

	mux.HandleFunc("GET /api/projects/{id}/logs", handler.listLogs)
	mux.HandleFunc("GET /api/projects/{id}/logs/{file}", handler.readLog)
	mux.HandleFunc("DELETE /api/projects/{id}/logs/{file}", handler.clearLog)

	mux.HandleFunc("GET /api/projects/{id}/lang", handler.listLocales)
	mux.HandleFunc("GET /api/projects/{id}/lang/{locale}", handler.readTranslations)
	mux.HandleFunc("PUT /api/projects/{id}/lang/{locale}", handler.writeTranslations)
	mux.HandleFunc("PATCH /api/projects/{id}/lang/{locale}", handler.setTranslationKey)
	mux.HandleFunc("DELETE /api/projects/{id}/lang/{locale}/{key}", handler.deleteTranslationKey)

	mux.HandleFunc("GET /api/projects/{id}/db/connection", handler.getDatabaseConnection)
	mux.HandleFunc("GET /api/projects/{id}/db/tables", handler.listTables)
	mux.HandleFunc("GET /api/projects/{id}/db/tables/{table}", handler.browseTable)
	mux.HandleFunc("POST /api/projects/{id}/db/query", handler.executeQuery)
	mux.HandleFunc("PATCH /api/projects/{id}/db/tables/{table}/rows", handler.updateTableRow)
	mux.HandleFunc("DELETE /api/projects/{id}/db/tables/{table}/rows", handler.deleteTableRow)

	wrapped := authMiddleware(token)(jsonMiddleware(corsMiddleware(mux)))
	return wrapped
}

func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				if strings.TrimSpace(authHeader[7:]) == token {
					next.ServeHTTP(w, r)
					return
				}
			}

			if r.URL.Query().Get("token") == token {
				next.ServeHTTP(w, r)
				return
			}

			jsonError(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return io.ErrUnexpectedEOF
	}
	return nil
}
