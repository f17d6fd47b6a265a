package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/workshop/internal/db"
	"github.com/user/workshop/internal/dbtool"
	"github.com/user/workshop/internal/editors"
	"github.com/user/workshop/internal/project"
	"github.com/user/workshop/internal/pty"
)

func openAPI(t *testing.T) http.Handler {
	t.Helper()
	database, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	reg, err := editors.NewRegistry(filepath.Join(t.TempDir(), "editors"))
	if err != nil {
		t.Fatalf("editors registry: %v", err)
	}
	projects := project.NewService(db.NewProjectRepo(database.SQL()), reg, nil)
	terminal := pty.NewManager(pty.NewRegistry(), nil)
	t.Cleanup(terminal.Close)
	dbtools := dbtool.NewManager()
	t.Cleanup(dbtools.Close)

	return NewRouter(projects, terminal, dbtools, nil, "test-token")
}

func apiRequest(t *testing.T, h http.Handler, method, path string, body any, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if rr.Body.Len() == 0 {
		return
	}
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body: %v body=%s", err, rr.Body.String())
	}
}

func createTestProject(t *testing.T, h http.Handler, location string) string {
	t.Helper()
	rr := apiRequest(t, h, http.MethodPost, "/api/projects", map[string]any{
		"name": "Demo", "location": location,
	}, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create project status=%d body=%s", rr.Code, rr.Body.String())
	}
	var p map[string]any
	decodeBody(t, rr, &p)
	return p["id"].(string)
}

func TestAuthMiddleware(t *testing.T) {
	h := openAPI(t)

	unauth := apiRequest(t, h, http.MethodGet, "/api/projects", nil, false)
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want %d", unauth.Code, http.StatusUnauthorized)
	}

	wrong := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	wrong.Header.Set("Authorization", "Bearer wrong-token")
	wrongRR := httptest.NewRecorder()
	h.ServeHTTP(wrongRR, wrong)
	if wrongRR.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status=%d want %d", wrongRR.Code, http.StatusUnauthorized)
	}

	auth := apiRequest(t, h, http.MethodGet, "/api/projects", nil, true)
	if auth.Code != http.StatusOK {
		t.Fatalf("status=%d want %d", auth.Code, http.StatusOK)
	}

	query := httptest.NewRequest(http.MethodGet, "/api/projects?token=test-token", nil)
	queryRR := httptest.NewRecorder()
	h.ServeHTTP(queryRR, query)
	if queryRR.Code != http.StatusOK {
		t.Fatalf("query token status=%d want %d", queryRR.Code, http.StatusOK)
	}
}

func TestProjectLifecycle(t *testing.T) {
	h := openAPI(t)

	bad := apiRequest(t, h, http.MethodPost, "/api/projects", map[string]any{"name": "x"}, true)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("bad create status=%d want %d", bad.Code, http.StatusBadRequest)
	}

	location := t.TempDir()
	id := createTestProject(t, h, location)

	get := apiRequest(t, h, http.MethodGet, "/api/projects/"+id, nil, true)
	if get.Code != http.StatusOK {
		t.Fatalf("get status=%d", get.Code)
	}
	var p map[string]any
	decodeBody(t, get, &p)
	if p["status"] != "initial_stage" {
		t.Fatalf("status=%v want initial_stage", p["status"])
	}

	update := apiRequest(t, h, http.MethodPatch, "/api/projects/"+id, map[string]any{
		"description": "updated", "status": "in_progress",
	}, true)
	if update.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", update.Code, update.Body.String())
	}
	decodeBody(t, update, &p)
	if p["description"] != "updated" || p["status"] != "in_progress" {
		t.Fatalf("update result=%v", p)
	}

	del := apiRequest(t, h, http.MethodDelete, "/api/projects/"+id, nil, true)
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", del.Code)
	}
	if got := apiRequest(t, h, http.MethodGet, "/api/projects/"+id, nil, true).Code; got != http.StatusNotFound {
		t.Fatalf("get after delete status=%d want %d", got, http.StatusNotFound)
	}
}

func TestProjectNotFoundErrors(t *testing.T) {
	h := openAPI(t)

	for _, path := range []string{
		"/api/projects/missing",
		"/api/projects/missing/config",
		"/api/projects/missing/logs",
		"/api/projects/missing/lang",
		"/api/projects/missing/db/tables",
	} {
		if got := apiRequest(t, h, http.MethodGet, path, nil, true).Code; got != http.StatusNotFound {
			t.Errorf("GET %s status=%d want %d", path, got, http.StatusNotFound)
		}
	}
}

func TestProjectConfigEndpoint(t *testing.T) {
	h := openAPI(t)
	location := t.TempDir()
	if err := os.WriteFile(filepath.Join(location, ".env"), []byte("APP_NAME=demo\nDB_PASSWORD=hunter2\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	id := createTestProject(t, h, location)

	rr := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/config", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("config status=%d", rr.Code)
	}
	var env map[string]string
	decodeBody(t, rr, &env)
	if env["APP_NAME"] != "demo" {
		t.Errorf("APP_NAME=%q", env["APP_NAME"])
	}
	if env["DB_PASSWORD"] != "********" {
		t.Errorf("DB_PASSWORD=%q, want redacted", env["DB_PASSWORD"])
	}
}

func TestListEditors(t *testing.T) {
	h := openAPI(t)

	rr := apiRequest(t, h, http.MethodGet, "/api/editors", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("editors status=%d", rr.Code)
	}
	var list []map[string]any
	decodeBody(t, rr, &list)
	if len(list) == 0 {
		t.Fatal("expected seeded default editors")
	}
}

func TestTerminalEndpoints(t *testing.T) {
	h := openAPI(t)

	missing := apiRequest(t, h, http.MethodPost, "/api/terminal/sessions/nope/input", map[string]any{"data": "ls\n"}, true)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("input to unknown session status=%d want %d", missing.Code, http.StatusNotFound)
	}

	noID := apiRequest(t, h, http.MethodPost, "/api/terminal/sessions", map[string]any{"work_dir": t.TempDir()}, true)
	if noID.Code != http.StatusBadRequest {
		t.Fatalf("spawn without id status=%d", noID.Code)
	}

	spawn := apiRequest(t, h, http.MethodPost, "/api/terminal/sessions", map[string]any{
		"session_id": "term-1", "work_dir": t.TempDir(), "rows": 24, "cols": 80,
	}, true)
	if spawn.Code != http.StatusCreated {
		t.Fatalf("spawn status=%d body=%s", spawn.Code, spawn.Body.String())
	}
	var created map[string]string
	decodeBody(t, spawn, &created)
	if created["topic"] != "pty-output-term-1" {
		t.Errorf("topic=%q", created["topic"])
	}

	list := apiRequest(t, h, http.MethodGet, "/api/terminal/sessions", nil, true)
	var sessions []map[string]any
	decodeBody(t, list, &sessions)
	if len(sessions) != 1 {
		t.Fatalf("sessions=%d want 1", len(sessions))
	}

	input := apiRequest(t, h, http.MethodPost, "/api/terminal/sessions/term-1/input", map[string]any{"data": "ls\n"}, true)
	if input.Code != http.StatusNoContent {
		t.Fatalf("input status=%d body=%s", input.Code, input.Body.String())
	}
	resize := apiRequest(t, h, http.MethodPost, "/api/terminal/sessions/term-1/resize", map[string]any{"rows": 40, "cols": 120}, true)
	if resize.Code != http.StatusNoContent {
		t.Fatalf("resize status=%d body=%s", resize.Code, resize.Body.String())
	}

	closeRR := apiRequest(t, h, http.MethodDelete, "/api/terminal/sessions/term-1", nil, true)
	if closeRR.Code != http.StatusNoContent {
		t.Fatalf("close status=%d", closeRR.Code)
	}
	after := apiRequest(t, h, http.MethodPost, "/api/terminal/sessions/term-1/input", map[string]any{"data": "x"}, true)
	if after.Code != http.StatusNotFound {
		t.Fatalf("input after close status=%d want %d", after.Code, http.StatusNotFound)
	}
}

func TestLogEndpoints(t *testing.T) {
	h := openAPI(t)
	location := t.TempDir()
	logDir := filepath.Join(location, "storage", "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "[2024-03-01 10:00:00] local.ERROR: boom\n#0 {main}\n"
	if err := os.WriteFile(filepath.Join(logDir, "laravel.log"), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	id := createTestProject(t, h, location)

	list := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/logs", nil, true)
	var files []map[string]any
	decodeBody(t, list, &files)
	if len(files) != 1 || files[0]["name"] != "laravel.log" {
		t.Fatalf("logs=%v", files)
	}

	raw := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/logs/laravel.log", nil, true)
	var body map[string]string
	decodeBody(t, raw, &body)
	if body["content"] != content {
		t.Errorf("content=%q", body["content"])
	}

	parsed := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/logs/laravel.log?parsed=1", nil, true)
	var entries []map[string]any
	decodeBody(t, parsed, &entries)
	if len(entries) != 1 || entries[0]["level"] != "ERROR" {
		t.Fatalf("entries=%v", entries)
	}

	traversal := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/logs/..%2F..%2F.env", nil, true)
	if traversal.Code == http.StatusOK {
		t.Error("traversal read should not succeed")
	}

	clear := apiRequest(t, h, http.MethodDelete, "/api/projects/"+id+"/logs/laravel.log", nil, true)
	if clear.Code != http.StatusNoContent {
		t.Fatalf("clear status=%d", clear.Code)
	}
}

func TestLangEndpoints(t *testing.T) {
	h := openAPI(t)
	location := t.TempDir()
	if err := os.MkdirAll(filepath.Join(location, "lang", "en"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	id := createTestProject(t, h, location)

	locales := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/lang", nil, true)
	var list []map[string]any
	decodeBody(t, locales, &list)
	if len(list) != 1 || list[0]["code"] != "en" {
		t.Fatalf("locales=%v", list)
	}

	put := apiRequest(t, h, http.MethodPut, "/api/projects/"+id+"/lang/de", map[string]string{"Hello": "Hallo"}, true)
	if put.Code != http.StatusNoContent {
		t.Fatalf("put status=%d body=%s", put.Code, put.Body.String())
	}

	patch := apiRequest(t, h, http.MethodPatch, "/api/projects/"+id+"/lang/de", map[string]string{"key": "Bye", "value": "Tschüss"}, true)
	if patch.Code != http.StatusNoContent {
		t.Fatalf("patch status=%d body=%s", patch.Code, patch.Body.String())
	}

	read := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/lang/de", nil, true)
	var translations map[string]string
	decodeBody(t, read, &translations)
	if translations["Hello"] != "Hallo" || translations["Bye"] != "Tschüss" {
		t.Fatalf("translations=%v", translations)
	}

	del := apiRequest(t, h, http.MethodDelete, "/api/projects/"+id+"/lang/de/Bye", nil, true)
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete key status=%d body=%s", del.Code, del.Body.String())
	}
	delAgain := apiRequest(t, h, http.MethodDelete, "/api/projects/"+id+"/lang/de/Bye", nil, true)
	if delAgain.Code != http.StatusBadRequest {
		t.Fatalf("delete missing key status=%d", delAgain.Code)
	}
}

func TestDatabaseEndpoints(t *testing.T) {
	h := openAPI(t)
	location := t.TempDir()
	dbDir := filepath.Join(location, "database")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seedProjectDatabase(t, filepath.Join(dbDir, "database.sqlite"))
	id := createTestProject(t, h, location)

	conn := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/db/connection", nil, true)
	if conn.Code != http.StatusOK {
		t.Fatalf("connection status=%d body=%s", conn.Code, conn.Body.String())
	}
	var connInfo map[string]any
	decodeBody(t, conn, &connInfo)
	if connInfo["connection"] != "sqlite" {
		t.Fatalf("connection=%v want sqlite", connInfo["connection"])
	}

	tables := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/db/tables", nil, true)
	if tables.Code != http.StatusOK {
		t.Fatalf("tables status=%d body=%s", tables.Code, tables.Body.String())
	}
	var names []string
	decodeBody(t, tables, &names)
	if len(names) != 1 || names[0] != "users" {
		t.Fatalf("tables=%v", names)
	}

	browse := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/db/tables/users?page=1&per_page=10&sort=id&dir=asc", nil, true)
	if browse.Code != http.StatusOK {
		t.Fatalf("browse status=%d body=%s", browse.Code, browse.Body.String())
	}
	var page map[string]any
	decodeBody(t, browse, &page)
	if page["total"].(float64) != 2 {
		t.Fatalf("total=%v want 2", page["total"])
	}

	query := apiRequest(t, h, http.MethodPost, "/api/projects/"+id+"/db/query", map[string]string{
		"query": "SELECT name FROM users WHERE id = 1",
	}, true)
	if query.Code != http.StatusOK {
		t.Fatalf("query status=%d body=%s", query.Code, query.Body.String())
	}

	update := apiRequest(t, h, http.MethodPatch, "/api/projects/"+id+"/db/tables/users/rows", map[string]any{
		"pk_column": "id", "pk_value": "1", "data": map[string]any{"name": "renamed"},
	}, true)
	if update.Code != http.StatusOK {
		t.Fatalf("update row status=%d body=%s", update.Code, update.Body.String())
	}

	del := apiRequest(t, h, http.MethodDelete, "/api/projects/"+id+"/db/tables/users/rows", map[string]any{
		"pk_column": "id", "pk_value": "2",
	}, true)
	if del.Code != http.StatusOK {
		t.Fatalf("delete row status=%d body=%s", del.Code, del.Body.String())
	}
	var affected map[string]uint64
	decodeBody(t, del, &affected)
	if affected["affected"] != 1 {
		t.Fatalf("affected=%v", affected)
	}
}

func TestDatabaseEndpointsWithoutDatabase(t *testing.T) {
	h := openAPI(t)
	id := createTestProject(t, h, t.TempDir())

	rr := apiRequest(t, h, http.MethodGet, "/api/projects/"+id+"/db/tables", nil, true)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d want %d", rr.Code, http.StatusBadGateway)
	}
}

func seedProjectDatabase(t *testing.T, path string) {
	t.Helper()
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Exec(`
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
INSERT INTO users (id, name) VALUES (1, 'ada'), (2, 'bob');
`); err != nil {
		t.Fatalf("seed: %v", err)
	}
}
