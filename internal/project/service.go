package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/user/workshop/internal/db"
	"github.com/user/workshop/internal/editors"
)

// ErrNotFound is returned for operations against a project id that does not
// exist in the store.
var ErrNotFound = errors.New("project: not found")

// Notifier pushes project change events to connected UI clients. The
// websocket hub implements it.
type Notifier interface {
	BroadcastProject(projectID, event string, data any)
}

// Service owns project records and the shell-outs around them (opening the
// folder, handing the project to an editor, listing artisan commands).
type Service struct {
	repo     *db.ProjectRepo
	editors  *editors.Registry
	notifier Notifier
}

func NewService(repo *db.ProjectRepo, reg *editors.Registry, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		editors:  reg,
		notifier: notifier,
	}
}

type CreateRequest struct {
	Name        string
	Description string
	Location    string
	Status      string
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*db.Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("project: name is required")
	}
	if err := checkLocation(req.Location); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = db.StatusInitialStage
	}
	if !db.ValidStatus(status) {
		return nil, fmt.Errorf("project: invalid status %q", status)
	}

	project := &db.Project{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Status:      status,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.BroadcastProject(project.ID, "created", project)
	}
	return project, nil
}

func (s *Service) Get(ctx context.Context, id string) (*db.Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	return project, nil
}

func (s *Service) List(ctx context.Context, status string) ([]*db.Project, error) {
	return s.repo.List(ctx, db.ProjectFilter{Status: status})
}

type UpdateRequest struct {
	Name        *string
	Description *string
	Location    *string
	Status      *string
	DBConfig    *string
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*db.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, errors.New("project: name is required")
		}
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Location != nil {
		if err := checkLocation(*req.Location); err != nil {
			return nil, err
		}
		project.Location = *req.Location
	}
	if req.Status != nil {
		if !db.ValidStatus(*req.Status) {
			return nil, fmt.Errorf("project: invalid status %q", *req.Status)
		}
		project.Status = *req.Status
	}
	if req.DBConfig != nil {
		project.DBConfig = *req.DBConfig
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.BroadcastProject(project.ID, "updated", project)
	}
	return project, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	if s.notifier != nil {
		s.notifier.BroadcastProject(id, "deleted", nil)
	}
	return nil
}

// OpenFolder reveals the project directory in the system file manager.
func (s *Service) OpenFolder(ctx context.Context, id string) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	cmd := exec.Command("xdg-open", project.Location)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("project: open folder: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// OpenInEditor launches a registered editor on the project location.
// Unknown editor ids are rejected by the registry; arbitrary commands
// never run.
func (s *Service) OpenInEditor(ctx context.Context, id, editorID string) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.editors.Launch(editorID, project.Location)
}

// Editors lists the registered editors for the UI's "open in" menu.
func (s *Service) Editors() []*editors.Editor {
	return s.editors.List()
}

// Config returns the project's .env as a key/value map with secret-looking
// values redacted. Missing .env is not an error; panels render an empty
// config.
func (s *Service) Config(ctx context.Context, id string) (map[string]string, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	env, err := ReadEnv(project.Location)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	for key := range env {
		if isSecretKey(key) {
			env[key] = "********"
		}
	}
	return env, nil
}

func isSecretKey(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range []string{"PASSWORD", "SECRET", "_KEY", "TOKEN"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

func checkLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return errors.New("project: location is required")
	}
	info, err := os.Stat(location)
	if err != nil {
		return fmt.Errorf("project: location %q: %w", location, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project: location %q is not a directory", location)
	}
	return nil
}
