package api

import (
	"errors"
	"net/http"

	"github.com/user/workshop/internal/project"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Status      string `json:"status"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
	DBConfig    *string `json:"db_config"`
}

type openEditorRequest struct {
	EditorID string `json:"editor_id"`
}

func (h *handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.projects.Create(r.Context(), project.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Status:      req.Status,
	})
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.watcher != nil {
		_ = h.watcher.Watch(created.ID, created.Location)
	}

	jsonResponse(w, http.StatusCreated, created)
}

func (h *handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, projects)
}

func (h *handler) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, p)
}

func (h *handler) updateProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := h.projects.Update(r.Context(), id, project.UpdateRequest{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Status:      req.Status,
		DBConfig:    req.DBConfig,
	})
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "project not found")
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Saved credentials or location may have changed; drop the cached
	// database connection so the next request reconnects.
	if req.DBConfig != nil || req.Location != nil {
		h.dbtools.Invalidate(id)
	}
	if req.Location != nil && h.watcher != nil {
		_ = h.watcher.Watch(id, updated.Location)
	}

	jsonResponse(w, http.StatusOK, updated)
}

func (h *handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		h.projectError(w, err)
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		h.projectError(w, err)
		return
	}

	h.dbtools.Invalidate(id)
	if h.watcher != nil {
		h.watcher.Unwatch(p.Location)
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func (h *handler) openProjectFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.OpenFolder(r.Context(), r.PathValue("id")); err != nil {
		h.projectError(w, err)
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func (h *handler) openProjectInEditor(w http.ResponseWriter, r *http.Request) {
	var req openEditorRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.EditorID == "" {
		jsonError(w, http.StatusBadRequest, "editor_id is required")
		return
	}

	if err := h.projects.OpenInEditor(r.Context(), r.PathValue("id"), req.EditorID); err != nil {
		h.projectError(w, err)
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func (h *handler) getProjectConfig(w http.ResponseWriter, r *http.Request) {
	env, err := h.projects.Config(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, env)
}

func (h *handler) listArtisanCommands(w http.ResponseWriter, r *http.Request) {
	commands, err := h.projects.ArtisanCommands(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, commands)
}

func (h *handler) listEditors(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.projects.Editors())
}

// projectError maps service errors onto status codes: missing projects are
// 404, everything else surfaces as 500 with the message intact.
func (h *handler) projectError(w http.ResponseWriter, err error) {
	if errors.Is(err, project.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "project not found")
		return
	}
	jsonError(w, http.StatusInternalServerError, err.Error())
}
