package api

import (
	"net/http"

	"github.com/user/workshop/internal/logs"
)

func (h *handler) listLogs(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}

	files, err := logs.List(p.Location)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, files)
}

// readLog returns one log file, raw by default or parsed into entries with
// ?parsed=1.
func (h *handler) readLog(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}

	data, err := logs.Read(p.Location, r.PathValue("file"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("parsed") == "1" {
		jsonResponse(w, http.StatusOK, logs.Parse(string(data)))
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"content": string(data)})
}

func (h *handler) clearLog(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}

	if err := logs.Clear(p.Location, r.PathValue("file")); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}
