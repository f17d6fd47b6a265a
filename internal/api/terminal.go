package api

import (
	"errors"
	"net/http"

	"github.com/user/workshop/internal/pty"
)

type spawnSessionRequest struct {
	SessionID string `json:"session_id"`
	WorkDir   string `json:"work_dir"`
	Rows      uint16 `json:"rows"`
	Cols      uint16 `json:"cols"`
}

type sessionInputRequest struct {
	Data string `json:"data"`
}

type resizeSessionRequest struct {
	Rows uint16 `json:"rows"`
	Cols uint16 `json:"cols"`
}

func (h *handler) listTerminalSessions(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.terminal.List())
}

func (h *handler) spawnTerminalSession(w http.ResponseWriter, r *http.Request) {
	var req spawnSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		jsonError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := h.terminal.Spawn(req.SessionID, req.WorkDir, req.Rows, req.Cols); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]string{
		"session_id": req.SessionID,
		"topic":      pty.Topic(req.SessionID),
	})
}

func (h *handler) writeTerminalSession(w http.ResponseWriter, r *http.Request) {
	var req sessionInputRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.terminal.Write(r.PathValue("id"), []byte(req.Data)); err != nil {
		h.terminalError(w, err)
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func (h *handler) resizeTerminalSession(w http.ResponseWriter, r *http.Request) {
	var req resizeSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.terminal.Resize(r.PathValue("id"), req.Rows, req.Cols); err != nil {
		h.terminalError(w, err)
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func (h *handler) closeTerminalSession(w http.ResponseWriter, r *http.Request) {
	h.terminal.Teardown(r.PathValue("id"))
	jsonResponse(w, http.StatusNoContent, nil)
}

func (h *handler) terminalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pty.ErrSessionNotFound):
		jsonError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, pty.ErrSessionClosed):
		jsonError(w, http.StatusConflict, "session closed")
	default:
		jsonError(w, http.StatusInternalServerError, err.Error())
	}
}
