package api

import (
	"net/http"

	"github.com/user/workshop/internal/lang"
)

type setTranslationRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *handler) listLocales(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}

	locales, err := lang.Locales(p.Location)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, locales)
}

func (h *handler) readTranslations(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}

	translations, err := lang.Read(p.Location, r.PathValue("locale"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, translations)
}

// writeTranslations replaces the locale's whole translation file.
func (h *handler) writeTranslations(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}

	var translations map[string]string
	if err := decodeJSON(r, &translations); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := lang.Write(p.Location, r.PathValue("locale"), translations); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func (h *handler) setTranslationKey(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}

	var req setTranslationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Key == "" {
		jsonError(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := lang.SetKey(p.Location, r.PathValue("locale"), req.Key, req.Value); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func (h *handler) deleteTranslationKey(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}

	if err := lang.DeleteKey(p.Location, r.PathValue("locale"), r.PathValue("key")); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}
