package api

import (
	"net/http"
	"strconv"

	"github.com/user/workshop/internal/dbtool"
)

type executeQueryRequest struct {
	Query string `json:"query"`
}

type tableRowRequest struct {
	PKColumn string             `json:"pk_column"`
	PKValue  string             `json:"pk_value"`
	Data     map[string]*string `json:"data,omitempty"`
}

type browseTableResponse struct {
	*dbtool.TableData
	Total uint64 `json:"total"`
}

type connectionResponse struct {
	Connection  string             `json:"connection"`
	Credentials dbtool.Credentials `json:"credentials"`
}

// getDatabaseConnection reports how the project's database would be reached,
// with the password blanked for the UI.
func (h *handler) getDatabaseConnection(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return
	}

	creds, err := dbtool.ResolveCredentials(p)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	creds.Password = ""

	jsonResponse(w, http.StatusOK, connectionResponse{
		Connection:  creds.Connection,
		Credentials: creds,
	})
}

func (h *handler) listTables(w http.ResponseWriter, r *http.Request) {
	backend, ok := h.backendFor(w, r)
	if !ok {
		return
	}

	tables, err := backend.Tables(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, tables)
}

func (h *handler) browseTable(w http.ResponseWriter, r *http.Request) {
	backend, ok := h.backendFor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := dbtool.TableQuery{
		Table:   r.PathValue("table"),
		Page:    parseUint(q.Get("page")),
		PerPage: parseUint(q.Get("per_page")),
		Where:   q.Get("where"),
		SortCol: q.Get("sort"),
		SortDir: q.Get("dir"),
	}

	data, err := backend.TableData(r.Context(), query)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := backend.TotalRows(r.Context(), query.Table, query.Where)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonResponse(w, http.StatusOK, browseTableResponse{TableData: data, Total: total})
}

func (h *handler) executeQuery(w http.ResponseWriter, r *http.Request) {
	backend, ok := h.backendFor(w, r)
	if !ok {
		return
	}

	var req executeQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	data, err := backend.ExecuteQuery(r.Context(), req.Query)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, data)
}

func (h *handler) updateTableRow(w http.ResponseWriter, r *http.Request) {
	backend, ok := h.backendFor(w, r)
	if !ok {
		return
	}

	var req tableRowRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PKColumn == "" {
		jsonError(w, http.StatusBadRequest, "pk_column is required")
		return
	}

	affected, err := backend.UpdateRow(r.Context(), r.PathValue("table"), req.PKColumn, req.PKValue, req.Data)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]uint64{"affected": affected})
}

func (h *handler) deleteTableRow(w http.ResponseWriter, r *http.Request) {
	backend, ok := h.backendFor(w, r)
	if !ok {
		return
	}

	var req tableRowRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.PKColumn == "" {
		jsonError(w, http.StatusBadRequest, "pk_column is required")
		return
	}

	affected, err := backend.DeleteRow(r.Context(), r.PathValue("table"), req.PKColumn, req.PKValue)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]uint64{"affected": affected})
}

// backendFor resolves the project's database backend, writing the error
// response itself when that fails.
func (h *handler) backendFor(w http.ResponseWriter, r *http.Request) (dbtool.Backend, bool) {
	p, err := h.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.projectError(w, err)
		return nil, false
	}

	backend, err := h.dbtools.Backend(p)
	if err != nil {
		jsonError(w, http.StatusBadGateway, err.Error())
		return nil, false
	}
	return backend, true
}

func parseUint(s string) uint {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}
