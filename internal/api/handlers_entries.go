package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iammorganparry/transmem/internal/memory"
	"github.com/iammorganparry/transmem/internal/models"
)

type EntryHandler struct {
	svc *memory.Service
}

func NewEntryHandler(svc *memory.Service) *EntryHandler {
	return &EntryHandler{svc: svc}
}

// List handles GET /entries
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	workID := r.URL.Query().Get("workId")

	writeJSON(w, http.StatusOK, h.svc.List(page, limit, workID))
}

// Commit handles POST /entries
func (h *EntryHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req models.CommitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Commit(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if resp.Deduplicated {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// BulkCommit handles POST /entries/bulk
func (h *EntryHandler) BulkCommit(w http.ResponseWriter, r *http.Request) {
	var req models.BulkCommitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, "entries array is required")
		return
	}

	writeJSON(w, http.StatusOK, h.svc.BulkCommit(r.Context(), &req))
}

// Search handles POST /entries/search
func (h *EntryHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.MaxResults < 0 {
		writeError(w, http.StatusBadRequest, "maxResults must not be negative")
		return
	}

	resp, err := h.svc.FindSimilar(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /entries/{id}
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// UpdateContext handles PATCH /entries/{id}/context
func (h *EntryHandler) UpdateContext(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	e, err := h.svc.UpdateEntryContext(r.Context(), chi.URLParam(r, "id"), req.Context)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// UpdateContextAt handles PATCH /entries/index/{index}/context
func (h *EntryHandler) UpdateContextAt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	var req models.UpdateContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	e, err := h.svc.UpdateEntryContextAt(r.Context(), index, req.Context)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// Compact handles POST /compact
func (h *EntryHandler) Compact(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Compact(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /stats
func (h *EntryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}
