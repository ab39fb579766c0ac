package api

import (
	"net/http"

	"github.com/iammorganparry/transmem/internal/memory"
	"github.com/iammorganparry/transmem/internal/models"
	"github.com/iammorganparry/transmem/internal/worksync"
)

// WorkHandler serves per-work context: characters, glossary, style.
type WorkHandler struct {
	svc     *memory.Service
	syncSvc *worksync.SyncService // nil when work files are not configured
}

func NewWorkHandler(svc *memory.Service, syncSvc *worksync.SyncService) *WorkHandler {
	return &WorkHandler{svc: svc, syncSvc: syncSvc}
}

type workListResponse struct {
	Works []string `json:"works"`
}

type charactersResponse struct {
	Title      string             `json:"title"`
	Characters []models.Character `json:"characters"`
}

// List handles GET /works
func (h *WorkHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workListResponse{Works: h.svc.ListWorks()})
}

// Put handles PUT /works/{title}
func (h *WorkHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req models.WorkContextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Title = pathParam(r, "title")

	wc, err := h.svc.SetWorkContext(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wc)
}

// Get handles GET /works/{title}
func (h *WorkHandler) Get(w http.ResponseWriter, r *http.Request) {
	title := pathParam(r, "title")
	wc, ok := h.svc.GetWorkContext(title)
	if !ok {
		writeError(w, http.StatusNotFound, "work not found: "+title)
		return
	}

	writeJSON(w, http.StatusOK, wc)
}

// Characters handles GET /works/{title}/characters. An unknown work has no
// characters; that is not an error.
func (h *WorkHandler) Characters(w http.ResponseWriter, r *http.Request) {
	title := pathParam(r, "title")
	writeJSON(w, http.StatusOK, charactersResponse{
		Title:      title,
		Characters: h.svc.GetCharacters(title),
	})
}

// syncRequest is the optional body for POST /works/sync.
type syncRequest struct {
	Dirs []string `json:"dirs"`
}

// Sync handles POST /works/sync
func (h *WorkHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if h.syncSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "work file sync is not configured")
		return
	}

	var req syncRequest
	// Body is optional - ignore decode errors
	_ = decodeJSON(r, &req)

	var result *models.WorkSyncResult
	var err error

	if len(req.Dirs) > 0 {
		result, err = h.syncSvc.SyncDirs(req.Dirs)
	} else {
		result, err = h.syncSvc.Sync()
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
