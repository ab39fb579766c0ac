package api

import (
	"net/http"

	"github.com/iammorganparry/transmem/internal/models"
	"github.com/iammorganparry/transmem/internal/translate"
)

type TranslateHandler struct {
	svc *translate.Service // nil when no provider is configured
}

func NewTranslateHandler(svc *translate.Service) *TranslateHandler {
	return &TranslateHandler{svc: svc}
}

// Translate handles POST /translate
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeError(w, http.StatusServiceUnavailable, "translation provider is disabled")
		return
	}

	var req models.TranslateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.Translate(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
