package server

import (
	"net/http"
	"strconv"

	"github.com/runix-ai/runix/internal/model"
)

// HandleListEvidence handles GET /v1/evidence with optional task_id and
// limit query parameters.
func (h *Handlers) HandleListEvidence(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	evs, err := h.store.ListEvidence(r.Context(), taskID, limit)
	if err != nil {
		h.logger.Error("list evidence", "task_id", taskID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load evidence")
		return
	}
	if evs == nil {
		evs = []model.Evidence{}
	}
	writeJSON(w, http.StatusOK, model.EvidenceListResponse{Evidence: evs})
}
