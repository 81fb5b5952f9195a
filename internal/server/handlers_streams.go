package server

import (
	"errors"
	"net/http"

	"github.com/runix-ai/runix/internal/sse"
	"github.com/runix-ai/runix/internal/storage"
)

// HandleStreamTask handles GET /v1/streams/tasks/{task_id}: replays the
// stored transcript as a one-shot SSE stream, then a done frame.
func (h *Handlers) HandleStreamTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("task_id")
	task, err := h.store.GetTask(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		h.logger.Error("stream task", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}

	msgs, err := h.store.ListMessages(r.Context(), id)
	if err != nil {
		h.logger.Error("stream task messages", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}

	sw := sse.NewWriter(w)
	if err := sw.Open(); err != nil {
		h.logger.Error("sse open", "task_id", id, "error", err)
		return
	}
	for _, m := range msgs {
		if err := sw.SendJSON(map[string]any{
			"author":     m.Author,
			"content":    m.Content,
			"created_at": m.CreatedAt,
		}); err != nil {
			h.logger.Warn("sse send", "task_id", id, "error", err)
			return
		}
	}
	//nolint:errcheck // nothing left to deliver after the done frame
	sw.SendJSON(map[string]any{"done": true, "task_id": id, "status": task.Status})
}
