package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/runix-ai/runix/internal/evidence"
	"github.com/runix-ai/runix/internal/model"
	"github.com/runix-ai/runix/internal/orchestrator"
	"github.com/runix-ai/runix/internal/sse"
	"github.com/runix-ai/runix/internal/storage"
)

// HandleCreateTask handles POST /v1/tasks.
func (h *Handlers) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if req.Agent == "" {
		req.Agent = "AUTO"
	}

	apiKey := h.credential(r)
	if apiKey == "" {
		writeError(w, http.StatusUnauthorized, "Missing API credential")
		return
	}
	if len(req.Query) > h.maxQueryChars {
		writeError(w, http.StatusRequestEntityTooLarge, "Query too long")
		return
	}

	// Durability point: the task row and its user message exist before any
	// model call is attempted.
	task, err := h.orch.Start(r.Context(), req.Agent, req.Query)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	if req.Stream {
		h.streamRun(w, r, task.ID, func(emit orchestrator.EmitFunc) {
			h.orch.Run(r.Context(), task, req.Query, apiKey, emit) //nolint:errcheck // reported via error event
		})
		return
	}

	res, err := h.orch.Run(r.Context(), task, req.Query, apiKey, nil)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Upstream model call failed")
		return
	}
	writeJSON(w, http.StatusAccepted, taskResult(task.ID, res))
}

// HandleGetTask handles GET /v1/tasks/{task_id}.
func (h *Handlers) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("task_id")
	task, err := h.store.GetTask(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		h.logger.Error("get task", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}

	msgs, err := h.store.ListMessages(r.Context(), id)
	if err != nil {
		h.logger.Error("list messages", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load task")
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}

	citations := []model.Citation{}
	if task.AnswerMarkdown != nil {
		if extracted := evidence.Extract(*task.AnswerMarkdown); extracted != nil {
			citations = extracted
		}
	}

	writeJSON(w, http.StatusOK, model.TaskDetail{
		TaskID:         task.ID,
		Agent:          task.Agent,
		Status:         task.Status,
		AnswerMarkdown: task.AnswerMarkdown,
		Citations:      citations,
		ToolTrace:      []model.ToolStep{},
		Messages:       msgs,
	})
}

// HandleContinueTask handles POST /v1/tasks/{task_id}/continue.
func (h *Handlers) HandleContinueTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("task_id")

	var req model.ContinueTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	apiKey := h.credential(r)
	if apiKey == "" {
		writeError(w, http.StatusUnauthorized, "Missing API credential")
		return
	}
	if len(req.Message) > h.maxQueryChars {
		writeError(w, http.StatusRequestEntityTooLarge, "Message too long")
		return
	}

	if req.Stream {
		// Existence must be settled before the stream headers go out.
		if _, err := h.store.GetTask(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Task not found")
			} else {
				h.logger.Error("continue task", "task_id", id, "error", err)
				writeError(w, http.StatusInternalServerError, "Failed to load task")
			}
			return
		}
		h.streamRun(w, r, id, func(emit orchestrator.EmitFunc) {
			h.orch.Continue(r.Context(), id, req.Message, apiKey, emit) //nolint:errcheck // reported via error event
		})
		return
	}

	res, err := h.orch.Continue(r.Context(), id, req.Message, apiKey, nil)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "Upstream model call failed")
		return
	}
	writeJSON(w, http.StatusAccepted, taskResult(id, res))
}

// credential resolves the per-request bearer credential, falling back to the
// server-side default.
func (h *Handlers) credential(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	return h.defaultAPIKey
}

// streamRun serializes one task run onto an SSE stream. Frame delivery is
// best-effort: a disconnected client loses unsent frames while the run's
// persistence proceeds on a detached context.
func (h *Handlers) streamRun(w http.ResponseWriter, r *http.Request, taskID string, run func(emit orchestrator.EmitFunc)) {
	sw := sse.NewWriter(w)
	if err := sw.Open(); err != nil {
		h.logger.Error("sse open", "task_id", taskID, "error", err)
		return
	}
	run(func(e orchestrator.Event) {
		if frame := wireFrame(taskID, e); frame != nil {
			if err := sw.SendJSON(frame); err != nil {
				h.logger.Warn("sse send", "task_id", taskID, "error", err)
			}
		}
	})
}

// wireFrame maps an internal event to its wire representation. Unknown event
// types produce no frame.
func wireFrame(taskID string, e orchestrator.Event) any {
	switch e.Type {
	case orchestrator.EventDelta:
		return map[string]any{"delta": e.Delta}
	case orchestrator.EventToolCall:
		return map[string]any{"tool_call": map[string]any{"tool": e.Tool, "args": e.Args}}
	case orchestrator.EventToolResult:
		return map[string]any{"tool_result": map[string]any{"tool": e.Tool, "t_ms": e.DurationMS}}
	case orchestrator.EventDone:
		res := e.Result
		return map[string]any{
			"done":       true,
			"task_id":    taskID,
			"message":    res.Answer,
			"citations":  nonNilCitations(res.Citations),
			"tool_trace": nonNilTrace(res.Trace),
		}
	case orchestrator.EventError:
		return map[string]any{"error": e.Message, "task_id": taskID}
	}
	return nil
}

func taskResult(taskID string, res *orchestrator.Result) model.TaskResult {
	return model.TaskResult{
		TaskID:         taskID,
		Status:         model.StatusSucceeded,
		AnswerMarkdown: res.Answer,
		Citations:      nonNilCitations(res.Citations),
		ToolTrace:      nonNilTrace(res.Trace),
	}
}

func nonNilCitations(cs []model.Citation) []model.Citation {
	if cs == nil {
		return []model.Citation{}
	}
	return cs
}

func nonNilTrace(ts []model.ToolStep) []model.ToolStep {
	if ts == nil {
		return []model.ToolStep{}
	}
	return ts
}
