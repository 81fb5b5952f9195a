// Package orchestrator drives task execution: it selects an execution
// strategy for a resolved agent name, runs one or more model invocations,
// multiplexes their output into a single event sequence, and writes final
// task state to the store.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runix-ai/runix/internal/agent"
	"github.com/runix-ai/runix/internal/evidence"
	"github.com/runix-ai/runix/internal/llm"
	"github.com/runix-ai/runix/internal/model"
	"github.com/runix-ai/runix/internal/storage"
)

// Orchestrator coordinates agent invocations and task persistence.
type Orchestrator struct {
	store    *storage.Store
	registry *agent.Registry
	llm      llm.Client
	logger   *slog.Logger
}

// New creates an orchestrator.
func New(store *storage.Store, registry *agent.Registry, client llm.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{store: store, registry: registry, llm: client, logger: logger}
}

// Start persists a new running task and its initial user message. This is
// the durability point: it happens before any external call, so a returned
// task id always corresponds to a stored row even if the run later fails.
func (o *Orchestrator) Start(ctx context.Context, agentName, query string) (model.Task, error) {
	now := time.Now().UTC()
	task := model.Task{
		ID:        uuid.NewString(),
		Agent:     agent.Normalize(agentName),
		Status:    model.StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.CreateTask(ctx, task); err != nil {
		return model.Task{}, err
	}
	if _, err := o.store.AppendMessage(ctx, task.ID, model.AuthorUser, query); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Run executes a started task to completion. Events are delivered to emit in
// order when it is non-nil; the final Result is returned either way. On an
// unrecoverable invocation error the task is marked failed, an error event
// is emitted, and the error is returned.
func (o *Orchestrator) Run(ctx context.Context, task model.Task, query, apiKey string, emit EmitFunc) (*Result, error) {
	streaming := emit != nil
	emit = serialEmit(emit)

	var (
		answer string
		trace  []model.ToolStep
		err    error
	)
	unit, ok := o.registry.Resolve(task.Agent)
	switch {
	case !ok:
		// Unavailable capability or an unregistered name: degrade to one
		// direct completion with a constructed system instruction.
		input := FlattenTranscript([]model.Message{{Author: model.AuthorUser, Content: query}})
		answer, trace, err = o.runDirect(ctx, task.Agent, input, apiKey, streaming, emit)
	case unit.Composite:
		answer, trace, err = o.runDirector(ctx, unit, query, apiKey, streaming, emit)
	default:
		answer, trace, err = o.runSingle(ctx, unit, query, apiKey, streaming, emit)
	}
	return o.conclude(ctx, task.ID, answer, trace, err, emit)
}

// Continue appends a user message to an existing task, replays the full
// transcript through one direct completion, and persists the new answer.
// Returns storage.ErrNotFound when the task does not exist.
func (o *Orchestrator) Continue(ctx context.Context, taskID, message, apiKey string, emit EmitFunc) (*Result, error) {
	task, err := o.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := o.store.AppendMessage(ctx, task.ID, model.AuthorUser, message); err != nil {
		return nil, err
	}
	msgs, err := o.store.ListMessages(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	streaming := emit != nil
	emit = serialEmit(emit)
	answer, trace, runErr := o.runDirect(ctx, task.Agent, FlattenTranscript(msgs), apiKey, streaming, emit)
	return o.conclude(ctx, task.ID, answer, trace, runErr, emit)
}

// conclude finishes a run: on error it marks the task failed and emits an
// error event; on success it persists the answer and emits the done event.
func (o *Orchestrator) conclude(ctx context.Context, taskID, answer string, trace []model.ToolStep, runErr error, emit EmitFunc) (*Result, error) {
	if runErr != nil {
		o.fail(ctx, taskID, runErr, emit)
		return nil, runErr
	}
	res, err := o.finalize(ctx, taskID, answer, trace)
	if err != nil {
		o.fail(ctx, taskID, err, emit)
		return nil, err
	}
	emit(Event{Type: EventDone, Result: res})
	return res, nil
}

// runSingle invokes one persona once with the raw query.
func (o *Orchestrator) runSingle(ctx context.Context, unit *agent.Unit, query, apiKey string, streaming bool, emit EmitFunc) (string, []model.ToolStep, error) {
	req := llm.Request{
		Model:        unit.Model,
		Instructions: unit.Instructions,
		Input:        query,
		APIKey:       apiKey,
	}
	tool := strings.ToLower(unit.Name)
	args := map[string]any{"model": unit.Model}
	emit(Event{Type: EventToolCall, Tool: tool, Args: args})

	start := time.Now()
	var (
		answer string
		err    error
	)
	if streaming {
		answer, err = o.llm.Stream(ctx, req, func(d string) {
			emit(Event{Type: EventDelta, Delta: d})
		})
	} else {
		answer, err = o.llm.Complete(ctx, req)
	}
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return "", nil, err
	}

	emit(Event{Type: EventToolResult, Tool: tool, DurationMS: elapsed})
	return answer, []model.ToolStep{{Tool: tool, Args: args, DurationMS: elapsed}}, nil
}

// runDirect performs one completion against the flattened transcript with a
// persona-derived system instruction. Used for continuations and as the
// degraded path when the registry is unavailable.
func (o *Orchestrator) runDirect(ctx context.Context, agentName, input, apiKey string, streaming bool, emit EmitFunc) (string, []model.ToolStep, error) {
	req := llm.Request{
		Model:        o.registry.ModelFor(agentName),
		Instructions: agent.FallbackInstructions(agentName),
		Input:        input,
		APIKey:       apiKey,
	}
	args := map[string]any{"model": req.Model}
	emit(Event{Type: EventToolCall, Tool: "direct", Args: args})

	start := time.Now()
	var (
		answer string
		err    error
	)
	if streaming {
		answer, err = o.llm.Stream(ctx, req, func(d string) {
			emit(Event{Type: EventDelta, Delta: d})
		})
	} else {
		answer, err = o.llm.Complete(ctx, req)
	}
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return "", nil, err
	}

	emit(Event{Type: EventToolResult, Tool: "direct", DurationMS: elapsed})
	return answer, []model.ToolStep{{Tool: "direct", Args: args, DurationMS: elapsed}}, nil
}

// finalize records a successful outcome: status and answer on the task row,
// an AI transcript entry, and evidence rows derived from the answer. It runs
// on a detached context so a client disconnect cannot abort the writes.
func (o *Orchestrator) finalize(ctx context.Context, taskID, answer string, trace []model.ToolStep) (*Result, error) {
	detached := context.WithoutCancel(ctx)
	if err := o.store.CompleteTask(detached, taskID, answer); err != nil {
		return nil, err
	}
	if _, err := o.store.AppendMessage(detached, taskID, model.AuthorAI, answer); err != nil {
		return nil, err
	}

	citations := evidence.Extract(answer)
	if records := evidence.Records(taskID, answer, citations); len(records) > 0 {
		// The answer is already durable; a lost derived row is not worth
		// failing the whole task over.
		if err := o.store.CreateEvidenceBatch(detached, records); err != nil {
			o.logger.Warn("persist evidence", "task_id", taskID, "error", err)
		}
	}
	return &Result{Answer: answer, Citations: citations, Trace: trace}, nil
}

// fail marks the task failed on a detached context. The cause travels
// through the log and the in-band error event, not the store.
func (o *Orchestrator) fail(ctx context.Context, taskID string, cause error, emit EmitFunc) {
	detached := context.WithoutCancel(ctx)
	if err := o.store.FailTask(detached, taskID); err != nil {
		o.logger.Error("mark task failed", "task_id", taskID, "error", err)
	}
	o.logger.Error("task failed", "task_id", taskID, "error", cause)
	emit(Event{Type: EventError, Message: cause.Error()})
}

// serialEmit wraps emit so concurrent stages deliver whole events in some
// serial order. A nil emit becomes a no-op.
func serialEmit(emit EmitFunc) EmitFunc {
	if emit == nil {
		return func(Event) {}
	}
	var mu sync.Mutex
	return func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		emit(e)
	}
}
