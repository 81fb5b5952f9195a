package orchestrator

import "github.com/runix-ai/runix/internal/model"

// EventType identifies one frame in the transport-agnostic event sequence a
// task run produces. The sequence is finite and ordered: zero or more delta
// and tool frames, then exactly one done or error frame. The open frame is a
// transport concern and is emitted by the stream writer, not the run.
type EventType string

const (
	EventOpen       EventType = "open"
	EventDelta      EventType = "delta"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// Event is one frame of a run's output. Only the fields for its type are set.
type Event struct {
	Type EventType

	// Delta carries incremental answer text for EventDelta.
	Delta string

	// Tool, Args and DurationMS describe a stage for EventToolCall and
	// EventToolResult frames.
	Tool       string
	Args       map[string]any
	DurationMS int64

	// Result carries the final outcome for EventDone.
	Result *Result

	// Message carries the failure description for EventError.
	Message string
}

// EmitFunc receives events in order. A nil EmitFunc disables streaming; the
// run then only returns its final Result.
type EmitFunc func(Event)

// Result is the final outcome of a successful run.
type Result struct {
	Answer    string
	Citations []model.Citation
	Trace     []model.ToolStep
}
