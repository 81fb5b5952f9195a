// Package model defines the core domain types shared across the service.
package model

import "time"

// TaskStatus is the lifecycle state of a task.
// Transitions only run forward: running → succeeded or running → failed.
type TaskStatus string

const (
	StatusRunning   TaskStatus = "running"
	StatusSucceeded TaskStatus = "succeeded"
	StatusFailed    TaskStatus = "failed"
)

// Message authors. The transcript is append-only and order-preserving;
// strict User/AI alternation is not enforced by the store.
const (
	AuthorUser = "User"
	AuthorAI   = "AI"
)

// Task is one unit of conversational work with a persisted transcript
// and, once finished, a final answer.
type Task struct {
	ID             string     `json:"task_id"`
	Agent          string     `json:"agent"` // Normalized uppercase canonical name.
	Status         TaskStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ThreadID       *string    `json:"thread_id,omitempty"` // External correlation ids, if any.
	RunID          *string    `json:"run_id,omitempty"`
	AnswerMarkdown *string    `json:"answer_markdown"` // Nil until the task completes.
}

// Message is one transcript entry belonging to exactly one task,
// ordered by its monotonic id.
type Message struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Citation is a reference extracted from an answer's text.
type Citation struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	DOI     string `json:"doi,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet"`
}

// Evidence is a persisted citation record derived from an AI message.
// Records are appended each time an answer is finalized; duplicates across
// re-finalizations are intentional (the extractor is idempotent, the store
// does not deduplicate).
type Evidence struct {
	ID            int64     `json:"id"`
	TaskID        string    `json:"task_id"`
	DocID         string    `json:"doc_id"` // DOI, URL, or title — first non-empty wins; else "unknown".
	SourceType    string    `json:"source_type"`
	Section       *string   `json:"section,omitempty"`
	SpanStart     *int      `json:"span_start,omitempty"`
	SpanEnd       *int      `json:"span_end,omitempty"`
	TextHash      string    `json:"text_hash"`
	FigureID      *string   `json:"figure_id,omitempty"`
	TableID       *string   `json:"table_id,omitempty"`
	ClaimID       *string   `json:"claim_id,omitempty"`
	RawText       string    `json:"raw_text"`
	CreatedAt     time.Time `json:"created_at"`
	CitationIndex int       `json:"citation_index"`
}

// ToolStep is one entry in a task's tool trace: a sub-agent or tool
// invocation captured during processing, for observability.
type ToolStep struct {
	Tool       string         `json:"tool"`
	Args       map[string]any `json:"args,omitempty"`
	DurationMS int64          `json:"t_ms"`
}
