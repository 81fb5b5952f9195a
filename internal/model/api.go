package model

// CreateTaskRequest is the body of POST /v1/tasks.
type CreateTaskRequest struct {
	Agent  string `json:"agent"`
	Query  string `json:"query"`
	Stream bool   `json:"stream,omitempty"`
}

// ContinueTaskRequest is the body of POST /v1/tasks/{task_id}/continue.
type ContinueTaskRequest struct {
	Message string `json:"message"`
	Stream  bool   `json:"stream,omitempty"`
}

// TaskResult is the non-streaming response for task creation and continuation.
type TaskResult struct {
	TaskID         string     `json:"task_id"`
	Status         TaskStatus `json:"status"`
	AnswerMarkdown string     `json:"answer_markdown"`
	Citations      []Citation `json:"citations"`
	ToolTrace      []ToolStep `json:"tool_trace"`
}

// TaskDetail is the response of GET /v1/tasks/{task_id}.
type TaskDetail struct {
	TaskID         string     `json:"task_id"`
	Agent          string     `json:"agent"`
	Status         TaskStatus `json:"status"`
	AnswerMarkdown *string    `json:"answer_markdown"`
	Citations      []Citation `json:"citations"`
	ToolTrace      []ToolStep `json:"tool_trace"`
	Messages       []Message  `json:"messages"`
}

// AgentListResponse is the response of GET /v1/agents.
type AgentListResponse struct {
	Agents []string `json:"agents"`
}

// AliasListResponse is the response of GET /v1/agents/aliases.
type AliasListResponse struct {
	Aliases map[string]string `json:"aliases"`
}

// EvidenceListResponse is the response of GET /v1/evidence.
type EvidenceListResponse struct {
	Evidence []Evidence `json:"evidence"`
}
