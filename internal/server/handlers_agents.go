package server

import (
	"net/http"

	"github.com/runix-ai/runix/internal/agent"
	"github.com/runix-ai/runix/internal/model"
)

// HandleListAgents handles GET /v1/agents.
func (h *Handlers) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.AgentListResponse{Agents: agent.CanonicalNames()})
}

// HandleListAliases handles GET /v1/agents/aliases.
func (h *Handlers) HandleListAliases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.AliasListResponse{Aliases: agent.Aliases})
}
