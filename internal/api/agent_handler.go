package api

import (
	"errors"
	"net/http"

	"github.com/shaiso/Conveyor/internal/agent"
)

// ListAgents возвращает агентов внешнего API.
// GET /api/v1/agents
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	if h.agents == nil {
		Fail(w, http.StatusServiceUnavailable, "agent API is not configured")
		return
	}

	agents, err := h.agents.ListAgents(r.Context())
	if err != nil {
		if errors.Is(err, agent.ErrNotConfigured) {
			Fail(w, http.StatusServiceUnavailable, "agent API is not configured")
			return
		}
		h.logger.Warn("list agents failed", "error", err)
		Fail(w, http.StatusBadGateway, "agent API request failed")
		return
	}

	result := make([]AgentResponse, len(agents))
	for i, a := range agents {
		result[i] = AgentFromDomain(a)
	}

	List(w, result)
}
