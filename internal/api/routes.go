package api

import "net/http"

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(Recovery(h.logger), Logging(h.logger))

	// Trigger
	mux.Handle("GET /api/v1/trigger", chain(http.HandlerFunc(h.GetTrigger)))
	mux.Handle("PUT /api/v1/trigger", chain(http.HandlerFunc(h.StartTrigger)))
	mux.Handle("DELETE /api/v1/trigger", chain(http.HandlerFunc(h.StopTrigger)))

	// Runs
	mux.Handle("POST /api/v1/runs", chain(http.HandlerFunc(h.RunNow)))

	// Pipelines
	mux.Handle("GET /api/v1/pipelines", chain(http.HandlerFunc(h.ListPipelines)))
	mux.Handle("GET /api/v1/pipelines/lookup", chain(http.HandlerFunc(h.LookupPipeline)))

	// Agents
	mux.Handle("GET /api/v1/agents", chain(http.HandlerFunc(h.ListAgents)))
}
