package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
)

// ListPipelines возвращает активные конфигурации.
// GET /api/v1/pipelines
func (h *Handler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := h.pipelines.ListActive(r.Context())
	if h.failStorage(w, r, err, "") {
		return
	}

	result := make([]PipelineResponse, len(pipelines))
	for i, p := range pipelines {
		result[i] = PipelineFromDomain(p)
	}

	List(w, result)
}

// LookupPipeline ищет конфигурацию по объекту, полю, стадии и view.
// GET /api/v1/pipelines/lookup?object_metadata_id=&field_metadata_id=&view_group_id=&view_id=
func (h *Handler) LookupPipeline(w http.ResponseWriter, r *http.Request) {
	var filter domain.PipelineFilter
	params := []struct {
		name string
		dst  **uuid.UUID
	}{
		{"object_metadata_id", &filter.ObjectMetadataID},
		{"field_metadata_id", &filter.FieldMetadataID},
		{"view_group_id", &filter.ViewGroupID},
		{"view_id", &filter.ViewID},
	}

	q := r.URL.Query()
	for _, p := range params {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			Fail(w, http.StatusBadRequest, "invalid "+p.name)
			return
		}
		*p.dst = &id
	}

	if filter.IsEmpty() {
		Fail(w, http.StatusBadRequest, "at least one filter parameter is required")
		return
	}

	pipeline, err := h.pipelines.Get(r.Context(), filter)
	if h.failStorage(w, r, err, "pipeline not found") {
		return
	}

	Success(w, PipelineFromDomain(*pipeline))
}
