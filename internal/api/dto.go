package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/scheduler"
)

// Trigger DTOs

// StartTriggerRequest — запрос на регистрацию триггера.
type StartTriggerRequest struct {
	Pattern string `json:"pattern"`
}

// TriggerResponse — состояние триггера.
type TriggerResponse struct {
	Name    string     `json:"name"`
	Pattern string     `json:"pattern"`
	Active  bool       `json:"active"`
	NextRun *time.Time `json:"next_run,omitempty"`
	PrevRun *time.Time `json:"prev_run,omitempty"`
}

// TriggerFromStatus конвертирует scheduler.Status в TriggerResponse.
func TriggerFromStatus(s scheduler.Status) TriggerResponse {
	resp := TriggerResponse{
		Name:    s.Name,
		Pattern: s.Pattern,
		Active:  s.Active,
	}
	if !s.Next.IsZero() {
		next := s.Next
		resp.NextRun = &next
	}
	if !s.Prev.IsZero() {
		prev := s.Prev
		resp.PrevRun = &prev
	}
	return resp
}

// Run DTOs

// RunRequestResponse — принятый запрос на run.
type RunRequestResponse struct {
	RequestID   uuid.UUID `json:"request_id"`
	Source      string    `json:"source"`
	RequestedAt time.Time `json:"requested_at"`
}

// RunRequestFromScheduler конвертирует scheduler.RunRequest в RunRequestResponse.
func RunRequestFromScheduler(r scheduler.RunRequest) RunRequestResponse {
	return RunRequestResponse{
		RequestID:   r.ID,
		Source:      r.Source,
		RequestedAt: r.RequestedAt,
	}
}

// Pipeline DTOs

// PipelineResponse — ответ с конфигурацией pipeline.
type PipelineResponse struct {
	ID               uuid.UUID  `json:"id"`
	WorkspaceID      uuid.UUID  `json:"workspace_id"`
	ObjectMetadataID *uuid.UUID `json:"object_metadata_id,omitempty"`
	ViewID           *uuid.UUID `json:"view_id,omitempty"`
	FieldMetadataID  *uuid.UUID `json:"field_metadata_id,omitempty"`
	ViewGroupID      *uuid.UUID `json:"view_group_id,omitempty"`
	Agent            string     `json:"agent"`
	WIPLimit         int        `json:"wip_limit"`
	AdditionalInput  string     `json:"additional_input,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PipelineFromDomain конвертирует domain.Pipeline в PipelineResponse.
func PipelineFromDomain(p domain.Pipeline) PipelineResponse {
	return PipelineResponse{
		ID:               p.ID,
		WorkspaceID:      p.WorkspaceID,
		ObjectMetadataID: p.ObjectMetadataID,
		ViewID:           p.ViewID,
		FieldMetadataID:  p.FieldMetadataID,
		ViewGroupID:      p.ViewGroupID,
		Agent:            p.Agent,
		WIPLimit:         p.WIPLimit,
		AdditionalInput:  p.AdditionalInput,
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// Agent DTOs

// AgentResponse — агент внешнего API.
type AgentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// AgentFromDomain конвертирует domain.Agent в AgentResponse.
func AgentFromDomain(a domain.Agent) AgentResponse {
	return AgentResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Type:        a.Type,
	}
}
