package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/scheduler"
)

// TriggerControl — управление периодическим триггером. Реализуется scheduler.Trigger.
type TriggerControl interface {
	Start(ctx context.Context, pattern string) (scheduler.Status, error)
	Stop(ctx context.Context) (scheduler.Status, error)
	Status() scheduler.Status
}

// PipelineReader — чтение конфигураций. Реализуется repo.PipelineRepo.
type PipelineReader interface {
	ListActive(ctx context.Context) ([]domain.Pipeline, error)
	Get(ctx context.Context, filter domain.PipelineFilter) (*domain.Pipeline, error)
}

// AgentLister — список агентов внешнего API. Реализуется agent.Client.
type AgentLister interface {
	ListAgents(ctx context.Context) ([]domain.Agent, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	trigger    TriggerControl
	dispatcher scheduler.Dispatcher
	pipelines  PipelineReader
	agents     AgentLister
	logger     *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Trigger    TriggerControl
	Dispatcher scheduler.Dispatcher
	Pipelines  PipelineReader
	Agents     AgentLister
	Logger     *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		trigger:    cfg.Trigger,
		dispatcher: cfg.Dispatcher,
		pipelines:  cfg.Pipelines,
		agents:     cfg.Agents,
		logger:     cfg.Logger,
	}
}
