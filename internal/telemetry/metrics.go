package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики Conveyor. Регистрируются в prometheus.DefaultRegisterer
// и отдаются через promhttp.Handler().
var (
	// RunsTotal — завершённые runs по результату (completed, failed).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_runs_total",
		Help: "Total orchestrator runs by result",
	}, []string{"result"})

	// RunDuration — длительность одного run.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conveyor_run_duration_seconds",
		Help:    "Duration of a single orchestrator run",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	})

	// PipelinesTotal — обработанные pipelines по статусу и причине пропуска.
	PipelinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_pipelines_total",
		Help: "Pipelines handled per run by outcome status and reason",
	}, []string{"status", "reason"})

	// RecordsAdvanced — записи, переведённые в следующую стадию.
	RecordsAdvanced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_records_advanced_total",
		Help: "Records moved to the next stage",
	})

	// AdvanceConflicts — записи, изменённые параллельно (CAS не прошёл).
	AdvanceConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_advance_conflicts_total",
		Help: "Stage advances rejected because the record left the expected stage",
	})

	// AgentInvocations — вызовы агента по результату (success, failure).
	AgentInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_agent_invocations_total",
		Help: "External agent invocations by result",
	}, []string{"result"})

	// AgentDuration — длительность вызова агента.
	AgentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conveyor_agent_duration_seconds",
		Help:    "Duration of a single external agent invocation",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// TriggerTicks — срабатывания триггера по результату (dispatched, skipped, failed).
	TriggerTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_trigger_ticks_total",
		Help: "Periodic trigger ticks by result",
	}, []string{"result"})

	// RunRequests — полученные runner'ом запросы на run (accepted, stale, invalid).
	RunRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_run_requests_total",
		Help: "Run requests consumed by the runner by result",
	}, []string{"result"})

	// HTTPRequests — запросы к API управления по маршруту и коду ответа.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_http_requests_total",
		Help: "Control API requests by route and status code",
	}, []string{"route", "code"})

	// ErrorsTotal — ошибки, отправленные в ReportError, по компоненту.
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_errors_total",
		Help: "Errors reported to the error sink by component",
	}, []string{"component"})
)
