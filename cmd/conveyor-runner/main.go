// Conveyor Runner — исполняет run по запросам из RabbitMQ.
//
// Runner:
//   - Читает run.requested из очереди runs.requested (prefetch 1)
//   - Отбрасывает запросы старше request_ttl
//   - Выполняет один проход RunOrchestrator по активным pipelines
//
// Несколько runner'ов делят очередь: каждый запрос выполняет ровно один из них.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Conveyor/internal/agent"
	"github.com/shaiso/Conveyor/internal/config"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/pipeline"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/runner"
	"github.com/shaiso/Conveyor/internal/telemetry"
	"github.com/shaiso/Conveyor/internal/tenant"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONVEYOR_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(telemetry.LogOptions{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.Info("starting conveyor-runner")

	if cfg.RabbitMQ.URL == "" {
		logger.Error("rabbitmq.url is required for conveyor-runner")
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, repo.PoolConfig{URL: cfg.DB.URL, MaxConns: cfg.DB.MaxConns})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn, mq.TopologyConfig{RequestTTL: cfg.Runner.RequestTTL}); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	orch := pipeline.New(pipeline.Config{
		Pipelines:  repo.NewPipelineRepo(pool),
		Workspaces: tenant.NewManager(pool, logger),
		Agent: agent.New(agent.Config{
			BaseURL: cfg.Agent.BaseURL,
			APIKey:  cfg.Agent.APIKey,
			Timeout: cfg.Agent.Timeout,
		}),
		RunTimeout:           cfg.Runner.RunTimeout,
		MaxConcurrency:       cfg.Runner.MaxConcurrency,
		WorkspaceParallelism: cfg.Runner.WorkspaceParallelism,
		Logger:               logger,
	})

	r := runner.New(runner.Config{
		Conn:         mqConn,
		Orchestrator: orch,
		RequestTTL:   cfg.Runner.RequestTTL,
		Logger:       logger,
	})
	r.Start(ctx)

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("rabbitmq disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Runner.Port)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	r.Stop()
	logger.Info("conveyor-runner stopped")
}
