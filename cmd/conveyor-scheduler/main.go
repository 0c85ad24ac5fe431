// Conveyor Scheduler — периодический триггер и HTTP API управления.
//
// Scheduler:
//   - Восстанавливает регистрацию триггера из core."conveyorTrigger"
//   - На каждом тике (только лидер по pg_try_advisory_lock) отправляет запрос на run
//   - Запросы уходят в RabbitMQ (runs.requested) или, без RabbitMQ,
//     выполняются в этом же процессе
//   - Обслуживает /api/v1/*, /healthz и /metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Conveyor/internal/agent"
	"github.com/shaiso/Conveyor/internal/api"
	"github.com/shaiso/Conveyor/internal/config"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/pipeline"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/scheduler"
	"github.com/shaiso/Conveyor/internal/telemetry"
	"github.com/shaiso/Conveyor/internal/tenant"
)

var startTime = time.Now()

func main() {
	cfg, err := config.Load(os.Getenv("CONVEYOR_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(telemetry.LogOptions{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.Info("starting conveyor-scheduler")

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

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	agentClient := agent.New(agent.Config{
		BaseURL: cfg.Agent.BaseURL,
		APIKey:  cfg.Agent.APIKey,
		Timeout: cfg.Agent.Timeout,
	})

	// Dispatcher: RabbitMQ, если настроен, иначе run в этом процессе
	var dispatcher scheduler.Dispatcher
	var local *scheduler.LocalDispatcher
	if cfg.RabbitMQ.URL != "" {
		mqConn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer mqConn.Close()

		if err := mq.SetupTopology(ctx, mqConn, mq.TopologyConfig{RequestTTL: cfg.Runner.RequestTTL}); err != nil {
			logger.Error("failed to setup topology", "error", err)
			os.Exit(1)
		}

		dispatcher = scheduler.NewPublishDispatcher(mq.NewPublisher(mqConn, logger))
		logger.Info("dispatching runs to RabbitMQ", "queue", mq.QueueRunsRequested)
	} else {
		orch := pipeline.New(pipeline.Config{
			Pipelines:            repo.NewPipelineRepo(pool),
			Workspaces:           tenant.NewManager(pool, logger),
			Agent:                agentClient,
			RunTimeout:           cfg.Runner.RunTimeout,
			MaxConcurrency:       cfg.Runner.MaxConcurrency,
			WorkspaceParallelism: cfg.Runner.WorkspaceParallelism,
			Logger:               logger,
		})
		local = scheduler.NewLocalDispatcher(ctx, orch, logger)
		dispatcher = local
		logger.Info("RabbitMQ not configured, running pipelines in-process")
	}

	leader := scheduler.NewAdvisoryLeader(pool, cfg.Scheduler.LockKey, logger)

	trigger := scheduler.New(scheduler.Config{
		Store:          repo.NewTriggerRepo(pool),
		Dispatcher:     dispatcher,
		Leader:         leader,
		DefaultPattern: cfg.Scheduler.Pattern,
		AutoStart:      cfg.Scheduler.AutoStart,
		Location:       cfg.Location(),
		Logger:         logger,
	})

	if err := trigger.Restore(ctx); err != nil {
		// регистрацию можно задать позже через PUT /api/v1/trigger
		logger.Error("failed to restore trigger", "error", err)
	}

	triggerDone := make(chan struct{})
	go func() {
		defer close(triggerDone)
		trigger.Run(ctx)
	}()

	handler := api.NewHandler(api.Config{
		Trigger:    trigger,
		Dispatcher: dispatcher,
		Pipelines:  repo.NewPipelineRepo(pool),
		Agents:     agentClient,
		Logger:     logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Scheduler.Port),
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	<-triggerDone
	if local != nil {
		local.Wait()
	}
	leader.Release(shutdownCtx)

	logger.Info("conveyor-scheduler stopped")
}
