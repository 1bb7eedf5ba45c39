// cmd/notification-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-notifications/internal/api"
	"order-notifications/internal/common/camunda"
	"order-notifications/internal/common/config"
	"order-notifications/internal/common/logger"
	"order-notifications/internal/common/messaging"
	"order-notifications/internal/common/observability"
	"order-notifications/internal/notification/dispatch"
	"order-notifications/internal/notification/lifecycle"

	son "order-notifications/internal/workers/orders/send-order-notification"
	sou "order-notifications/internal/workers/orders/simulate-order-updates"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console", "stdout")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("Starting notification manager...", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	obs, err := observability.New(cfg.Observability.ServiceName)
	if err != nil {
		log.Warn("metrics exporter unavailable, continuing without OTel metrics", map[string]interface{}{"error": err.Error()})
		obs = observability.NewNoop()
	}
	defer obs.Shutdown()
	if err := obs.EnableTracing(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, cfg.Observability.SampleRatio); err != nil {
		log.Warn("tracing disabled", map[string]interface{}{"error": err.Error()})
	}

	// --- Storage ---
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("storage backends failed", zap.Error(err))
	}
	defer b.Close()

	prefs, err := buildPreferenceStore(cfg, b)
	if err != nil {
		zapLog.Fatal("preference store", zap.Error(err))
	}
	hist, err := buildHistoryLog(cfg, b, log)
	if err != nil {
		zapLog.Fatal("history log", zap.Error(err))
	}

	// --- Delivery ---
	senders, err := buildSenders(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("channel senders", zap.Error(err))
	}

	opts := []dispatch.Option{dispatch.WithObservability(obs)}
	if cfg.Messaging.Enabled {
		pub, err := messaging.NewAMQPPublisher(messaging.Config{
			URL:      cfg.Messaging.URL,
			Exchange: cfg.Messaging.Exchange,
			AppID:    cfg.Messaging.AppID,
		}, log)
		if err != nil {
			zapLog.Fatal("event publisher", zap.Error(err))
		}
		defer pub.Close()
		opts = append(opts, dispatch.WithPublisher(pub, cfg.Messaging.RoutingKey))
	}

	renderer := buildRenderer(cfg, log)
	svc := dispatch.NewService(prefs, renderer, senders, hist, log, opts...)
	sim := lifecycle.NewSimulator(svc, renderer, log,
		lifecycle.WithStep(config.GetDuration(cfg.Notifications.Lifecycle.StepDelay)))

	checks := []api.ReadinessCheck{}
	if b.redis != nil {
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: b.redis.Ping})
	}
	if b.postgres != nil {
		checks = append(checks, api.ReadinessCheck{Name: "postgres", Check: b.postgres.Ping})
	}
	if b.es != nil {
		checks = append(checks, api.ReadinessCheck{Name: "elasticsearch", Check: b.es.Ping})
	}

	// --- Job workers ---
	var workers *camunda.Workers
	if cfg.Camunda.Enabled {
		zc, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zc.Close()
		log.Info("Zeebe client connected successfully", nil)
		checks = append(checks, api.ReadinessCheck{Name: "zeebe", Check: zc.HealthCheck})

		workers = camunda.NewWorkers(zc.Raw(), log)

		sonCfg := config.GetWorkerConfig(cfg, son.TaskType)
		workers.Start(son.TaskType, sonCfg, son.NewHandler(son.LoadConfig(sonCfg), svc, log))

		souCfg := config.GetWorkerConfig(cfg, sou.TaskType)
		workers.Start(sou.TaskType, souCfg, sou.NewHandler(ctx, sou.LoadConfig(souCfg), sim, log))

		log.Info("Job workers started", map[string]interface{}{"taskTypes": workers.Running()})
	}

	// --- HTTP API, health & metrics ---
	gin.SetMode(cfg.HTTP.Mode)
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.NewRouter(api.NewNotificationHandler(ctx, svc, sim), checks, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"address": cfg.HTTP.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutdown signal received, stopping...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", map[string]interface{}{"error": err.Error()})
	}
	if workers != nil {
		workers.Stop()
	}
	if err := sim.Shutdown(shutdownCtx); err != nil {
		log.Error("Simulations did not stop in time", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Notification manager stopped gracefully", nil)
}
