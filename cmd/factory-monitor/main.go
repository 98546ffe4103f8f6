package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"

	// Application
	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/application/usecase"

	// Domain
	"github.com/dreschagin/factory-health-monitor/internal/domain/service"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"

	// Infrastructure
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/alert/ses"
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/cache/redis"
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/collector"
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/ingest/localdir"
	s3ingest "github.com/dreschagin/factory-health-monitor/internal/infrastructure/ingest/s3"
	natsinfra "github.com/dreschagin/factory-health-monitor/internal/infrastructure/messaging/nats"
	wsInfra "github.com/dreschagin/factory-health-monitor/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/observability"
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/observability/cloudwatch"
	prommetrics "github.com/dreschagin/factory-health-monitor/internal/infrastructure/observability/prometheus"
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/persistence/dynamodb"
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/persistence/postgres"

	// Interfaces
	httpInterface "github.com/dreschagin/factory-health-monitor/internal/interfaces/http"
	"github.com/dreschagin/factory-health-monitor/internal/interfaces/http/handler"
	"github.com/dreschagin/factory-health-monitor/internal/interfaces/http/middleware"

	// Shared
	"github.com/dreschagin/factory-health-monitor/pkg/config"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting Factory Health Monitor")

	// 3. Подключаемся к БД
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("Failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	// Проверяем подключение
	if err := db.Ping(); err != nil {
		log.Error("Failed to ping database", err)
		os.Exit(1)
	}
	log.Info("Database connected successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Dependency Injection - Infrastructure Layer

	// Repositories
	readingRepository := postgres.NewPostgresReadingRepository(db)
	verdictRepository := postgres.NewPostgresVerdictRepository(db)

	// Redis cache (опционально)
	var cache port.Cache = port.NoopCache{}
	if cfg.Cache.Enabled {
		redisCache, err := redis.NewRedisCache(
			cfg.Cache.Host,
			cfg.Cache.Port,
			cfg.Cache.Password,
			cfg.Cache.DB,
			cfg.Cache.TTL,
			cfg.Cache.PoolSize,
			cfg.Cache.MinIdleConns,
			cfg.Cache.DialTimeout,
			cfg.Cache.ReadTimeout,
			cfg.Cache.WriteTimeout,
		)
		if err != nil {
			log.Error("Failed to connect to Redis, continuing without cache", err)
		} else {
			cache = redisCache
			defer redisCache.Close()
			log.Info("Redis cache connected")
		}
	}

	// NATS publisher (опционально)
	var events port.EventPublisher = port.NoopEventPublisher{}
	if cfg.Messaging.Enabled {
		natsPublisher, err := natsinfra.NewNATSPublisher(cfg.Messaging.NATSURL, log)
		if err != nil {
			log.Error("Failed to connect to NATS, continuing without events", err)
		} else {
			events = natsPublisher
			defer natsPublisher.Close()
			log.Info("NATS publisher connected", "url", cfg.Messaging.NATSURL)
		}
	}

	// WebSocket Hub
	hub := wsInfra.NewHub(log)

	// System stats collector
	statsCollector := collector.NewSystemStatsCollector()

	// 5. Alerting (SES + DynamoDB history)

	var dispatcher port.AlertDispatcher = port.NoopAlertDispatcher{}
	var alertHistory port.AlertHistoryRepository = port.NoopAlertHistory{}
	if cfg.Alerting.Enabled {
		sesDispatcher, err := ses.NewDispatcher(ctx, ses.Config{
			Region:          cfg.Alerting.Region,
			Endpoint:        cfg.Alerting.Endpoint,
			AccessKeyID:     cfg.Alerting.AccessKeyID,
			SecretAccessKey: cfg.Alerting.SecretAccessKey,
			Sender:          cfg.Alerting.Sender,
			Recipients:      cfg.Alerting.Recipients,
			MaxAttempts:     cfg.Alerting.MaxRetries,
			InitialBackoff:  cfg.Alerting.InitialBackoff,
		}, log)
		if err != nil {
			log.Error("Failed to initialize SES dispatcher", err)
			os.Exit(1)
		}
		dispatcher = sesDispatcher

		if cfg.Alerting.HistoryTable != "" {
			historyRepository, err := dynamodb.NewAlertHistoryRepository(ctx, dynamodb.Config{
				TableName:       cfg.Alerting.HistoryTable,
				Region:          cfg.Alerting.Region,
				Endpoint:        cfg.Alerting.Endpoint,
				AccessKeyID:     cfg.Alerting.AccessKeyID,
				SecretAccessKey: cfg.Alerting.SecretAccessKey,
			})
			if err != nil {
				log.Error("Failed to initialize alert history repository", err)
				os.Exit(1)
			}
			alertHistory = historyRepository
		}
	} else {
		log.Warn("Alerting is disabled, critical reports will not be sent")
	}

	// 6. Observability (Prometheus + CloudWatch)

	registry := promclient.NewRegistry()
	promMetrics := prommetrics.New(registry)

	pipelineMetrics := observability.FanoutPipelineMetrics{promMetrics}
	var runLog port.RunLogPublisher = port.NoopRunLogPublisher{}
	if cfg.Observability.CloudWatchEnabled {
		cwMetrics, err := cloudwatch.NewPipelineMetricsPublisher(ctx, cloudwatch.PipelineMetricsConfig{
			Namespace:       cfg.Observability.Namespace,
			Region:          cfg.Observability.Region,
			Endpoint:        cfg.Observability.Endpoint,
			AccessKeyID:     cfg.Observability.AccessKeyID,
			SecretAccessKey: cfg.Observability.SecretAccessKey,
		})
		if err != nil {
			log.Error("Failed to initialize CloudWatch metrics publisher", err)
			os.Exit(1)
		}
		pipelineMetrics = append(pipelineMetrics, cwMetrics)
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			if err := cwMetrics.Close(closeCtx); err != nil {
				log.Error("Failed to flush CloudWatch metrics", err)
			}
		}()

		cwRunLog, err := cloudwatch.NewRunLogPublisher(ctx, cloudwatch.RunLogConfig{
			LogGroupName:    cfg.Observability.LogGroupName,
			LogStreamName:   cfg.Observability.LogStreamName,
			Region:          cfg.Observability.Region,
			Endpoint:        cfg.Observability.Endpoint,
			AccessKeyID:     cfg.Observability.AccessKeyID,
			SecretAccessKey: cfg.Observability.SecretAccessKey,
			AutoCreate:      true,
		})
		if err != nil {
			log.Error("Failed to initialize CloudWatch run log publisher", err)
			os.Exit(1)
		}
		runLog = cwRunLog
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			if err := cwRunLog.Close(closeCtx); err != nil {
				log.Error("Failed to flush CloudWatch run log", err)
			}
		}()

		log.Info("CloudWatch observability enabled", "namespace", cfg.Observability.Namespace)
	}

	// 7. Dependency Injection - Domain Layer

	// Per-machine пороги температуры с опциональным hot reload
	thresholds := config.NewMachineThresholds(cfg.Evaluation.SensorReadingThreshold)
	if cfg.Evaluation.ThresholdsFile != "" {
		loaded, err := config.LoadMachineThresholds(cfg.Evaluation.ThresholdsFile, cfg.Evaluation.SensorReadingThreshold)
		if err != nil {
			log.Error("Failed to load machine thresholds", err)
			os.Exit(1)
		}
		thresholds.Replace(loaded)

		go func() {
			if err := config.WatchMachineThresholds(ctx, cfg.Evaluation.ThresholdsFile, thresholds, log); err != nil {
				log.Error("Thresholds watcher stopped", err)
			}
		}()
	}

	readingValidator := service.NewReadingValidator(
		service.ValidationMode(cfg.Evaluation.ValidationMode),
		thresholds,
	)

	healthEvaluator, err := service.NewHealthEvaluator(service.ScoringPolicy(cfg.Evaluation.ScoringPolicy))
	if err != nil {
		log.Error("Failed to create health evaluator", err)
		os.Exit(1)
	}

	// 8. Источники показаний

	var sources []port.ReadingSource
	if cfg.Ingest.S3Enabled {
		s3Source, err := s3ingest.NewReadingSource(ctx, s3ingest.Config{
			Bucket:          cfg.Ingest.S3Bucket,
			Prefix:          cfg.Ingest.S3Prefix,
			Region:          cfg.Ingest.S3Region,
			Endpoint:        cfg.Ingest.S3Endpoint,
			AccessKeyID:     cfg.Ingest.AccessKeyID,
			SecretAccessKey: cfg.Ingest.SecretAccessKey,
			UsePathStyle:    cfg.Ingest.UsePathStyle,
		}, log)
		if err != nil {
			log.Error("Failed to initialize S3 reading source", err)
			os.Exit(1)
		}
		sources = append(sources, s3Source)
	}
	if cfg.Ingest.LocalDir != "" {
		localSource, err := localdir.NewReadingSource(cfg.Ingest.LocalDir, log)
		if err != nil {
			log.Error("Failed to initialize local reading source", err)
			os.Exit(1)
		}
		sources = append(sources, localSource)

		go func() {
			if err := localSource.Watch(ctx); err != nil {
				log.Error("Local directory watcher stopped", err)
			}
		}()
	}
	if len(sources) == 0 {
		log.Warn("No reading sources configured, ingest loop will be idle")
	}

	// 9. Dependency Injection - Application Layer (Use Cases)

	ingestReadingsUC := usecase.NewIngestReadingsUseCase(
		sources,
		readingValidator,
		readingRepository,
		pipelineMetrics,
		runLog,
		events,
		log,
	)

	evaluateHealthUC := usecase.NewEvaluateMachineHealthUseCase(
		readingRepository,
		verdictRepository,
		healthEvaluator,
		cfg.Evaluation.Window(),
		hub,
		dispatcher,
		alertHistory,
		cache,
		pipelineMetrics,
		runLog,
		events,
		log,
	)

	getMachineHealthUC := usecase.NewGetMachineHealthUseCase(verdictRepository, cache, log)
	getCriticalMachinesUC := usecase.NewGetCriticalMachinesUseCase(verdictRepository, cache, log)
	getRecentReadingsUC := usecase.NewGetRecentReadingsUseCase(readingRepository, log)

	// 10. Dependency Injection - Interfaces Layer (HTTP Handlers)

	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
	}

	machineHealthHandler := handler.NewMachineHealthAPIHandler(getMachineHealthUC, getCriticalMachinesUC, evaluateHealthUC, log)
	readingsHandler := handler.NewReadingsAPIHandler(getRecentReadingsUC, log)
	statusHandler := handler.NewStatusAPIHandler(statsCollector, hub, readingRepository, alertHistory, log)
	websocketHandler := handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, authConfig, log)
	authAPIHandler := handler.NewAuthAPIHandler(authConfig, log)

	router := httpInterface.NewRouter(
		machineHealthHandler,
		readingsHandler,
		statusHandler,
		websocketHandler,
		authAPIHandler,
		promMetrics,
		registry,
		cfg.Security,
		log,
	)

	// 11. Запускаем фоновые процессы

	// WebSocket hub
	go hub.Run()
	log.Info("WebSocket hub started")

	// Ingest loop: опрашиваем источники по тикеру
	go func() {
		ticker := time.NewTicker(cfg.Ingest.PollInterval)
		defer ticker.Stop()

		log.Info("Ingest loop started", "interval", cfg.Ingest.PollInterval.String())

		for {
			select {
			case <-ticker.C:
				if err := ingestReadingsUC.Execute(ctx); err != nil {
					log.Error("Ingest run failed", err)
				}
			case <-ctx.Done():
				log.Info("Ingest loop stopped")
				return
			}
		}
	}()

	// Evaluation loop: пересчитываем вердикты по тикеру
	go func() {
		ticker := time.NewTicker(cfg.Evaluation.Interval)
		defer ticker.Stop()

		log.Info("Evaluation loop started",
			"interval", cfg.Evaluation.Interval.String(),
			"policy", cfg.Evaluation.ScoringPolicy)

		for {
			select {
			case <-ticker.C:
				if _, err := evaluateHealthUC.Execute(ctx); err != nil {
					log.Error("Evaluation run failed", err)
				}
			case <-ctx.Done():
				log.Info("Evaluation loop stopped")
				return
			}
		}
	}()

	// Retention loop: раз в сутки удаляем показания старше срока хранения
	if cfg.Evaluation.RetentionDays > 0 {
		retention := time.Duration(cfg.Evaluation.RetentionDays) * 24 * time.Hour

		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					window, err := valueobject.NewTrailingWindow(retention)
					if err != nil {
						log.Error("Failed to build retention window", err)
						continue
					}
					deleted, err := readingRepository.DeleteOlderThan(ctx, window)
					if err != nil {
						log.Error("Retention cleanup failed", err)
						continue
					}
					if deleted > 0 {
						log.Info("Retention cleanup finished", "deleted", deleted)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// 12. Настраиваем HTTP сервер

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 13. Ожидаем сигнал для graceful shutdown

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	// Останавливаем фоновые циклы
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server stopped gracefully")
}
