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
	"github.com/prometheus/client_golang/prometheus/collectors"

	// Application
	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/application/usecase"

	// Domain
	"github.com/hiresphere/pipeline-health/internal/domain/service"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"

	// Infrastructure
	rediscache "github.com/hiresphere/pipeline-health/internal/infrastructure/cache/redis"
	natspub "github.com/hiresphere/pipeline-health/internal/infrastructure/messaging/nats"
	"github.com/hiresphere/pipeline-health/internal/infrastructure/observability/cloudwatch"
	"github.com/hiresphere/pipeline-health/internal/infrastructure/observability/prometheus"
	dynamodbStore "github.com/hiresphere/pipeline-health/internal/infrastructure/persistence/dynamodb"
	"github.com/hiresphere/pipeline-health/internal/infrastructure/persistence/memory"
	"github.com/hiresphere/pipeline-health/internal/infrastructure/persistence/postgres"
	s3archive "github.com/hiresphere/pipeline-health/internal/infrastructure/storage/s3"

	// Interfaces
	httpInterface "github.com/hiresphere/pipeline-health/internal/interfaces/http"
	"github.com/hiresphere/pipeline-health/internal/interfaces/http/handler"
	"github.com/hiresphere/pipeline-health/internal/scheduler"

	// Shared
	"github.com/hiresphere/pipeline-health/pkg/config"
	"github.com/hiresphere/pipeline-health/pkg/logger"

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
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()
	log.Info("Starting Pipeline Health service")

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

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	if err := postgres.EnsureSchema(initCtx, db); err != nil {
		log.Error("Failed to prepare database schema", err)
		os.Exit(1)
	}

	// 4. Dependency Injection - Infrastructure Layer

	// Repository и источник снимков
	healthRepository := postgres.NewPostgresHealthRecordRepository(db)
	snapshotSource := postgres.NewPostgresSnapshotSource(db, cfg.Health.WeeklyWindow, cfg.Health.TimeToFillWindow)

	// Redis cache (опционально)
	var cache port.Cache
	var redisCache *rediscache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = rediscache.NewRedisCache(rediscache.Options{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			TTL:          cfg.Redis.TTL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("Redis is unavailable, caching disabled", "error", err.Error())
		} else {
			cache = redisCache
			defer redisCache.Close()
			log.Info("Redis cache connected", "ttl", cfg.Redis.TTL.String())
		}
	}

	// NATS (опционально)
	var events port.EventPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err := natspub.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Warn("NATS is unavailable, events disabled", "error", err.Error())
		} else {
			events = natsPublisher
			defer natsPublisher.Close()
		}
	}

	// Prometheus
	registry := promclient.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := prometheus.New(registry)

	publishers := []port.MetricsPublisher{metrics}

	// CloudWatch (опционально)
	var cloudWatchPublisher *cloudwatch.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		cloudWatchPublisher, err = cloudwatch.NewMetricsPublisher(initCtx, cloudwatch.MetricsPublisherConfig{
			Namespace:         cfg.CloudWatch.MetricsNamespace,
			Region:            cfg.CloudWatch.Region,
			Endpoint:          cfg.CloudWatch.Endpoint,
			AccessKeyID:       cfg.CloudWatch.AccessKeyID,
			SecretAccessKey:   cfg.CloudWatch.SecretAccessKey,
			DefaultDimensions: cfg.CloudWatch.MetricsDimensions,
			BufferSize:        cfg.CloudWatch.MetricsBufferSize,
			FlushInterval:     cfg.CloudWatch.MetricsFlushInterval,
			StorageResolution: cfg.CloudWatch.MetricsStorageResolution,
		}, log)
		if err != nil {
			log.Warn("CloudWatch metrics disabled", "error", err.Error())
		} else {
			publishers = append(publishers, cloudWatchPublisher)
		}
	}

	// Хранилище alert'ов: DynamoDB или память процесса
	var alertStore port.AlertStore
	if cfg.Alerts.Enabled {
		store, err := dynamodbStore.NewAlertStore(initCtx, dynamodbStore.Config{
			TableName:       cfg.Alerts.TableName,
			Region:          cfg.Alerts.Region,
			Endpoint:        cfg.Alerts.Endpoint,
			AccessKeyID:     cfg.Alerts.AccessKeyID,
			SecretAccessKey: cfg.Alerts.SecretAccessKey,
			StrongReads:     cfg.Alerts.StrongReads,
		})
		if err != nil {
			log.Error("Failed to initialize DynamoDB alert store", err)
			os.Exit(1)
		}
		alertStore = store
		log.Info("DynamoDB alert store enabled", "table", cfg.Alerts.TableName)
	} else {
		alertStore = memory.NewAlertStore()
		log.Warn("DynamoDB alert store is disabled, alert state is kept in memory")
	}

	// Архив отчетов S3 (опционально)
	var archive port.ReportArchive
	if cfg.Archive.Enabled {
		reportArchive, err := s3archive.NewReportArchive(initCtx, s3archive.Config{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			UsePathStyle:    cfg.Archive.UsePathStyle,
			KeyPrefix:       cfg.Archive.KeyPrefix,
		})
		if err != nil {
			log.Error("Failed to initialize report archive", err)
			os.Exit(1)
		}
		archive = reportArchive
	}

	// 5. Dependency Injection - Domain Layer

	scoring := valueobject.DefaultScoringConfig()
	metricsCalculator := service.NewMetricsCalculator(scoring)
	alertGenerator := service.NewAlertGenerator(scoring)
	healthAggregator := service.NewHealthAggregator()

	// 6. Dependency Injection - Application Layer (Use Cases)

	manageAlertsUC := usecase.NewManageAlertsUseCase(alertStore, log)

	calculateHealthUC := usecase.NewCalculateHealthUseCase(
		snapshotSource,
		healthRepository,
		metricsCalculator,
		alertGenerator,
		log,
	).
		WithAlerts(manageAlertsUC).
		WithMetricsPublishers(publishers...)
	if cache != nil {
		calculateHealthUC.WithCache(cache)
	}
	if events != nil {
		calculateHealthUC.WithEvents(events)
	}
	if archive != nil {
		calculateHealthUC.WithArchive(archive)
	}

	getPipelineHealthUC := usecase.NewGetPipelineHealthUseCase(
		healthRepository,
		metricsCalculator,
		alertGenerator,
		manageAlertsUC,
		cache,
		log,
	)

	getHealthHistoryUC := usecase.NewGetHealthHistoryUseCase(
		healthRepository,
		healthAggregator,
		cache,
		cfg.Health.MaxHistoryDuration,
		log,
	)

	previewHealthUC := usecase.NewPreviewHealthUseCase(metricsCalculator, alertGenerator, log)

	purgeHistoryUC := usecase.NewPurgeHistoryUseCase(
		healthRepository,
		time.Duration(cfg.Health.RetentionDays)*24*time.Hour,
		log,
	)

	runner := scheduler.NewRunner(calculateHealthUC, purgeHistoryUC, log, cfg.Health.RecalculationInterval)

	// 7. Dependency Injection - Interfaces Layer (HTTP Handlers)

	pipelineHealthHandler := handler.NewPipelineHealthHandler(
		getPipelineHealthUC,
		calculateHealthUC,
		getHealthHistoryUC,
		previewHealthUC,
		cfg.Health.MaxHistoryDuration,
		log,
	)
	alertsHandler := handler.NewAlertsHandler(manageAlertsUC, log)
	schedulerHandler := handler.NewSchedulerHandler(runner)

	readiness := func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if redisCache != nil {
			if err := redisCache.Ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}

	// Router
	router := httpInterface.NewRouter(
		pipelineHealthHandler,
		alertsHandler,
		schedulerHandler,
		metrics,
		readiness,
		cfg.Security,
		log,
	)

	// 8. Запускаем фоновые процессы

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Пересчет здоровья воронки и очистка истории
	go runner.Start(ctx)

	// 9. Настраиваем HTTP сервер

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Канал для получения сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Запускаем сервер в отдельной goroutine
	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 10. Ожидаем сигнал для graceful shutdown

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	// Останавливаем планировщик
	cancel()

	// Даем время на завершение текущих операций
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	if cloudWatchPublisher != nil {
		if err := cloudWatchPublisher.Close(shutdownCtx); err != nil {
			log.Warn("Failed to flush CloudWatch metrics", "error", err.Error())
		}
	}

	log.Info("Server stopped gracefully")
}
