package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/internal/di"
	"github.com/werewolfcoder/OrderingSystem/internal/repository"
	"github.com/werewolfcoder/OrderingSystem/pkg/config"
	"github.com/werewolfcoder/OrderingSystem/pkg/database"
	"github.com/werewolfcoder/OrderingSystem/pkg/kafka"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
	pkgredis "github.com/werewolfcoder/OrderingSystem/pkg/redis"
	"github.com/werewolfcoder/OrderingSystem/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		logger.Fatal("failed to init logger", zap.Error(err))
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		log.Fatal("failed to init telemetry", zap.Error(err))
	}
	metrics, err := telemetry.NewMetrics(tel.Meter())
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	var db *database.PostgresDB
	if cfg.Storage.Driver == config.StorageDriverPostgres {
		db, err = database.NewPostgres(ctx, di.PostgresConfig(cfg))
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
		if err := repository.MigrateGlobal(ctx, db.Pool()); err != nil {
			log.Fatal("failed to migrate global schema", zap.Error(err))
		}
	}

	var rdb *pkgredis.Client
	if cfg.Redis.Enabled {
		rdb, err = pkgredis.NewClient(ctx, &pkgredis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			MaxRetries:   3,
		})
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	var events kafka.Producer = kafka.NoopProducer{}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.Config{
			Brokers:            cfg.Kafka.Brokers,
			ClientID:           cfg.Kafka.ClientID,
			ProduceTimeout:     cfg.Kafka.ProduceTimeout,
			MaxBufferedRecords: cfg.Kafka.MaxBufferedRecords,
		})
		if err != nil {
			log.Fatal("failed to create kafka producer", zap.Error(err))
		}
		events = producer
	}

	container, err := di.NewContainer(&di.ContainerConfig{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Events:  events,
		Metrics: metrics,
		Logger:  log,
		Base:    ctx,
	})
	if err != nil {
		log.Fatal("failed to build container", zap.Error(err))
	}
	defer container.Close()

	if cfg.Tenant.WarmOnStart {
		opened, err := container.WarmPartitions(ctx)
		if err != nil {
			log.Error("tenant warm-up failed", zap.Error(err))
		} else {
			log.Info("tenant partitions warmed", zap.Int("count", opened))
		}
	}

	if container.Bridge != nil {
		go func() {
			if err := container.Bridge.Run(ctx); err != nil {
				log.Error("broadcast bridge stopped", zap.Error(err))
			}
		}()
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	router.Use(
		otelgin.Middleware(cfg.OTel.ServiceName),
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.RequestLogger(log, "/health", "/ready"),
		middleware.CORS(corsCfg),
	)
	router.Static(cfg.Storage.PublicURLPrefix, cfg.Storage.UploadDir)
	container.Router.SetupRoutes(router)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("kafka", cfg.Kafka.Enabled),
			zap.Bool("redis", cfg.Redis.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		log.Warn("telemetry shutdown failed", zap.Error(err))
	}
}
