package di

import (
	"context"
	"fmt"

	"github.com/werewolfcoder/OrderingSystem/internal/broadcast"
	"github.com/werewolfcoder/OrderingSystem/internal/handler"
	"github.com/werewolfcoder/OrderingSystem/internal/repository"
	"github.com/werewolfcoder/OrderingSystem/internal/service"
	"github.com/werewolfcoder/OrderingSystem/internal/storage"
	"github.com/werewolfcoder/OrderingSystem/internal/tenant"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
	"github.com/werewolfcoder/OrderingSystem/pkg/config"
	"github.com/werewolfcoder/OrderingSystem/pkg/database"
	"github.com/werewolfcoder/OrderingSystem/pkg/kafka"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
	pkgredis "github.com/werewolfcoder/OrderingSystem/pkg/redis"
	"github.com/werewolfcoder/OrderingSystem/pkg/telemetry"
)

// Container holds all dependencies for the ordering service
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *pkgredis.Client
	Events   kafka.Producer
	Tokens   *auth.Manager
	Registry *tenant.Registry
	Hub      *broadcast.Hub
	Bridge   *broadcast.RedisBridge
	Images   storage.ImageStore

	// Repositories
	AdminRepo repository.AdminRepository

	// Services
	AdminService service.AdminService
	ChefService  service.ChefService
	MenuService  service.MenuService
	OrderService service.OrderService
	QRService    service.QRService

	// Handlers
	Router *handler.Router
}

// ContainerConfig contains configuration for building the container.
// DB is nil with the memory storage driver; Redis and Events are optional.
type ContainerConfig struct {
	Config  *config.Config
	DB      *database.PostgresDB
	Redis   *pkgredis.Client
	Events  kafka.Producer
	Metrics *telemetry.Metrics
	Logger  *logger.Logger
	// Base bounds the lifetime of websocket sessions
	Base context.Context
}

// PostgresConfig maps the database section onto pool settings
func PostgresConfig(cfg *config.Config) *database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = cfg.Database.Host
	pg.Port = cfg.Database.Port
	pg.User = cfg.Database.User
	pg.Password = cfg.Database.Password
	pg.Database = cfg.Database.DBName
	pg.SSLMode = cfg.Database.SSLMode
	if cfg.Database.MaxConns > 0 {
		pg.MaxConns = int32(cfg.Database.MaxConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		pg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		pg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	}
	if cfg.Database.ConnectTimeout > 0 {
		pg.ConnectTimeout = cfg.Database.ConnectTimeout
	}
	return pg
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) (*Container, error) {
	appCfg := cfg.Config
	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}
	base := cfg.Base
	if base == nil {
		base = context.Background()
	}

	c := &Container{
		DB:     cfg.DB,
		Redis:  cfg.Redis,
		Events: cfg.Events,
	}
	if c.Events == nil {
		c.Events = kafka.NoopProducer{}
	}

	c.Tokens = auth.NewManager(auth.Config{
		Secret:   appCfg.JWT.Secret,
		Issuer:   appCfg.JWT.Issuer,
		AdminTTL: appCfg.JWT.AdminTTL,
		ChefTTL:  appCfg.JWT.ChefTTL,
		GuestTTL: appCfg.JWT.GuestTTL,
	})

	// Initialize repositories and the partition opener
	var opener tenant.Opener
	if c.DB != nil {
		c.AdminRepo = repository.NewPostgresAdminRepository(c.DB.Pool())
		opener = tenant.NewPostgresOpener(PostgresConfig(appCfg), appCfg.Tenant.SchemaPrefix, int32(appCfg.Database.TenantMaxConns))
	} else {
		c.AdminRepo = repository.NewMemoryAdminRepository()
		opener = tenant.NewMemoryOpener()
	}

	c.Registry = tenant.NewRegistry(opener,
		tenant.WithLogger(log),
		tenant.WithMetrics(cfg.Metrics),
		tenant.WithKnownTenants(c.AdminRepo.TenantExists),
	)

	c.Hub = broadcast.NewHub(
		broadcast.WithHubLogger(log),
		broadcast.WithHubMetrics(cfg.Metrics),
		broadcast.WithSendBuffer(appCfg.Broadcast.SendBuffer),
	)
	if c.Redis != nil {
		c.Bridge = broadcast.NewRedisBridge(c.Redis, c.Hub, appCfg.Broadcast.RedisChannel, log)
		c.Hub.SetRelay(c.Bridge)
	}

	images, err := storage.NewDiskStore(appCfg.Storage.UploadDir, appCfg.Storage.PublicURLPrefix, appCfg.Storage.MaxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("image store: %w", err)
	}
	c.Images = images

	// Initialize services
	c.AdminService = service.NewAdminService(c.AdminRepo, c.Registry, c.Tokens, log)
	c.ChefService = service.NewChefService(c.Registry, c.Tokens, log)
	c.MenuService = service.NewMenuService(c.Registry, c.Images, log)
	c.QRService = service.NewQRService(c.Tokens, appCfg.QR.FrontendURL, appCfg.QR.ImageSize)
	c.OrderService = service.NewOrderService(service.OrderServiceConfig{
		Partitions:  c.Registry,
		Broadcaster: c.Hub,
		Events:      c.Events,
		EventsTopic: appCfg.Kafka.OrdersTopic,
		Metrics:     cfg.Metrics,
		Logger:      log,
	})

	// Initialize handlers
	rateLimit := middleware.DefaultRateLimitConfig()
	rateLimit.RequestsPerSecond = appCfg.RateLimit.RequestsPerSecond
	rateLimit.BurstSize = appCfg.RateLimit.BurstSize
	if appCfg.RateLimit.EntryTTL > 0 {
		rateLimit.EntryTTL = appCfg.RateLimit.EntryTTL
	}
	if appCfg.RateLimit.UseRedis {
		rateLimit.RedisClient = c.Redis
	}

	c.Router = &handler.Router{
		Tokens:    c.Tokens,
		RateLimit: rateLimit,
		Admin:     handler.NewAdminHandler(c.AdminService),
		Chef:      handler.NewChefHandler(c.ChefService),
		Menu:      handler.NewMenuHandler(c.MenuService, appCfg.Storage.MaxImageBytes),
		Order:     handler.NewOrderHandler(c.OrderService),
		QR:        handler.NewQRHandler(c.QRService),
		WS: handler.NewWSHandler(base, c.Hub, c.Tokens, c.OrderService, appCfg.Server.AllowOrigins, broadcast.ConnConfig{
			PingInterval: appCfg.Broadcast.PingInterval,
			WriteTimeout: appCfg.Broadcast.WriteTimeout,
		}),
		Health: handler.NewHealthHandler(appCfg.App.Name, c.readinessChecks()).
			WithStat("open_partitions", func() int { return len(c.Registry.Open()) }),
	}

	return c, nil
}

func (c *Container) readinessChecks() map[string]handler.CheckFunc {
	checks := make(map[string]handler.CheckFunc)
	if c.DB != nil {
		checks["postgres"] = c.DB.Ping
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis.HealthCheck
	}
	return checks
}

// WarmPartitions opens the partition of every registered tenant
func (c *Container) WarmPartitions(ctx context.Context) (int, error) {
	return c.Registry.Warm(ctx, c.AdminRepo.ListTenantIDs)
}

// Close releases tenant partitions and the event producer. The global
// database and Redis client belong to the caller.
func (c *Container) Close() {
	c.Registry.Close()
	c.Events.Close()
}
