package app

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/adapter/database"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/adapter/http"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/auth"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/user"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/infra/metrics"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/infra/middleware"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/cache"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/config"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *database.Database
	Cache       *cache.Store
	Users       *user.Service
	AuthService *auth.AuthService
	Middleware  *middleware.Middleware
	UserHandler *http.UserHandler
	Health      *http.HealthChecker
	APIMetrics  *metrics.APIMetrics

	remote cache.Cache
}

// NewApp cria uma nova instância da aplicação com todas as dependências injetadas
func NewApp(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*App, error) {
	// Configurações do banco de dados baseadas no arquivo config.yaml
	dbConfig := database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        database.ParseLogLevel(cfg.Database.LogLevel),
		SlowThreshold:   cfg.Database.SlowThreshold,
		MigrationDir:    cfg.Database.MigrationDir,
		SkipMigrations:  cfg.Database.SkipMigrations,
	}

	db, err := database.NewDatabase(ctx, dbConfig, logger)
	if err != nil {
		return nil, err
	}

	var apiMetrics *metrics.APIMetrics
	if cfg.Metrics.Enabled {
		apiMetrics = metrics.NewAPIMetrics(prometheus.DefaultRegisterer)
	}

	store, remote := newCacheStore(ctx, cfg.Cache, apiMetrics, logger)

	userRepo := database.NewUserRepository(db.DB(), logger, db.QueryTimeout())
	users := user.NewService(userRepo, store, logger, user.WithBcryptCost(cfg.Auth.BcryptCost))

	keyManager, err := security.NewKeyManager(security.GetJWTSecret(cfg), logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("erro ao inicializar chaves JWT: %w", err)
	}

	authService := auth.NewAuthService(keyManager, users, cfg.Auth.TokenExpiration, logger)
	middlewares := middleware.NewMiddleware(logger, authService, apiMetrics, cfg.Tracing.ServiceName, cfg.Server.AllowedOrigins)

	userHandler := http.NewUserHandler(users, authService, cfg.Auth.PasswordMinLen, logger)
	if apiMetrics != nil {
		userHandler.SetMetrics(apiMetrics)
	}

	return &App{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Cache:       store,
		Users:       users,
		AuthService: authService,
		Middleware:  middlewares,
		UserHandler: userHandler,
		Health:      http.NewHealthChecker(db, store, logger),
		APIMetrics:  apiMetrics,
		remote:      remote,
	}, nil
}

// newCacheStore monta o Store conforme a configuração. Se o Redis não responder
// na inicialização o Store já começa no cache em memória.
func newCacheStore(ctx context.Context, cfg config.CacheConfig, apiMetrics *metrics.APIMetrics, logger *zap.Logger) (*cache.Store, cache.Cache) {
	local := cache.NewMemoryCache(cfg.TTL, cfg.CleanupInterval, apiMetrics, logger)

	opts := []cache.StoreOption{
		cache.WithOperationTimeout(cfg.OperationTimeout),
		cache.WithMetrics(apiMetrics),
	}

	var remote cache.Cache
	switch {
	case !cfg.Enabled:
		logger.Info("Cache desabilitado, todas as leituras vão ao banco")
		remote = &cache.NoOpCache{}
		opts = append(opts, cache.WithRemoteName("noop"))

	case cfg.Type == "redis":
		redisCache, err := cache.NewRedisCache(ctx, &redis.Options{
			Addr:         cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			DialTimeout:  cfg.Redis.DialTimeout,
			PoolTimeout:  cfg.Redis.PoolTimeout,
			IdleTimeout:  cfg.Redis.IdleTimeout,
		}, logger)
		if err != nil {
			logger.Warn("Redis indisponível na inicialização", zap.String("address", cfg.Redis.Address), zap.Error(err))
			if apiMetrics != nil {
				apiMetrics.CacheFallbackActivated("redis")
			}
		} else {
			remote = redisCache
		}
	}

	return cache.NewStore(remote, local, logger, opts...), remote
}

// RegisterRoutes registra todas as rotas no router
func (a *App) RegisterRoutes(router *gin.Engine) {
	// Configurar middleware global
	router.Use(a.Middleware.Recovery())
	router.Use(a.Middleware.Logger())
	router.Use(a.Middleware.Tracing())
	router.Use(a.Middleware.SecurityHeaders())
	router.Use(a.Middleware.CORS())
	router.Use(a.Middleware.Metrics())

	// Expor endpoint de métricas para Prometheus
	if a.Config.Metrics.Enabled {
		router.GET(a.Config.Metrics.PrometheusPath, gin.WrapH(promhttp.Handler()))
		a.Logger.Info("Endpoint de métricas Prometheus registrado",
			zap.String("path", a.Config.Metrics.PrometheusPath))
	}

	// Rotas públicas
	router.GET("/health", a.Health.LivenessCheck)
	router.GET("/health/liveness", a.Health.LivenessCheck)
	router.GET("/health/readiness", a.Health.ReadinessCheck)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", a.UserHandler.Login)
		authGroup.GET("/me", a.Middleware.Authenticate, a.UserHandler.Me)
	}

	// Rotas administrativas
	admin := router.Group("/admin")
	admin.Use(a.Middleware.AuthenticateAdmin)
	{
		admin.GET("/health", a.Health.DetailedHealth)

		admin.GET("/users", a.UserHandler.ListUsers)
		admin.POST("/users", a.UserHandler.CreateUser)
		admin.GET("/users/:uuid", a.UserHandler.GetUser)
		admin.PUT("/users/:uuid", a.UserHandler.UpdateUser)
		admin.DELETE("/users/:uuid", a.UserHandler.DeleteUser)

		admin.GET("/users/:uuid/permissions", a.UserHandler.GetPermissions)
		admin.PUT("/users/:uuid/permissions", a.UserHandler.SetPermissions)

		admin.GET("/users/:uuid/hotels", a.UserHandler.GetHotels)
		admin.POST("/users/:uuid/hotels", a.UserHandler.AddToHotel)
		admin.DELETE("/users/:uuid/hotels/:hotelId", a.UserHandler.RemoveFromHotel)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(nethttp.StatusNotFound, gin.H{
			"error": "Rota não encontrada",
			"path":  c.Request.URL.Path,
		})
	})
}

// Close libera conexões com banco e cache
func (a *App) Close() error {
	if closer, ok := a.remote.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.Logger.Warn("Erro ao fechar cache remoto", zap.Error(err))
		}
	}

	return a.DB.Close()
}
