package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/KarpovAlexandrGo/todo-service/internal/config"
	handler "github.com/KarpovAlexandrGo/todo-service/internal/controller/http"
	"github.com/KarpovAlexandrGo/todo-service/internal/metrics"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/memory"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/postgres"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/redis"
	"github.com/KarpovAlexandrGo/todo-service/internal/repo/sqlite"
	"github.com/KarpovAlexandrGo/todo-service/internal/telemetry"
	"github.com/KarpovAlexandrGo/todo-service/internal/usecase"
	"github.com/KarpovAlexandrGo/todo-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type App struct {
	Server  *http.Server
	cfg     *config.Config
	closers []func(context.Context) error
}

func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return New(cfg)
}

// New собирает приложение по готовой конфигурации.
func New(cfg *config.Config) (*App, error) {
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}

	if cfg.OTLPEndpoint != "" {
		tp, err := telemetry.InitTracerProvider(context.Background(), cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, tp.Shutdown)
		logger.Log.WithField("endpoint", cfg.OTLPEndpoint).Info("Tracing enabled")
	}

	taskRepo, err := a.initStorage()
	if err != nil {
		a.close(context.Background())
		return nil, err
	}

	if cfg.RedisAddr != "" {
		taskRepo, err = a.initCache(taskRepo)
		if err != nil {
			a.close(context.Background())
			return nil, err
		}
	}

	taskUseCase := usecase.NewTaskUseCase(taskRepo)

	a.Server = &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: setupRouter(taskUseCase, metrics.New()),
	}
	return a, nil
}

func (a *App) initStorage() (usecase.TaskRepository, error) {
	switch a.cfg.StorageDriver {
	case config.StorageDriverPostgres:
		dbPool, err := initDB(a.cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error {
			dbPool.Close()
			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := postgres.Migrate(ctx, dbPool); err != nil {
			return nil, err
		}
		return postgres.NewTaskRepository(dbPool), nil

	case config.StorageDriverSQLite:
		db, err := sqlite.Open(a.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error {
			return sqlDB.Close()
		})
		logger.Log.WithField("path", a.cfg.SQLitePath).Info("Using sqlite storage")
		return sqlite.NewTaskRepository(db), nil

	case config.StorageDriverMemory:
		logger.Log.Warn("Using in-memory storage, tasks are lost on restart")
		return memory.NewTaskRepository(), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", a.cfg.StorageDriver)
}

func (a *App) initCache(next usecase.TaskRepository) (usecase.TaskRepository, error) {
	client := redis.NewClient(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	cache := redis.NewCacheRepository(next, client, a.cfg.CacheTTL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	a.closers = append(a.closers, func(context.Context) error {
		return client.Close()
	})
	logger.Log.WithField("addr", a.cfg.RedisAddr).Info("Task list cache enabled")
	return cache, nil
}

func initDB(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Info("Connected to database successfully")
	return dbPool, nil
}

func setupRouter(taskUC usecase.TaskUseCase, m *metrics.Metrics) http.Handler {
	router := chi.NewRouter()

	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Heartbeat("/health"),
		m.Middleware,
		middleware.Timeout(60*time.Second),
	)

	handler.NewTaskHandler(taskUC).RegisterRoutes(router)
	router.Method(http.MethodGet, "/metrics", m.Handler())

	return otelhttp.NewHandler(router, "http-server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	)
}

// close освобождает ресурсы в обратном порядке.
func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Log.WithError(err).Error("Failed to release resource")
		}
	}
	a.closers = nil
}

// Run обслуживает запросы до сигнала остановки.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	return a.serve(ctx)
}

// serve обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) serve(ctx context.Context) error {
	defer a.close(context.Background())

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("Starting server on " + a.Server.Addr)
		serveErr <- a.Server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Log.Error("Graceful shutdown timed out")
		} else {
			logger.Log.WithError(err).Error("HTTP server shutdown failed")
		}
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Log.Info("Server stopped gracefully")
	return nil
}
