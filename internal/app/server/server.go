package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"leavesys/internal/domain/account"
	"leavesys/internal/domain/auth"
	"leavesys/internal/domain/leave"
	"leavesys/internal/platform/config"
	"leavesys/internal/platform/db"
	"leavesys/internal/platform/metrics"
	adminhandler "leavesys/internal/transport/http/handlers/admin"
	authhandler "leavesys/internal/transport/http/handlers/auth"
	leavehandler "leavesys/internal/transport/http/handlers/leave"
	userhandler "leavesys/internal/transport/http/handlers/user"
	"leavesys/internal/transport/http/middleware"
)

// App is a fully wired server: storage, domain services and the HTTP router.
// DB is nil when the memory driver is configured.
type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Router   http.Handler
	Accounts *account.Service
	Leaves   *leave.Service
	Metrics  *metrics.Collector
}

// New builds the application per cfg: it opens storage, runs migrations and
// seeding when enabled, and assembles the middleware chain and routes.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	var accountStore account.StoreAPI
	var recordStore leave.RecordStore
	switch cfg.StorageDriver {
	case config.DriverMemory:
		accountStore = account.NewMemoryStore()
		recordStore = leave.NewMemoryStore()
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		app.DB = pool
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		accountStore = account.NewStore(pool)
		recordStore = leave.NewStore(pool)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	app.Accounts = account.NewService(accountStore)
	app.Leaves = leave.NewService(recordStore, app.Accounts)

	if cfg.RunSeed {
		if err := db.Seed(ctx, app.Accounts, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
	}
	app.Router = app.buildRouter()
	return app, nil
}

// Close releases the storage pool when one was opened.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func (a *App) buildRouter() http.Handler {
	cfg := a.Config
	tokens := auth.Tokens{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Logger(slog.Default(), a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(tokens))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := a.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(a.Accounts, tokens).RegisterRoutes(r)
		userhandler.NewHandler(a.Accounts, a.Leaves).RegisterRoutes(r)
		leavehandler.NewHandler(a.Leaves, a.Metrics).RegisterRoutes(r)
		adminhandler.NewHandler(a.Accounts, a.Metrics, cfg.ExportPrefix).RegisterRoutes(r)
	})

	return router
}

// Run loads configuration, starts the HTTP server and blocks until the
// process is interrupted, then shuts down gracefully.
func Run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "driver", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
