package main

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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/forgo/lending/api/internal/config"
	"github.com/forgo/lending/api/internal/database"
	"github.com/forgo/lending/api/internal/events"
	"github.com/forgo/lending/api/internal/handler"
	"github.com/forgo/lending/api/internal/jobs"
	"github.com/forgo/lending/api/internal/metrics"
	"github.com/forgo/lending/api/internal/middleware"
	"github.com/forgo/lending/api/internal/repository"
	"github.com/forgo/lending/api/internal/service"
	"github.com/forgo/lending/api/pkg/jwt"
	"github.com/forgo/lending/api/pkg/rabbitmq"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("server exited")
}

// storage is the set of repositories for the selected backend
type storage struct {
	accounts    service.AccountRepository
	loans       service.LoanRepository
	requestLogs service.RequestLogRepository
	pinger      database.Pinger
	close       func() error
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	if cfg.Driver == database.DriverPostgres {
		pg := database.NewPostgres(database.PostgresConfig{URL: cfg.PostgresURL, MaxConns: cfg.MaxConns})
		if err := pg.Connect(ctx); err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(ctx, pg); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("connected to database", slog.String("driver", cfg.Driver))
		return &storage{
			accounts:    repository.NewPostgresAccountRepository(pg.Pool()),
			loans:       repository.NewPostgresLoanRepository(pg.Pool()),
			requestLogs: repository.NewPostgresRequestLogRepository(pg.Pool()),
			pinger:      pg,
			close:       pg.Close,
		}, nil
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Password:  cfg.Password,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
	})
	if err := db.Connect(ctx); err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("connected to database",
		slog.String("driver", cfg.Driver),
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
	)
	return &storage{
		accounts:    repository.NewAccountRepository(db),
		loans:       repository.NewLoanRepository(db),
		requestLogs: repository.NewRequestLogRepository(db),
		pinger:      db,
		close:       db.Close,
	}, nil
}

func openPublisher(cfg config.RabbitMQConfig) rabbitmq.Publisher {
	if cfg.URL == "" {
		slog.Info("RABBITMQ_URL not set, events will only be logged")
		return &rabbitmq.LoggingPublisher{Exchange: cfg.Exchange}
	}
	producer, err := rabbitmq.NewEventProducer(rabbitmq.Config{URL: cfg.URL, Exchange: cfg.Exchange})
	if err != nil {
		slog.Warn("failed to connect to RabbitMQ, events will only be logged",
			slog.String("url", rabbitmq.Redact(cfg.URL)),
			slog.String("error", err.Error()),
		)
		return &rabbitmq.LoggingPublisher{Exchange: cfg.Exchange}
	}
	slog.Info("connected to RabbitMQ", slog.String("exchange", cfg.Exchange))
	return producer
}

func openLimiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, func()) {
	limits := middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,
	}

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err == nil {
			client := redis.NewClient(opts)
			if err = client.Ping(ctx).Err(); err == nil {
				slog.Info("using Redis rate limiter", slog.String("addr", opts.Addr))
				return middleware.NewRedisLimiter(client, cfg.Redis.Prefix, limits), func() { _ = client.Close() }
			}
			_ = client.Close()
		}
		slog.Warn("Redis unavailable, using in-memory rate limiter", slog.String("error", err.Error()))
	}

	limiter := middleware.NewRateLimiter(limits)
	return limiter, limiter.Stop
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := openStorage(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = store.close() }()

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		return fmt.Errorf("initialize JWT service: %w", err)
	}

	m := metrics.New()

	publisher := openPublisher(cfg.RabbitMQ)
	defer func() { _ = publisher.Close() }()
	emitter := events.NewEmitter(events.EmitterConfig{Publisher: publisher, Recorder: m})

	// Initialize services
	tokenService := service.NewTokenService(service.TokenServiceConfig{JWTService: jwtService})
	accountService := service.NewAccountService(service.AccountServiceConfig{
		AccountRepo: store.accounts,
		Credentials: service.NewBcryptVerifier(cfg.Security.BcryptCost),
	})
	loanService := service.NewLoanService(service.LoanServiceConfig{
		LoanRepo:    store.loans,
		AccountRepo: store.accounts,
	})
	requestLogService := service.NewRequestLogService(service.RequestLogServiceConfig{
		Repo:      store.requestLogs,
		Retention: cfg.Jobs.RequestLogRetention,
	})

	// Request middleware state
	limiter, stopLimiter := openLimiter(ctx, cfg)
	defer stopLimiter()
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{TTL: cfg.Security.IdempotencyTTL})
	defer idempotencyStore.Stop()

	mux := handler.NewRouter(handler.RouterConfig{
		Accounts: handler.NewAccountHandler(handler.AccountHandlerConfig{
			Accounts: accountService,
			Tokens:   tokenService,
			Events:   emitter,
			Metrics:  m,
		}),
		Loans: handler.NewLoanHandler(handler.LoanHandlerConfig{
			Loans:   loanService,
			Events:  emitter,
			Metrics: m,
		}),
		Logs:        handler.NewLogHandler(requestLogService),
		Health:      handler.NewHealthHandler(store.pinger),
		Metrics:     m.Handler(),
		Auth:        middleware.Auth(tokenService),
		RateLimit:   middleware.RateLimit(limiter, m.IncrementRateLimited),
		Idempotency: middleware.Idempotency(idempotencyStore),
	})

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.AuditLog(requestLogService),
		middleware.Compress,
		middleware.Metrics(m),
	)

	// Background jobs
	scheduler := jobs.NewScheduler(jobs.SchedulerConfig{Logger: logger})
	if err := scheduler.Register(cfg.Jobs.RetentionSchedule, jobs.NewRequestLogRetention(requestLogService, m)); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("driver", cfg.Database.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()

		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		scheduler.Stop(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
