package main

import (
	"context"
	stderrors "errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ajharbinger/partnex-scoring/internal/api"
	"github.com/ajharbinger/partnex-scoring/internal/auth"
	"github.com/ajharbinger/partnex-scoring/internal/database"
	"github.com/ajharbinger/partnex-scoring/internal/filestore"
	"github.com/ajharbinger/partnex-scoring/internal/logger"
	"github.com/ajharbinger/partnex-scoring/internal/metrics"
	"github.com/ajharbinger/partnex-scoring/internal/middleware"
	"github.com/ajharbinger/partnex-scoring/internal/repository"
	"github.com/ajharbinger/partnex-scoring/internal/scoring"
	"github.com/ajharbinger/partnex-scoring/internal/services"
	"github.com/ajharbinger/partnex-scoring/internal/telemetry"
	"github.com/ajharbinger/partnex-scoring/pkg/config"
)

const (
	serviceName     = "partnex-scoring"
	shutdownTimeout = 15 * time.Second
)

var version = "dev"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer appLogger.Sync()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal("server exited", err)
	}
}

func run(cfg *config.Config, appLogger logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.OTLPEndpoint, serviceName, version, cfg.OTLPInsecure)
	if err != nil {
		return err
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}

	mode, err := scoring.ParseMode(cfg.ScoringMode)
	if err != nil {
		return err
	}

	m := metrics.New()
	monitor := scoring.NewHealthMonitor()

	// Only build the client when a URL is set so the arbiter sees a nil scorer otherwise.
	var client scoring.ExternalScorer
	if cfg.HasExternalScoring() {
		client = scoring.NewExternalClient(cfg.ExternalScoringURL, cfg.ExternalScoringTimeout, monitor).
			WithObserver(m.ObserveExternalCall)
	}
	arbiter := scoring.NewArbiter(scoring.Config{
		Mode:            mode,
		ExternalBaseURL: cfg.ExternalScoringURL,
		ExternalTimeout: cfg.ExternalScoringTimeout,
	}, client, monitor, appLogger.With("component", "scoring"))

	files, err := filestore.NewLocalStore(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		return err
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	svc := services.NewServices(repository.NewRepositories(db.DB), services.Options{
		JWT:     jwtService,
		Arbiter: arbiter,
		Monitor: monitor,
		Metrics: m,
		Files:   files,
		Logger:  appLogger,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		return err
	}

	r.Use(gin.Recovery())
	r.Use(middleware.LoggingMiddleware(appLogger.With("component", "http")))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize, cfg.MaxUploadSize))

	if cfg.EnableRateLimit {
		limiter, err := newRateLimiter(ctx, cfg, appLogger)
		if err != nil {
			return err
		}
		r.Use(middleware.RateLimitMiddleware(limiter, m, appLogger))
	}

	api.SetupRoutes(r, api.Dependencies{
		Services: svc,
		JWT:      jwtService,
		DB:       db,
		Metrics:  m,
		Name:     serviceName,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("server starting", "port", cfg.Port, "env", cfg.Environment, "scoring_mode", string(mode))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if terr := shutdownTracing(shutdownCtx); terr != nil {
			appLogger.Warn("tracer shutdown failed", "error", terr.Error())
		}
		return err
	})

	return g.Wait()
}

func newRateLimiter(ctx context.Context, cfg *config.Config, appLogger logger.Logger) (middleware.RateLimiter, error) {
	if cfg.RedisURL == "" {
		return middleware.NewMemoryRateLimiter(cfg.RateLimitPerMinute), nil
	}

	client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	appLogger.Info("rate limiting backed by redis")
	return middleware.NewRedisRateLimiter(client, cfg.RateLimitPerMinute), nil
}
