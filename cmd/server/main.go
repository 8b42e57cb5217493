package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/jobboard/internal/events"
	"github.com/yourorg/jobboard/internal/featureflags"
	"github.com/yourorg/jobboard/internal/handler"
	"github.com/yourorg/jobboard/internal/infrastructure/logger"
	"github.com/yourorg/jobboard/internal/infrastructure/redis"
	"github.com/yourorg/jobboard/internal/observability/metrics"
	"github.com/yourorg/jobboard/internal/observability/tracing"
	"github.com/yourorg/jobboard/internal/repository"
	"github.com/yourorg/jobboard/internal/security"
	"github.com/yourorg/jobboard/internal/security/audit"
	"github.com/yourorg/jobboard/internal/security/auth"
	"github.com/yourorg/jobboard/internal/security/middleware"
	"github.com/yourorg/jobboard/internal/security/ratelimit"
	"github.com/yourorg/jobboard/internal/service"
	"github.com/yourorg/jobboard/pkg/config"
	"github.com/yourorg/jobboard/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.New(cfg.LogLevel, cfg.Environment)
	log.Info("starting jobboard server",
		slog.String("environment", cfg.Environment),
		slog.String("version", config.Version),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, log, "jobboard", cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres and ensure the schema
	pool, err := database.NewConnectionPool(ctx, cfg.Postgres, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	db := pool.GetDB()
	if err := repository.EnsureSchema(ctx, db, log); err != nil {
		log.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Connect to Redis (rate limiting + readiness)
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 6. Initialize repositories
	userRepo := repository.NewPostgresUserRepository(db, log)
	jobRepo := repository.NewPostgresJobRepository(db, log)
	appRepo := repository.NewPostgresApplicationRepository(db, log)

	// 7. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	identity := auth.NewIdentity(tokenManager, userRepo, log)
	authz := security.NewAuthorizationService(log)
	auditLogger := audit.NewLogger(log)
	rateLimiter := ratelimit.NewLimiter(redisClient.Raw(), cfg.RateLimitMaxRequests, cfg.RateLimitWindow)

	// 8. Stage event broker, only wired when the live feed is enabled
	var broker *events.Broker
	if featureflags.Enabled(featureflags.LiveEvents) {
		broker = events.NewBroker()
		log.Info("live stage event feed enabled")
	}

	// 9. Initialize services
	jobService := service.NewJobService(jobRepo, userRepo, appRepo, authz, auditLogger, log)
	appService := service.NewApplicationService(appRepo, jobRepo, authz, auditLogger, broker, log)
	dashService := service.NewDashboardService(jobRepo, appRepo, authz, log)

	// 10. Initialize handlers
	jobListHandler := handler.NewJobListHandler(jobService, log)
	jobCreateHandler := handler.NewJobCreateHandler(jobService, log)
	jobDetailHandler := handler.NewJobDetailHandler(jobService, log)
	applyHandler := handler.NewApplyHandler(appService, log)
	jobApplicationsHandler := handler.NewJobApplicationsHandler(appService, log)
	myApplicationsHandler := handler.NewMyApplicationsHandler(appService, log)
	stageHandler := handler.NewStageHandler(appService, log)
	dashboardHandler := handler.NewDashboardHandler(dashService, log)
	healthHandler := handler.NewHealthHandler(db, redisClient.Raw(), log)
	versionHandler := handler.NewVersionHandler(config.Version, log)

	// 11. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("GET /api/jobs", jobListHandler)
	mux.Handle("POST /api/jobs", jobCreateHandler)
	mux.Handle("GET /api/jobs/{id}", http.HandlerFunc(jobDetailHandler.Get))
	mux.Handle("PATCH /api/jobs/{id}", http.HandlerFunc(jobDetailHandler.Update))
	mux.Handle("DELETE /api/jobs/{id}", http.HandlerFunc(jobDetailHandler.Delete))
	mux.Handle("POST /api/jobs/{id}/apply", applyHandler)
	mux.Handle("GET /api/jobs/{id}/applications", jobApplicationsHandler)
	mux.Handle("GET /api/applications/me", myApplicationsHandler)
	mux.Handle("PATCH /api/applications/{id}/stage", stageHandler)
	mux.Handle("GET /api/hr/dashboard", dashboardHandler)
	mux.Handle("GET /api/version", versionHandler)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	if broker != nil {
		eventsHandler := handler.NewEventsHandler(broker, authz, log, cfg.CORSAllowedOrigins)
		mux.Handle("GET /ws/events", eventsHandler)
	}

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> tracing -> auth -> rate
	// limit -> audit -> content type -> CORS. Auth runs before the rate
	// limiter so the budget is keyed per user.
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			otelhttp.NewHandler(
				middleware.AuthMiddleware(identity, auditLogger, log)(
					middleware.RateLimitMiddleware(rateLimiter, log)(
						middleware.AuditMiddleware(auditLogger)(
							middleware.ValidateJSONContentType(log)(handlerWithCORS),
						),
					),
				),
				"jobboard.http",
			),
		),
		log,
	)

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitMaxRequests),
		slog.Duration("rate_limit_window", cfg.RateLimitWindow),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
