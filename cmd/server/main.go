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
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aswell/training-system/internal/bootstrap"
	"github.com/aswell/training-system/internal/cache"
	"github.com/aswell/training-system/internal/handler"
	"github.com/aswell/training-system/internal/infrastructure/logger"
	"github.com/aswell/training-system/internal/infrastructure/redis"
	"github.com/aswell/training-system/internal/observability/metrics"
	"github.com/aswell/training-system/internal/observability/tracing"
	"github.com/aswell/training-system/internal/repository"
	"github.com/aswell/training-system/internal/security"
	"github.com/aswell/training-system/internal/security/auth"
	"github.com/aswell/training-system/internal/security/middleware"
	"github.com/aswell/training-system/internal/service"
	"github.com/aswell/training-system/pkg/config"
	"github.com/aswell/training-system/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting training-system server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "training-system", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	// 5. Connect to Redis
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 6. Initialize repositories
	companyRepo := repository.NewPostgresCompanyRepository(db, log)
	userRepo := repository.NewPostgresUserRepository(db, log)
	roleRepo := cache.NewCachedRoleRepository(
		repository.NewPostgresRoleRepository(db, log),
		redisClient,
		cfg.RoleCacheTTL,
		log,
	)
	userRoleRepo := repository.NewPostgresUserRoleRepository(db, log)
	assignmentRepo := repository.NewPostgresTrainerAssignmentRepository(db, log)
	trainingRepo := repository.NewPostgresTrainingRepository(db, log)

	// 7. Seed the role catalog and demo tenant
	seeder := bootstrap.NewSeeder(companyRepo, userRepo, roleRepo, userRoleRepo, log)
	if err := seeder.Run(cfg.BootstrapDemoData); err != nil {
		log.Error("bootstrap seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. Security components. A weak signing key is a startup failure.
	tokenManager, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		log.Error("failed to initialize token manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	policy := security.NewPolicy(log)

	// 9. Services
	authService := service.NewAuthService(companyRepo, userRepo, roleRepo, userRoleRepo, tokenManager, log)
	companyService := service.NewCompanyService(companyRepo, userRepo, roleRepo, userRoleRepo, policy, log)
	userService := service.NewUserService(userRepo, companyRepo, roleRepo, userRoleRepo, assignmentRepo, policy, log)
	roleService := service.NewRoleService(roleRepo, userRoleRepo, policy, log)
	trainingService := service.NewTrainingService(trainingRepo, policy, log)

	// 10. Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	companyHandler := handler.NewCompanyHandler(companyService, log)
	userHandler := handler.NewUserHandler(userService, log)
	roleHandler := handler.NewRoleHandler(roleService, log)
	trainingHandler := handler.NewTrainingHandler(trainingService, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient, log)

	// 11. Routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", authHandler.Me)

	mux.HandleFunc("GET /api/companies", companyHandler.List)
	mux.HandleFunc("POST /api/companies", companyHandler.Create)
	mux.HandleFunc("GET /api/companies/{id}", companyHandler.Get)
	mux.HandleFunc("PUT /api/companies/{id}", companyHandler.Update)
	mux.HandleFunc("DELETE /api/companies/{id}", companyHandler.Delete)

	mux.HandleFunc("GET /api/users", userHandler.List)
	mux.HandleFunc("POST /api/users", userHandler.Create)
	mux.HandleFunc("PUT /api/users/{id}", userHandler.Update)
	mux.HandleFunc("DELETE /api/users/{id}", userHandler.Delete)

	mux.HandleFunc("GET /api/roles", roleHandler.List)
	mux.HandleFunc("POST /api/roles", roleHandler.Create)
	mux.HandleFunc("PUT /api/roles/{id}", roleHandler.Update)
	mux.HandleFunc("DELETE /api/roles/{id}", roleHandler.Delete)

	mux.HandleFunc("GET /api/training/plans", trainingHandler.ListPlans)
	mux.HandleFunc("POST /api/training/plans", trainingHandler.CreatePlan)
	mux.HandleFunc("PUT /api/training/plans/{id}", trainingHandler.UpdatePlan)
	mux.HandleFunc("DELETE /api/training/plans/{id}", trainingHandler.DeletePlan)
	mux.HandleFunc("GET /api/training/plans/{id}/items", trainingHandler.ListMainItems)
	mux.HandleFunc("POST /api/training/items", trainingHandler.CreateMainItem)
	mux.HandleFunc("PUT /api/training/items/{id}", trainingHandler.UpdateMainItem)
	mux.HandleFunc("DELETE /api/training/items/{id}", trainingHandler.DeleteMainItem)
	mux.HandleFunc("GET /api/training/items/{id}/subitems", trainingHandler.ListSubItems)
	mux.HandleFunc("POST /api/training/subitems", trainingHandler.CreateSubItem)
	mux.HandleFunc("PUT /api/training/subitems/{id}", trainingHandler.UpdateSubItem)
	mux.HandleFunc("DELETE /api/training/subitems/{id}", trainingHandler.DeleteSubItem)
	mux.HandleFunc("GET /api/training/subitems/{id}/todos", trainingHandler.ListTodos)
	mux.HandleFunc("POST /api/training/todos", trainingHandler.CreateTodo)
	mux.HandleFunc("PUT /api/training/todos/{id}", trainingHandler.UpdateTodo)
	mux.HandleFunc("DELETE /api/training/todos/{id}", trainingHandler.DeleteTodo)

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	allowedOrigins := strings.Split(cfg.CORSOrigins, ",")

	// CORS honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(allowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(allowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> JWT -> CORS -> mux
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(mux,
			middleware.JWTMiddleware(tokenManager, userRepo, log)(handlerWithCORS),
		),
		log,
	)

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      otelhttp.NewHandler(rootHandler, "http.server"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.Port),
		slog.String("auth", "jwt"),
		slog.Duration("token_ttl", cfg.TokenTTL),
	)

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
