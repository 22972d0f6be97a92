package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/quizmify/internal/config"
	"github.com/benvon/quizmify/internal/database"
	"github.com/benvon/quizmify/internal/handlers"
	"github.com/benvon/quizmify/internal/logger"
	"github.com/benvon/quizmify/internal/middleware"
	"github.com/benvon/quizmify/internal/services/oidc"
	"github.com/benvon/quizmify/internal/services/session"
	"github.com/benvon/quizmify/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		// Sync fails on stdout/stderr in most containers
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("secure_cookies", cfg.SecureCookies()),
		zap.Bool("redis_rate_limiting", cfg.RedisURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracingEnabled := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = middleware.NewRedisClient(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	} else {
		zapLogger.Info("rate_limiting_in_memory")
	}

	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}
	rateLimitMW, err := middleware.RateLimit(limiterStore, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Repositories
	userRepo := database.NewUserRepository(db)
	accountRepo := database.NewAccountRepository(db)

	// Services
	reconciler := session.NewReconciler(userRepo)
	sessionManager, err := session.NewManager(reconciler, session.Options{
		Secret:    cfg.AuthSecret,
		MaxAge:    cfg.SessionMaxAge,
		UpdateAge: cfg.SessionUpdateAge,
		Secure:    cfg.SecureCookies(),
		Logger:    zapLogger,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_create_session_manager", zap.Error(err))
	}
	linker := session.NewLinker(userRepo, accountRepo)

	jwksManager := oidc.NewJWKSManager(nil)
	googleProvider := oidc.NewGoogleProvider(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.BaseURL+"/api/auth/callback/"+oidc.ProviderGoogle,
		jwksManager,
	)

	// Handlers
	authHandler, err := handlers.NewAuthHandler(sessionManager, linker, handlers.AuthOptions{
		BaseURL:        cfg.BaseURL,
		AllowedOrigins: cfg.AllowedOrigins(),
		Secure:         cfg.SecureCookies(),
		Logger:         zapLogger,
	}, googleProvider)
	if err != nil {
		zapLogger.Fatal("failed_to_create_auth_handler", zap.Error(err))
	}
	landingHandler := handlers.NewLandingHandler(zapLogger)
	dashboardHandler := handlers.NewDashboardHandler(zapLogger)
	healthChecker := handlers.NewHealthChecker(db, redisClient)

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order: the first registered is the outermost.
	// Session must wrap Logging so access logs carry the user ID.
	if tracingEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.Session(sessionManager, zapLogger))
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType("application/x-www-form-urlencoded", "application/json"))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/", landingHandler.Render).Methods("GET")
	r.Handle(handlers.DashboardPath, middleware.RequireSession("/")(http.HandlerFunc(dashboardHandler.Render))).Methods("GET")

	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.Use(middleware.CORS(cfg.AllowedOrigins()))
	authHandler.RegisterRoutes(authRouter, rateLimitMW)
	// Preflight requests must match a route for the CORS middleware to answer them
	authRouter.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
