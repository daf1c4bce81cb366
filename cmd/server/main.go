package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/authz"
	"github.com/yukikurage/teamtask-api/internal/config"
	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/handlers"
	"github.com/yukikurage/teamtask-api/internal/mail"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"github.com/yukikurage/teamtask-api/internal/server"
	"github.com/yukikurage/teamtask-api/internal/services"
)

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := newLogger(cfg)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}()

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if sqlDB, err := db.DB(); err == nil {
		registry.MustRegister(collectors.NewDBStatsCollector(sqlDB, cfg.DBName))
	}
	metrics := middleware.NewMetrics(registry)

	// Sessions and token revocation share Redis when it is configured
	sessionStore, revoked := newSessionBackends(cfg, log)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Auth and policy
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	resolver := auth.NewResolver(tokens, revoked, userRepo)
	policy := authz.NewPolicy(groupRepo).WithObserver(metrics.ObserveDecision)

	// Mail
	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		log.Warn("SMTP_HOST not set, emails are written to the log")
		mailer = mail.NewLogMailer(log)
	}

	// Initialize AI service
	var suggester services.TaskSuggester
	if cfg.OpenAIAPIKey != "" {
		suggester = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Services
	authService := services.NewAuthService(userRepo, tokens, resolver, cfg.BootstrapAdminEmail)
	userService := services.NewUserService(userRepo, policy, tokens, mailer, cfg.FrontendURL)
	groupService := services.NewGroupService(groupRepo, userRepo, policy)
	taskService := services.NewTaskService(taskRepo, userRepo, policy, suggester)

	api := server.New(cfg.ServerAddr, server.Deps{
		Log:              log,
		Resolver:         resolver,
		SessionStore:     sessionStore,
		Metrics:          metrics,
		OperationTimeout: cfg.OperationTimeout,
		Health:           handlers.NewHealthHandler(db, log),
		Auth:             handlers.NewAuthHandler(authService, resolver, log),
		Users:            handlers.NewUserHandler(userService, log),
		Groups:           handlers.NewGroupHandler(groupService, log),
		Tasks:            handlers.NewTaskHandler(taskService, log),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- api.Start()
	}()

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("Server stopped")
		}
	}

	log.Info("Server stopped")
}

// newSessionBackends returns the Redis session store and revocation list
// when REDIS_ADDR is set, and cookie sessions with an in-process revocation
// list otherwise.
func newSessionBackends(cfg *config.Config, log *logrus.Logger) (sessions.Store, auth.RevocationStore) {
	options := sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := auth.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}

		store, err := redisStore.NewStore(10, "tcp", cfg.RedisAddr, "", cfg.RedisPassword, []byte(cfg.SessionSecret))
		if err != nil {
			log.Fatalf("Failed to create Redis session store: %v", err)
		}
		store.Options(options)

		log.WithField("addr", cfg.RedisAddr).Info("Using Redis for sessions and token revocation")
		return store, auth.NewRedisRevocationStore(client, "revoked")
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(options)
	return store, auth.NewMemoryRevocationStore(10000, cfg.TokenTTL)
}
