package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/masab-afzaal/mindbuddy/internal/ai"
	"github.com/masab-afzaal/mindbuddy/internal/api/handlers"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
	"github.com/masab-afzaal/mindbuddy/internal/api/routes"
	"github.com/masab-afzaal/mindbuddy/internal/domain/conversation"
	"github.com/masab-afzaal/mindbuddy/internal/domain/events"
	"github.com/masab-afzaal/mindbuddy/internal/domain/mood"
	"github.com/masab-afzaal/mindbuddy/internal/domain/quiz"
	"github.com/masab-afzaal/mindbuddy/internal/domain/user"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/cache"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/persistence/postgres/connection"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/persistence/postgres/migrations"
	"github.com/masab-afzaal/mindbuddy/internal/infrastructure/scheduler"
	"github.com/masab-afzaal/mindbuddy/pkg/clock"
	"github.com/masab-afzaal/mindbuddy/pkg/config"
	"github.com/masab-afzaal/mindbuddy/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Configuration loaded successfully")
	log.Info("Server mode: " + cfg.Server.Mode)

	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	gin.DefaultWriter = os.Stdout

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: append(cfg.CORS.AllowedHeaders,
			"Accept-Encoding",
			"Content-Type",
			"Authorization",
		),
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Encoding",
			"Content-Type",
		},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Connect to database and run migrations
	db, err := connection.NewDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := migrations.AutoMigrate(db, log.Logger); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize Redis
	redisConfig := cache.NewConfigFromEnv(cfg)
	redisClient, err := cache.NewRedisClient(redisConfig)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize the Groq chat-completion client
	aiClient, err := ai.NewGroqClient(cfg.Groq)
	if err != nil {
		log.Fatal("Failed to initialize AI client", zap.Error(err))
	}

	// logrus logger for the quiz service
	quizLogger := logrus.New()
	quizLogger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.Mode == "production" {
		quizLogger.SetLevel(logrus.InfoLevel)
	} else {
		quizLogger.SetLevel(logrus.DebugLevel)
	}

	// Initialize repositories
	userRepo := user.NewRepository(db)
	moodRepo := mood.NewRepository(db)
	conversationRepo := conversation.NewRepository(db)
	quizRepo := quiz.NewRepository(db)

	// Initialize services
	userService := user.NewService(userRepo)
	moodService := mood.NewService(moodRepo, redisClient, clock.System(), log.Logger)
	chatService := conversation.NewService(conversationRepo, aiClient, log.Logger)
	quizService := quiz.NewService(quizRepo, aiClient, quizLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, cfg.Auth, log.Logger)
	moodHandler := handlers.NewMoodHandler(moodService, redisClient, clock.System(), log.Logger)
	chatHandler := handlers.NewChatHandler(chatService, log.Logger)
	quizHandler := handlers.NewQuizHandler(quizService, log.Logger)
	dashboardHandler := handlers.NewDashboardHandler(moodService, chatService, quizService, redisClient, log.Logger)

	// Register routes
	routes.SetupHealthRoutes(router, db, redisClient)
	routes.NewAuthRoutes(authHandler, cfg.Auth.JWTSecret).RegisterRoutes(router)
	routes.NewMoodRoutes(moodHandler, cfg.Auth.JWTSecret).RegisterRoutes(router)
	routes.NewChatRoutes(chatHandler, cfg.Auth.JWTSecret).RegisterRoutes(router)
	routes.NewQuizRoutes(quizHandler, cfg.Auth.JWTSecret).RegisterRoutes(router)
	routes.NewDashboardRoutes(dashboardHandler, cfg.Auth.JWTSecret).RegisterRoutes(router)
	log.Info("Registered routes")

	// Invalidate dashboard caches when domain services publish events
	subscriberCtx, cancelSubscriber := context.WithCancel(context.Background())
	defer cancelSubscriber()
	go func() {
		err := redisClient.SubscribeToDashboardEvents(subscriberCtx, func(event *events.DashboardEvent) error {
			return redisClient.InvalidateDashboardCache(subscriberCtx, event.UserID)
		})
		if err != nil && subscriberCtx.Err() == nil {
			log.Error("Dashboard event subscriber stopped", zap.Error(err))
		}
	}()

	// Midnight rollover clears chart caches when "today" changes
	rolloverScheduler := scheduler.NewScheduler(redisClient, log)
	rolloverScheduler.Start()
	defer rolloverScheduler.Stop()
	log.Info("Cache rollover scheduler started")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
