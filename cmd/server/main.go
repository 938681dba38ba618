package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wingit/score/internal/config"
	"wingit/score/internal/handlers"
	"wingit/score/internal/jobs"
	"wingit/score/internal/leaderboard"
	"wingit/score/internal/metrics"
	"wingit/score/internal/models"
	"wingit/score/internal/rank"
	"wingit/score/internal/repositories"
	"wingit/score/internal/routers"
	"wingit/score/internal/submission"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.RunToken{},
		&models.Run{},
		&models.UserBestScore{},
		&models.PointTransaction{},
	); err != nil {
		return nil, err
	}
	return db, nil
}

func registerRoutes(router *chi.Mux, authHandler *handlers.AuthHandler, runHandler *handlers.RunHandler, lbHandler *handlers.LeaderboardHandler) {
	routers.AuthRoutes(router, authHandler)
	routers.RunRoutes(router, runHandler)
	routers.LeaderboardRoutes(router, lbHandler)
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.LoadConfig()

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	userRepo := &repositories.UserRepository{DB: db}
	tokenRepo := &repositories.TokenRepository{DB: db}
	runRepo := &repositories.RunRepository{DB: db}
	rankStore := rank.NewStore(rdb)

	board := leaderboard.NewService(rankStore, userRepo, logger)
	coordinator := submission.NewCoordinator(tokenRepo, runRepo, rankStore, board, logger,
		cfg.UserSubmitLimit, cfg.IPSubmitLimit)

	cleanup := jobs.NewTokenCleanupJob(tokenRepo, logger, cfg.CleanupSchedule, cfg.TokenRetention)
	if err := cleanup.Start(); err != nil {
		logger.Error("failed to start token cleanup job", zap.Error(err))
	}
	defer cleanup.Stop()

	authHandler := &handlers.AuthHandler{Repo: userRepo, JWTSecret: cfg.JWTSecret}
	runHandler := &handlers.RunHandler{Coordinator: coordinator, JWTSecret: cfg.JWTSecret}
	lbHandler := &handlers.LeaderboardHandler{Board: board, JWTSecret: cfg.JWTSecret}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, middleware.Timeout(60*time.Second))
	router.Use(metrics.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	router.Handle("/metrics", metrics.Handler())
	registerRoutes(router, authHandler, runHandler, lbHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("score-svc listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
