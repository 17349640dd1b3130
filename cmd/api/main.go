package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/fitclash/fitclash-api/internal/config"
	"github.com/fitclash/fitclash-api/internal/domain/leaderboard"
	"github.com/fitclash/fitclash-api/internal/domain/ledger"
	"github.com/fitclash/fitclash-api/internal/domain/reward"
	"github.com/fitclash/fitclash-api/internal/middleware"
	"github.com/fitclash/fitclash-api/internal/pkg/database"
	"github.com/fitclash/fitclash-api/internal/pkg/jwt"
	"github.com/fitclash/fitclash-api/internal/pkg/logger"
	pkgresponse "github.com/fitclash/fitclash-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting FitClash API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	ledgerRepo := ledger.NewRepository(db)
	rewardRepo := reward.NewRepository(db)

	// ---------- Services ----------
	ledgerService := ledger.NewService(ledgerRepo, ledger.Rates{
		VoteReceived:  cfg.PointsVoteReceived,
		ContentPosted: cfg.PointsContentPosted,
		DailyLogin:    cfg.PointsDailyLogin,
	})
	rewardService := reward.NewService(rewardRepo, ledgerService)
	leaderboardService := leaderboard.NewService(ledgerService, redis, cfg.LeaderboardCacheTTL)

	// ---------- Handlers ----------
	ledgerHandler := ledger.NewHandler(ledgerService)
	rewardHandler := reward.NewHandler(rewardService)
	leaderboardHandler := leaderboard.NewHandler(leaderboardService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/points", ledgerHandler.Routes(authMiddleware))
		r.Mount("/rewards", rewardHandler.Routes(authMiddleware))
		r.Mount("/claims", rewardHandler.ClaimRoutes(authMiddleware))
		r.Mount("/leaderboard", leaderboardHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
