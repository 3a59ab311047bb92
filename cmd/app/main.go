package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"mineduel/internal/config"
	"mineduel/internal/db"
	"mineduel/internal/game"
	httpServer "mineduel/internal/http"
	"mineduel/internal/http/middleware"
	"mineduel/internal/logger"
	"mineduel/internal/repository"
	"mineduel/internal/service"
	"mineduel/internal/ws"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	mainCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if service.InitJWT(cfg.JWTSecret) {
		logger.Info("jwt identities enabled")
	}

	var (
		pool *pgxpool.Pool
		rdb  *redis.Client
		repo *repository.MatchRepository
	)
	if cfg.DatabaseURL != "" {
		if cfg.RunMigrate {
			if err := db.Migrate(cfg.DatabaseURL); err != nil {
				logger.Fatal("failed to migrate database", "error", err)
			}
		}
		p, err := db.Connect(mainCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect database", "error", err)
		}
		pool = p
		defer pool.Close()
		repo = repository.NewMatchRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, match history is not persisted")
	}

	if cfg.RedisAddr != "" {
		c, err := db.ConnectRedis(mainCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// leaderboards and rate limits fall back to postgres and memory
			logger.Warn("redis unavailable", "error", err)
		} else {
			rdb = c
			defer rdb.Close()
		}
	}

	rules := cfg.Rules()
	stats := service.NewStatsService(repo, rdb)
	hub := ws.NewHub(game.NewFactory(rules, stats), cfg.WSMessageRate, cfg.WSMessageBurst)
	hub.StartCleanup(mainCtx, time.Minute)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	httpServer.RegisterRoutes(r, cfg, httpServer.Deps{
		DB:      pool,
		Redis:   rdb,
		Hub:     hub,
		Stats:   stats,
		Rules:   rules,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           middleware.Cors(cfg.AllowedOrigin)(r),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return mainCtx
		},
	}

	g, gCtx := errgroup.WithContext(mainCtx)
	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
	}
	logger.Info("server exited")
}
