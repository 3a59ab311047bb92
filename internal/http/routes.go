package http

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"mineduel/internal/config"
	"mineduel/internal/game"
	"mineduel/internal/http/handlers"
	"mineduel/internal/http/middleware"
	"mineduel/internal/service"
	"mineduel/internal/ws"
)

// Deps are the long-lived components the routes serve. DB and Redis may be nil.
type Deps struct {
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Hub     *ws.Hub
	Stats   *service.StatsService
	Rules   game.Rules
	Version string
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps) {
	h := handlers.NewHandler(deps.Stats, deps.Hub, deps.Rules)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Hub, deps.Version)

	middleware.UseRedis(deps.Redis)
	r.Use(middleware.RequestID())

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket for duels
	r.GET("/ws", middleware.RedisRateLimit("ws", cfg.APIRateLimit, cfg.APIRateWindow), h.WS(cfg.AllowedOrigin))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Logger())
	v1.Use(gzip.Gzip(gzip.DefaultCompression))
	v1.Use(middleware.RedisRateLimit("api", cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, h)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	noStore := cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})

	api.GET("/leaderboard", noStore, h.GetLeaderboard)
	api.GET("/players/:id/stats", noStore, h.GetPlayerStats)

	// presets only change with a deploy
	api.GET("/difficulties", cachecontrol.New(cachecontrol.Config{
		Public: true,
		MaxAge: cachecontrol.Duration(time.Hour),
	}), h.GetDifficulties)
}
