package handlers

import (
	"cmp"
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/schema"
	"github.com/samber/lo"

	"mineduel/internal/game"
	"mineduel/internal/logger"
	"mineduel/internal/service"
)

type LeaderboardQuery struct {
	Board string `schema:"board"`
	Limit int    `schema:"limit"`
}

func ParseLeaderboardQuery(src map[string][]string) (LeaderboardQuery, error) {
	q := LeaderboardQuery{Board: "wins", Limit: 10}
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	err := dec.Decode(&q, src)
	return q, err
}

// GetLeaderboard returns the top players by wins or total score.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	q, err := ParseLeaderboardQuery(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	top, err := h.Stats.Leaderboard(c.Request.Context(), q.Board, q.Limit)
	switch {
	case errors.Is(err, service.ErrUnknownBoard):
		c.JSON(http.StatusBadRequest, gin.H{"error": "board must be wins or score"})
		return
	case errors.Is(err, service.ErrStatsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats are disabled"})
		return
	case err != nil:
		logger.WithContext(c.Request.Context()).Error("leaderboard failed", "board", q.Board, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"board":       q.Board,
		"leaderboard": top,
	})
}

// GetPlayerStats returns one player's aggregated record.
func (h *Handler) GetPlayerStats(c *gin.Context) {
	stats, err := h.Stats.PlayerStats(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, service.ErrPlayerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	case errors.Is(err, service.ErrStatsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats are disabled"})
		return
	case err != nil:
		logger.WithContext(c.Request.Context()).Error("player stats failed", "player", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get player stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

type powerInfo struct {
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

// GetDifficulties lists the grid presets, match rules and power costs.
func (h *Handler) GetDifficulties(c *gin.Context) {
	powers := lo.MapToSlice(game.PowerCosts(), func(p game.Power, cost int) powerInfo {
		return powerInfo{Name: string(p), Cost: cost}
	})
	slices.SortFunc(powers, func(a, b powerInfo) int { return cmp.Compare(a.Cost, b.Cost) })

	c.JSON(http.StatusOK, gin.H{
		"difficulties": game.Difficulties(),
		"powers":       powers,
		"rules": gin.H{
			"durationMs":          h.Rules.Duration.Milliseconds(),
			"minePenalty":         h.Rules.MinePenalty,
			"cellReward":          game.CellReward,
			"completionThreshold": h.Rules.CompletionThreshold,
			"freezeDurationMs":    h.Rules.FreezeDuration.Milliseconds(),
		},
	})
}
