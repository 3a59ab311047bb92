package handlers

import (
	"mineduel/internal/game"
	"mineduel/internal/service"
	"mineduel/internal/ws"
)

type Handler struct {
	Stats *service.StatsService
	Hub   *ws.Hub
	Rules game.Rules
}

func NewHandler(stats *service.StatsService, hub *ws.Hub, rules game.Rules) *Handler {
	return &Handler{
		Stats: stats,
		Hub:   hub,
		Rules: rules,
	}
}
