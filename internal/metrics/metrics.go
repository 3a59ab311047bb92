package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)

	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mineduel_connected_clients",
			Help: "Open websocket connections",
		},
	)
	InboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mineduel_inbound_messages_total",
			Help: "Inbound websocket messages by type",
		},
		[]string{"type"},
	)
	WaitingPlayers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mineduel_waiting_players",
			Help: "Players waiting for an opponent, per difficulty",
		},
		[]string{"difficulty"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mineduel_active_sessions",
			Help: "Sessions currently held by the hub",
		},
	)
	MatchesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mineduel_matches_finished_total",
			Help: "Finished matches by end reason",
		},
		[]string{"reason"},
	)
	PowersUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mineduel_powers_used_total",
			Help: "Successfully activated powers",
		},
		[]string{"power"},
	)
)

func init() {
	prometheus.MustRegister(RLRequests)
	prometheus.MustRegister(RLBlocked)
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(InboundMessages)
	prometheus.MustRegister(WaitingPlayers)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(MatchesFinished)
	prometheus.MustRegister(PowersUsed)
}
