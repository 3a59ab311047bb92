package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"mineduel/internal/game"
	"mineduel/internal/logger"
	"mineduel/internal/metrics"
	"mineduel/internal/protocol"
)

const (
	defaultName   = "Player"
	maxNameLength = 20
)

// Hub owns the waiting queues and maps every connection to at most one
// queue entry or session. Lock order is hub before session.
type Hub struct {
	mu       sync.RWMutex
	queues   map[string]*waitingQueue
	queued   map[*Client]string
	clients  map[*Client]*game.Session
	sessions map[string]*game.Session
	conns    int

	factory  *game.Factory
	msgRate  rate.Limit
	msgBurst int
}

func NewHub(factory *game.Factory, msgRate float64, msgBurst int) *Hub {
	h := &Hub{
		queues:   make(map[string]*waitingQueue),
		queued:   make(map[*Client]string),
		clients:  make(map[*Client]*game.Session),
		sessions: make(map[string]*game.Session),
		factory:  factory,
		msgRate:  rate.Limit(msgRate),
		msgBurst: msgBurst,
	}
	if msgRate <= 0 {
		h.msgRate = rate.Inf
	}
	for _, d := range game.Difficulties() {
		h.queues[d.Name] = &waitingQueue{}
	}
	return h
}

// Register announces the connection's player id.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.conns++
	h.mu.Unlock()
	metrics.ConnectedClients.Inc()

	c.Send(protocol.MsgConnected, protocol.ConnectedPayload{PlayerID: c.ID})
	logger.Debug("ws: client connected", "client", c.ID)
}

// HandleMessage decodes one inbound frame and routes it.
func (h *Hub) HandleMessage(c *Client, raw []byte) {
	var in protocol.Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		logger.Warn("ws: malformed message", "client", c.ID, "error", err)
		return
	}

	switch in.Type {
	case protocol.MsgFindGame:
		var p protocol.FindGamePayload
		if err := in.Decode(&p); err != nil {
			h.reject(c, in.Type, err)
			return
		}
		h.FindGame(c, p.Name, p.Difficulty)

	case protocol.MsgCancelSearch:
		h.CancelSearch(c)

	case protocol.MsgCellClick, protocol.MsgToggleFlag:
		var p protocol.CellPayload
		if err := in.Decode(&p); err != nil {
			h.reject(c, in.Type, err)
			return
		}
		if p.X == nil || p.Y == nil {
			h.reject(c, in.Type, errMissingCoords)
			return
		}
		s := h.sessionOf(c)
		if s == nil {
			return
		}
		if in.Type == protocol.MsgCellClick {
			s.CellClick(c.ID, *p.X, *p.Y)
		} else {
			s.ToggleFlag(c.ID, *p.X, *p.Y)
		}

	case protocol.MsgUsePower:
		var p protocol.UsePowerPayload
		if err := in.Decode(&p); err != nil {
			h.reject(c, in.Type, err)
			return
		}
		if s := h.sessionOf(c); s != nil {
			s.UsePower(c.ID, p.Power)
		}

	case protocol.MsgPing:
		c.Send(protocol.MsgPong, struct{}{})

	default:
		logger.Warn("ws: unknown message type", "client", c.ID, "type", in.Type)
		metrics.InboundMessages.WithLabelValues("unknown").Inc()
		c.Send(protocol.MsgError, protocol.ErrorPayload{Message: "unknown message type: " + in.Type})
		return
	}
	metrics.InboundMessages.WithLabelValues(in.Type).Inc()
}

var errMissingCoords = errors.New("x and y are required")

func (h *Hub) reject(c *Client, msgType string, err error) {
	logger.Warn("ws: invalid payload", "client", c.ID, "type", msgType, "error", err)
	c.Send(protocol.MsgError, protocol.ErrorPayload{Message: "invalid " + msgType + " payload"})
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}

// FindGame pairs c with the longest waiting player on the same difficulty,
// or queues it.
func (h *Hub) FindGame(c *Client, name, difficulty string) {
	if difficulty == "" {
		difficulty = game.DifficultyMedium
	}
	diff, ok := game.LookupDifficulty(difficulty)
	if !ok {
		c.Send(protocol.MsgError, protocol.ErrorPayload{Message: "unknown difficulty: " + difficulty})
		return
	}
	name = normalizeName(name)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.queued[c]; ok {
		return
	}
	if s, ok := h.clients[c]; ok {
		if s.IsActive() {
			return
		}
		delete(h.clients, c)
	}

	q := h.queues[diff.Name]
	opp, ok := q.popOther(c.ID)
	if !ok {
		pos := q.push(&waitingEntry{ID: c.ID, Name: name, Client: c, JoinedAt: time.Now()})
		h.queued[c] = diff.Name
		metrics.WaitingPlayers.WithLabelValues(diff.Name).Set(float64(q.len()))

		c.Send(protocol.MsgSearching, protocol.SearchingPayload{Difficulty: diff.Name, Position: pos})
		logger.Debug("ws: player queued", "client", c.ID, "difficulty", diff.Name, "position", pos)
		return
	}
	delete(h.queued, opp.Client)
	metrics.WaitingPlayers.WithLabelValues(diff.Name).Set(float64(q.len()))

	s := h.factory.CreateSession(uuid.NewString(), diff,
		game.NewPlayer(opp.ID, opp.Name, opp.Client),
		game.NewPlayer(c.ID, name, c),
	)
	s.OnEnd = h.removeSession
	h.sessions[s.ID] = s
	h.clients[opp.Client] = s
	h.clients[c] = s
	metrics.ActiveSessions.Set(float64(len(h.sessions)))

	s.Start()
}

// CancelSearch drops c from whichever queue holds it.
func (h *Hub) CancelSearch(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dequeueLocked(c)
}

func (h *Hub) dequeueLocked(c *Client) {
	d, ok := h.queued[c]
	if !ok {
		return
	}
	q := h.queues[d]
	q.remove(c)
	delete(h.queued, c)
	metrics.WaitingPlayers.WithLabelValues(d).Set(float64(q.len()))
}

// Unregister forgets c. A session it was playing is forfeited.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	h.dequeueLocked(c)
	s := h.clients[c]
	delete(h.clients, c)
	h.conns--
	h.mu.Unlock()
	metrics.ConnectedClients.Dec()

	if s != nil {
		s.Disconnect(c.ID)
	}
	logger.Debug("ws: client disconnected", "client", c.ID)
}

func (h *Hub) sessionOf(c *Client) *game.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[c]
}

// removeSession reclaims an ended session once its grace period is over.
func (h *Hub) removeSession(s *game.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeSessionLocked(s)
}

func (h *Hub) removeSessionLocked(s *game.Session) {
	if h.sessions[s.ID] != s {
		return
	}
	delete(h.sessions, s.ID)
	for c, cs := range h.clients {
		if cs == s {
			delete(h.clients, c)
		}
	}
	metrics.ActiveSessions.Set(float64(len(h.sessions)))
	logger.Debug("ws: session reclaimed", "session", s.ID)
}

// StartCleanup runs the janitor until ctx is done.
func (h *Hub) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.cleanup()
			}
		}
	}()
}

// cleanup drops queue entries of dead connections and sessions that ended
// without being reclaimed.
func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for name, q := range h.queues {
		for _, e := range q.removeIf(func(e *waitingEntry) bool { return e.Client.Closed() }) {
			delete(h.queued, e.Client)
			logger.Info("ws: dropped stale waiting entry", "client", e.ID, "difficulty", name)
		}
		metrics.WaitingPlayers.WithLabelValues(name).Set(float64(q.len()))
	}

	for _, s := range h.sessions {
		if s.Ended(h.factory.Rules().TeardownGrace) {
			h.removeSessionLocked(s)
		}
	}
}

// HubStats is a point-in-time view for health checks.
type HubStats struct {
	Connections int `json:"connections"`
	Waiting     int `json:"waiting"`
	Sessions    int `json:"sessions"`
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HubStats{
		Connections: h.conns,
		Waiting:     len(h.queued),
		Sessions:    len(h.sessions),
	}
}
