package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"mineduel/internal/logger"
	"mineduel/internal/protocol"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// peer is one smoke client with its inbound messages pumped into a channel.
type peer struct {
	name  string
	conn  *websocket.Conn
	inbox chan envelope
}

func main() {
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	addr := flag.String("addr", "127.0.0.1:8080", "server host:port")
	difficulty := flag.String("difficulty", "easy", "difficulty to queue on")
	clicks := flag.Int("clicks", 5, "cells each player opens")
	flag.Parse()

	logger.Init("debug", "tint")

	url := fmt.Sprintf("ws://%s/ws", *addr)
	a := dial(url, "A")
	defer a.conn.Close()
	b := dial(url, "B")
	defer b.conn.Close()

	a.send(protocol.MsgFindGame, protocol.FindGamePayload{Name: "smokeA", Difficulty: *difficulty})
	b.send(protocol.MsgFindGame, protocol.FindGamePayload{Name: "smokeB", Difficulty: *difficulty})

	var start protocol.GameStartPayload
	if !a.waitFor(protocol.MsgGameStart, &start) || !b.waitFor(protocol.MsgGameStart, nil) {
		logger.Fatal("no gameStart received")
	}
	logger.Info("matched", "game", start.GameID, "grid", start.GridSize, "mines", start.MineCount)

	for i := 0; i < *clicks; i++ {
		x, y := i%start.GridSize, (i*3)%start.GridSize
		a.send(protocol.MsgCellClick, map[string]int{"x": x, "y": y})
		b.send(protocol.MsgCellClick, map[string]int{"x": y, "y": x})
		a.drain()
		b.drain()
	}

	a.send(protocol.MsgPing, nil)
	if !a.waitFor(protocol.MsgPong, nil) {
		logger.Fatal("no pong received")
	}

	// leaving forfeits the match for A
	a.conn.Close()
	var end protocol.GameEndPayload
	if !b.waitFor(protocol.MsgGameEnd, &end) {
		logger.Fatal("no gameEnd received")
	}
	logger.Info("smoke test finished", "reason", end.Reason, "players", end.Players)
}

func dial(url, name string) *peer {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		logger.Fatal("dial failed", "client", name, "error", err)
	}
	p := &peer{name: name, conn: conn, inbox: make(chan envelope, 64)}
	go p.readLoop()

	var hello protocol.ConnectedPayload
	if !p.waitFor(protocol.MsgConnected, &hello) {
		logger.Fatal("no connected message", "client", name)
	}
	logger.Info("connected", "client", name, "player", hello.PlayerID)
	return p
}

func (p *peer) readLoop() {
	defer close(p.inbox)
	for {
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			logger.Warn("bad frame", "client", p.name, "error", err)
			continue
		}
		p.inbox <- env
	}
}

func (p *peer) send(msgType string, payload any) {
	data, _ := json.Marshal(protocol.Message{Type: msgType, Payload: payload})
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.Fatal("write failed", "client", p.name, "type", msgType, "error", err)
	}
}

// waitFor skips messages until one of msgType arrives or 3s pass.
func (p *peer) waitFor(msgType string, v any) bool {
	timeout := time.After(3 * time.Second)
	for {
		select {
		case env, ok := <-p.inbox:
			if !ok {
				return false
			}
			if env.Type != msgType {
				continue
			}
			if v != nil {
				_ = json.Unmarshal(env.Payload, v)
			}
			return true
		case <-timeout:
			return false
		}
	}
}

// drain logs whatever arrives within a short quiet period.
func (p *peer) drain() {
	for {
		select {
		case env, ok := <-p.inbox:
			if !ok {
				return
			}
			logger.Debug("recv", "client", p.name, "type", env.Type, "payload", string(env.Payload))
		case <-time.After(300 * time.Millisecond):
			return
		}
	}
}
