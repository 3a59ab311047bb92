package protocol

import "encoding/json"

const (
	// client - server
	MsgFindGame     = "findGame"
	MsgCancelSearch = "cancelSearch"
	MsgCellClick    = "cellClick"
	MsgToggleFlag   = "toggleFlag"
	MsgUsePower     = "usePower"
	MsgPing         = "ping"

	// server - client
	MsgConnected            = "connected"
	MsgSearching            = "searching"
	MsgGameStart            = "gameStart"
	MsgCellResult           = "cellResult"
	MsgOpponentUpdate       = "opponentUpdate"
	MsgFlagUpdate           = "flagUpdate"
	MsgOpponentFlagUpdate   = "opponentFlagUpdate"
	MsgFrozen               = "frozen"
	MsgShieldUsed           = "shieldUsed"
	MsgPowerActivated       = "powerActivated"
	MsgPowerFailed          = "powerFailed"
	MsgOpponentDisconnected = "opponentDisconnected"
	MsgGameEnd              = "gameEnd"
	MsgPong                 = "pong"
	MsgError                = "error"
)

// Message is the envelope written to clients.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound is the envelope read from clients. Payload is decoded once the
// type is known.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode unmarshals the payload into v. An absent payload leaves v untouched.
func (in Inbound) Decode(v any) error {
	if len(in.Payload) == 0 || string(in.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(in.Payload, v)
}
