package protocol

// client → server

type FindGamePayload struct {
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
}

type CellPayload struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type UsePowerPayload struct {
	Power string `json:"power"`
}

// server → client

type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
}

type SearchingPayload struct {
	Difficulty string `json:"difficulty"`
	Position   int    `json:"position"`
}

type GameStartPayload struct {
	GameID     string `json:"gameId"`
	PlayerID   string `json:"playerId"`
	Opponent   string `json:"opponent"`
	Duration   int64  `json:"duration"` // ms
	GridSize   int    `json:"gridSize"`
	MineCount  int    `json:"mineCount"`
	Difficulty string `json:"difficulty"`
	StartTime  int64  `json:"startTime"` // unix ms
}

type Cell struct {
	X             int  `json:"x"`
	Y             int  `json:"y"`
	NeighborCount int  `json:"neighborCount"`
	IsMine        bool `json:"isMine,omitempty"`
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type CellResultPayload struct {
	HitMine       bool   `json:"hitMine"`
	Points        int    `json:"points,omitempty"`
	Damage        int    `json:"damage,omitempty"`
	Score         int    `json:"score"`
	CellsRevealed int    `json:"cellsRevealed"`
	RevealedCells []Cell `json:"revealedCells"`
	ShieldUsed    bool   `json:"shieldUsed,omitempty"`
}

type OpponentUpdatePayload struct {
	Score         int      `json:"score"`
	CellsRevealed *int     `json:"cellsRevealed,omitempty"`
	Completion    *float64 `json:"completion,omitempty"`
	RevealedCells []Cell   `json:"revealedCells,omitempty"`
	HitMine       *bool    `json:"hitMine,omitempty"`
	Power         string   `json:"power,omitempty"`
}

type FlagPayload struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	IsFlagged bool `json:"isFlagged"`
}

type FrozenPayload struct {
	RemainingTime int64 `json:"remainingTime,omitempty"` // ms
	Duration      int64 `json:"duration,omitempty"`      // ms
}

type PowerActivatedPayload struct {
	Power         string  `json:"power"`
	Score         int     `json:"score"`
	Mines         []Point `json:"mines,omitempty"`
	Points        int     `json:"points,omitempty"`
	RevealedCells []Cell  `json:"revealedCells,omitempty"`
}

type PowerFailedPayload struct {
	Reason string `json:"reason"`
}

type OpponentDisconnectedPayload struct {
	Message string `json:"message"`
}

type PlayerResult struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameEndPayload struct {
	Reason   string                  `json:"reason"`
	Winner   *string                 `json:"winner"`
	Players  map[string]PlayerResult `json:"players"`
	IsDraw   bool                    `json:"isDraw"`
	Duration int64                   `json:"duration"` // ms played
}

type ErrorPayload struct {
	Message string `json:"message"`
}
