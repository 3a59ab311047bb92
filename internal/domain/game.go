package domain

import "time"

// GameResult - outcome of a match from one participant's point of view
type GameResult string

const (
	GameResultWin  GameResult = "win"
	GameResultLose GameResult = "lose"
	GameResultDraw GameResult = "draw"
)

// PlayerResult is one participant's line in a finished match.
type PlayerResult struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	IsWinner bool   `json:"is_winner"`
	IsDraw   bool   `json:"is_draw"`
	Score    int    `json:"score"`
}

// Result maps the winner/draw flags onto a GameResult.
func (p PlayerResult) Result() GameResult {
	switch {
	case p.IsDraw:
		return GameResultDraw
	case p.IsWinner:
		return GameResultWin
	default:
		return GameResultLose
	}
}

// MatchRecord is handed to the stats service once per finished session.
type MatchRecord struct {
	MatchID    string         `json:"match_id"`
	Difficulty string         `json:"difficulty"`
	Reason     string         `json:"reason"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
	Players    []PlayerResult `json:"players"`
}

// Duration of the match as played.
func (m MatchRecord) Duration() time.Duration {
	return m.EndedAt.Sub(m.StartedAt)
}

// PlayerStats - aggregated history of one player
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	TotalGames int    `json:"total_games"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	Draws      int    `json:"draws"`
	TotalScore int64  `json:"total_score"`
	BestScore  int    `json:"best_score"`
}

// LeaderboardEntry - one row of a leaderboard
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name,omitempty"`
	Value    float64 `json:"value"`
}
