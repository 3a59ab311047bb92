package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mineduel/internal/domain"
)

var (
	ErrAlreadyRecorded = errors.New("match already recorded")
	ErrNotFound        = errors.New("not found")
)

// Leaderboard names accepted by GetTop.
const (
	BoardWins  = "wins"
	BoardScore = "score"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create stores a finished match and its two player lines in one transaction.
func (r *MatchRepository) Create(ctx context.Context, rec domain.MatchRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO matches (id, difficulty, reason, started_at, ended_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.MatchID, rec.Difficulty, rec.Reason, rec.StartedAt, rec.EndedAt, rec.Duration().Milliseconds(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyRecorded
		}
		return fmt.Errorf("insert match: %w", err)
	}

	batch := &pgx.Batch{}
	for _, p := range rec.Players {
		batch.Queue(
			`INSERT INTO match_players (match_id, player_id, name, score, result)
			 VALUES ($1, $2, $3, $4, $5)`,
			rec.MatchID, p.PlayerID, p.Name, p.Score, string(p.Result()),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert match players: %w", err)
	}

	return tx.Commit(ctx)
}

// GetPlayerStats aggregates every recorded match of playerID.
func (r *MatchRepository) GetPlayerStats(ctx context.Context, playerID string) (*domain.PlayerStats, error) {
	stats := &domain.PlayerStats{PlayerID: playerID}

	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*) AS total_games,
			COUNT(*) FILTER (WHERE mp.result = 'win') AS wins,
			COUNT(*) FILTER (WHERE mp.result = 'lose') AS losses,
			COUNT(*) FILTER (WHERE mp.result = 'draw') AS draws,
			COALESCE(SUM(mp.score), 0) AS total_score,
			COALESCE(MAX(mp.score), 0) AS best_score,
			COALESCE((ARRAY_AGG(mp.name ORDER BY m.ended_at DESC))[1], '') AS name
		 FROM match_players mp
		 JOIN matches m ON m.id = mp.match_id
		 WHERE mp.player_id = $1`,
		playerID,
	).Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.Draws, &stats.TotalScore, &stats.BestScore, &stats.Name)
	if err != nil {
		return nil, err
	}
	if stats.TotalGames == 0 {
		return nil, ErrNotFound
	}

	return stats, nil
}

// GetTop ranks players by total wins or total score.
func (r *MatchRepository) GetTop(ctx context.Context, board string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var agg string
	switch board {
	case BoardWins:
		agg = `COUNT(*) FILTER (WHERE mp.result = 'win')`
	case BoardScore:
		agg = `SUM(mp.score)`
	default:
		return nil, fmt.Errorf("unknown leaderboard %q", board)
	}

	rows, err := r.db.Query(ctx,
		`SELECT mp.player_id,
			(ARRAY_AGG(mp.name ORDER BY m.ended_at DESC))[1] AS name,
			`+agg+` AS value
		 FROM match_players mp
		 JOIN matches m ON m.id = mp.match_id
		 GROUP BY mp.player_id
		 ORDER BY value DESC, mp.player_id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LeaderboardEntry
	for rows.Next() {
		var (
			e     domain.LeaderboardEntry
			value int64
		)
		if err := rows.Scan(&e.PlayerID, &e.Name, &value); err != nil {
			return nil, err
		}
		e.Rank = len(result) + 1
		e.Value = float64(value)
		result = append(result, e)
	}

	return result, rows.Err()
}
