package service

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"mineduel/internal/domain"
	"mineduel/internal/logger"
	"mineduel/internal/repository"
)

const (
	leaderboardKeyPrefix = "mineduel:lb:"
	playerNamesKey       = "mineduel:names"

	MaxLeaderboardLimit = 100
)

var (
	ErrStatsDisabled  = errors.New("stats storage is not configured")
	ErrUnknownBoard   = errors.New("unknown leaderboard")
	ErrPlayerNotFound = errors.New("player not found")
)

// StatsService records finished matches in postgres and keeps the redis
// leaderboards in step. Either store may be absent.
type StatsService struct {
	repo *repository.MatchRepository
	rdb  *redis.Client
}

func NewStatsService(repo *repository.MatchRepository, rdb *redis.Client) *StatsService {
	return &StatsService{repo: repo, rdb: rdb}
}

func (s *StatsService) Enabled() bool {
	return s != nil && (s.repo != nil || s.rdb != nil)
}

func leaderboardKey(board string) string {
	return leaderboardKeyPrefix + board
}

func validBoard(board string) bool {
	return board == repository.BoardWins || board == repository.BoardScore
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 10
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	default:
		return limit
	}
}

// RecordMatch persists rec. A match that is already stored is not counted
// on the leaderboards a second time.
func (s *StatsService) RecordMatch(ctx context.Context, rec domain.MatchRecord) error {
	if !s.Enabled() {
		return nil
	}

	if s.repo != nil {
		err := s.repo.Create(ctx, rec)
		if errors.Is(err, repository.ErrAlreadyRecorded) {
			logger.Debug("match already recorded", "match", rec.MatchID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("record match %s: %w", rec.MatchID, err)
		}
	}

	if s.rdb != nil {
		if err := s.bumpLeaderboards(ctx, rec); err != nil {
			return fmt.Errorf("update leaderboards: %w", err)
		}
	}
	return nil
}

func (s *StatsService) bumpLeaderboards(ctx context.Context, rec domain.MatchRecord) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range rec.Players {
			win := 0.0
			if p.Result() == domain.GameResultWin {
				win = 1
			}
			pipe.ZIncrBy(ctx, leaderboardKey(repository.BoardWins), win, p.PlayerID)
			pipe.ZIncrBy(ctx, leaderboardKey(repository.BoardScore), float64(p.Score), p.PlayerID)
			pipe.HSet(ctx, playerNamesKey, p.PlayerID, p.Name)
		}
		return nil
	})
	return err
}

// Leaderboard returns the top players on board, preferring redis and falling
// back to postgres.
func (s *StatsService) Leaderboard(ctx context.Context, board string, limit int) ([]domain.LeaderboardEntry, error) {
	if !validBoard(board) {
		return nil, ErrUnknownBoard
	}
	if !s.Enabled() {
		return nil, ErrStatsDisabled
	}
	limit = clampLimit(limit)

	if s.rdb != nil {
		entries, err := s.leaderboardFromRedis(ctx, board, limit)
		if err == nil {
			return entries, nil
		}
		if s.repo == nil {
			return nil, err
		}
		logger.Warn("redis leaderboard failed, using database", "board", board, "error", err)
	}

	return s.repo.GetTop(ctx, board, limit)
}

func (s *StatsService) leaderboardFromRedis(ctx context.Context, board string, limit int) ([]domain.LeaderboardEntry, error) {
	top, err := s.rdb.ZRevRangeWithScores(ctx, leaderboardKey(board), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	ids := make([]string, len(top))
	for i, z := range top {
		ids[i] = fmt.Sprint(z.Member)
	}
	names, err := s.rdb.HMGet(ctx, playerNamesKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, len(top))
	for i, z := range top {
		entries[i] = domain.LeaderboardEntry{Rank: i + 1, PlayerID: ids[i], Value: z.Score}
		if name, ok := names[i].(string); ok {
			entries[i].Name = name
		}
	}
	return entries, nil
}

// PlayerStats returns the aggregated history of one player.
func (s *StatsService) PlayerStats(ctx context.Context, playerID string) (*domain.PlayerStats, error) {
	if s == nil || s.repo == nil {
		return nil, ErrStatsDisabled
	}
	stats, err := s.repo.GetPlayerStats(ctx, playerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	return stats, err
}
