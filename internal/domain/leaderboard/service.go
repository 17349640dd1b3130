package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fitclash/fitclash-api/internal/domain/ledger"
)

// Period filters standings to a trailing window.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ErrInvalidPeriod is returned for an unknown period value
var ErrInvalidPeriod = errors.New("invalid leaderboard period")

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Standing is one leaderboard row.
type Standing struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Points int    `json:"points"`
}

// PointsSource is the slice of the ledger service the leaderboard needs.
// Satisfied by *ledger.Service.
type PointsSource interface {
	TopEarners(ctx context.Context, since *time.Time, limit int) ([]ledger.EarnTotal, error)
}

// Service ranks users by earned points. Standings are cached in Redis for a
// short TTL; the service degrades to direct queries when Redis is absent.
type Service struct {
	points   PointsSource
	redis    *redis.Client // nil if Redis disabled
	cacheTTL time.Duration
}

func NewService(points PointsSource, redisClient *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{points: points, redis: redisClient, cacheTTL: cacheTTL}
}

// Top returns the ranked standings for a period.
func (s *Service) Top(ctx context.Context, period Period, limit int) ([]Standing, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var since *time.Time
	switch period {
	case PeriodWeek:
		t := time.Now().UTC().AddDate(0, 0, -7)
		since = &t
	case PeriodMonth:
		t := time.Now().UTC().AddDate(0, -1, 0)
		since = &t
	case PeriodAll, "":
		// no window
	default:
		return nil, ErrInvalidPeriod
	}

	key := fmt.Sprintf("leaderboard:%s:%d", periodKey(period), limit)
	if standings := s.fromCache(ctx, key); standings != nil {
		return standings, nil
	}

	totals, err := s.points.TopEarners(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	standings := make([]Standing, 0, len(totals))
	for i, total := range totals {
		standings = append(standings, Standing{
			Rank:   i + 1,
			UserID: total.UserID.String(),
			Points: total.Points,
		})
	}

	s.storeCache(ctx, key, standings)
	return standings, nil
}

func periodKey(p Period) string {
	if p == "" {
		return string(PeriodAll)
	}
	return string(p)
}

// Cache helpers (handle nil redis gracefully)

func (s *Service) fromCache(ctx context.Context, key string) []Standing {
	if s.redis == nil {
		return nil
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("leaderboard cache read failed")
		}
		return nil
	}
	var standings []Standing
	if err := json.Unmarshal([]byte(val), &standings); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("leaderboard cache decode failed")
		return nil
	}
	return standings
}

func (s *Service) storeCache(ctx context.Context, key string, standings []Standing) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(standings)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("leaderboard cache write failed")
	}
}
