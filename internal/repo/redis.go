package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hamgarian/do-real-shit/internal/domain"
)

type Redis struct{ C *redis.Client }

func NewRedis(addr string) *Redis {
	return &Redis{C: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Ping(ctx context.Context) error { return r.C.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.C.Close() }

const leaderboardKey = "leaderboard:rows"

// GetLeaderboard — кэш ответа лидерборда; nil-receiver безопасен (кэш
// выключен → всегда промах).
func (r *Redis) GetLeaderboard(ctx context.Context) ([]domain.LeaderboardRow, bool) {
	if r == nil {
		return nil, false
	}
	b, err := r.C.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []domain.LeaderboardRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (r *Redis) SetLeaderboard(ctx context.Context, rows []domain.LeaderboardRow, ttl time.Duration) {
	if r == nil {
		return
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return
	}
	_ = r.C.Set(ctx, leaderboardKey, b, ttl).Err()
}
