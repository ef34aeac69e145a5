package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// GamesCache guarda listagens de jogos por status no Redis.
type GamesCache struct{ R *redis.Client }

func New(r *redis.Client) *GamesCache { return &GamesCache{R: r} }

func keyGames(status string) string { return "games:status:" + status }

// GetGames retorna false quando a chave não existe.
func (c *GamesCache) GetGames(ctx context.Context, status string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyGames(status)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *GamesCache) SetGames(ctx context.Context, status string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyGames(status), b, ttl).Err()
}

// Invalidate remove as listagens dos status informados.
func (c *GamesCache) Invalidate(ctx context.Context, statuses ...string) error {
	if len(statuses) == 0 {
		return nil
	}
	keys := make([]string, 0, len(statuses))
	for _, st := range statuses {
		keys = append(keys, keyGames(st))
	}
	return c.R.Del(ctx, keys...).Err()
}
