package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	minTimeLimit = 5
	maxTimeLimit = 300
)

// PreferenceStore keeps per-user answer-window preferences in Redis.
type PreferenceStore struct {
	client   *redis.Client
	fallback int
}

func NewPreferenceStore(client *redis.Client, fallback int) *PreferenceStore {
	return &PreferenceStore{client: client, fallback: fallback}
}

func (p *PreferenceStore) PreferredOpenPeriod(ctx context.Context, userID int64) (int, error) {
	raw, err := p.client.Get(ctx, p.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return p.fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load preference: %w", err)
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return p.fallback, nil
	}
	return seconds, nil
}

func (p *PreferenceStore) SetPreferredOpenPeriod(ctx context.Context, userID int64, seconds int) error {
	if seconds < minTimeLimit {
		seconds = minTimeLimit
	}
	if seconds > maxTimeLimit {
		seconds = maxTimeLimit
	}
	if err := p.client.Set(ctx, p.key(userID), strconv.Itoa(seconds), 0).Err(); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

func (p *PreferenceStore) key(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10) + ":open_period"
}
