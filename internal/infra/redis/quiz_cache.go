package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizbot/internal/domain"
	"quizbot/internal/engine"
)

// QuizCache is a read-through Redis cache in front of any quiz repository.
// Resolved refs are stored under quiz:code:{code}, question lists under
// quiz:{id}:questions, both as JSON with a jittered TTL.
type QuizCache struct {
	client *redis.Client
	source engine.QuizRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, source engine.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) ResolvePublished(ctx context.Context, code string) (domain.QuizRef, error) {
	key := "quiz:code:" + code

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var ref domain.QuizRef
		if err := json.Unmarshal([]byte(raw), &ref); err == nil {
			return ref, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Result(); err == nil {
			var ref domain.QuizRef
			if err := json.Unmarshal([]byte(raw), &ref); err == nil {
				return ref, nil
			}
		}

		ref, err := c.source.ResolvePublished(ctx, code)
		if err != nil {
			return domain.QuizRef{}, err
		}
		if raw, err := json.Marshal(ref); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return ref, nil
	})
	if err != nil {
		return domain.QuizRef{}, err
	}
	return result.(domain.QuizRef), nil
}

func (c *QuizCache) QuestionsFor(ctx context.Context, quizID int64) ([]domain.Question, error) {
	key := "quiz:" + strconv.FormatInt(quizID, 10) + ":questions"

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var questions []domain.Question
		if err := json.Unmarshal([]byte(raw), &questions); err == nil {
			return questions, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if raw, err := c.client.Get(ctx, key).Result(); err == nil {
			var questions []domain.Question
			if err := json.Unmarshal([]byte(raw), &questions); err == nil {
				return questions, nil
			}
		}

		questions, err := c.source.QuestionsFor(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(questions); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	questions, ok := result.([]domain.Question)
	if !ok {
		return nil, fmt.Errorf("unexpected cache result type %T", result)
	}
	return questions, nil
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
