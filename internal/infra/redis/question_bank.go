package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
)

// QuestionLoader fetches question content from a backing store (YAML file, Postgres).
type QuestionLoader interface {
	LoadCategories(ctx context.Context) ([]string, error)
	LoadQuestions(ctx context.Context, category string) ([]domain.Question, error)
}

// QuestionBank caches question lists in Redis as JSON and falls back to a
// loader on a miss, so several bot instances share one warm copy.
//
//	SET trivia:categories            ["History","Science",...]
//	SET trivia:questions:{category}  [{"text":...},...]
type QuestionBank struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := b.load(ctx, categoriesKey, &categories, func(ctx context.Context) (any, error) {
		return b.loader.LoadCategories(ctx)
	})
	return categories, err
}

func (b *QuestionBank) Questions(ctx context.Context, category string) ([]domain.Question, error) {
	var questions []domain.Question
	err := b.load(ctx, questionsKey(category), &questions, func(ctx context.Context) (any, error) {
		return b.loader.LoadQuestions(ctx, category)
	})
	return questions, err
}

// load decodes key into dst, filling the key from fetch on a miss. Redis
// errors degrade to the loader rather than failing the read.
func (b *QuestionBank) load(ctx context.Context, key string, dst any, fetch func(context.Context) (any, error)) error {
	if raw, err := b.client.Get(ctx, key).Bytes(); err == nil {
		if err := json.Unmarshal(raw, dst); err == nil {
			return nil
		}
	}

	raw, err, _ := b.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := b.client.Get(ctx, key).Bytes(); err == nil {
			return raw, nil
		} else if !errors.Is(err, redis.Nil) {
			return b.fetchAndEncode(ctx, "", fetch)
		}
		return b.fetchAndEncode(ctx, key, fetch)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dst)
}

// fetchAndEncode loads fresh content and writes it back under key when key is set.
func (b *QuestionBank) fetchAndEncode(ctx context.Context, key string, fetch func(context.Context) (any, error)) ([]byte, error) {
	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if key != "" {
		_ = b.client.Set(ctx, key, raw, b.ttlWithJitter()).Err()
	}
	return raw, nil
}

// Invalidate drops the cached categories and the given categories' questions.
func (b *QuestionBank) Invalidate(ctx context.Context, categories ...string) error {
	keys := []string{categoriesKey}
	for _, c := range categories {
		keys = append(keys, questionsKey(c))
	}
	return b.client.Del(ctx, keys...).Err()
}

const categoriesKey = "trivia:categories"

func questionsKey(category string) string {
	return "trivia:questions:" + category
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
