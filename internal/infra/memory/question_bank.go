package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
)

const categoriesKey = "\x00categories"

// QuestionLoader fetches question content from a backing store (YAML file, Postgres).
type QuestionLoader interface {
	LoadCategories(ctx context.Context) ([]string, error)
	LoadQuestions(ctx context.Context, category string) ([]domain.Question, error)
}

// QuestionBank caches categories and questions with a TTL to avoid repeated loads.
type QuestionBank struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedEntry
}

type cachedEntry struct {
	categories []string
	questions  []domain.Question
	expiresAt  time.Time
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedEntry),
	}
}

func (b *QuestionBank) Categories(ctx context.Context) ([]string, error) {
	entry, err := b.load(ctx, categoriesKey, func(ctx context.Context) (cachedEntry, error) {
		categories, err := b.loader.LoadCategories(ctx)
		return cachedEntry{categories: categories}, err
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), entry.categories...), nil
}

// Questions returns the category's questions in bank order. Callers must not
// mutate the returned slice.
func (b *QuestionBank) Questions(ctx context.Context, category string) ([]domain.Question, error) {
	entry, err := b.load(ctx, category, func(ctx context.Context) (cachedEntry, error) {
		questions, err := b.loader.LoadQuestions(ctx, category)
		return cachedEntry{questions: questions}, err
	})
	if err != nil {
		return nil, err
	}
	return entry.questions, nil
}

// Invalidate drops every cached entry.
func (b *QuestionBank) Invalidate() {
	b.mu.Lock()
	b.cache = make(map[string]cachedEntry)
	b.mu.Unlock()
}

func (b *QuestionBank) load(ctx context.Context, key string, fetch func(context.Context) (cachedEntry, error)) (cachedEntry, error) {
	if entry, ok := b.cached(key); ok {
		return entry, nil
	}

	result, err, _ := b.sf.Do(key, func() (interface{}, error) {
		if entry, ok := b.cached(key); ok {
			return entry, nil
		}
		entry, err := fetch(ctx)
		if err != nil {
			return cachedEntry{}, err
		}

		b.mu.Lock()
		entry.expiresAt = b.clock().Add(b.ttlWithJitterLocked())
		b.cache[key] = entry
		b.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return cachedEntry{}, err
	}
	return result.(cachedEntry), nil
}

func (b *QuestionBank) cached(key string) (cachedEntry, bool) {
	now := b.clock()
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.cache[key]
	if !ok || !entry.expiresAt.After(now) {
		return cachedEntry{}, false
	}
	return entry, true
}

func (b *QuestionBank) ttlWithJitterLocked() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a loader backed by an in-memory category list (tests, demos).
type StaticQuestionLoader struct {
	categories []domain.Category
}

func NewStaticQuestionLoader(categories ...domain.Category) *StaticQuestionLoader {
	return &StaticQuestionLoader{categories: categories}
}

func (l *StaticQuestionLoader) LoadCategories(context.Context) ([]string, error) {
	names := make([]string, 0, len(l.categories))
	for _, c := range l.categories {
		names = append(names, c.Name)
	}
	return names, nil
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, category string) ([]domain.Question, error) {
	for _, c := range l.categories {
		if c.Name == category {
			return c.Questions, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}
