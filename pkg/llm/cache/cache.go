// Package cache memoizes LLM answers for prompts that are expected to repeat.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"ai-editor-be/pkg/llm"
)

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache miss")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Provider wraps an LLMProvider and answers repeated requests from a Store.
type Provider struct {
	next  llm.LLMProvider
	store Store
	ttl   time.Duration
}

var _ llm.LLMProvider = &Provider{}

func New(next llm.LLMProvider, store Store, ttl time.Duration) *Provider {
	return &Provider{next: next, store: store, ttl: ttl}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	key := Key(history, llm.Apply(llm.Options{}, options...))
	if v, err := p.store.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err := p.next.Chat(ctx, history, options...)
	if err != nil {
		return "", err
	}
	// a failed write only costs a future miss
	_ = p.store.Set(ctx, key, v, p.ttl)
	return v, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

// Key hashes everything that can change the answer.
func Key(history []llm.Message, opts llm.Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%g\x00%d\x00", opts.Model, opts.System, opts.Temperature, opts.MaxTokens)
	for _, m := range history {
		fmt.Fprintf(h, "%s\x00%s\x00", m.Role, m.Content)
	}
	return "llm:" + hex.EncodeToString(h.Sum(nil))
}

// MemoryStore keeps answers in process.
type MemoryStore struct {
	c *gocache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(ttl, 2*ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", ErrMiss
	}
	return v.(string), nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.c.Set(key, value, ttl)
	return nil
}

// RedisStore shares answers between instances.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
