// Package cache provides an optional Redis-backed answer cache. Identical
// questions skip the retrieval loop entirely until the entry expires or the
// index changes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
)

// Source is one document reference of a cached answer, preserved in full so
// a cache hit serves the same payload a fresh run would.
type Source struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Page    string `json:"page,omitempty"`
}

// Entry is one cached answer together with the loop stats that produced it.
type Entry struct {
	Answer       string   `json:"answer"`
	Sources      []Source `json:"sources"`
	IsSufficient bool     `json:"is_sufficient"`
	Iterations   int      `json:"iterations"`
}

// Config holds Redis cache configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:   "localhost:6379",
		Prefix: "docqa:answer:",
		TTL:    time.Hour,
	}
}

// AnswerCache stores answers keyed by a hash of the normalized question.
type AnswerCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates an AnswerCache.
func New(config *Config) *AnswerCache {
	if config == nil {
		config = DefaultConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &AnswerCache{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Get returns the cached entry for a question, or ErrNotFound on a miss.
func (c *AnswerCache) Get(ctx context.Context, question string) (*Entry, error) {
	data, err := c.client.Get(ctx, c.key(question)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, docqaerrors.ErrNotFound
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("unmarshal cached entry: %w", err)
	}
	return &entry, nil
}

// Put stores an entry under the question's key with the configured TTL.
func (c *AnswerCache) Put(ctx context.Context, question string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.key(question), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Invalidate drops every cached answer. Called after new documents are
// indexed so stale answers do not outlive the corpus they were grounded on.
func (c *AnswerCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete cache keys: %w", err)
		}
	}
	return nil
}

// Ping checks the Redis connection.
func (c *AnswerCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *AnswerCache) Close() error {
	return c.client.Close()
}

// key normalizes the question (trim, lowercase, collapse whitespace) and
// hashes it so arbitrary user text never lands in a Redis key.
func (c *AnswerCache) key(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return c.prefix + hex.EncodeToString(sum[:])
}
