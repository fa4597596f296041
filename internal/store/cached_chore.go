package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/chorely/internal/model"
)

// ChoreBackend is the chore store a CachedChoreStore wraps.
type ChoreBackend interface {
	Create(ctx context.Context, c *model.Chore) (*model.Chore, error)
	GetByID(ctx context.Context, id int64) (*model.Chore, error)
	List(ctx context.Context) ([]model.Chore, error)
	Update(ctx context.Context, c *model.Chore) (*model.Chore, error)
	Delete(ctx context.Context, id int64) error
}

var (
	_ ChoreBackend = (*ChoreStore)(nil)
	_ ChoreBackend = (*InMemoryChoreStore)(nil)
	_ ChoreBackend = (*CachedChoreStore)(nil)
)

const (
	choreGenKey       = "chorely:chores:gen"
	choreListKeyShape = "chorely:chores:v%d"
)

// CachedChoreStore caches the full chore list in redis under a key versioned
// by a generation counter. Every write bumps the generation, so a list read
// that raced a write can only fill a key no later reader consults; stale
// generations expire with the TTL. Single-record reads go straight to the
// backend so the lifecycle controller always mutates fresh data. Redis
// failures degrade to the backend.
type CachedChoreStore struct {
	next   ChoreBackend
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedChoreStore(next ChoreBackend, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedChoreStore {
	return &CachedChoreStore{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "chore_cache"),
	}
}

// listKey returns the key for the current generation. A missing counter is
// generation zero.
func (s *CachedChoreStore) listKey(ctx context.Context) (string, error) {
	gen, err := s.cache.Get(ctx, choreGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf(choreListKeyShape, gen), nil
}

func (s *CachedChoreStore) invalidate(ctx context.Context) {
	if err := s.cache.Incr(ctx, choreGenKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate chore cache", "error", err)
	}
}

func (s *CachedChoreStore) List(ctx context.Context) ([]model.Chore, error) {
	key, err := s.listKey(ctx)
	if err != nil {
		s.logger.Warn("redis read error", "error", err)
		return s.next.List(ctx)
	}

	val, err := s.cache.Get(ctx, key).Bytes()
	if err == nil {
		var chores []model.Chore
		if err := json.Unmarshal(val, &chores); err == nil {
			return chores, nil
		}
		s.logger.Warn("corrupted chore cache, dropping key", "key", key)
		s.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("redis read error", "error", err)
	}

	chores, err := s.next.List(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(chores); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Warn("redis set error", "error", err)
		}
	}
	return chores, nil
}
func (s *CachedChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	return s.next.GetByID(ctx, id)
}

func (s *CachedChoreStore) Create(ctx context.Context, c *model.Chore) (*model.Chore, error) {
	created, err := s.next.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *CachedChoreStore) Update(ctx context.Context, c *model.Chore) (*model.Chore, error) {
	updated, err := s.next.Update(ctx, c)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *CachedChoreStore) Delete(ctx context.Context, id int64) error {
	defer s.invalidate(ctx)
	return s.next.Delete(ctx, id)
}
