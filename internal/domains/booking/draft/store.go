package draft

//go:generate go run go.uber.org/mock/mockgen -source=./store.go -destination=./mocks/store_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"cleanbook/config"
	"cleanbook/shared"
	"cleanbook/shared/cache"
	"cleanbook/shared/constant"
	"cleanbook/shared/timezone"
)

const cacheDraft = "booking:draft"

// Store keeps one draft per user until it expires or is submitted.
type Store interface {
	Get(ctx context.Context, userID string) (Draft, bool, error)
	Save(ctx context.Context, userID string, draft Draft) (Draft, error)
	Delete(ctx context.Context, userID string) error
}

type redisStore struct {
	cache cache.RedisCache
	ttl   int
}

func NewStore(cfg *config.Config, cache cache.RedisCache) Store {
	return &redisStore{
		cache: cache,
		ttl:   cfg.Booking.DraftTTLMinutes * constant.MinutesToSeconds,
	}
}

func (s *redisStore) Get(ctx context.Context, userID string) (Draft, bool, error) {
	var d Draft

	err := s.cache.Get(ctx, shared.BuildCacheKey(cacheDraft, userID), &d)
	if errors.Is(err, cache.Nil) {
		return Draft{}, false, nil
	}

	if err != nil {
		return Draft{}, false, fmt.Errorf("failed to load booking draft: %w", err)
	}

	return d, true, nil
}

func (s *redisStore) Save(ctx context.Context, userID string, draft Draft) (Draft, error) {
	draft.UpdatedAt = timezone.Now()

	if err := s.cache.Save(ctx, shared.BuildCacheKey(cacheDraft, userID), draft, s.ttl); err != nil {
		return Draft{}, fmt.Errorf("failed to save booking draft: %w", err)
	}

	return draft, nil
}

func (s *redisStore) Delete(ctx context.Context, userID string) error {
	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheDraft, userID)); err != nil {
		return fmt.Errorf("failed to delete booking draft: %w", err)
	}

	return nil
}
