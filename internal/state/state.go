package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopee/catalog/internal/domain"

	"github.com/redis/go-redis/v9"
)

// historyLength bounds the list of past runs kept next to the last one
const historyLength = 20

// Store remembers run summaries between invocations
type Store interface {
	SaveRun(ctx context.Context, summary domain.RunSummary) error
	LastRun(ctx context.Context) (*domain.RunSummary, error)
}

type redisStore struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStore(redisClient *redis.Client, keyPrefix string) Store {
	return &redisStore{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

func (s *redisStore) SaveRun(ctx context.Context, summary domain.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	_, err = s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.keyPrefix+"last_run", data, 0) // No expiration
		pipe.LPush(ctx, s.keyPrefix+"runs", data)
		pipe.LTrim(ctx, s.keyPrefix+"runs", 0, historyLength-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save run summary: %w", err)
	}
	return nil
}

// LastRun returns nil when no run has been recorded yet
func (s *redisStore) LastRun(ctx context.Context) (*domain.RunSummary, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+"last_run").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	var summary domain.RunSummary
	if err := json.Unmarshal(val, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse last run: %w", err)
	}
	return &summary, nil
}

type nopStore struct{}

// NewNopStore is used when Redis is disabled
func NewNopStore() Store {
	return nopStore{}
}

func (nopStore) SaveRun(ctx context.Context, summary domain.RunSummary) error { return nil }

func (nopStore) LastRun(ctx context.Context) (*domain.RunSummary, error) { return nil, nil }
