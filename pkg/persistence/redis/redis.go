// Package redis provides a Redis persistence implementation. Workflows and accounts are stored as
// JSON strings; secondary indexes use sorted sets and plain keys.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "flowcanvas:"

func workflowKey(id string) string     { return keyPrefix + "workflow:" + id }
func ownerKey(owner string) string     { return keyPrefix + "owner:" + owner + ":workflows" }
func userKey(id string) string         { return keyPrefix + "user:" + id }
func userEmailKey(email string) string { return keyPrefix + "user-email:" + email }

// Persistence implements the persistence layer on top of a Redis client.
type Persistence struct {
	client       redis.UniversalClient
	logger       *slog.Logger
	workflowRepo *WorkflowRepository
	userRepo     *UserRepository
}

// NewPersistence connects to the Redis server addressed by a redis:// or rediss:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewPersistenceWithClient(client, logger), nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(client redis.UniversalClient, logger *slog.Logger) *Persistence {
	return &Persistence{
		client:       client,
		logger:       logger,
		workflowRepo: &WorkflowRepository{client: client, logger: logger},
		userRepo:     &UserRepository{client: client},
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) UserRepository() persistence.UserRepository {
	return p.userRepo
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
