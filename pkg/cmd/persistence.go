package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/dukex/flowcanvas/pkg/persistence/file"
	"github.com/dukex/flowcanvas/pkg/persistence/postgresql"
	"github.com/dukex/flowcanvas/pkg/persistence/redis"
)

const (
	ProviderFile     = "file"
	ProviderPostgres = "postgresql"
	ProviderRedis    = "redis"
)

// NewPersistence opens the backend addressed by databaseURL. URLs without a known scheme are
// treated as file paths.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)
	logger.InfoContext(ctx, "Initializing persistence", "provider", provider)

	switch provider {
	case ProviderPostgres:
		p, err := postgresql.NewPersistence(ctx, logger.With("module", "postgresql"), databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgresql persistence: %w", err)
		}

		return p, nil
	case ProviderRedis:
		p, err := redis.NewPersistence(ctx, logger.With("module", "redis"), databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ProviderFile
	}

	switch scheme {
	case "postgres", "postgresql":
		return ProviderPostgres
	case "redis", "rediss":
		return ProviderRedis
	default:
		return ProviderFile
	}
}
