package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/slate/internal/config"
	"github.com/dyluth/slate/internal/gateway"
	"github.com/dyluth/slate/internal/printer"
	"github.com/dyluth/slate/internal/sqlitestore"
	"github.com/dyluth/slate/pkg/whiteboard"
)

// backend bundles the store and transport selected by store.backend.
type backend struct {
	name      string
	store     gateway.Store
	transport whiteboard.Transport
	health    gateway.Pinger
	close     func() error
}

// Shared reports whether other processes see this backend's realtime
// traffic. Only Redis is shared; the other backends use an in-process hub.
func (b *backend) Shared() bool {
	return b.name == config.BackendRedis
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openBackend connects the configured backend. Connection failures are
// reported through the printer.
func openBackend(ctx context.Context, cfg *config.SlateConfig) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		opts, err := cfg.RedisOptions()
		if err != nil {
			return nil, err
		}
		client, err := whiteboard.NewClient(opts, cfg.Instance)
		if err != nil {
			return nil, fmt.Errorf("failed to create board client: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			client.Close()
			return nil, printer.ErrorWithContext(
				"Redis connection failed",
				fmt.Sprintf("Could not connect to Redis: %v", err),
				map[string]string{"URL": cfg.Redis.URL, "Instance": cfg.Instance},
				[]string{
					"Check that Redis is running and redis.url (or REDIS_URL) is correct",
					"Run without Redis:\n  set store.backend: sqlite in slate.yml",
				},
			)
		}
		return &backend{
			name:      config.BackendRedis,
			store:     client,
			transport: client,
			health:    client,
			close:     client.Close,
		}, nil

	case config.BackendSQLite:
		store, err := sqlitestore.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, printer.ErrorWithContext(
				"SQLite store unavailable",
				err.Error(),
				map[string]string{"Path": cfg.Store.SQLitePath},
				[]string{"Check that the directory exists and is writable"},
			)
		}
		return &backend{
			name:      config.BackendSQLite,
			store:     store,
			transport: whiteboard.NewMemoryHub(),
			health:    store,
			close:     store.Close,
		}, nil

	case config.BackendMemory:
		return &backend{
			name:      config.BackendMemory,
			store:     whiteboard.NewMemoryStore(),
			transport: whiteboard.NewMemoryHub(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
