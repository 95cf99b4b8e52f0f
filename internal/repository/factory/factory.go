// Package factory builds repository backends by name.
package factory

import (
	"context"
	"fmt"

	"member-dedup/config"
	"member-dedup/internal/repository"
	"member-dedup/internal/repository/memory"
	"member-dedup/internal/repository/postgres"

	"go.uber.org/zap"
)

// New constructs repository backend by name.
func New(ctx context.Context, name string, log *zap.SugaredLogger, cfg *config.Config) (repository.Repository, error) {
	switch name {
	case config.BackendPostgres:
		return postgres.New(ctx, log, cfg), nil
	case config.BackendMemory:
		return memory.New(log), nil
	default:
		return nil, fmt.Errorf("unknown repo backend: %s", name)
	}
}
