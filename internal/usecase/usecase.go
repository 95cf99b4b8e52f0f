package usecase

import (
	"context"
	"time"

	"member-dedup/internal/metrics"
	"member-dedup/internal/repository"
	"member-dedup/internal/usecase/domain"

	"go.uber.org/zap"
)

// InterfaceUsecase aggregates all usecase interfaces.
type InterfaceUsecase interface {
	ScanUsecaseInterface
	QueueUsecaseInterface
	MergeUsecaseInterface
}

var _ InterfaceUsecase = (*domain.Usecase)(nil)

// New constructs a new usecase layer with its dependencies.
func New(
	log *zap.SugaredLogger,
	ctx context.Context,
	repo repository.Repository,
	m *metrics.DedupMetrics,
	timeout time.Duration,
	opts domain.Options,
) InterfaceUsecase {
	return domain.New(log, ctx, repo, m, timeout, opts)
}
