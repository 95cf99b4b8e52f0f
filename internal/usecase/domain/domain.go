// Package domain contains application services orchestrating duplicate detection,
// review and merging.
package domain

import (
	"context"
	"sync"
	"time"

	"member-dedup/internal/entities"
	"member-dedup/internal/metrics"
	"member-dedup/internal/repository"
	"member-dedup/internal/scanner"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Options tunes duplicate detection and merging.
type Options struct {
	DefaultThreshold int
	UndoWindow       time.Duration
	ScanWorkers      int
	ScanTimeout      time.Duration
}

// Usecase struct implements all usecase interfaces.
type Usecase struct {
	ctx     context.Context
	log     *zap.SugaredLogger
	repo    repository.Repository
	scanner *scanner.Scanner
	metrics *metrics.DedupMetrics
	timeout time.Duration
	opts    Options
	now     func() time.Time

	jobMu sync.Mutex
	job   entities.ScanJob
	jobWG sync.WaitGroup
}

// New constructs a new usecase layer with its dependencies.
func New(
	log *zap.SugaredLogger,
	ctx context.Context,
	repo repository.Repository,
	m *metrics.DedupMetrics,
	timeout time.Duration,
	opts Options,
) *Usecase {
	return &Usecase{
		ctx:     ctx,
		log:     log.Named("usecase"),
		repo:    repo,
		scanner: scanner.New(log, repo, repo, m, opts.ScanWorkers),
		metrics: m,
		timeout: timeout,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
		job:     entities.ScanJob{State: entities.ScanJobIdle},
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
