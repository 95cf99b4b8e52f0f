package usecase

import (
	"context"

	"member-dedup/internal/entities"
)

// ScanUsecaseInterface abstracts duplicate detection runs.
type ScanUsecaseInterface interface {
	DefaultThreshold() int
	ScanAllPairs(ctx context.Context, threshold int) (entities.ScanResult, error)
	ScanForMember(ctx context.Context, memberID string, threshold int) (entities.ScanResult, error)
	StartScanJob(threshold int) (entities.ScanJob, error)
	ScanJobStatus() entities.ScanJob
	WaitScanJobs()
}

// QueueUsecaseInterface abstracts the review queue.
type QueueUsecaseInterface interface {
	ListDuplicates(ctx context.Context, filter entities.DuplicateFilter) ([]entities.DuplicatePair, error)
	GetDuplicate(ctx context.Context, pairID string) (*entities.DuplicatePair, error)
	MarkReviewed(ctx context.Context, pairID string, decision entities.DuplicateStatus, reviewer, notes string) (*entities.DuplicatePair, error)
	QueueStats(ctx context.Context) (entities.QueueStats, error)
}

// MergeUsecaseInterface abstracts merging, undo and the merge audit trail.
type MergeUsecaseInterface interface {
	SuggestMerge(ctx context.Context, pairID string) (*entities.MergeSuggestion, error)
	Merge(ctx context.Context, pairID string, cfg entities.MergeConfig, actor string) (*entities.MergeHistory, error)
	Undo(ctx context.Context, historyID, actor string) (*entities.MergeHistory, error)
	GetMergeHistory(ctx context.Context, historyID string) (*entities.MergeHistory, error)
	ListMergeHistory(ctx context.Context, memberID string, limit int) ([]entities.MergeHistory, error)
}
