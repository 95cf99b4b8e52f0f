// Package repository contains repository interfaces for persistence layers.
package repository

import (
	"context"
	"time"

	"member-dedup/internal/entities"
)

// Repository aggregates all persistence interfaces.
type Repository interface {
	LifecycleInterface
	MemberInterface
	RelationshipInterface
	DuplicateInterface
	MergeInterface
}

// LifecycleInterface describes storage startup/shutdown hooks.
type LifecycleInterface interface {
	OnStart(_ context.Context) error
	OnStop(_ context.Context) error
}

// MemberInterface exposes member record operations outside of a merge.
type MemberInterface interface {
	GetMember(ctx context.Context, id string) (*entities.Member, error)
	ListMembers(ctx context.Context) ([]entities.Member, error)
	InsertMember(ctx context.Context, m entities.Member) (*entities.Member, error)
	CountMembers(ctx context.Context) (int64, error)
}

// RelationshipInterface exposes read access to dependent records.
type RelationshipInterface interface {
	InsertDependent(ctx context.Context, d entities.Dependent) error
	CountRelationship(ctx context.Context, category entities.RelationshipCategory, memberID string) (int64, error)
	SumRelationship(ctx context.Context, category entities.RelationshipCategory, memberID string) (float64, error)
}

// DuplicateInterface exposes the duplicate pair queue.
type DuplicateInterface interface {
	// UpsertPairs inserts new candidates as pending and refreshes score and detail of known
	// pairs without touching their status.
	UpsertPairs(ctx context.Context, candidates []entities.DuplicateCandidate) ([]entities.DuplicatePair, error)
	GetPair(ctx context.Context, id string) (*entities.DuplicatePair, error)
	ListPairs(ctx context.Context, filter entities.DuplicateFilter) ([]entities.DuplicatePair, error)
	// MarkReviewed moves a pending pair to a terminal review status.
	MarkReviewed(ctx context.Context, id string, status entities.DuplicateStatus, reviewer, notes string, at time.Time) (*entities.DuplicatePair, error)
	QueueStats(ctx context.Context) (entities.QueueStats, error)
}

// MergeTx is the unit of work shared by merge and undo. Every method runs inside one
// transaction; locks taken through it are held until RunInTx returns.
type MergeTx interface {
	LockPair(ctx context.Context, pairID string) (*entities.DuplicatePair, error)
	// LockMembers serializes on each member id and returns the rows that exist.
	LockMembers(ctx context.Context, ids ...string) (map[string]entities.Member, error)
	UpdateMember(ctx context.Context, m entities.Member) error
	InsertMember(ctx context.Context, m entities.Member) error
	DeleteMember(ctx context.Context, id string) error
	// TransferRelationship repoints every record of category from one member to another.
	// A failure leaves the enclosing transaction usable.
	TransferRelationship(ctx context.Context, category entities.RelationshipCategory, from, to string) (int64, error)
	SumRelationship(ctx context.Context, category entities.RelationshipCategory, memberID string) (float64, error)
	MarkPairMerged(ctx context.Context, pairID, actor, notes string, at time.Time) error
	InsertMergeHistory(ctx context.Context, h entities.MergeHistory) error
	LockMergeHistory(ctx context.Context, id string) (*entities.MergeHistory, error)
	MarkHistoryUndone(ctx context.Context, id, actor string, at time.Time) error
}

// MergeInterface exposes transactional merge and undo plus the merge audit trail.
type MergeInterface interface {
	// RunInTx commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx MergeTx) error) error
	GetMergeHistory(ctx context.Context, id string) (*entities.MergeHistory, error)
	// ListMergeHistory returns entries where memberID was kept or deleted, newest first.
	// An empty memberID lists every entry.
	ListMergeHistory(ctx context.Context, memberID string, limit int) ([]entities.MergeHistory, error)
}
