package domain

import (
	"context"
	"fmt"
	"strings"

	"member-dedup/internal/entities"
)

// ListDuplicates returns queued pairs ordered by score.
func (u *Usecase) ListDuplicates(ctx context.Context, filter entities.DuplicateFilter) ([]entities.DuplicatePair, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if filter.MinScore < 0 || filter.MinScore > 100 {
		return nil, fmt.Errorf("%w: min_score %d outside 0..100", entities.ErrInvalidArgument, filter.MinScore)
	}
	if filter.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", entities.ErrInvalidArgument)
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}

	return u.repo.ListPairs(ctx, filter)
}

// GetDuplicate returns one pair.
func (u *Usecase) GetDuplicate(ctx context.Context, pairID string) (*entities.DuplicatePair, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if strings.TrimSpace(pairID) == "" {
		return nil, fmt.Errorf("%w: pair id is required", entities.ErrInvalidArgument)
	}
	return u.repo.GetPair(ctx, pairID)
}

// MarkReviewed records a manual not_duplicate or skipped decision for a pending pair.
func (u *Usecase) MarkReviewed(
	ctx context.Context,
	pairID string,
	decision entities.DuplicateStatus,
	reviewer, notes string,
) (pair *entities.DuplicatePair, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer func() { u.metrics.RecordReview(string(decision), err) }()

	reviewer = strings.TrimSpace(reviewer)
	switch {
	case strings.TrimSpace(pairID) == "":
		return nil, fmt.Errorf("%w: pair id is required", entities.ErrInvalidArgument)
	case reviewer == "":
		return nil, fmt.Errorf("%w: reviewer is required", entities.ErrInvalidArgument)
	case decision == entities.StatusMerged:
		return nil, fmt.Errorf("%w: pairs are marked merged only by a merge", entities.ErrInvalidArgument)
	case !decision.IsReviewDecision():
		return nil, fmt.Errorf("%w: unsupported decision %q", entities.ErrInvalidArgument, decision)
	}

	pair, err = u.repo.MarkReviewed(ctx, pairID, decision, reviewer, notes, u.now())
	if err != nil {
		u.log.Errorw("failed to mark pair reviewed", "pair_id", pairID, "decision", decision, "error", err)
		return nil, err
	}

	u.log.Infow("pair reviewed", "pair_id", pairID, "decision", decision, "reviewer", reviewer)
	return pair, nil
}

// QueueStats returns counts of the review queue and merge history.
func (u *Usecase) QueueStats(ctx context.Context) (entities.QueueStats, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.repo.QueueStats(ctx)
}
