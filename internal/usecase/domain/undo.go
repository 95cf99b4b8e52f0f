package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"member-dedup/internal/entities"
	"member-dedup/internal/repository"
)

// Undo restores the member deleted by a merge. Relationships that were repointed stay with
// the kept member and the pair stays merged.
func (u *Usecase) Undo(ctx context.Context, historyID, actor string) (history *entities.MergeHistory, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer func() { u.metrics.RecordUndo(err) }()

	actor = strings.TrimSpace(actor)
	if strings.TrimSpace(historyID) == "" {
		return nil, fmt.Errorf("%w: merge history id is required", entities.ErrInvalidArgument)
	}
	if actor == "" {
		return nil, fmt.Errorf("%w: undone_by is required", entities.ErrInvalidArgument)
	}

	err = u.repo.RunInTx(ctx, func(ctx context.Context, tx repository.MergeTx) error {
		h, err := tx.LockMergeHistory(ctx, historyID)
		if err != nil {
			return err
		}
		if h.Undone {
			return fmt.Errorf("%w: merge %s is already undone", entities.ErrConflict, historyID)
		}
		now := u.now()
		if now.After(h.UndoDeadline) {
			return fmt.Errorf("%w: merge %s could be undone until %s", entities.ErrExpired, historyID, h.UndoDeadline.Format(time.RFC3339))
		}

		if _, err := tx.LockMembers(ctx, h.KeptMemberID, h.DeletedMemberID); err != nil {
			return err
		}
		if err := tx.InsertMember(ctx, h.DeletedMember); err != nil {
			return fmt.Errorf("restore member %s: %w", h.DeletedMemberID, err)
		}
		if err := tx.MarkHistoryUndone(ctx, historyID, actor, now); err != nil {
			return err
		}

		h.Undone = true
		h.UndoneBy = actor
		h.UndoneAt = &now
		history = h
		return nil
	})
	if err != nil {
		u.log.Errorw("undo failed", "merge_id", historyID, "error", err)
		return nil, err
	}

	u.log.Infow("merge undone",
		"merge_id", historyID,
		"restored_member_id", history.DeletedMemberID,
		"undone_by", actor,
	)
	return history, nil
}

// GetMergeHistory returns one merge history entry.
func (u *Usecase) GetMergeHistory(ctx context.Context, historyID string) (*entities.MergeHistory, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if strings.TrimSpace(historyID) == "" {
		return nil, fmt.Errorf("%w: merge history id is required", entities.ErrInvalidArgument)
	}
	return u.repo.GetMergeHistory(ctx, historyID)
}

// ListMergeHistory lists merges where memberID was kept or deleted, newest first.
func (u *Usecase) ListMergeHistory(ctx context.Context, memberID string, limit int) ([]entities.MergeHistory, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", entities.ErrInvalidArgument)
	}
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return u.repo.ListMergeHistory(ctx, strings.TrimSpace(memberID), limit)
}
