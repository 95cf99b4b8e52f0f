package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"member-dedup/internal/entities"
	"member-dedup/internal/repository"

	"github.com/google/uuid"
)

const mergedNote = "Members successfully merged"

// Merge consolidates a pending pair into cfg.PrimaryMemberID. Relationship transfer failures
// do not fail the merge; they are reported through MergeHistory.Warning.
func (u *Usecase) Merge(ctx context.Context, pairID string, cfg entities.MergeConfig, actor string) (*entities.MergeHistory, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	actor = strings.TrimSpace(actor)
	if err := validateMerge(pairID, cfg, actor); err != nil {
		return nil, err
	}

	start := time.Now()
	var history *entities.MergeHistory
	err := u.repo.RunInTx(ctx, func(ctx context.Context, tx repository.MergeTx) error {
		h, err := u.mergeInTx(ctx, tx, pairID, cfg, actor)
		if err != nil {
			return err
		}
		history = h
		return nil
	})
	u.metrics.ObserveMerge(time.Since(start), err)
	if err != nil {
		u.log.Errorw("merge failed", "pair_id", pairID, "primary_member_id", cfg.PrimaryMemberID, "error", err)
		return nil, err
	}

	for _, t := range history.Transfers {
		if !t.Attempted {
			continue
		}
		var terr error
		if !t.Succeeded {
			terr = errors.New(t.Error)
		}
		u.metrics.RecordTransfer(string(t.Category), t.Moved, terr)
	}

	if w := history.Warning(); w != nil {
		u.log.Warnw("merge completed with failed relationship transfers",
			"merge_id", history.ID,
			"pair_id", pairID,
			"warning", w.Error(),
		)
	}
	u.log.Infow("members merged",
		"merge_id", history.ID,
		"pair_id", pairID,
		"kept_member_id", history.KeptMemberID,
		"deleted_member_id", history.DeletedMemberID,
		"performed_by", actor,
	)
	return history, nil
}

func validateMerge(pairID string, cfg entities.MergeConfig, actor string) error {
	if strings.TrimSpace(pairID) == "" {
		return fmt.Errorf("%w: pair id is required", entities.ErrInvalidArgument)
	}
	if actor == "" {
		return fmt.Errorf("%w: performed_by is required", entities.ErrInvalidArgument)
	}
	if strings.TrimSpace(cfg.PrimaryMemberID) == "" {
		return fmt.Errorf("%w: primary_member_id is required", entities.ErrInvalidArgument)
	}
	for field := range cfg.FieldsToKeep {
		if !entities.IsMergeableField(field) {
			return fmt.Errorf("%w: unknown field %q", entities.ErrInvalidArgument, field)
		}
	}
	return nil
}

func (u *Usecase) mergeInTx(
	ctx context.Context,
	tx repository.MergeTx,
	pairID string,
	cfg entities.MergeConfig,
	actor string,
) (*entities.MergeHistory, error) {
	pair, err := tx.LockPair(ctx, pairID)
	if err != nil {
		return nil, err
	}
	if pair.Status != entities.StatusPending {
		return nil, fmt.Errorf("%w: duplicate pair %s is %s", entities.ErrConflict, pairID, pair.Status)
	}
	if !pair.Contains(cfg.PrimaryMemberID) {
		return nil, fmt.Errorf("%w: member %s is not part of pair %s", entities.ErrInvalidArgument, cfg.PrimaryMemberID, pairID)
	}
	primaryID := cfg.PrimaryMemberID
	secondaryID := pair.Other(primaryID)

	members, err := tx.LockMembers(ctx, primaryID, secondaryID)
	if err != nil {
		return nil, err
	}
	primary, ok := members[primaryID]
	if !ok {
		return nil, fmt.Errorf("%w: member %s", entities.ErrNotFound, primaryID)
	}
	secondary, ok := members[secondaryID]
	if !ok {
		return nil, fmt.Errorf("%w: member %s", entities.ErrNotFound, secondaryID)
	}

	now := u.now()
	changed := reconcileFields(&primary, secondary, cfg.FieldsToKeep)

	var cpdTotal float64
	sumCPD := cfg.Relationships.SumCPDPoints
	if sumCPD {
		cpdTotal, err = u.cpdTotal(ctx, tx, primaryID, secondaryID)
		if err != nil {
			u.log.Warnw("cpd points not summed", "pair_id", pairID, "error", err)
			sumCPD = false
		}
	}

	transfers := u.transferRelationships(ctx, tx, cfg.Relationships, secondaryID, primaryID)
	for _, t := range transfers {
		if t.Category == entities.CategoryCPDActivities && t.Succeeded && sumCPD {
			primary.CPDPointsTotal = cpdTotal
			changed = true
		}
	}

	if changed {
		primary.UpdatedAt = now
		if err := tx.UpdateMember(ctx, primary); err != nil {
			return nil, fmt.Errorf("update primary member: %w", err)
		}
	}

	history := entities.MergeHistory{
		ID:              uuid.NewString(),
		PairID:          pairID,
		KeptMemberID:    primaryID,
		DeletedMemberID: secondaryID,
		DeletedMember:   secondary,
		Config:          cfg,
		Transfers:       transfers,
		PerformedBy:     actor,
		PerformedAt:     now,
		UndoDeadline:    now.Add(u.opts.UndoWindow),
	}
	if err := tx.InsertMergeHistory(ctx, history); err != nil {
		return nil, fmt.Errorf("record merge history: %w", err)
	}
	if err := tx.DeleteMember(ctx, secondaryID); err != nil {
		return nil, fmt.Errorf("delete secondary member: %w", err)
	}
	if err := tx.MarkPairMerged(ctx, pairID, actor, mergedNote, now); err != nil {
		return nil, err
	}
	return &history, nil
}

// reconcileFields copies secondary values into primary for every field marked false.
// Empty secondary values never overwrite the primary.
func reconcileFields(primary *entities.Member, secondary entities.Member, keep map[string]bool) bool {
	changed := false
	for _, field := range entities.MergeableFields() {
		keepPrimary, ok := keep[field]
		if !ok || keepPrimary {
			continue
		}
		value, _ := secondary.Field(field)
		if strings.TrimSpace(value) == "" {
			continue
		}
		if current, _ := primary.Field(field); current == value {
			continue
		}
		primary.SetField(field, value)
		changed = true
	}
	return changed
}

func (u *Usecase) cpdTotal(ctx context.Context, tx repository.MergeTx, primaryID, secondaryID string) (float64, error) {
	a, err := tx.SumRelationship(ctx, entities.CategoryCPDActivities, primaryID)
	if err != nil {
		return 0, err
	}
	b, err := tx.SumRelationship(ctx, entities.CategoryCPDActivities, secondaryID)
	if err != nil {
		return 0, err
	}
	return a + b, nil
}

// transferRelationships attempts every enabled category independently and reports one
// outcome per known category.
func (u *Usecase) transferRelationships(
	ctx context.Context,
	tx repository.MergeTx,
	policy entities.RelationshipPolicy,
	from, to string,
) []entities.TransferOutcome {
	enabled := make(map[entities.RelationshipCategory]bool)
	for _, c := range policy.Enabled() {
		enabled[c] = true
	}

	outcomes := make([]entities.TransferOutcome, 0, len(entities.AllCategories()))
	for _, category := range entities.AllCategories() {
		outcome := entities.TransferOutcome{Category: category}
		if !enabled[category] {
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.Attempted = true
		moved, err := tx.TransferRelationship(ctx, category, from, to)
		if err != nil {
			outcome.Error = err.Error()
			u.log.Warnw("relationship transfer failed",
				"category", category,
				"from_member_id", from,
				"to_member_id", to,
				"error", err,
			)
		} else {
			outcome.Succeeded = true
			outcome.Moved = moved
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
