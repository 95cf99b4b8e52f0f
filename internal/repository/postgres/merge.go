package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"member-dedup/internal/entities"
	"member-dedup/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const historyColumns = `id, pair_id, kept_member_id, deleted_member_id, deleted_member_data, merge_data,
	relationships_transferred, performed_by, performed_at, undo_deadline, undone, undone_by, undone_at`

const insertHistoryQuery = `INSERT INTO member_merge_history(id, pair_id, kept_member_id, deleted_member_id,
	deleted_member_data, merge_data, relationships_transferred, performed_by, performed_at, undo_deadline)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

const (
	markPairMergedQuery    = `UPDATE member_duplicates SET status='merged', reviewed_by=$2, reviewed_at=$3, review_notes=$4, updated_at=$3 WHERE id=$1 AND status='pending'`
	selectHistoryQuery     = `SELECT ` + historyColumns + ` FROM member_merge_history WHERE id=$1`
	selectHistoryForUpdate = `SELECT ` + historyColumns + ` FROM member_merge_history WHERE id=$1 FOR UPDATE`
	markHistoryUndoneQuery = `UPDATE member_merge_history SET undone=true, undone_by=$2, undone_at=$3 WHERE id=$1 AND undone=false`
)

const listHistoryQuery = `SELECT ` + historyColumns + ` FROM member_merge_history
	WHERE $1 = '' OR kept_member_id=$1 OR deleted_member_id=$1
	ORDER BY performed_at DESC, id LIMIT $2`

// RunInTx executes fn inside a single database transaction.
func (p *Postgres) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.MergeTx) error) error {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &mergeTx{tx: tx, log: p.log}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetMergeHistory returns a merge history entry by id.
func (p *Postgres) GetMergeHistory(ctx context.Context, id string) (*entities.MergeHistory, error) {
	h, err := scanHistory(p.db.QueryRow(ctx, selectHistoryQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: merge history %s", entities.ErrNotFound, id)
		}
		p.log.Errorw("failed to get merge history", "error", err, "history_id", id)
		return nil, fmt.Errorf("get merge history: %w", err)
	}
	return h, nil
}

// ListMergeHistory returns merge history entries touching memberID, newest first.
func (p *Postgres) ListMergeHistory(ctx context.Context, memberID string, limit int) ([]entities.MergeHistory, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := p.db.Query(ctx, listHistoryQuery, memberID, lim)
	if err != nil {
		p.log.Errorw("failed to list merge history", "error", err, "member_id", memberID)
		return nil, fmt.Errorf("list merge history: %w", err)
	}
	defer rows.Close()

	res := make([]entities.MergeHistory, 0)
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan merge history: %w", err)
		}
		res = append(res, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merge history: %w", err)
	}
	return res, nil
}

type mergeTx struct {
	tx  pgx.Tx
	log *zap.SugaredLogger
}

var _ repository.MergeTx = (*mergeTx)(nil)

func (t *mergeTx) LockPair(ctx context.Context, pairID string) (*entities.DuplicatePair, error) {
	pair, err := scanPair(t.tx.QueryRow(ctx, selectPairForUpdate, pairID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: duplicate pair %s", entities.ErrNotFound, pairID)
		}
		return nil, fmt.Errorf("lock pair: %w", err)
	}
	return pair, nil
}

// LockMembers takes a transaction-scoped advisory lock per member id, in sorted order,
// before row-locking the members that still exist. Merge and undo both go through here.
func (t *mergeTx) LockMembers(ctx context.Context, ids ...string) (map[string]entities.Member, error) {
	sorted := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	for _, id := range sorted {
		if _, err := t.tx.Exec(ctx, advisoryLockQuery, id); err != nil {
			return nil, fmt.Errorf("advisory lock %s: %w", id, err)
		}
	}

	rows, err := t.tx.Query(ctx, lockMembersQuery, sorted)
	if err != nil {
		return nil, fmt.Errorf("lock members: %w", err)
	}
	defer rows.Close()

	res := make(map[string]entities.Member, len(sorted))
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		res[m.ID] = *m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return res, nil
}

func (t *mergeTx) UpdateMember(ctx context.Context, m entities.Member) error {
	return updateMember(ctx, t.tx, m)
}

func (t *mergeTx) InsertMember(ctx context.Context, m entities.Member) error {
	return insertMember(ctx, t.tx, m)
}

func (t *mergeTx) DeleteMember(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, deleteMemberQuery, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: member %s", entities.ErrNotFound, id)
	}
	return nil
}

// TransferRelationship runs inside a savepoint so a failed category does not abort the merge.
func (t *mergeTx) TransferRelationship(ctx context.Context, category entities.RelationshipCategory, from, to string) (int64, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("savepoint: %w", err)
	}
	moved, err := transferRelationship(ctx, sp, category, from, to)
	if err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			t.log.Errorw("failed to roll back savepoint", "error", rbErr, "category", category)
		}
		return 0, err
	}
	if err := sp.Commit(ctx); err != nil {
		return 0, fmt.Errorf("release savepoint: %w", err)
	}
	return moved, nil
}

func (t *mergeTx) SumRelationship(ctx context.Context, category entities.RelationshipCategory, memberID string) (float64, error) {
	return sumRelationship(ctx, t.tx, category, memberID)
}

func (t *mergeTx) MarkPairMerged(ctx context.Context, pairID, actor, notes string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, markPairMergedQuery, pairID, actor, at, notes)
	if err != nil {
		return fmt.Errorf("mark pair merged: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: duplicate pair %s is not pending", entities.ErrConflict, pairID)
	}
	return nil
}

func (t *mergeTx) InsertMergeHistory(ctx context.Context, h entities.MergeHistory) error {
	transfers := h.Transfers
	if transfers == nil {
		transfers = []entities.TransferOutcome{}
	}
	_, err := t.tx.Exec(ctx, insertHistoryQuery,
		h.ID, h.PairID, h.KeptMemberID, h.DeletedMemberID,
		h.DeletedMember, h.Config, transfers, h.PerformedBy, h.PerformedAt, h.UndoDeadline,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: merge history %s already exists", entities.ErrConflict, h.ID)
		}
		return fmt.Errorf("insert merge history: %w", err)
	}
	return nil
}

func (t *mergeTx) LockMergeHistory(ctx context.Context, id string) (*entities.MergeHistory, error) {
	h, err := scanHistory(t.tx.QueryRow(ctx, selectHistoryForUpdate, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: merge history %s", entities.ErrNotFound, id)
		}
		return nil, fmt.Errorf("lock merge history: %w", err)
	}
	return h, nil
}

func (t *mergeTx) MarkHistoryUndone(ctx context.Context, id, actor string, at time.Time) error {
	tag, err := t.tx.Exec(ctx, markHistoryUndoneQuery, id, actor, at)
	if err != nil {
		return fmt.Errorf("mark history undone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: merge history %s already undone", entities.ErrConflict, id)
	}
	return nil
}

func scanHistory(row pgx.Row) (*entities.MergeHistory, error) {
	var (
		h        entities.MergeHistory
		undoneBy *string
	)
	if err := row.Scan(
		&h.ID, &h.PairID, &h.KeptMemberID, &h.DeletedMemberID, &h.DeletedMember, &h.Config,
		&h.Transfers, &h.PerformedBy, &h.PerformedAt, &h.UndoDeadline, &h.Undone, &undoneBy, &h.UndoneAt,
	); err != nil {
		return nil, err
	}
	h.UndoneBy = deref(undoneBy)
	return &h, nil
}
