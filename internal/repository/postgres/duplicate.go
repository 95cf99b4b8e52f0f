package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"member-dedup/internal/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const pairColumns = `id, member1_id, member2_id, similarity_score, match_details, status,
	reviewed_by, reviewed_at, review_notes, created_at, updated_at`

const upsertPairQuery = `INSERT INTO member_duplicates(id, member1_id, member2_id, similarity_score, match_details, status)
	VALUES ($1,$2,$3,$4,$5,'pending')
	ON CONFLICT (member1_id, member2_id) DO UPDATE
	SET similarity_score=EXCLUDED.similarity_score, match_details=EXCLUDED.match_details, updated_at=NOW()
	RETURNING ` + pairColumns

const updatePairReviewQuery = `UPDATE member_duplicates
	SET status=$2, reviewed_by=$3, reviewed_at=$4, review_notes=$5, updated_at=$4
	WHERE id=$1 AND status='pending'
	RETURNING ` + pairColumns

const (
	selectPairQuery        = `SELECT ` + pairColumns + ` FROM member_duplicates WHERE id=$1`
	selectPairForUpdate    = `SELECT ` + pairColumns + ` FROM member_duplicates WHERE id=$1 FOR UPDATE`
	selectPairStatusQuery  = `SELECT status FROM member_duplicates WHERE id=$1`
	countPairsByStatus     = `SELECT status, COUNT(*) FROM member_duplicates GROUP BY status`
	pendingMeanScoreQuery  = `SELECT COALESCE(AVG(similarity_score), 0)::float8 FROM member_duplicates WHERE status='pending'`
	countMergeHistoryQuery = `SELECT COUNT(*), COUNT(*) FILTER (WHERE undone) FROM member_merge_history`
)

// UpsertPairs stores scan candidates keyed by their canonical pair.
func (p *Postgres) UpsertPairs(ctx context.Context, candidates []entities.DuplicateCandidate) ([]entities.DuplicatePair, error) {
	if len(candidates) == 0 {
		return []entities.DuplicatePair{}, nil
	}

	ordered := make([]entities.DuplicateCandidate, len(candidates))
	copy(ordered, candidates)
	for i := range ordered {
		ordered[i].Member1ID, ordered[i].Member2ID = entities.PairKey(ordered[i].Member1ID, ordered[i].Member2ID)
	}
	// Lock order by pair key keeps concurrent upserts from deadlocking each other.
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Member1ID != ordered[j].Member1ID {
			return ordered[i].Member1ID < ordered[j].Member1ID
		}
		return ordered[i].Member2ID < ordered[j].Member2ID
	})

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		p.log.Errorw("failed to begin upsert transaction", "error", err)
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, c := range ordered {
		batch.Queue(upsertPairQuery, uuid.NewString(), c.Member1ID, c.Member2ID, c.Score, c.Detail)
	}

	results := tx.SendBatch(ctx, batch)
	byKey := make(map[[2]string]entities.DuplicatePair, len(ordered))
	for range ordered {
		pair, err := scanPair(results.QueryRow())
		if err != nil {
			_ = results.Close()
			p.log.Errorw("failed to upsert duplicate pair", "error", err)
			return nil, fmt.Errorf("upsert pair: %w", err)
		}
		byKey[[2]string{pair.Member1ID, pair.Member2ID}] = *pair
	}
	if err := results.Close(); err != nil {
		p.log.Errorw("failed to close upsert batch", "error", err)
		return nil, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		p.log.Errorw("failed to commit duplicate pairs", "error", err, "count", len(ordered))
		return nil, fmt.Errorf("commit upsert: %w", err)
	}

	res := make([]entities.DuplicatePair, 0, len(candidates))
	for _, c := range candidates {
		a, b := entities.PairKey(c.Member1ID, c.Member2ID)
		res = append(res, byKey[[2]string{a, b}])
	}
	p.log.Infow("duplicate pairs upserted", "count", len(res))
	return res, nil
}

// GetPair returns a duplicate pair by id.
func (p *Postgres) GetPair(ctx context.Context, id string) (*entities.DuplicatePair, error) {
	pair, err := scanPair(p.db.QueryRow(ctx, selectPairQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: duplicate pair %s", entities.ErrNotFound, id)
		}
		p.log.Errorw("failed to get duplicate pair", "error", err, "pair_id", id)
		return nil, fmt.Errorf("get pair: %w", err)
	}
	return pair, nil
}

// ListPairs returns pairs matching filter ordered by descending score.
func (p *Postgres) ListPairs(ctx context.Context, filter entities.DuplicateFilter) ([]entities.DuplicatePair, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.MinScore > 0 {
		args = append(args, filter.MinScore)
		where = append(where, fmt.Sprintf("similarity_score>=$%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + pairColumns + ` FROM member_duplicates`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY similarity_score DESC, member1_id, member2_id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := p.db.Query(ctx, sb.String(), args...)
	if err != nil {
		p.log.Errorw("failed to list duplicate pairs", "error", err)
		return nil, fmt.Errorf("list pairs: %w", err)
	}
	defer rows.Close()

	pairs := make([]entities.DuplicatePair, 0)
	for rows.Next() {
		pair, err := scanPair(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, *pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}
	return pairs, nil
}

// MarkReviewed applies a review decision to a pending pair.
func (p *Postgres) MarkReviewed(
	ctx context.Context,
	id string,
	status entities.DuplicateStatus,
	reviewer, notes string,
	at time.Time,
) (*entities.DuplicatePair, error) {
	pair, err := scanPair(p.db.QueryRow(ctx, updatePairReviewQuery, id, string(status), reviewer, at, notes))
	if err == nil {
		p.log.Infow("duplicate pair reviewed", "pair_id", id, "status", status, "reviewer", reviewer)
		return pair, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		p.log.Errorw("failed to review duplicate pair", "error", err, "pair_id", id)
		return nil, fmt.Errorf("review pair: %w", err)
	}

	var current string
	if err := p.db.QueryRow(ctx, selectPairStatusQuery, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: duplicate pair %s", entities.ErrNotFound, id)
		}
		return nil, fmt.Errorf("pair status: %w", err)
	}
	return nil, fmt.Errorf("%w: duplicate pair %s is %s", entities.ErrConflict, id, current)
}

func scanPair(row pgx.Row) (*entities.DuplicatePair, error) {
	var (
		pair       entities.DuplicatePair
		status     string
		reviewedBy *string
		notes      *string
	)
	if err := row.Scan(
		&pair.ID, &pair.Member1ID, &pair.Member2ID, &pair.Score, &pair.Detail, &status,
		&reviewedBy, &pair.ReviewedAt, &notes, &pair.CreatedAt, &pair.UpdatedAt,
	); err != nil {
		return nil, err
	}
	pair.Status = entities.DuplicateStatus(status)
	pair.ReviewedBy = deref(reviewedBy)
	pair.ReviewNotes = deref(notes)
	return &pair, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
