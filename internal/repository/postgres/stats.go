package postgres

import (
	"context"
	"fmt"

	"member-dedup/internal/entities"
)

// QueueStats aggregates the duplicate queue and merge history.
func (p *Postgres) QueueStats(ctx context.Context) (entities.QueueStats, error) {
	var res entities.QueueStats

	rows, err := p.db.Query(ctx, countPairsByStatus)
	if err != nil {
		p.log.Errorw("failed to count pairs by status", "error", err)
		return res, fmt.Errorf("count pairs: %w", err)
	}
	counts := make(map[entities.DuplicateStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return res, fmt.Errorf("scan status count: %w", err)
		}
		counts[entities.DuplicateStatus(status)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("iterate status counts: %w", err)
	}

	for _, s := range entities.AllStatuses() {
		res.ByStatus = append(res.ByStatus, entities.StatusStat{Status: s, Count: counts[s]})
		res.Total += counts[s]
	}

	if err := p.db.QueryRow(ctx, pendingMeanScoreQuery).Scan(&res.PendingMeanScore); err != nil {
		return res, fmt.Errorf("pending mean score: %w", err)
	}
	if err := p.db.QueryRow(ctx, countMergeHistoryQuery).Scan(&res.MergesTotal, &res.MergesUndone); err != nil {
		return res, fmt.Errorf("count merges: %w", err)
	}
	return res, nil
}
