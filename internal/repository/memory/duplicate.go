package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"member-dedup/internal/entities"

	"github.com/google/uuid"
)

// UpsertPairs stores scan candidates keyed by their canonical pair.
func (s *Store) UpsertPairs(_ context.Context, candidates []entities.DuplicateCandidate) ([]entities.DuplicatePair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range candidates {
		if c.Member1ID == c.Member2ID {
			return nil, fmt.Errorf("%w: pair of member %s with itself", entities.ErrInvalidArgument, c.Member1ID)
		}
	}

	now := s.now()
	res := make([]entities.DuplicatePair, 0, len(candidates))
	for _, c := range candidates {
		a, b := entities.PairKey(c.Member1ID, c.Member2ID)
		key := pairKey{a, b}

		if id, ok := s.st.pairIDs[key]; ok {
			pair := s.st.pairs[id]
			pair.Score = c.Score
			pair.Detail = c.Detail
			pair.UpdatedAt = now
			s.st.pairs[id] = pair
			res = append(res, pair)
			continue
		}

		pair := entities.DuplicatePair{
			ID:        uuid.NewString(),
			Member1ID: a,
			Member2ID: b,
			Score:     c.Score,
			Detail:    c.Detail,
			Status:    entities.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.st.pairs[pair.ID] = pair
		s.st.pairIDs[key] = pair.ID
		res = append(res, pair)
	}
	return res, nil
}

// GetPair returns a duplicate pair by id.
func (s *Store) GetPair(_ context.Context, id string) (*entities.DuplicatePair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, ok := s.st.pairs[id]
	if !ok {
		return nil, fmt.Errorf("%w: duplicate pair %s", entities.ErrNotFound, id)
	}
	return &pair, nil
}

// ListPairs returns pairs matching filter ordered by descending score.
func (s *Store) ListPairs(_ context.Context, filter entities.DuplicateFilter) ([]entities.DuplicatePair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]entities.DuplicatePair, 0)
	for _, p := range s.st.pairs {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if p.Score < filter.MinScore {
			continue
		}
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Score != res[j].Score {
			return res[i].Score > res[j].Score
		}
		if res[i].Member1ID != res[j].Member1ID {
			return res[i].Member1ID < res[j].Member1ID
		}
		return res[i].Member2ID < res[j].Member2ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(res) {
			return []entities.DuplicatePair{}, nil
		}
		res = res[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(res) {
		res = res[:filter.Limit]
	}
	return res, nil
}

// MarkReviewed applies a review decision to a pending pair.
func (s *Store) MarkReviewed(
	_ context.Context,
	id string,
	status entities.DuplicateStatus,
	reviewer, notes string,
	at time.Time,
) (*entities.DuplicatePair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, ok := s.st.pairs[id]
	if !ok {
		return nil, fmt.Errorf("%w: duplicate pair %s", entities.ErrNotFound, id)
	}
	if pair.Status != entities.StatusPending {
		return nil, fmt.Errorf("%w: duplicate pair %s is %s", entities.ErrConflict, id, pair.Status)
	}
	reviewedAt := at
	pair.Status = status
	pair.ReviewedBy = reviewer
	pair.ReviewedAt = &reviewedAt
	pair.ReviewNotes = notes
	pair.UpdatedAt = at
	s.st.pairs[id] = pair
	return &pair, nil
}

// QueueStats aggregates the duplicate queue and merge history.
func (s *Store) QueueStats(_ context.Context) (entities.QueueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		res        entities.QueueStats
		pendingSum int64
	)
	counts := make(map[entities.DuplicateStatus]int64)
	for _, p := range s.st.pairs {
		counts[p.Status]++
		if p.Status == entities.StatusPending {
			pendingSum += int64(p.Score)
		}
	}
	for _, st := range entities.AllStatuses() {
		res.ByStatus = append(res.ByStatus, entities.StatusStat{Status: st, Count: counts[st]})
		res.Total += counts[st]
	}
	if n := counts[entities.StatusPending]; n > 0 {
		res.PendingMeanScore = float64(pendingSum) / float64(n)
	}
	for _, h := range s.st.history {
		res.MergesTotal++
		if h.Undone {
			res.MergesUndone++
		}
	}
	return res, nil
}
