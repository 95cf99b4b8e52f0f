package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"member-dedup/internal/entities"
	"member-dedup/internal/repository"
)

// RunInTx runs fn while holding the store lock and discards its writes when it fails.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.MergeTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.st.clone()
	if err := fn(ctx, &memTx{st: s.st}); err != nil {
		s.st = backup
		return err
	}
	return nil
}

// GetMergeHistory returns a merge history entry by id.
func (s *Store) GetMergeHistory(_ context.Context, id string) (*entities.MergeHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.st.history[id]
	if !ok {
		return nil, fmt.Errorf("%w: merge history %s", entities.ErrNotFound, id)
	}
	return &h, nil
}

// ListMergeHistory returns merge history entries touching memberID, newest first.
func (s *Store) ListMergeHistory(_ context.Context, memberID string, limit int) ([]entities.MergeHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]entities.MergeHistory, 0)
	for _, h := range s.st.history {
		if memberID != "" && h.KeptMemberID != memberID && h.DeletedMemberID != memberID {
			continue
		}
		res = append(res, h)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].PerformedAt.Equal(res[j].PerformedAt) {
			return res[i].PerformedAt.After(res[j].PerformedAt)
		}
		return res[i].ID < res[j].ID
	})
	if limit > 0 && limit < len(res) {
		res = res[:limit]
	}
	return res, nil
}

type memTx struct {
	st *state
}

var _ repository.MergeTx = (*memTx)(nil)

func (t *memTx) LockPair(_ context.Context, pairID string) (*entities.DuplicatePair, error) {
	pair, ok := t.st.pairs[pairID]
	if !ok {
		return nil, fmt.Errorf("%w: duplicate pair %s", entities.ErrNotFound, pairID)
	}
	return &pair, nil
}

func (t *memTx) LockMembers(_ context.Context, ids ...string) (map[string]entities.Member, error) {
	res := make(map[string]entities.Member, len(ids))
	for _, id := range ids {
		if m, ok := t.st.members[id]; ok {
			res[id] = m
		}
	}
	return res, nil
}

func (t *memTx) UpdateMember(_ context.Context, m entities.Member) error {
	if _, ok := t.st.members[m.ID]; !ok {
		return fmt.Errorf("%w: member %s", entities.ErrNotFound, m.ID)
	}
	t.st.members[m.ID] = m
	return nil
}

func (t *memTx) InsertMember(_ context.Context, m entities.Member) error {
	return t.st.insertMember(m)
}

func (t *memTx) DeleteMember(_ context.Context, id string) error {
	if _, ok := t.st.members[id]; !ok {
		return fmt.Errorf("%w: member %s", entities.ErrNotFound, id)
	}
	delete(t.st.members, id)
	return nil
}

func (t *memTx) TransferRelationship(_ context.Context, category entities.RelationshipCategory, from, to string) (int64, error) {
	if _, ok := entities.ParseCategory(string(category)); !ok {
		return 0, fmt.Errorf("%w: unknown relationship category %q", entities.ErrInvalidArgument, category)
	}
	var moved int64
	for id, d := range t.st.dependents {
		if d.Category == category && d.MemberID == from {
			d.MemberID = to
			t.st.dependents[id] = d
			moved++
		}
	}
	return moved, nil
}

func (t *memTx) SumRelationship(_ context.Context, category entities.RelationshipCategory, memberID string) (float64, error) {
	return t.st.sum(category, memberID), nil
}

func (t *memTx) MarkPairMerged(_ context.Context, pairID, actor, notes string, at time.Time) error {
	pair, ok := t.st.pairs[pairID]
	if !ok {
		return fmt.Errorf("%w: duplicate pair %s", entities.ErrNotFound, pairID)
	}
	if pair.Status != entities.StatusPending {
		return fmt.Errorf("%w: duplicate pair %s is not pending", entities.ErrConflict, pairID)
	}
	reviewedAt := at
	pair.Status = entities.StatusMerged
	pair.ReviewedBy = actor
	pair.ReviewedAt = &reviewedAt
	pair.ReviewNotes = notes
	pair.UpdatedAt = at
	t.st.pairs[pairID] = pair
	return nil
}

func (t *memTx) InsertMergeHistory(_ context.Context, h entities.MergeHistory) error {
	if _, exists := t.st.history[h.ID]; exists {
		return fmt.Errorf("%w: merge history %s already exists", entities.ErrConflict, h.ID)
	}
	t.st.history[h.ID] = h
	return nil
}

func (t *memTx) LockMergeHistory(_ context.Context, id string) (*entities.MergeHistory, error) {
	h, ok := t.st.history[id]
	if !ok {
		return nil, fmt.Errorf("%w: merge history %s", entities.ErrNotFound, id)
	}
	return &h, nil
}

func (t *memTx) MarkHistoryUndone(_ context.Context, id, actor string, at time.Time) error {
	h, ok := t.st.history[id]
	if !ok {
		return fmt.Errorf("%w: merge history %s", entities.ErrNotFound, id)
	}
	if h.Undone {
		return fmt.Errorf("%w: merge history %s already undone", entities.ErrConflict, id)
	}
	undoneAt := at
	h.Undone = true
	h.UndoneBy = actor
	h.UndoneAt = &undoneAt
	t.st.history[id] = h
	return nil
}
