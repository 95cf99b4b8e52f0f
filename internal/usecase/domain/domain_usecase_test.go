package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"member-dedup/internal/entities"
	"member-dedup/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type repoMock struct {
	mock.Mock
	tx repository.MergeTx
}

var _ repository.Repository = (*repoMock)(nil)

func (m *repoMock) OnStart(_ context.Context) error { return nil }
func (m *repoMock) OnStop(_ context.Context) error  { return nil }

func (m *repoMock) GetMember(ctx context.Context, id string) (*entities.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *repoMock) ListMembers(ctx context.Context) ([]entities.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Member), args.Error(1)
}

func (m *repoMock) InsertMember(ctx context.Context, member entities.Member) (*entities.Member, error) {
	args := m.Called(ctx, member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *repoMock) CountMembers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *repoMock) InsertDependent(ctx context.Context, d entities.Dependent) error {
	return m.Called(ctx, d).Error(0)
}

func (m *repoMock) CountRelationship(ctx context.Context, category entities.RelationshipCategory, memberID string) (int64, error) {
	args := m.Called(ctx, category, memberID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *repoMock) SumRelationship(ctx context.Context, category entities.RelationshipCategory, memberID string) (float64, error) {
	args := m.Called(ctx, category, memberID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *repoMock) UpsertPairs(ctx context.Context, candidates []entities.DuplicateCandidate) ([]entities.DuplicatePair, error) {
	args := m.Called(ctx, candidates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.DuplicatePair), args.Error(1)
}

func (m *repoMock) GetPair(ctx context.Context, id string) (*entities.DuplicatePair, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DuplicatePair), args.Error(1)
}

func (m *repoMock) ListPairs(ctx context.Context, filter entities.DuplicateFilter) ([]entities.DuplicatePair, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.DuplicatePair), args.Error(1)
}

func (m *repoMock) MarkReviewed(
	ctx context.Context,
	id string,
	status entities.DuplicateStatus,
	reviewer, notes string,
	at time.Time,
) (*entities.DuplicatePair, error) {
	args := m.Called(ctx, id, status, reviewer, notes, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DuplicatePair), args.Error(1)
}

func (m *repoMock) QueueStats(ctx context.Context) (entities.QueueStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return entities.QueueStats{}, args.Error(1)
	}
	return args.Get(0).(entities.QueueStats), args.Error(1)
}

func (m *repoMock) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.MergeTx) error) error {
	m.Called(ctx)
	return fn(ctx, m.tx)
}

func (m *repoMock) GetMergeHistory(ctx context.Context, id string) (*entities.MergeHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MergeHistory), args.Error(1)
}

func (m *repoMock) ListMergeHistory(ctx context.Context, memberID string, limit int) ([]entities.MergeHistory, error) {
	args := m.Called(ctx, memberID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.MergeHistory), args.Error(1)
}

type txMock struct{ mock.Mock }

var _ repository.MergeTx = (*txMock)(nil)

func (m *txMock) LockPair(ctx context.Context, pairID string) (*entities.DuplicatePair, error) {
	args := m.Called(ctx, pairID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DuplicatePair), args.Error(1)
}

func (m *txMock) LockMembers(ctx context.Context, ids ...string) (map[string]entities.Member, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]entities.Member), args.Error(1)
}

func (m *txMock) UpdateMember(ctx context.Context, member entities.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *txMock) InsertMember(ctx context.Context, member entities.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *txMock) DeleteMember(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *txMock) TransferRelationship(ctx context.Context, category entities.RelationshipCategory, from, to string) (int64, error) {
	args := m.Called(ctx, category, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *txMock) SumRelationship(ctx context.Context, category entities.RelationshipCategory, memberID string) (float64, error) {
	args := m.Called(ctx, category, memberID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *txMock) MarkPairMerged(ctx context.Context, pairID, actor, notes string, at time.Time) error {
	return m.Called(ctx, pairID, actor, notes, at).Error(0)
}

func (m *txMock) InsertMergeHistory(ctx context.Context, h entities.MergeHistory) error {
	return m.Called(ctx, h).Error(0)
}

func (m *txMock) LockMergeHistory(ctx context.Context, id string) (*entities.MergeHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MergeHistory), args.Error(1)
}

func (m *txMock) MarkHistoryUndone(ctx context.Context, id, actor string, at time.Time) error {
	return m.Called(ctx, id, actor, at).Error(0)
}

func newMockUsecase(repo *repoMock) *Usecase {
	return New(zap.NewNop().Sugar(), context.Background(), repo, nil, time.Second, Options{
		DefaultThreshold: 50,
		UndoWindow:       30 * 24 * time.Hour,
		ScanWorkers:      1,
	})
}

func pendingPair() *entities.DuplicatePair {
	return &entities.DuplicatePair{ID: "p1", Member1ID: "m1", Member2ID: "m2", Score: 80, Status: entities.StatusPending}
}

func TestUsecase_MergeValidation(t *testing.T) {
	repo := &repoMock{}
	uc := newMockUsecase(repo)
	ctx := context.Background()

	_, err := uc.Merge(ctx, "p1", entities.MergeConfig{PrimaryMemberID: "m1"}, "")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	_, err = uc.Merge(ctx, "p1", entities.MergeConfig{}, "admin")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	_, err = uc.Merge(ctx, "p1", entities.MergeConfig{
		PrimaryMemberID: "m1",
		FieldsToKeep:    map[string]bool{"password": false},
	}, "admin")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	repo.AssertNotCalled(t, "RunInTx", mock.Anything)
}

func TestUsecase_MergePrimaryOutsidePair(t *testing.T) {
	tx := &txMock{}
	repo := &repoMock{tx: tx}
	uc := newMockUsecase(repo)

	repo.On("RunInTx", mock.Anything).Return()
	tx.On("LockPair", mock.Anything, "p1").Return(pendingPair(), nil)

	_, err := uc.Merge(context.Background(), "p1", entities.MergeConfig{PrimaryMemberID: "m9"}, "admin")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
	tx.AssertNotCalled(t, "LockMembers", mock.Anything, mock.Anything)
}

func TestUsecase_MergeRejectsReviewedPair(t *testing.T) {
	tx := &txMock{}
	repo := &repoMock{tx: tx}
	uc := newMockUsecase(repo)

	reviewed := pendingPair()
	reviewed.Status = entities.StatusSkipped
	repo.On("RunInTx", mock.Anything).Return()
	tx.On("LockPair", mock.Anything, "p1").Return(reviewed, nil)

	_, err := uc.Merge(context.Background(), "p1", entities.MergeConfig{PrimaryMemberID: "m1"}, "admin")
	require.ErrorIs(t, err, entities.ErrConflict)
}

func TestUsecase_MergeMissingMember(t *testing.T) {
	tx := &txMock{}
	repo := &repoMock{tx: tx}
	uc := newMockUsecase(repo)

	repo.On("RunInTx", mock.Anything).Return()
	tx.On("LockPair", mock.Anything, "p1").Return(pendingPair(), nil)
	tx.On("LockMembers", mock.Anything, []string{"m1", "m2"}).
		Return(map[string]entities.Member{"m1": {ID: "m1"}}, nil)

	_, err := uc.Merge(context.Background(), "p1", entities.MergeConfig{PrimaryMemberID: "m1"}, "admin")
	require.ErrorIs(t, err, entities.ErrNotFound)
	tx.AssertNotCalled(t, "DeleteMember", mock.Anything, mock.Anything)
}

func TestUsecase_MergePartialTransfer(t *testing.T) {
	tx := &txMock{}
	repo := &repoMock{tx: tx}
	uc := newMockUsecase(repo)
	ctx := context.Background()

	primary := entities.Member{ID: "m1", FirstName: "John", LastName: "Smith", Email: ""}
	secondary := entities.Member{ID: "m2", FirstName: "Jon", LastName: "Smith", Email: "jon@acme.com"}

	repo.On("RunInTx", mock.Anything).Return()
	tx.On("LockPair", mock.Anything, "p1").Return(pendingPair(), nil)
	tx.On("LockMembers", mock.Anything, []string{"m1", "m2"}).
		Return(map[string]entities.Member{"m1": primary, "m2": secondary}, nil)
	tx.On("SumRelationship", mock.Anything, entities.CategoryCPDActivities, "m1").Return(3.0, nil)
	tx.On("SumRelationship", mock.Anything, entities.CategoryCPDActivities, "m2").Return(4.5, nil)
	tx.On("TransferRelationship", mock.Anything, entities.CategoryCPDActivities, "m2", "m1").Return(int64(2), nil)
	tx.On("TransferRelationship", mock.Anything, entities.CategoryEventRegistrations, "m2", "m1").
		Return(int64(0), errors.New("lock timeout"))
	tx.On("TransferRelationship", mock.Anything, entities.CategoryPayments, "m2", "m1").Return(int64(1), nil)
	tx.On("UpdateMember", mock.Anything, mock.MatchedBy(func(m entities.Member) bool {
		return m.ID == "m1" && m.FirstName == "John" && m.Email == "jon@acme.com" && m.CPDPointsTotal == 7.5
	})).Return(nil)
	tx.On("InsertMergeHistory", mock.Anything, mock.MatchedBy(func(h entities.MergeHistory) bool {
		return h.KeptMemberID == "m1" && h.DeletedMemberID == "m2" && h.DeletedMember.Email == "jon@acme.com"
	})).Return(nil)
	tx.On("DeleteMember", mock.Anything, "m2").Return(nil)
	tx.On("MarkPairMerged", mock.Anything, "p1", "admin", mergedNote, mock.Anything).Return(nil)

	history, err := uc.Merge(ctx, "p1", entities.MergeConfig{
		PrimaryMemberID: "m1",
		FieldsToKeep:    map[string]bool{entities.FieldFirstName: true, entities.FieldEmail: false},
		Relationships: entities.RelationshipPolicy{
			MergeCPDActivities:      true,
			MergeEventRegistrations: true,
			MergePayments:           true,
			SumCPDPoints:            true,
		},
	}, "admin")
	require.NoError(t, err)
	require.NotNil(t, history)
	require.Len(t, history.Transfers, 3)
	require.Equal(t, int64(2), history.Transfers[0].Moved)
	require.True(t, history.Transfers[0].Succeeded)
	require.False(t, history.Transfers[1].Succeeded)
	require.Equal(t, "lock timeout", history.Transfers[1].Error)
	require.True(t, history.UndoDeadline.After(history.PerformedAt))

	warning := history.Warning()
	require.NotNil(t, warning)
	require.ErrorIs(t, warning, entities.ErrPartialTransfer)
	require.Len(t, warning.Failures, 1)
	require.Equal(t, entities.CategoryEventRegistrations, warning.Failures[0].Category)

	tx.AssertExpectations(t)
}

func TestUsecase_MergeSkipsDisabledCategories(t *testing.T) {
	tx := &txMock{}
	repo := &repoMock{tx: tx}
	uc := newMockUsecase(repo)

	member1 := entities.Member{ID: "m1", FirstName: "Ann"}
	member2 := entities.Member{ID: "m2", FirstName: "Anne"}

	repo.On("RunInTx", mock.Anything).Return()
	tx.On("LockPair", mock.Anything, "p1").Return(pendingPair(), nil)
	tx.On("LockMembers", mock.Anything, []string{"m2", "m1"}).
		Return(map[string]entities.Member{"m1": member1, "m2": member2}, nil)
	tx.On("TransferRelationship", mock.Anything, entities.CategoryPayments, "m1", "m2").Return(int64(3), nil)
	tx.On("InsertMergeHistory", mock.Anything, mock.Anything).Return(nil)
	tx.On("DeleteMember", mock.Anything, "m1").Return(nil)
	tx.On("MarkPairMerged", mock.Anything, "p1", "admin", mergedNote, mock.Anything).Return(nil)

	history, err := uc.Merge(context.Background(), "p1", entities.MergeConfig{
		PrimaryMemberID: "m2",
		Relationships:   entities.RelationshipPolicy{MergePayments: true},
	}, "admin")
	require.NoError(t, err)
	require.Nil(t, history.Warning())
	require.False(t, history.Transfers[0].Attempted)
	require.False(t, history.Transfers[1].Attempted)
	require.True(t, history.Transfers[2].Succeeded)

	tx.AssertNotCalled(t, "UpdateMember", mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "SumRelationship", mock.Anything, mock.Anything, mock.Anything)
}

func TestUsecase_MarkReviewedValidation(t *testing.T) {
	repo := &repoMock{}
	uc := newMockUsecase(repo)
	ctx := context.Background()

	_, err := uc.MarkReviewed(ctx, "p1", entities.StatusMerged, "rev", "")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	_, err = uc.MarkReviewed(ctx, "p1", entities.StatusPending, "rev", "")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	_, err = uc.MarkReviewed(ctx, "p1", entities.StatusSkipped, " ", "")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)

	repo.AssertNotCalled(t, "MarkReviewed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUsecase_MarkReviewedDelegates(t *testing.T) {
	repo := &repoMock{}
	uc := newMockUsecase(repo)

	expected := pendingPair()
	expected.Status = entities.StatusNotDuplicate
	repo.On("MarkReviewed", mock.Anything, "p1", entities.StatusNotDuplicate, "rev", "different people", mock.Anything).
		Return(expected, nil)

	pair, err := uc.MarkReviewed(context.Background(), "p1", entities.StatusNotDuplicate, "rev", "different people")
	require.NoError(t, err)
	require.Equal(t, expected, pair)
	repo.AssertExpectations(t)
}

func TestUsecase_ListDuplicatesClampsLimit(t *testing.T) {
	repo := &repoMock{}
	uc := newMockUsecase(repo)
	ctx := context.Background()

	repo.On("ListPairs", mock.Anything, entities.DuplicateFilter{MinScore: 60, Limit: maxListLimit}).
		Return([]entities.DuplicatePair{}, nil)

	_, err := uc.ListDuplicates(ctx, entities.DuplicateFilter{MinScore: 60, Limit: 10_000})
	require.NoError(t, err)

	_, err = uc.ListDuplicates(ctx, entities.DuplicateFilter{MinScore: 101})
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
	repo.AssertNumberOfCalls(t, "ListPairs", 1)
}

func TestUsecase_UndoExpired(t *testing.T) {
	tx := &txMock{}
	repo := &repoMock{tx: tx}
	uc := newMockUsecase(repo)

	performed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return performed.Add(31 * 24 * time.Hour) }

	repo.On("RunInTx", mock.Anything).Return()
	tx.On("LockMergeHistory", mock.Anything, "h1").Return(&entities.MergeHistory{
		ID:              "h1",
		KeptMemberID:    "m1",
		DeletedMemberID: "m2",
		PerformedAt:     performed,
		UndoDeadline:    performed.Add(30 * 24 * time.Hour),
	}, nil)

	_, err := uc.Undo(context.Background(), "h1", "admin")
	require.ErrorIs(t, err, entities.ErrExpired)
	tx.AssertNotCalled(t, "InsertMember", mock.Anything, mock.Anything)
}

func TestUsecase_UndoValidation(t *testing.T) {
	repo := &repoMock{}
	uc := newMockUsecase(repo)

	_, err := uc.Undo(context.Background(), "", "admin")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
	_, err = uc.Undo(context.Background(), "h1", "")
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
	repo.AssertNotCalled(t, "RunInTx", mock.Anything)
}
