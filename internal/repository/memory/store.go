// Package memory implements the repository in process memory.
//
// A single mutex serializes every operation. RunInTx snapshots the state before calling fn
// and restores the snapshot when fn fails, so merge and undo are atomic here as well.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"member-dedup/internal/entities"
	"member-dedup/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is an in-memory repository.
type Store struct {
	mu  sync.Mutex
	log *zap.SugaredLogger
	st  *state
	now func() time.Time
}

var _ repository.Repository = (*Store)(nil)

type pairKey [2]string

type state struct {
	members    map[string]entities.Member
	dependents map[string]entities.Dependent
	pairs      map[string]entities.DuplicatePair
	pairIDs    map[pairKey]string
	history    map[string]entities.MergeHistory
}

func newState() *state {
	return &state{
		members:    make(map[string]entities.Member),
		dependents: make(map[string]entities.Dependent),
		pairs:      make(map[string]entities.DuplicatePair),
		pairIDs:    make(map[pairKey]string),
		history:    make(map[string]entities.MergeHistory),
	}
}

// clone copies the maps. Stored values are replaced, never mutated in place, so a shallow
// copy of each value is enough.
func (s *state) clone() *state {
	cp := newState()
	for k, v := range s.members {
		cp.members[k] = v
	}
	for k, v := range s.dependents {
		cp.dependents[k] = v
	}
	for k, v := range s.pairs {
		cp.pairs[k] = v
	}
	for k, v := range s.pairIDs {
		cp.pairIDs[k] = v
	}
	for k, v := range s.history {
		cp.history[k] = v
	}
	return cp
}

// New creates an empty in-memory store.
func New(log *zap.SugaredLogger) *Store {
	return &Store{
		log: log.Named("repo.memory"),
		st:  newState(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// OnStart is a no-op.
func (s *Store) OnStart(_ context.Context) error {
	s.log.Infow("memory repository ready")
	return nil
}

// OnStop is a no-op.
func (s *Store) OnStop(_ context.Context) error {
	return nil
}

// GetMember returns a member by id.
func (s *Store) GetMember(_ context.Context, id string) (*entities.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.st.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: member %s", entities.ErrNotFound, id)
	}
	return &m, nil
}

// ListMembers returns every member ordered by id.
func (s *Store) ListMembers(_ context.Context) ([]entities.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]entities.Member, 0, len(s.st.members))
	for _, m := range s.st.members {
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// InsertMember stores a new member, generating an id when none is given.
func (s *Store) InsertMember(_ context.Context, m entities.Member) (*entities.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := s.now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}
	if err := s.st.insertMember(m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMembers returns the population size.
func (s *Store) CountMembers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.st.members)), nil
}

// InsertDependent stores one dependent record.
func (s *Store) InsertDependent(_ context.Context, d entities.Dependent) error {
	if _, ok := entities.ParseCategory(string(d.Category)); !ok {
		return fmt.Errorf("%w: unknown relationship category %q", entities.ErrInvalidArgument, d.Category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, exists := s.st.dependents[d.ID]; exists {
		return fmt.Errorf("%w: dependent %s already exists", entities.ErrConflict, d.ID)
	}
	s.st.dependents[d.ID] = d
	return nil
}

// CountRelationship counts the records of category referencing memberID.
func (s *Store) CountRelationship(_ context.Context, category entities.RelationshipCategory, memberID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, d := range s.st.dependents {
		if d.Category == category && d.MemberID == memberID {
			n++
		}
	}
	return n, nil
}

// SumRelationship sums dependent values of category for memberID.
func (s *Store) SumRelationship(_ context.Context, category entities.RelationshipCategory, memberID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.sum(category, memberID), nil
}

// Dependents returns the dependents of category referencing memberID, ordered by id.
func (s *Store) Dependents(category entities.RelationshipCategory, memberID string) []entities.Dependent {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]entities.Dependent, 0)
	for _, d := range s.st.dependents {
		if d.Category == category && d.MemberID == memberID {
			res = append(res, d)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (s *state) insertMember(m entities.Member) error {
	if _, exists := s.members[m.ID]; exists {
		return fmt.Errorf("%w: member %s already exists", entities.ErrConflict, m.ID)
	}
	s.members[m.ID] = m
	return nil
}

func (s *state) sum(category entities.RelationshipCategory, memberID string) float64 {
	var total float64
	for _, d := range s.dependents {
		if d.Category == category && d.MemberID == memberID {
			total += d.Value
		}
	}
	return total
}
