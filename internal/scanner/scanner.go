// Package scanner finds candidate duplicate pairs across the member population.
package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"member-dedup/internal/entities"
	"member-dedup/internal/metrics"
	"member-dedup/internal/similarity"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	kindAll    = "all"
	kindMember = "member"
)

// MemberSource loads the member population.
type MemberSource interface {
	ListMembers(ctx context.Context) ([]entities.Member, error)
}

// PairSink persists scan candidates.
type PairSink interface {
	UpsertPairs(ctx context.Context, candidates []entities.DuplicateCandidate) ([]entities.DuplicatePair, error)
}

// Scanner scores member pairs in parallel and upserts the ones at or above a threshold.
type Scanner struct {
	log     *zap.SugaredLogger
	members MemberSource
	pairs   PairSink
	metrics *metrics.DedupMetrics
	workers int
}

// New creates a Scanner. workers <= 0 means one worker per CPU.
func New(log *zap.SugaredLogger, members MemberSource, pairs PairSink, m *metrics.DedupMetrics, workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		log:     log.Named("scanner"),
		members: members,
		pairs:   pairs,
		metrics: m,
		workers: workers,
	}
}

// task compares targets[target] with others[from:to].
type task struct {
	target   int
	from, to int
}

// ScanAllPairs scores every unordered pair of members exactly once.
func (s *Scanner) ScanAllPairs(ctx context.Context, threshold int) (res entities.ScanResult, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveScan(kindAll, res.Evaluated, res.Candidates, time.Since(start), err)
	}()

	if err := validateThreshold(threshold); err != nil {
		return res, err
	}

	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return res, fmt.Errorf("load members: %w", err)
	}
	profiles := prepareAll(members)

	tasks := make([]task, 0, len(profiles))
	for i := 0; i+1 < len(profiles); i++ {
		tasks = append(tasks, task{target: i, from: i + 1, to: len(profiles)})
	}

	found, evaluated, err := s.evaluate(ctx, profiles, profiles, tasks, threshold)
	if err != nil {
		return res, err
	}
	return s.persist(ctx, kindAll, found, evaluated, threshold, start)
}

// ScanForMember scores one member against every other member.
func (s *Scanner) ScanForMember(ctx context.Context, memberID string, threshold int) (res entities.ScanResult, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveScan(kindMember, res.Evaluated, res.Candidates, time.Since(start), err)
	}()

	if err := validateThreshold(threshold); err != nil {
		return res, err
	}
	if memberID == "" {
		return res, fmt.Errorf("%w: member id is required", entities.ErrInvalidArgument)
	}

	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return res, fmt.Errorf("load members: %w", err)
	}
	targetIdx := -1
	for i := range members {
		if members[i].ID == memberID {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return res, fmt.Errorf("%w: member %s", entities.ErrNotFound, memberID)
	}

	profiles := prepareAll(members)
	targets := []similarity.Profile{profiles[targetIdx]}

	chunk := (len(profiles) + s.workers - 1) / s.workers
	if chunk == 0 {
		chunk = 1
	}
	tasks := make([]task, 0, s.workers)
	for from := 0; from < len(profiles); from += chunk {
		to := from + chunk
		if to > len(profiles) {
			to = len(profiles)
		}
		tasks = append(tasks, task{target: 0, from: from, to: to})
	}

	found, evaluated, err := s.evaluate(ctx, targets, profiles, tasks, threshold)
	if err != nil {
		return res, err
	}
	return s.persist(ctx, kindMember, found, evaluated, threshold, start)
}

// evaluate runs tasks on a bounded worker pool. Each worker collects into its own slice;
// the only shared state is the result slice guarded by mu.
func (s *Scanner) evaluate(
	ctx context.Context,
	targets, others []similarity.Profile,
	tasks []task,
	threshold int,
) ([]entities.DuplicateCandidate, int64, error) {
	var (
		mu        sync.Mutex
		found     []entities.DuplicateCandidate
		evaluated int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, tk := range tasks {
		tk := tk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a := targets[tk.target]
			var (
				local []entities.DuplicateCandidate
				n     int64
			)
			for j := tk.from; j < tk.to; j++ {
				b := others[j]
				if a.ID == b.ID {
					continue
				}
				n++
				score, detail := similarity.ScoreProfiles(a, b)
				if score < threshold {
					continue
				}
				m1, m2 := entities.PairKey(a.ID, b.ID)
				local = append(local, entities.DuplicateCandidate{
					Member1ID: m1,
					Member2ID: m2,
					Score:     score,
					Detail:    detail,
				})
			}

			mu.Lock()
			found = append(found, local...)
			evaluated += n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("evaluate pairs: %w", err)
	}

	sortCandidates(found)
	return found, evaluated, nil
}

func (s *Scanner) persist(
	ctx context.Context,
	kind string,
	found []entities.DuplicateCandidate,
	evaluated int64,
	threshold int,
	start time.Time,
) (entities.ScanResult, error) {
	res := entities.ScanResult{
		Evaluated:  evaluated,
		Candidates: len(found),
		Threshold:  threshold,
	}

	pairs, err := s.pairs.UpsertPairs(ctx, found)
	if err != nil {
		s.log.Errorw("failed to persist scan candidates", "kind", kind, "error", err)
		return res, fmt.Errorf("persist pairs: %w", err)
	}
	s.metrics.AddUpsertedPairs(len(pairs))

	res.Pairs = pairs
	res.Duration = time.Since(start)
	s.log.Infow("scan finished",
		"kind", kind,
		"threshold", threshold,
		"evaluated", evaluated,
		"candidates", len(found),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func prepareAll(members []entities.Member) []similarity.Profile {
	profiles := make([]similarity.Profile, len(members))
	for i := range members {
		profiles[i] = similarity.Prepare(members[i])
	}
	return profiles
}

func sortCandidates(c []entities.DuplicateCandidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Score != c[j].Score {
			return c[i].Score > c[j].Score
		}
		if c[i].Member1ID != c[j].Member1ID {
			return c[i].Member1ID < c[j].Member1ID
		}
		return c[i].Member2ID < c[j].Member2ID
	})
}

func validateThreshold(threshold int) error {
	if threshold < 0 || threshold > similarity.MaxScore {
		return fmt.Errorf("%w: threshold %d outside 0..%d", entities.ErrInvalidArgument, threshold, similarity.MaxScore)
	}
	return nil
}
