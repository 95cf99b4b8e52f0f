package domain

import (
	"context"
	"fmt"
	"strings"

	"member-dedup/internal/entities"

	"github.com/google/uuid"
)

// DefaultThreshold returns the configured scan threshold.
func (u *Usecase) DefaultThreshold() int {
	return u.opts.DefaultThreshold
}

// ScanAllPairs runs a full pairwise scan inline.
func (u *Usecase) ScanAllPairs(ctx context.Context, threshold int) (entities.ScanResult, error) {
	ctx, cancel := withTimeout(ctx, u.opts.ScanTimeout)
	defer cancel()

	return u.scanner.ScanAllPairs(ctx, threshold)
}

// ScanForMember scores one member against the population.
func (u *Usecase) ScanForMember(ctx context.Context, memberID string, threshold int) (entities.ScanResult, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return entities.ScanResult{}, fmt.Errorf("%w: member_id is required", entities.ErrInvalidArgument)
	}
	return u.scanner.ScanForMember(ctx, memberID, threshold)
}

// StartScanJob launches the full scan in the background. Only one job runs at a time.
func (u *Usecase) StartScanJob(threshold int) (entities.ScanJob, error) {
	if threshold < 0 || threshold > 100 {
		return entities.ScanJob{}, fmt.Errorf("%w: threshold %d outside 0..100", entities.ErrInvalidArgument, threshold)
	}

	u.jobMu.Lock()
	if u.job.State == entities.ScanJobRunning {
		running := u.job
		u.jobMu.Unlock()
		return running, fmt.Errorf("%w: scan %s is already running", entities.ErrConflict, running.ID)
	}
	started := u.now()
	job := entities.ScanJob{
		ID:        uuid.NewString(),
		State:     entities.ScanJobRunning,
		Threshold: threshold,
		StartedAt: &started,
	}
	u.job = job
	u.jobWG.Add(1)
	u.jobMu.Unlock()

	u.metrics.SetScanJobRunning(true)
	u.log.Infow("scan job started", "job_id", job.ID, "threshold", threshold)

	go u.runScanJob(job.ID, threshold)
	return job, nil
}

func (u *Usecase) runScanJob(jobID string, threshold int) {
	defer u.jobWG.Done()
	defer u.metrics.SetScanJobRunning(false)

	ctx, cancel := withTimeout(u.ctx, u.opts.ScanTimeout)
	defer cancel()

	res, err := u.scanner.ScanAllPairs(ctx, threshold)
	finished := u.now()

	u.jobMu.Lock()
	defer u.jobMu.Unlock()
	if u.job.ID != jobID {
		return
	}
	u.job.FinishedAt = &finished
	u.job.Evaluated = res.Evaluated
	u.job.Candidates = res.Candidates
	if err != nil {
		u.job.State = entities.ScanJobFailed
		u.job.Error = err.Error()
		u.log.Errorw("scan job failed", "job_id", jobID, "error", err)
		return
	}
	u.job.State = entities.ScanJobDone
	u.log.Infow("scan job finished", "job_id", jobID, "evaluated", res.Evaluated, "candidates", res.Candidates)
}

// ScanJobStatus returns the state of the latest background scan.
func (u *Usecase) ScanJobStatus() entities.ScanJob {
	u.jobMu.Lock()
	defer u.jobMu.Unlock()
	return u.job
}

// WaitScanJobs blocks until background scans have returned.
func (u *Usecase) WaitScanJobs() {
	u.jobWG.Wait()
}
