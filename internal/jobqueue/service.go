package jobqueue

import (
	"context"
	"fmt"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/serve/httphandler"
	"github.com/marketledger/reconciler/internal/utils"
)

// StatusStore is the subset of *data.JobModel the operator-facing queue
// service depends on.
type StatusStore interface {
	StatusCounts(ctx context.Context) (map[data.JobStatus]int, error)
	ListDead(ctx context.Context, page, pageLimit int) ([]data.Job, int, error)
	Retry(ctx context.Context, jobID string) error
	RetryAllDead(ctx context.Context) (int64, error)
}

// Service exposes queue operator visibility and retry actions, satisfying
// internal/serve.QueueService (§6: "operators see dead-lettered jobs via
// GET /queue/dead ... they may requeue after either a system fix or an
// upstream fix").
type Service struct {
	Jobs StatusStore
}

// NewService wires a Service from its collaborator.
func NewService(jobs StatusStore) *Service {
	return &Service{Jobs: jobs}
}

func (s *Service) Status(ctx context.Context) (httphandler.QueueStatus, error) {
	counts, err := s.Jobs.StatusCounts(ctx)
	if err != nil {
		return httphandler.QueueStatus{}, fmt.Errorf("counting job statuses: %w", err)
	}
	return httphandler.QueueStatus{
		Pending:    counts[data.JobStatusPending],
		Processing: counts[data.JobStatusProcessing],
		Completed:  counts[data.JobStatusCompleted],
		Failed:     counts[data.JobStatusFailed],
		Dead:       counts[data.JobStatusDead],
	}, nil
}

// DeadJobs returns the page-th window of dead-lettered jobs (1-indexed; page
// or pageLimit <= 0 returns every dead job on a single page) along with the
// total dead-job count, so the handler can build pagination links (§6).
func (s *Service) DeadJobs(ctx context.Context, page, pageLimit int) ([]httphandler.JobView, int, error) {
	jobs, total, err := s.Jobs.ListDead(ctx, page, pageLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("listing dead jobs: %w", err)
	}
	return utils.MapSlice(jobs, toJobView), total, nil
}

func (s *Service) Retry(ctx context.Context, jobID string) error {
	if err := s.Jobs.Retry(ctx, jobID); err != nil {
		return fmt.Errorf("retrying job %s: %w", jobID, err)
	}
	return nil
}

func (s *Service) RetryAllDead(ctx context.Context) (int, error) {
	n, err := s.Jobs.RetryAllDead(ctx)
	if err != nil {
		return 0, fmt.Errorf("retrying dead jobs: %w", err)
	}
	return int(n), nil
}

func toJobView(j data.Job) httphandler.JobView {
	view := httphandler.JobView{
		ID:             j.ID,
		IdempotencyKey: j.IdempotencyKey,
		Seller:         j.SellerID,
		Kind:           string(j.Kind),
		GroupID:        j.GroupID,
		Status:         string(j.Status),
		Attempts:       j.Attempts,
		MaxAttempts:    j.MaxAttempts,
		ScheduledAt:    j.ScheduledAt,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
	if j.ERPResponseCode != nil {
		view.ERPResponseCode = *j.ERPResponseCode
	}
	if j.ERPResponseBody != nil {
		view.ERPResponseBody = *j.ERPResponseBody
	}
	if j.LastError != nil {
		view.LastError = *j.LastError
	}
	return view
}
