package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketledger/reconciler/db"
)

// JobStatus is the lifecycle state of a Job (§3, §4.2).
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusDead       JobStatus = "dead"
)

// JobKind enumerates the posting intents the Payment Processor and its
// collaborators can enqueue (§3).
type JobKind string

const (
	JobKindRevenue         JobKind = "revenue"
	JobKindCommission      JobKind = "commission"
	JobKindShipping        JobKind = "shipping"
	JobKindPartialRefund   JobKind = "partial-refund"
	JobKindRefundReversal  JobKind = "refund-reversal"
	JobKindFeeReversal     JobKind = "fee-reversal"
	JobKindSettlement      JobKind = "settlement"
	JobKindFeeAdjustment   JobKind = "fee-adjustment"
)

// Canonical priorities from §3: lower value = higher priority.
const (
	PriorityRevenue    = 10
	PriorityExpense    = 20
	PrioritySettlement = 30
)

// DefaultMaxAttempts is the default retry budget for a Job before it is
// dead-lettered (§3).
const DefaultMaxAttempts = 3

// StaleClaimThreshold is how long a Job may sit in `processing` before
// reset-stale() considers its claim abandoned (§4.2).
const StaleClaimThreshold = 5 * time.Minute

func jobStateMachine(current JobStatus) *StateMachine {
	return NewStateMachine(State(current), []StateTransition{
		{From: State(JobStatusPending), To: State(JobStatusProcessing)},
		{From: State(JobStatusProcessing), To: State(JobStatusCompleted)},
		{From: State(JobStatusProcessing), To: State(JobStatusFailed)},
		{From: State(JobStatusProcessing), To: State(JobStatusDead)},
		{From: State(JobStatusFailed), To: State(JobStatusPending)},
		{From: State(JobStatusFailed), To: State(JobStatusDead)},
		{From: State(JobStatusDead), To: State(JobStatusPending)},
	})
}

// CanTransitionJobStatus reports whether from -> to is a legal Job status
// transition, per the state diagram in §4.2.
func CanTransitionJobStatus(from, to JobStatus) bool {
	if from == to {
		return true
	}
	return jobStateMachine(from).CanTransitionTo(State(to))
}

// Job is one pending or completed ERP post (§3).
type Job struct {
	ID              string    `db:"id"`
	IdempotencyKey  string    `db:"idempotency_key"`
	SellerID        string    `db:"seller_id"`
	Kind            JobKind   `db:"kind"`
	TargetEndpoint  string    `db:"target_endpoint"`
	Method          string    `db:"method"`
	RequestBody     []byte    `db:"request_body"`
	GroupID         string    `db:"group_id"`
	Priority        int       `db:"priority"`
	Status          JobStatus `db:"status"`
	Attempts        int       `db:"attempts"`
	MaxAttempts     int       `db:"max_attempts"`
	ScheduledAt     time.Time `db:"scheduled_at"`
	ClaimedAt       *time.Time `db:"claimed_at"`
	ERPResponseCode *int      `db:"erp_response_code"`
	ERPResponseBody *string   `db:"erp_response_body"`
	ERPReceipt      *string   `db:"erp_receipt"`
	LastError       *string   `db:"last_error"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type JobModel struct {
	dbConnectionPool db.DBConnectionPool
}

const jobColumns = `id, idempotency_key, seller_id, kind, target_endpoint, method, request_body, group_id,
	priority, status, attempts, max_attempts, scheduled_at, claimed_at, erp_response_code, erp_response_body,
	erp_receipt, last_error, created_at, updated_at`

// EnqueueInput captures the parameters of one Enqueue call (§4.2).
type EnqueueInput struct {
	IdempotencyKey string
	SellerID       string
	Kind           JobKind
	GroupID        string
	Priority       int
	Endpoint       string
	Method         string
	Body           []byte
	ScheduledAt    time.Time
}

// Enqueue inserts a job; if IdempotencyKey already exists, it returns the
// existing record unchanged (§4.2, §8.2 idempotency invariant).
func (m *JobModel) Enqueue(ctx context.Context, in EnqueueInput) (*Job, error) {
	existing, err := m.GetByIdempotencyKey(ctx, in.IdempotencyKey)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if in.ScheduledAt.IsZero() {
		in.ScheduledAt = time.Now()
	}
	body := in.Body
	if body == nil {
		body = []byte("{}")
	}

	id := uuid.NewString()
	query := `
		INSERT INTO jobs (id, idempotency_key, seller_id, kind, target_endpoint, method, request_body,
			group_id, priority, status, attempts, max_attempts, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12)
		ON CONFLICT (idempotency_key) DO NOTHING`
	_, err = m.dbConnectionPool.ExecContext(ctx, query, id, in.IdempotencyKey, in.SellerID, in.Kind,
		in.Endpoint, in.Method, body, in.GroupID, in.Priority, JobStatusPending, DefaultMaxAttempts, in.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("enqueuing job %s: %w", in.IdempotencyKey, err)
	}
	return m.GetByIdempotencyKey(ctx, in.IdempotencyKey)
}

func (m *JobModel) GetByIdempotencyKey(ctx context.Context, key string) (*Job, error) {
	var j Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE idempotency_key = $1`
	err := m.dbConnectionPool.GetContext(ctx, &j, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting job by idempotency key %s: %w", key, err)
	}
	return &j, nil
}

func (m *JobModel) Get(ctx context.Context, id string) (*Job, error) {
	var j Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	err := m.dbConnectionPool.GetContext(ctx, &j, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", id, err)
	}
	return &j, nil
}

// ClaimNext atomically selects the lowest-priority-value (most urgent), oldest-created eligible
// job, sets it to `processing`, and returns it (§4.2). Returns ErrRecordNotFound
// if none are eligible.
func (m *JobModel) ClaimNext(ctx context.Context) (*Job, error) {
	return db.RunInTransactionWithResult(ctx, m.dbConnectionPool, nil, func(dbTx db.DBTransaction) (*Job, error) {
		var j Job
		query := `
			SELECT ` + jobColumns + ` FROM jobs
			WHERE status IN ($1, $2) AND scheduled_at <= NOW()
			ORDER BY priority ASC, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED`
		err := dbTx.GetContext(ctx, &j, query, JobStatusPending, JobStatusFailed)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("selecting next job: %w", err)
		}

		upd := `UPDATE jobs SET status = $1, claimed_at = NOW(), updated_at = NOW() WHERE id = $2`
		if _, err := dbTx.ExecContext(ctx, upd, JobStatusProcessing, j.ID); err != nil {
			return nil, fmt.Errorf("claiming job %s: %w", j.ID, err)
		}
		j.Status = JobStatusProcessing
		return &j, nil
	})
}

// Complete marks a job completed and records the ERP response (§4.2).
func (m *JobModel) Complete(ctx context.Context, jobID string, erpStatus int, erpBody, receipt string) error {
	query := `
		UPDATE jobs
		SET status = $1, erp_response_code = $2, erp_response_body = $3, erp_receipt = $4, updated_at = NOW()
		WHERE id = $5`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, JobStatusCompleted, erpStatus, erpBody, receipt, jobID)
	if err != nil {
		return fmt.Errorf("completing job %s: %w", jobID, err)
	}
	return expectOneRowAffected(res)
}

// Fail records a retryable failure. If attempts remain, the job returns to
// `failed` with a backoff-computed scheduled-at; if attempts are exhausted,
// it goes `dead` (§4.2).
func (m *JobModel) Fail(ctx context.Context, jobID string, incrementAttempt bool, scheduledAt time.Time, errMsg string, erpStatus *int, erpBody *string) error {
	j, err := m.Get(ctx, jobID)
	if err != nil {
		return err
	}

	attempts := j.Attempts
	if incrementAttempt {
		attempts++
	}
	status := JobStatusFailed
	if attempts >= j.MaxAttempts {
		status = JobStatusDead
	}

	query := `
		UPDATE jobs
		SET status = $1, attempts = $2, scheduled_at = $3, last_error = $4, erp_response_code = $5,
			erp_response_body = $6, updated_at = NOW()
		WHERE id = $7`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, status, attempts, scheduledAt, errMsg, erpStatus, erpBody, jobID)
	if err != nil {
		return fmt.Errorf("failing job %s: %w", jobID, err)
	}
	return expectOneRowAffected(res)
}

// DeadLetter sends a job straight to `dead`, used for permanent (non-401)
// 4xx ERP responses that must not be retried (§4.2, §7).
func (m *JobModel) DeadLetter(ctx context.Context, jobID string, erpStatus int, erpBody, errMsg string) error {
	query := `
		UPDATE jobs
		SET status = $1, erp_response_code = $2, erp_response_body = $3, last_error = $4, updated_at = NOW()
		WHERE id = $5`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, JobStatusDead, erpStatus, erpBody, errMsg, jobID)
	if err != nil {
		return fmt.Errorf("dead-lettering job %s: %w", jobID, err)
	}
	return expectOneRowAffected(res)
}

// ResetStale resets any `processing` job whose claim is older than
// StaleClaimThreshold back to `failed`. The worker runs it once at startup
// and then on its stale-reset ticker (§4.2).
func (m *JobModel) ResetStale(ctx context.Context) (int64, error) {
	query := `
		UPDATE jobs
		SET status = $1, scheduled_at = NOW(), updated_at = NOW()
		WHERE status = $2 AND claimed_at < $3`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, JobStatusFailed, JobStatusProcessing, time.Now().Add(-StaleClaimThreshold))
	if err != nil {
		return 0, fmt.Errorf("resetting stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// Retry requeues a dead job for a manual operator retry (§3 lifecycle, §8
// Scenario D), resetting attempts to zero.
func (m *JobModel) Retry(ctx context.Context, jobID string) error {
	query := `
		UPDATE jobs
		SET status = $1, attempts = 0, scheduled_at = NOW(), last_error = NULL, updated_at = NOW()
		WHERE id = $2 AND status = $3`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, JobStatusPending, jobID, JobStatusDead)
	if err != nil {
		return fmt.Errorf("retrying job %s: %w", jobID, err)
	}
	return expectOneRowAffected(res)
}

// RetryAllDead requeues every dead job and returns the count affected.
func (m *JobModel) RetryAllDead(ctx context.Context) (int64, error) {
	query := `
		UPDATE jobs
		SET status = $1, attempts = 0, scheduled_at = NOW(), last_error = NULL, updated_at = NOW()
		WHERE status = $2`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, JobStatusPending, JobStatusDead)
	if err != nil {
		return 0, fmt.Errorf("retrying dead jobs: %w", err)
	}
	return res.RowsAffected()
}

// ListDead returns the page-th window (1-indexed) of dead-lettered jobs,
// newest first, along with the total count of dead jobs regardless of page.
// page <= 0 or pageLimit <= 0 returns every dead job unpaginated.
func (m *JobModel) ListDead(ctx context.Context, page, pageLimit int) ([]Job, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM jobs WHERE status = $1`
	if err := m.dbConnectionPool.GetContext(ctx, &total, countQuery, JobStatusDead); err != nil {
		return nil, 0, fmt.Errorf("counting dead jobs: %w", err)
	}

	qb := NewQueryBuilder(`SELECT ` + jobColumns + ` FROM jobs`).
		AddCondition("status = ?", JobStatusDead).
		AddSorting(SortField("updated_at"), SortOrderDESC, "jobs").
		AddPagination(page, pageLimit)
	query, params := qb.BuildAndRebind(m.dbConnectionPool)

	var jobs []Job
	if err := m.dbConnectionPool.SelectContext(ctx, &jobs, query, params...); err != nil {
		return nil, 0, fmt.Errorf("listing dead jobs: %w", err)
	}
	return jobs, total, nil
}

// StatusCounts reports the number of jobs in each status, backing
// GET /queue/status.
func (m *JobModel) StatusCounts(ctx context.Context) (map[JobStatus]int, error) {
	type row struct {
		Status JobStatus `db:"status"`
		Count  int       `db:"count"`
	}
	var rows []row
	query := `SELECT status, COUNT(*) as count FROM jobs GROUP BY status`
	if err := m.dbConnectionPool.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("counting job statuses: %w", err)
	}
	counts := make(map[JobStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// GroupHasDeadJobs reports whether any job sharing groupID is dead, used by
// Financial Closing (§4.10 condition c).
func (m *JobModel) GroupHasDeadJobs(ctx context.Context, groupID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM jobs WHERE group_id = $1 AND status = $2`
	if err := m.dbConnectionPool.GetContext(ctx, &count, query, groupID, JobStatusDead); err != nil {
		return false, fmt.Errorf("checking dead jobs for group %s: %w", groupID, err)
	}
	return count > 0, nil
}
