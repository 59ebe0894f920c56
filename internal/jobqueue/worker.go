// Package jobqueue implements the Queue Worker (§4.2): it claims durable
// jobs written by the Payment Processor and the Settlement Scheduler, rate
// limits outbound calls to the ERP, and routes the outcome of each call back
// into the job's retry/dead-letter state machine.
package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/erpclient"
	"github.com/marketledger/reconciler/internal/monitor"
	"github.com/marketledger/reconciler/internal/ratelimit"
	"github.com/marketledger/reconciler/internal/support/log"
	"github.com/marketledger/reconciler/internal/utils"
)

// Target-endpoint classifiers stored on data.Job.TargetEndpoint, used by both
// the Payment Processor/Settlement Scheduler (to tag the jobs they enqueue)
// and this worker (to decide which erpclient request shape to decode the
// job's request body into).
const (
	TargetReceivable = "contas-a-receber"
	TargetPayable    = "contas-a-pagar"
	TargetSettlement = "settlement"
)

// backoffSchedule is the §4.2 retry schedule for a transient ERP failure:
// 30s, 2min, 8min after the 1st, 2nd and 3rd attempts respectively.
var backoffSchedule = []time.Duration{30 * time.Second, 120 * time.Second, 480 * time.Second}

// JobStore is the subset of *data.JobModel the worker depends on.
type JobStore interface {
	ClaimNext(ctx context.Context) (*data.Job, error)
	Complete(ctx context.Context, jobID string, erpStatus int, erpBody, receipt string) error
	Fail(ctx context.Context, jobID string, incrementAttempt bool, scheduledAt time.Time, errMsg string, erpStatus *int, erpBody *string) error
	DeadLetter(ctx context.Context, jobID string, erpStatus int, erpBody, errMsg string) error
	ResetStale(ctx context.Context) (int64, error)
}

// PaymentStore is the subset of *data.PaymentModel the worker depends on to
// close out the group-completion invariant (§8.3) once every job sharing a
// payment's group-id has completed.
type PaymentStore interface {
	MarkSyncedIfGroupComplete(ctx context.Context, paymentID, groupID string) error
}

// Worker claims and executes jobs one at a time (§4.2: "single worker,
// global rate limiter" — concurrency is bounded by the token bucket, not by
// running multiple workers over the same queue).
type Worker struct {
	Jobs     JobStore
	Payments PaymentStore
	ERP      erpclient.ClientInterface
	Limiter  *ratelimit.TokenBucket
	Monitor  monitor.MonitorClient
}

// NewWorker wires a Worker from its five collaborators.
func NewWorker(jobs JobStore, payments PaymentStore, erp erpclient.ClientInterface, limiter *ratelimit.TokenBucket, mon monitor.MonitorClient) *Worker {
	return &Worker{Jobs: jobs, Payments: payments, ERP: erp, Limiter: limiter, Monitor: mon}
}

// Run claims and processes jobs until ctx is cancelled, sleeping pollInterval
// between empty claims and resetting stale in-flight claims once at start and
// then every staleResetInterval (§4.2 "stale claim reset").
func (w *Worker) Run(ctx context.Context, pollInterval, staleResetInterval time.Duration) {
	staleTicker := time.NewTicker(staleResetInterval)
	defer staleTicker.Stop()

	resetStale := func() {
		if n, err := w.Jobs.ResetStale(ctx); err != nil {
			log.Ctx(ctx).Errorf("resetting stale job claims: %v", err)
		} else if n > 0 {
			log.Ctx(ctx).Infof("reset %d stale job claims", n)
		}
	}
	resetStale()

	for {
		select {
		case <-ctx.Done():
			return
		case <-staleTicker.C:
			resetStale()
		default:
		}

		claimed, err := w.RunOnce(ctx)
		if err != nil {
			log.Ctx(ctx).Errorf("processing job: %v", err)
		}
		if !claimed {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
		}
	}
}

// RunOnce claims and processes at most one job. It reports whether a job was
// claimed, so Run can back off polling when the queue is empty.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.Jobs.ClaimNext(ctx)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("claiming next job: %w", err)
	}

	if err := w.process(ctx, job); err != nil {
		return true, fmt.Errorf("job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) process(ctx context.Context, job *data.Job) error {
	if err := w.Limiter.Acquire(ctx); err != nil {
		return fmt.Errorf("acquiring rate limit token: %w", err)
	}

	receipt, statusCode, body, callErr := w.call(ctx, job)
	if callErr == nil {
		if err := w.Jobs.Complete(ctx, job.ID, statusCode, body, receipt); err != nil {
			return fmt.Errorf("marking job completed: %w", err)
		}
		return w.onSettled(ctx, job)
	}

	var erpErr *erpclient.Error
	if !errors.As(callErr, &erpErr) {
		return w.retry(ctx, job, 0, nil, callErr.Error())
	}

	switch erpErr.Outcome {
	case erpclient.OutcomeUnauthorized:
		// The client already refreshed the token and retried internally;
		// surfacing here means it's still failing. Treat it like a
		// transient failure so it gets another pass after backoff.
		return w.retry(ctx, job, erpErr.StatusCode, &erpErr.Body, erpErr.Error())
	case erpclient.OutcomeTransient:
		return w.retry(ctx, job, erpErr.StatusCode, &erpErr.Body, erpErr.Error())
	case erpclient.OutcomePermanent:
		if err := w.Jobs.DeadLetter(ctx, job.ID, erpErr.StatusCode, erpErr.Body, erpErr.Error()); err != nil {
			return fmt.Errorf("dead-lettering job: %w", err)
		}
		return nil
	default:
		return w.retry(ctx, job, erpErr.StatusCode, &erpErr.Body, erpErr.Error())
	}
}

// retry applies the §4.2 backoff schedule, indexed by the attempt count the
// job already carries before this failure is recorded.
func (w *Worker) retry(ctx context.Context, job *data.Job, erpStatus int, erpBody *string, errMsg string) error {
	delay := backoffSchedule[len(backoffSchedule)-1]
	if job.Attempts < len(backoffSchedule) {
		delay = backoffSchedule[job.Attempts]
	}
	var statusPtr *int
	if erpStatus != 0 {
		statusPtr = utils.IntPtr(erpStatus)
	}
	if err := w.Jobs.Fail(ctx, job.ID, true, time.Now().Add(delay), errMsg, statusPtr, erpBody); err != nil {
		return fmt.Errorf("recording failed attempt: %w", err)
	}
	return nil
}

// onSettled rolls the payment forward toward `synced` once every job in its
// group has completed (§8.3). Settlement jobs get no special handling: a
// completed baixa is final whatever the parcel's due date, and an ERP refusal
// of a future-dated settlement goes through the same outcome classification
// in process as any other response.
func (w *Worker) onSettled(ctx context.Context, job *data.Job) error {
	if job.Kind != data.JobKindSettlement {
		return w.markGroupComplete(ctx, job)
	}
	return w.markGroupComplete(ctx, job)
}

func (w *Worker) markGroupComplete(ctx context.Context, job *data.Job) error {
	paymentID := paymentIDFromGroup(job.GroupID)
	if paymentID == "" {
		return nil
	}
	if err := w.Payments.MarkSyncedIfGroupComplete(ctx, paymentID, job.GroupID); err != nil {
		return fmt.Errorf("marking group %s synced: %w", job.GroupID, err)
	}
	return nil
}

// paymentIDFromGroup extracts the payment id from the "{seller}:{payment-id}"
// group-id convention (§4.3).
func paymentIDFromGroup(groupID string) string {
	parts := strings.SplitN(groupID, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// call dispatches a job's request body to the erpclient method matching its
// target endpoint, returning the receipt id, status code and raw response
// body to persist on success.
func (w *Worker) call(ctx context.Context, job *data.Job) (receipt string, statusCode int, body string, err error) {
	switch job.TargetEndpoint {
	case TargetReceivable:
		var req erpclient.ReceivableRequest
		if err = json.Unmarshal(job.RequestBody, &req); err != nil {
			return "", 0, "", fmt.Errorf("decoding receivable request: %w", err)
		}
		resp, callErr := w.ERP.PostReceivable(ctx, req)
		return parcelaResult(resp, callErr)
	case TargetPayable:
		var req erpclient.PayableRequest
		if err = json.Unmarshal(job.RequestBody, &req); err != nil {
			return "", 0, "", fmt.Errorf("decoding payable request: %w", err)
		}
		resp, callErr := w.ERP.PostPayable(ctx, req)
		return parcelaResult(resp, callErr)
	case TargetSettlement:
		var req struct {
			ParcelaID string               `json:"parcela_id"`
			Baixa     erpclient.BaixaRequest `json:"baixa"`
		}
		if err = json.Unmarshal(job.RequestBody, &req); err != nil {
			return "", 0, "", fmt.Errorf("decoding settlement request: %w", err)
		}
		resp, callErr := w.ERP.BaixaParcela(ctx, req.ParcelaID, req.Baixa)
		return parcelaResult(resp, callErr)
	default:
		return "", 0, "", fmt.Errorf("unknown target endpoint %q", job.TargetEndpoint)
	}
}

func parcelaResult(resp *erpclient.ParcelaResponse, err error) (string, int, string, error) {
	if err != nil {
		return "", 0, "", err
	}
	body, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		body = []byte("{}")
	}
	return resp.ID, 200, string(body), nil
}
