package httphandler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketledger/reconciler/internal/serve/httperror"
	"github.com/marketledger/reconciler/internal/serve/httpjson"
	"github.com/marketledger/reconciler/internal/serve/httpresponse"
)

const defaultDeadJobsPageLimit = 50

// QueueStatus summarizes the durable job queue for GET /queue/status.
type QueueStatus struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Dead       int `json:"dead"`
}

// JobView is the operator-facing projection of a job row, including the
// ERP response captured at failure time so an operator can diagnose it
// without a database client.
type JobView struct {
	ID               string     `json:"id"`
	IdempotencyKey   string     `json:"idempotency_key"`
	Seller           string     `json:"seller"`
	Kind             string     `json:"kind"`
	GroupID          string     `json:"group_id"`
	Status           string     `json:"status"`
	Attempts         int        `json:"attempts"`
	MaxAttempts      int        `json:"max_attempts"`
	ScheduledAt      time.Time  `json:"scheduled_at"`
	ERPResponseCode  int        `json:"erp_response_code,omitempty"`
	ERPResponseBody  string     `json:"erp_response_body,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// QueueHandler exposes the queue operator endpoints from §6: status, the
// dead-letter list, and single/bulk retry.
type QueueHandler struct {
	Service interface {
		Status(ctx context.Context) (QueueStatus, error)
		DeadJobs(ctx context.Context, page, pageLimit int) ([]JobView, int, error)
		Retry(ctx context.Context, jobID string) error
		RetryAllDead(ctx context.Context) (int, error)
	}
}

func (h QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.Service.Status(r.Context())
	if err != nil {
		httperror.InternalError(r.Context(), "getting queue status", err, nil).Render(w)
		return
	}
	httpjson.Render(w, status, httpjson.JSON)
}

// Dead lists dead-lettered jobs a page at a time (GET
// /queue/dead?page=&page_limit=), returning pagination links built from the
// request's own URL so an operator can page through a large dead-letter
// queue without a database client.
func (h QueueHandler) Dead(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	pageLimit, _ := strconv.Atoi(r.URL.Query().Get("page_limit"))
	if pageLimit <= 0 {
		pageLimit = defaultDeadJobsPageLimit
	}

	jobs, total, err := h.Service.DeadJobs(r.Context(), page, pageLimit)
	if err != nil {
		httperror.InternalError(r.Context(), "listing dead jobs", err, nil).Render(w)
		return
	}

	response, err := httpresponse.NewPaginatedResponse(r, jobs, page, pageLimit, total)
	if err != nil {
		httperror.InternalError(r.Context(), "building paginated response", err, nil).Render(w)
		return
	}
	httpjson.Render(w, response, httpjson.JSON)
}

func (h QueueHandler) Retry(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		httperror.BadRequest("job_id is required", nil, nil).Render(w)
		return
	}
	if err := h.Service.Retry(r.Context(), jobID); err != nil {
		httperror.InternalError(r.Context(), "retrying job", err, nil).Render(w)
		return
	}
	httpjson.RenderStatus(w, http.StatusAccepted, map[string]string{"job_id": jobID}, httpjson.JSON)
}

func (h QueueHandler) RetryAllDead(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.RetryAllDead(r.Context())
	if err != nil {
		httperror.InternalError(r.Context(), "retrying dead jobs", err, nil).Render(w)
		return
	}
	httpjson.RenderStatus(w, http.StatusAccepted, map[string]int{"retried": count}, httpjson.JSON)
}
