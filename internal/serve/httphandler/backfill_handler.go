package httphandler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketledger/reconciler/internal/serve/httperror"
	"github.com/marketledger/reconciler/internal/serve/httpjson"
	"github.com/marketledger/reconciler/internal/utils"
)

// BackfillParams is the query-parameter surface of
// GET /backfill/{seller}?begin_date&end_date&dry_run&max_process&concurrency&reprocess_missing_fees.
type BackfillParams struct {
	Seller                 string
	BeginDate              time.Time
	EndDate                time.Time
	DryRun                 bool
	MaxProcess             int
	Concurrency            int
	ReprocessMissingFees   bool
}

// BackfillResult reports the aggregate outcome of a batch run; partial
// failures do not abort the batch, so Errors can be nonzero alongside Processed.
type BackfillResult struct {
	Processed int `json:"processed"`
	Enqueued  int `json:"enqueued"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

type BackfillHandler struct {
	Service interface {
		Run(ctx context.Context, params BackfillParams) (BackfillResult, error)
	}
}

func (h BackfillHandler) Get(w http.ResponseWriter, r *http.Request) {
	seller := chi.URLParam(r, "seller")
	if err := utils.ValidateSellerSlug(seller); err != nil {
		httperror.BadRequest(err.Error(), err, nil).Render(w)
		return
	}

	dryRun, err := utils.ParseBoolQueryParam(r, "dry_run")
	if err != nil {
		httperror.BadRequest(err.Error(), err, nil).Render(w)
		return
	}
	reprocessMissingFees, err := utils.ParseBoolQueryParam(r, "reprocess_missing_fees")
	if err != nil {
		httperror.BadRequest(err.Error(), err, nil).Render(w)
		return
	}

	q := r.URL.Query()
	params := BackfillParams{
		Seller:               seller,
		DryRun:               dryRun != nil && *dryRun,
		ReprocessMissingFees: reprocessMissingFees != nil && *reprocessMissingFees,
		MaxProcess:           parseIntOrDefault(q.Get("max_process"), 0),
		Concurrency:          parseIntOrDefault(q.Get("concurrency"), 10),
	}

	if v := q.Get("begin_date"); v != "" {
		params.BeginDate, err = time.Parse("2006-01-02", v)
		if err != nil {
			httperror.BadRequest("begin_date must be an ISO date", err, nil).Render(w)
			return
		}
	}
	if v := q.Get("end_date"); v != "" {
		params.EndDate, err = time.Parse("2006-01-02", v)
		if err != nil {
			httperror.BadRequest("end_date must be an ISO date", err, nil).Render(w)
			return
		}
	}

	result, err := h.Service.Run(r.Context(), params)
	if err != nil {
		httperror.InternalError(r.Context(), "running backfill", err, nil).Render(w)
		return
	}
	httpjson.Render(w, result, httpjson.JSON)
}

func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
