package httphandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketledger/reconciler/internal/serve/httperror"
	"github.com/marketledger/reconciler/internal/serve/httpjson"
	"github.com/marketledger/reconciler/internal/utils"
)

// SettlementParams is the query-parameter surface of
// GET /baixas/processar/{seller}?dry_run&verify_release&data_ate&lookback_days.
type SettlementParams struct {
	Seller         string
	DryRun         bool
	VerifyRelease  bool
	AsOf           time.Time
	LookbackDays   int
}

// SettlementResult reports how many settlement postings were produced and
// (optionally) skipped because a release could not be verified.
type SettlementResult struct {
	Processed int `json:"processed"`
	Posted    int `json:"posted"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

type SettlementHandler struct {
	Service interface {
		Run(ctx context.Context, params SettlementParams) (SettlementResult, error)
	}
}

func (h SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	verifyRelease, err := utils.ParseBoolQueryParam(r, "verify_release")
	if err != nil {
		httperror.BadRequest(err.Error(), err, nil).Render(w)
		return
	}

	q := r.URL.Query()
	params := SettlementParams{
		Seller:        seller,
		DryRun:        dryRun != nil && *dryRun,
		VerifyRelease: verifyRelease != nil && *verifyRelease,
		LookbackDays:  parseIntOrDefault(q.Get("lookback_days"), 0),
	}

	if v := q.Get("data_ate"); v != "" {
		asOf, err := time.Parse("2006-01-02", v)
		if err != nil {
			httperror.BadRequest("data_ate must be an ISO date", err, nil).Render(w)
			return
		}
		params.AsOf = asOf
	}

	result, err := h.Service.Run(r.Context(), params)
	if err != nil {
		httperror.InternalError(r.Context(), "running settlement", err, nil).Render(w)
		return
	}
	httpjson.Render(w, result, httpjson.JSON)
}
