// Package settlement implements the Settlement (Baixa) Scheduler (§4.4): it
// finds open ERP receivables/payables whose due date has arrived, verifies
// the marketplace actually released the underlying payment when asked to,
// and enqueues a settlement job to quitar (baixa) each one.
package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/erpclient"
	"github.com/marketledger/reconciler/internal/jobqueue"
	schedulerjobs "github.com/marketledger/reconciler/internal/scheduler/jobs"
	"github.com/marketledger/reconciler/internal/serve/httphandler"
	"github.com/marketledger/reconciler/internal/support/log"
)

// defaultLookbackDays is §4.4's default open-item scan window.
const defaultLookbackDays = 90

// openStatuses are the ERP parcela statuses the scan considers (§4.4: "status
// in {open, overdue}").
var openStatuses = []string{"open", "overdue"}

// ParcelaLister is the subset of erpclient.ClientInterface the scheduler
// depends on to find open items.
type ParcelaLister interface {
	BuscarReceivables(ctx context.Context, filter erpclient.BuscarFilter) ([]erpclient.ParcelaResponse, bool, error)
	BuscarPayables(ctx context.Context, filter erpclient.BuscarFilter) ([]erpclient.ParcelaResponse, bool, error)
}

// JobStore is the subset of *data.JobModel the scheduler depends on.
type JobStore interface {
	Enqueue(ctx context.Context, in data.EnqueueInput) (*data.Job, error)
}

// ReleaseChecker verifies that the marketplace has actually released funds
// for a payment before a baixa is posted (§4.4 release-status verification).
type ReleaseChecker interface {
	IsReleased(ctx context.Context, sellerToken, marketplacePaymentID string) (bool, error)
}

// SellerStore is the subset of *data.SellerModel the scheduler's daily job
// depends on to iterate every active seller.
type SellerStore interface {
	GetActive(ctx context.Context) ([]data.Seller, error)
}

// Service runs one seller's settlement pass and satisfies
// internal/serve/httphandler.SettlementHandler's Service contract.
type Service struct {
	ERP       ParcelaLister
	Jobs      JobStore
	Releases  ReleaseChecker
	SellerTokens func(ctx context.Context, sellerID string) (string, error)
}

// NewService wires a Service from its collaborators. sellerTokens resolves a
// seller id to the marketplace access token the release checker needs.
func NewService(erp ParcelaLister, jobs JobStore, releases ReleaseChecker, sellerTokens func(ctx context.Context, sellerID string) (string, error)) *Service {
	return &Service{ERP: erp, Jobs: jobs, Releases: releases, SellerTokens: sellerTokens}
}

// Run implements the §4.4 algorithm for one seller.
func (s *Service) Run(ctx context.Context, params httphandler.SettlementParams) (httphandler.SettlementResult, error) {
	lookback := params.LookbackDays
	if lookback <= 0 {
		lookback = defaultLookbackDays
	}
	asOf := params.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	result := httphandler.SettlementResult{}

	for _, status := range openStatuses {
		filter := erpclient.BuscarFilter{SellerID: params.Seller, Status: status, Page: 1, PageSize: 100}
		for {
			receivables, more, err := s.ERP.BuscarReceivables(ctx, filter)
			if err != nil {
				log.Ctx(ctx).Errorf("seller %s: listing receivables (%s): %v", params.Seller, status, err)
				result.Errors++
				break
			}
			payables, morePayables, err := s.ERP.BuscarPayables(ctx, filter)
			if err != nil {
				log.Ctx(ctx).Errorf("seller %s: listing payables (%s): %v", params.Seller, status, err)
				result.Errors++
				break
			}

			for _, parcela := range append(receivables, payables...) {
				if !withinLookback(parcela.DueDate, asOf, lookback) {
					continue
				}
				result.Processed++
				posted, skipped, err := s.processParcela(ctx, params, parcela)
				if err != nil {
					result.Errors++
					continue
				}
				if posted {
					result.Posted++
				}
				if skipped {
					result.Skipped++
				}
			}

			if !more && !morePayables {
				break
			}
			filter.Page++
		}
	}

	return result, nil
}

func withinLookback(dueDate, asOf time.Time, lookbackDays int) bool {
	earliest := asOf.AddDate(0, 0, -lookbackDays)
	return !dueDate.After(asOf) && !dueDate.Before(earliest)
}

func (s *Service) processParcela(ctx context.Context, params httphandler.SettlementParams, parcela erpclient.ParcelaResponse) (posted, skipped bool, err error) {
	if params.VerifyRelease && s.Releases != nil {
		token, tokenErr := s.sellerToken(ctx, params.Seller)
		if tokenErr == nil {
			released, releaseErr := s.Releases.IsReleased(ctx, token, originatingPaymentID(parcela))
			if releaseErr == nil && !released {
				return false, true, nil
			}
		}
	}

	if params.DryRun {
		return true, false, nil
	}

	body, err := encodeSettlementBody(parcela)
	if err != nil {
		return false, false, err
	}

	_, err = s.Jobs.Enqueue(ctx, data.EnqueueInput{
		IdempotencyKey: fmt.Sprintf("%s:%s:settlement", params.Seller, parcela.ID),
		SellerID:       params.Seller,
		Kind:           data.JobKindSettlement,
		GroupID:        fmt.Sprintf("%s:%s", params.Seller, originatingPaymentID(parcela)),
		Priority:       data.PrioritySettlement,
		Endpoint:       jobqueue.TargetSettlement,
		Method:         "POST",
		Body:           body,
		ScheduledAt:    parcela.DueDate,
	})
	if err != nil {
		return false, false, fmt.Errorf("enqueuing settlement for parcela %s: %w", parcela.ID, err)
	}
	return true, false, nil
}

func encodeSettlementBody(parcela erpclient.ParcelaResponse) ([]byte, error) {
	return json.Marshal(struct {
		ParcelaID string               `json:"parcela_id"`
		Baixa     erpclient.BaixaRequest `json:"baixa"`
	}{
		ParcelaID: parcela.ID,
		Baixa:     erpclient.BaixaRequest{SettledAt: parcela.DueDate, Amount: parcela.Amount},
	})
}

// originatingPaymentID extracts the marketplace payment id the parcel was
// posted for. The Payment Processor stores it as the parcel's external_ref
// (§4.3's ExternalRef == MarketplacePaymentID), which stands in for §4.4's
// "extracted from the parcel description" in this schema.
func originatingPaymentID(parcela erpclient.ParcelaResponse) string {
	return strings.TrimSpace(parcela.ExternalRef)
}

func (s *Service) sellerToken(ctx context.Context, sellerID string) (string, error) {
	if s.SellerTokens == nil {
		return "", fmt.Errorf("no seller token resolver configured")
	}
	return s.SellerTokens(ctx, sellerID)
}

// DailyJob runs the settlement pass for every active seller once per
// Interval (24h by default), as a jobs.Job for the shared scheduler. The
// interval counts from when the scheduler starts: it is not aligned to a
// wall-clock hour or to a seller's time zone, and a restart runs no catch-up
// pass. No command registers DailyJob; the pipeline command schedules only
// the nightly pipeline.
type DailyJob struct {
	Sellers  SellerStore
	Service  *Service
	Interval time.Duration
}

var _ schedulerjobs.Job = (*DailyJob)(nil)

// NewDailyJob wires a DailyJob; interval defaults to 24h if zero.
func NewDailyJob(sellers SellerStore, service *Service, interval time.Duration) *DailyJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &DailyJob{Sellers: sellers, Service: service, Interval: interval}
}

func (j *DailyJob) GetName() string { return "settlement-baixa-scheduler" }

func (j *DailyJob) GetInterval() time.Duration { return j.Interval }

// Execute runs one settlement pass per active seller, isolating failures per
// seller so one seller's error never blocks the rest (§4.5's per-step
// isolation model, reused here since this job itself iterates a seller
// collection the same way the Nightly Pipeline does).
func (j *DailyJob) Execute(ctx context.Context) error {
	sellers, err := j.Sellers.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("listing active sellers: %w", err)
	}

	var firstErr error
	for _, seller := range sellers {
		result, err := j.Service.Run(ctx, httphandler.SettlementParams{Seller: seller.ID, VerifyRelease: true})
		if err != nil {
			log.Ctx(ctx).Errorf("settlement pass for seller %s: %v", seller.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Ctx(ctx).Infof("settlement pass for seller %s: processed=%d posted=%d skipped=%d errors=%d",
			seller.ID, result.Processed, result.Posted, result.Skipped, result.Errors)
	}
	return firstErr
}
