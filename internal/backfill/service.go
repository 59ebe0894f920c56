// Package backfill implements the Onboarding Backfill (§4.11): a one-shot
// background task kicked off when an operator activates a seller in
// dashboard+erp mode, which walks the marketplace's historical payment
// window through the same Payment Processor the nightly sync step uses.
package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/feevalidator"
	"github.com/marketledger/reconciler/internal/marketplace"
	"github.com/marketledger/reconciler/internal/reconcile"
	"github.com/marketledger/reconciler/internal/serve/httphandler"
	"github.com/marketledger/reconciler/internal/support/log"
)

// futureReleaseWindowDays is §4.11 step 1's "end-date = today + 90 days",
// which captures future-dated releases of already-approved sales.
const futureReleaseWindowDays = 90

// searchPageSize bounds one payments/search page during the backfill walk.
const searchPageSize = 50

// progressCheckpointEvery is how often (in processed payments) progress
// counters are persisted, so the admin UI can poll a long-running backfill
// without waiting for it to finish (§4.11 step 4).
const progressCheckpointEvery = 20

// SellerStore is the subset of *data.SellerModel the backfill depends on.
type SellerStore interface {
	Get(ctx context.Context, id string) (*data.Seller, error)
	UpdateBackfillProgress(ctx context.Context, sellerID string, status data.BackfillStatus, total, processed, skipped, errs int, lastPaymentID string) error
}

// MarketplaceClient is the subset of marketplace.ClientInterface the
// backfill depends on to discover and batch-read the historical window.
type MarketplaceClient interface {
	SearchPayments(ctx context.Context, sellerToken string, params marketplace.SearchParams) ([]marketplace.PaymentSummary, int, error)
	BatchGetPaymentDetails(ctx context.Context, sellerToken string, paymentIDs []string) (map[string]*marketplace.PaymentDetail, map[string]error)
}

// TokenResolver resolves a seller id to its marketplace access token.
type TokenResolver func(ctx context.Context, sellerID string) (string, error)

// Processor is the subset of *reconcile.Processor the backfill depends on;
// its own idempotency check against existing terminal Payment state is what
// makes re-invoking a failed backfill safely resumable (§4.11 step 5).
type Processor interface {
	Process(ctx context.Context, seller *data.Seller, sellerToken string, detail marketplace.PaymentDetail, rawPayload []byte) (reconcile.Result, error)
}

// Classifier is the subset of *expense.Classifier the backfill depends on
// for non-sale payments the Processor routed to OutcomeSkippedNonSale.
type Classifier interface {
	ClassifyNonSalePayment(ctx context.Context, sellerID, marketplacePaymentID string, detail marketplace.PaymentDetail) (*data.Expense, bool, error)
}

// SettlementRunner is the subset of *settlement.Service the backfill
// depends on to trigger settlement inline once the window contains at least
// one already-released parcel (§4.11 step 3).
type SettlementRunner interface {
	Run(ctx context.Context, params httphandler.SettlementParams) (httphandler.SettlementResult, error)
}

// FeeValidator is the subset of *feevalidator.Validator the backfill
// depends on when an operator requests ReprocessMissingFees.
type FeeValidator interface {
	Run(ctx context.Context, sellerID, sellerToken string, from, to time.Time) (feevalidator.Result, error)
}

// Service implements the Onboarding Backfill and satisfies
// internal/serve.BackfillService.
type Service struct {
	Sellers     SellerStore
	Marketplace MarketplaceClient
	Tokens      TokenResolver
	Processor   Processor
	Classifier  Classifier
	Settlement  SettlementRunner
	FeeCheck    FeeValidator
}

// NewService wires a Service from its collaborators. Classifier, Settlement
// and FeeCheck are optional (nil-safe).
func NewService(sellers SellerStore, mkt MarketplaceClient, tokens TokenResolver, processor Processor, classifier Classifier, settlement SettlementRunner, feeCheck FeeValidator) *Service {
	return &Service{Sellers: sellers, Marketplace: mkt, Tokens: tokens, Processor: processor, Classifier: classifier, Settlement: settlement, FeeCheck: feeCheck}
}

// Run walks one seller's historical payment window through the Processor
// (§4.11).
func (s *Service) Run(ctx context.Context, params httphandler.BackfillParams) (httphandler.BackfillResult, error) {
	seller, err := s.Sellers.Get(ctx, params.Seller)
	if err != nil {
		return httphandler.BackfillResult{}, fmt.Errorf("getting seller %s: %w", params.Seller, err)
	}

	begin := params.BeginDate
	if begin.IsZero() {
		if seller.ERPStartDate == nil {
			return httphandler.BackfillResult{}, fmt.Errorf("seller %s: no erp_start_date and no begin_date given", seller.ID)
		}
		begin = *seller.ERPStartDate
	}
	end := params.EndDate
	if end.IsZero() {
		end = time.Now().AddDate(0, 0, futureReleaseWindowDays)
	}

	token, err := s.Tokens(ctx, seller.ID)
	if err != nil {
		return httphandler.BackfillResult{}, fmt.Errorf("resolving marketplace token: %w", err)
	}

	var result httphandler.BackfillResult
	hasReleasedParcel := false
	lastPaymentID := seller.BackfillLastPaymentID

	if !params.DryRun {
		if err := s.Sellers.UpdateBackfillProgress(ctx, seller.ID, data.BackfillStatusRunning, 0, 0, 0, 0, lastPaymentID); err != nil {
			log.Ctx(ctx).Errorf("seller %s: recording backfill start: %v", seller.ID, err)
		}
	}

	offset := 0
outer:
	for {
		summaries, total, err := s.Marketplace.SearchPayments(ctx, token, marketplace.SearchParams{
			Range:     marketplace.SearchRangeMoneyReleased,
			BeginDate: begin,
			EndDate:   end,
			Offset:    offset,
			Limit:     searchPageSize,
		})
		if err != nil {
			s.persistFailure(ctx, seller.ID, result, lastPaymentID)
			return result, fmt.Errorf("searching payments for seller %s: %w", seller.ID, err)
		}
		if len(summaries) == 0 {
			break
		}

		ids := make([]string, 0, len(summaries))
		for _, sum := range summaries {
			ids = append(ids, sum.ID)
		}
		details, fetchErrs := s.Marketplace.BatchGetPaymentDetails(ctx, token, ids)

		for _, id := range ids {
			if params.MaxProcess > 0 && result.Processed >= params.MaxProcess {
				break outer
			}

			if err, failed := fetchErrs[id]; failed {
				log.Ctx(ctx).Errorf("seller %s: fetching payment %s: %v", seller.ID, id, err)
				result.Errors++
				continue
			}
			detail := details[id]
			if detail == nil {
				continue
			}

			released, err := s.processOne(ctx, seller, token, *detail, params.DryRun, &result)
			if err != nil {
				log.Ctx(ctx).Errorf("seller %s: backfilling payment %s: %v", seller.ID, id, err)
				result.Errors++
				lastPaymentID = id
				continue
			}
			if released {
				hasReleasedParcel = true
			}
			lastPaymentID = id

			if !params.DryRun && result.Processed%progressCheckpointEvery == 0 {
				if err := s.Sellers.UpdateBackfillProgress(ctx, seller.ID, data.BackfillStatusRunning, total, result.Processed, result.Skipped, result.Errors, lastPaymentID); err != nil {
					log.Ctx(ctx).Errorf("seller %s: checkpointing backfill progress: %v", seller.ID, err)
				}
			}
		}

		offset += len(summaries)
		if offset >= total {
			break
		}
	}

	if !params.DryRun {
		if hasReleasedParcel && s.Settlement != nil {
			if _, err := s.Settlement.Run(ctx, httphandler.SettlementParams{Seller: seller.ID, VerifyRelease: true}); err != nil {
				log.Ctx(ctx).Errorf("seller %s: inline settlement trigger after backfill: %v", seller.ID, err)
			}
		}
		if params.ReprocessMissingFees && s.FeeCheck != nil {
			if _, err := s.FeeCheck.Run(ctx, seller.ID, token, begin, end); err != nil {
				log.Ctx(ctx).Errorf("seller %s: fee reprocessing after backfill: %v", seller.ID, err)
			}
		}
		if err := s.Sellers.UpdateBackfillProgress(ctx, seller.ID, data.BackfillStatusCompleted, result.Processed+result.Errors, result.Processed, result.Skipped, result.Errors, lastPaymentID); err != nil {
			log.Ctx(ctx).Errorf("seller %s: recording backfill completion: %v", seller.ID, err)
		}
	}

	return result, nil
}

func (s *Service) processOne(ctx context.Context, seller *data.Seller, token string, detail marketplace.PaymentDetail, dryRun bool, result *httphandler.BackfillResult) (releasedByNow bool, err error) {
	if detail.MoneyReleaseDate != nil && !detail.MoneyReleaseDate.After(time.Now()) {
		releasedByNow = true
	}

	if dryRun {
		result.Processed++
		return releasedByNow, nil
	}

	rawPayload, err := json.Marshal(detail)
	if err != nil {
		return false, fmt.Errorf("marshaling payload: %w", err)
	}

	res, err := s.Processor.Process(ctx, seller, token, detail, rawPayload)
	if err != nil {
		return false, fmt.Errorf("processing payment: %w", err)
	}
	result.Processed++
	result.Enqueued += res.JobsEnqueued
	if res.Kind == reconcile.OutcomeAlreadyDone {
		result.Skipped++
	}
	if res.Kind == reconcile.OutcomeSkippedNonSale && s.Classifier != nil {
		if _, _, err := s.Classifier.ClassifyNonSalePayment(ctx, seller.ID, detail.ID, detail); err != nil {
			return releasedByNow, fmt.Errorf("classifying non-sale payment: %w", err)
		}
	}
	return releasedByNow, nil
}

func (s *Service) persistFailure(ctx context.Context, sellerID string, result httphandler.BackfillResult, lastPaymentID string) {
	if err := s.Sellers.UpdateBackfillProgress(ctx, sellerID, data.BackfillStatusFailed, result.Processed+result.Errors, result.Processed, result.Skipped, result.Errors, lastPaymentID); err != nil {
		log.Ctx(ctx).Errorf("seller %s: recording backfill failure: %v", sellerID, err)
	}
}
