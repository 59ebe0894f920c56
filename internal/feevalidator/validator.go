// Package feevalidator implements the Fee Validator (§4.8): it compares the
// commission the Payment Processor stored against the marketplace's
// authoritative release report and enqueues a compensating ERP entry when
// they disagree by more than a cent.
package feevalidator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/erpclient"
	"github.com/marketledger/reconciler/internal/jobqueue"
	"github.com/marketledger/reconciler/internal/marketplace"
)

// tolerance is §4.8's "|Δ| > 0.01" threshold.
var tolerance = decimal.NewFromFloat(0.01)

const (
	// CategoryFeeAdjustment is the posting category for a compensating
	// fee-adjustment entry.
	CategoryFeeAdjustment = "ajuste-comissao"
)

// releaseReportRow is one line of the CSV the marketplace's release-report
// endpoint returns, keyed by the originating payment id.
type releaseReportRow struct {
	PaymentID  string          `csv:"payment_id"`
	Commission decimal.Decimal `csv:"commission"`
}

// ReleaseReportFetcher is the subset of marketplace.ClientInterface the
// validator depends on.
type ReleaseReportFetcher interface {
	RequestReleaseReport(ctx context.Context, sellerToken string, beginDate, endDate time.Time) (*marketplace.ReleaseReportHandle, error)
	FetchReleaseReport(ctx context.Context, sellerToken string, handle marketplace.ReleaseReportHandle) ([]byte, error)
}

// PaymentStore is the subset of *data.PaymentModel the validator depends on.
type PaymentStore interface {
	ListForApprovalWindow(ctx context.Context, sellerID string, from, to time.Time) ([]data.Payment, error)
}

// JobStore is the subset of *data.JobModel the validator depends on.
type JobStore interface {
	Enqueue(ctx context.Context, in data.EnqueueInput) (*data.Job, error)
}

// Discrepancy records one payment whose stored commission disagreed with
// the authoritative release-report figure.
type Discrepancy struct {
	PaymentID          string
	MarketplacePayment string
	StoredCommission   decimal.Decimal
	ReportCommission   decimal.Decimal
	Delta              decimal.Decimal
}

// Result is the §4.8 outcome of one validation pass.
type Result struct {
	Checked       int
	Discrepancies []Discrepancy
}

// Validator implements the Fee Validator.
type Validator struct {
	Payments PaymentStore
	Jobs     JobStore
	Reports  ReleaseReportFetcher
}

// NewValidator wires a Validator from its collaborators.
func NewValidator(payments PaymentStore, jobs JobStore, reports ReleaseReportFetcher) *Validator {
	return &Validator{Payments: payments, Jobs: jobs, Reports: reports}
}

// Run validates one seller's window against the release report and enqueues
// a compensating job for every discrepancy found (§4.8).
func (v *Validator) Run(ctx context.Context, sellerID, sellerToken string, from, to time.Time) (Result, error) {
	payments, err := v.Payments.ListForApprovalWindow(ctx, sellerID, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("listing payments for seller %s: %w", sellerID, err)
	}

	handle, err := v.Reports.RequestReleaseReport(ctx, sellerToken, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("requesting release report for seller %s: %w", sellerID, err)
	}
	raw, err := v.Reports.FetchReleaseReport(ctx, sellerToken, *handle)
	if err != nil {
		return Result{}, fmt.Errorf("fetching release report for seller %s: %w", sellerID, err)
	}

	byPaymentID, err := parseReleaseReport(raw)
	if err != nil {
		return Result{}, fmt.Errorf("parsing release report for seller %s: %w", sellerID, err)
	}

	result := Result{}
	for _, payment := range payments {
		row, ok := byPaymentID[payment.MarketplacePaymentID]
		if !ok {
			continue
		}
		result.Checked++

		stored := payment.Commission()
		delta := stored.Sub(row.Commission)
		if delta.Abs().LessThanOrEqual(tolerance) {
			continue
		}

		result.Discrepancies = append(result.Discrepancies, Discrepancy{
			PaymentID:          payment.ID,
			MarketplacePayment: payment.MarketplacePaymentID,
			StoredCommission:   stored,
			ReportCommission:   row.Commission,
			Delta:              delta,
		})

		if err := v.enqueueAdjustment(ctx, sellerID, &payment, delta, to); err != nil {
			return result, fmt.Errorf("enqueuing fee adjustment for payment %s: %w", payment.ID, err)
		}
	}

	return result, nil
}

// enqueueAdjustment posts a payable for an under-charge (positive Δ: we owe
// more fee) or a receivable for an over-charge (negative Δ: ERP should
// credit), per §4.8.
func (v *Validator) enqueueAdjustment(ctx context.Context, sellerID string, payment *data.Payment, delta decimal.Decimal, reportDate time.Time) error {
	idempotencyKey := fmt.Sprintf("%s:%s:fee-adj:%s", sellerID, payment.MarketplacePaymentID, reportDate.Format("2006-01-02"))
	amount := delta.Abs()

	if delta.IsPositive() {
		body, err := json.Marshal(erpclient.PayableRequest{
			SellerID:    sellerID,
			ExternalRef: payment.MarketplacePaymentID,
			Amount:      amount,
			DueDate:     reportDate,
			Description: string(data.JobKindFeeAdjustment),
			Category:    CategoryFeeAdjustment,
		})
		if err != nil {
			return err
		}
		_, err = v.Jobs.Enqueue(ctx, data.EnqueueInput{
			IdempotencyKey: idempotencyKey,
			SellerID:       sellerID,
			Kind:           data.JobKindFeeAdjustment,
			GroupID:        fmt.Sprintf("%s:%s", sellerID, payment.ID),
			Priority:       data.PriorityExpense,
			Endpoint:       jobqueue.TargetPayable,
			Method:         "POST",
			Body:           body,
		})
		return err
	}

	body, err := json.Marshal(erpclient.ReceivableRequest{
		SellerID:    sellerID,
		ExternalRef: payment.MarketplacePaymentID,
		Amount:      amount,
		DueDate:     reportDate,
		Description: string(data.JobKindFeeAdjustment),
		Category:    CategoryFeeAdjustment,
	})
	if err != nil {
		return err
	}
	_, err = v.Jobs.Enqueue(ctx, data.EnqueueInput{
		IdempotencyKey: idempotencyKey,
		SellerID:       sellerID,
		Kind:           data.JobKindFeeAdjustment,
		GroupID:        fmt.Sprintf("%s:%s", sellerID, payment.ID),
		Priority:       data.PriorityExpense,
		Endpoint:       jobqueue.TargetReceivable,
		Method:         "POST",
		Body:           body,
	})
	return err
}

func parseReleaseReport(raw []byte) (map[string]releaseReportRow, error) {
	var rows []releaseReportRow
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		return nil, err
	}
	byID := make(map[string]releaseReportRow, len(rows))
	for _, r := range rows {
		byID[r.PaymentID] = r
	}
	return byID, nil
}
