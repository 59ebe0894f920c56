package feevalidator

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/marketplace"
)

func newTestValidator() (*MockPaymentStore, *MockJobStore, *MockReleaseReportFetcher, *Validator) {
	payments := new(MockPaymentStore)
	jobs := new(MockJobStore)
	reports := new(MockReleaseReportFetcher)
	return payments, jobs, reports, NewValidator(payments, jobs, reports)
}

func TestRun_NoDiscrepancy_WithinTolerance(t *testing.T) {
	payments, jobs, reports, v := newTestValidator()
	from, to := time.Now().AddDate(0, 0, -3), time.Now()

	payments.On("ListForApprovalWindow", mock.Anything, "seller-1", from, to).Return([]data.Payment{
		{ID: "p-1", MarketplacePaymentID: "ref-1", GrossAmount: decimal.NewFromInt(100), NetAmount: decimal.NewFromInt(90)},
	}, nil)
	reports.On("RequestReleaseReport", mock.Anything, "token", from, to).Return(&marketplace.ReleaseReportHandle{File: "f"}, nil)
	reports.On("FetchReleaseReport", mock.Anything, "token", marketplace.ReleaseReportHandle{File: "f"}).
		Return([]byte("payment_id,commission\nref-1,10.00\n"), nil)

	result, err := v.Run(context.Background(), "seller-1", "token", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Empty(t, result.Discrepancies)
	jobs.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestRun_UnderCharge_EnqueuesPayable(t *testing.T) {
	payments, jobs, reports, v := newTestValidator()
	from, to := time.Now().AddDate(0, 0, -3), time.Now()

	payments.On("ListForApprovalWindow", mock.Anything, "seller-1", from, to).Return([]data.Payment{
		{ID: "p-1", MarketplacePaymentID: "ref-1", GrossAmount: decimal.NewFromInt(100), NetAmount: decimal.NewFromInt(92)},
	}, nil)
	reports.On("RequestReleaseReport", mock.Anything, "token", from, to).Return(&marketplace.ReleaseReportHandle{File: "f"}, nil)
	reports.On("FetchReleaseReport", mock.Anything, "token", marketplace.ReleaseReportHandle{File: "f"}).
		Return([]byte("payment_id,commission\nref-1,5.00\n"), nil)
	jobs.On("Enqueue", mock.Anything, mock.MatchedBy(func(in data.EnqueueInput) bool {
		return in.Kind == data.JobKindFeeAdjustment && in.Endpoint == "contas-a-pagar"
	})).Return(&data.Job{}, nil)

	result, err := v.Run(context.Background(), "seller-1", "token", from, to)
	require.NoError(t, err)
	require.Len(t, result.Discrepancies, 1)
	assert.True(t, result.Discrepancies[0].Delta.IsPositive())
	jobs.AssertExpectations(t)
}

func TestRun_OverCharge_EnqueuesReceivable(t *testing.T) {
	payments, jobs, reports, v := newTestValidator()
	from, to := time.Now().AddDate(0, 0, -3), time.Now()

	payments.On("ListForApprovalWindow", mock.Anything, "seller-1", from, to).Return([]data.Payment{
		{ID: "p-1", MarketplacePaymentID: "ref-1", GrossAmount: decimal.NewFromInt(100), NetAmount: decimal.NewFromInt(92)},
	}, nil)
	reports.On("RequestReleaseReport", mock.Anything, "token", from, to).Return(&marketplace.ReleaseReportHandle{File: "f"}, nil)
	reports.On("FetchReleaseReport", mock.Anything, "token", marketplace.ReleaseReportHandle{File: "f"}).
		Return([]byte("payment_id,commission\nref-1,20.00\n"), nil)
	jobs.On("Enqueue", mock.Anything, mock.MatchedBy(func(in data.EnqueueInput) bool {
		return in.Kind == data.JobKindFeeAdjustment && in.Endpoint == "contas-a-receber"
	})).Return(&data.Job{}, nil)

	result, err := v.Run(context.Background(), "seller-1", "token", from, to)
	require.NoError(t, err)
	require.Len(t, result.Discrepancies, 1)
	assert.True(t, result.Discrepancies[0].Delta.IsNegative())
	jobs.AssertExpectations(t)
}

func TestRun_UnmatchedPayment_Skipped(t *testing.T) {
	payments, jobs, reports, v := newTestValidator()
	from, to := time.Now().AddDate(0, 0, -3), time.Now()

	payments.On("ListForApprovalWindow", mock.Anything, "seller-1", from, to).Return([]data.Payment{
		{ID: "p-1", MarketplacePaymentID: "ref-not-in-report", GrossAmount: decimal.NewFromInt(100), NetAmount: decimal.NewFromInt(90)},
	}, nil)
	reports.On("RequestReleaseReport", mock.Anything, "token", from, to).Return(&marketplace.ReleaseReportHandle{File: "f"}, nil)
	reports.On("FetchReleaseReport", mock.Anything, "token", marketplace.ReleaseReportHandle{File: "f"}).
		Return([]byte("payment_id,commission\nother-ref,5.00\n"), nil)

	result, err := v.Run(context.Background(), "seller-1", "token", from, to)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Checked)
	jobs.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}
