package backfill

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/marketplace"
	"github.com/marketledger/reconciler/internal/reconcile"
	"github.com/marketledger/reconciler/internal/serve/httphandler"
)

func newTestService(t *testing.T) (*Service, *MockSellerStore, *MockMarketplaceClient, *MockProcessor, *MockClassifier, *MockSettlementRunner) {
	t.Helper()
	sellers := new(MockSellerStore)
	mkt := new(MockMarketplaceClient)
	processor := new(MockProcessor)
	classifier := new(MockClassifier)
	settlement := new(MockSettlementRunner)

	tokens := func(ctx context.Context, sellerID string) (string, error) { return "token", nil }
	svc := NewService(sellers, mkt, tokens, processor, classifier, settlement, nil)
	return svc, sellers, mkt, processor, classifier, settlement
}

func TestRun_ProcessesWindowAndTriggersSettlement(t *testing.T) {
	svc, sellers, mkt, processor, _, settlement := newTestService(t)

	erpStart := time.Now().AddDate(0, -6, 0)
	seller := &data.Seller{ID: "seller-1", ERPStartDate: &erpStart}
	sellers.On("Get", mock.Anything, "seller-1").Return(seller, nil)
	sellers.On("UpdateBackfillProgress", mock.Anything, "seller-1", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	released := time.Now().AddDate(0, 0, -1)
	mkt.On("SearchPayments", mock.Anything, "token", mock.Anything).
		Return([]marketplace.PaymentSummary{{ID: "pay-1"}}, 1, nil)
	mkt.On("BatchGetPaymentDetails", mock.Anything, "token", []string{"pay-1"}).
		Return(map[string]*marketplace.PaymentDetail{
			"pay-1": {ID: "pay-1", MoneyReleaseDate: &released},
		}, map[string]error{})

	processor.On("Process", mock.Anything, seller, "token", mock.Anything, mock.Anything).
		Return(reconcile.Result{Kind: reconcile.OutcomeProcessed, JobsEnqueued: 2}, nil)

	settlement.On("Run", mock.Anything, httphandler.SettlementParams{Seller: "seller-1", VerifyRelease: true}).
		Return(httphandler.SettlementResult{Processed: 1}, nil)

	result, err := svc.Run(context.Background(), httphandler.BackfillParams{Seller: "seller-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 2, result.Enqueued)
	assert.Equal(t, 0, result.Errors)
	settlement.AssertExpectations(t)
}

func TestRun_DryRun_DoesNotCallProcessorOrPersist(t *testing.T) {
	svc, sellers, mkt, processor, _, settlement := newTestService(t)

	erpStart := time.Now().AddDate(0, -6, 0)
	seller := &data.Seller{ID: "seller-1", ERPStartDate: &erpStart}
	sellers.On("Get", mock.Anything, "seller-1").Return(seller, nil)

	mkt.On("SearchPayments", mock.Anything, "token", mock.Anything).
		Return([]marketplace.PaymentSummary{{ID: "pay-1"}}, 1, nil)
	mkt.On("BatchGetPaymentDetails", mock.Anything, "token", []string{"pay-1"}).
		Return(map[string]*marketplace.PaymentDetail{"pay-1": {ID: "pay-1"}}, map[string]error{})

	result, err := svc.Run(context.Background(), httphandler.BackfillParams{Seller: "seller-1", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	settlement.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	sellers.AssertNotCalled(t, "UpdateBackfillProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_MaxProcess_StopsEarly(t *testing.T) {
	svc, sellers, mkt, processor, _, settlement := newTestService(t)

	erpStart := time.Now().AddDate(0, -6, 0)
	seller := &data.Seller{ID: "seller-1", ERPStartDate: &erpStart}
	sellers.On("Get", mock.Anything, "seller-1").Return(seller, nil)
	sellers.On("UpdateBackfillProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	mkt.On("SearchPayments", mock.Anything, "token", mock.Anything).
		Return([]marketplace.PaymentSummary{{ID: "pay-1"}, {ID: "pay-2"}}, 2, nil)
	mkt.On("BatchGetPaymentDetails", mock.Anything, "token", []string{"pay-1", "pay-2"}).
		Return(map[string]*marketplace.PaymentDetail{
			"pay-1": {ID: "pay-1"},
			"pay-2": {ID: "pay-2"},
		}, map[string]error{})
	processor.On("Process", mock.Anything, seller, "token", mock.Anything, mock.Anything).
		Return(reconcile.Result{Kind: reconcile.OutcomeProcessed}, nil).Once()

	result, err := svc.Run(context.Background(), httphandler.BackfillParams{Seller: "seller-1", MaxProcess: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	processor.AssertNumberOfCalls(t, "Process", 1)
	_ = settlement
}
