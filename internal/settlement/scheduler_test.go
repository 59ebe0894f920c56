package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/erpclient"
	"github.com/marketledger/reconciler/internal/serve/httphandler"
)

func TestService_Run_PostsOpenParcela(t *testing.T) {
	erp := new(MockParcelaLister)
	jobs := new(MockJobStore)
	svc := NewService(erp, jobs, nil, nil)

	parcela := erpclient.ParcelaResponse{ID: "parcela-1", ExternalRef: "pay-1", Amount: decimal.NewFromInt(50), DueDate: time.Now().Add(-24 * time.Hour)}
	for _, status := range openStatuses {
		erp.On("BuscarReceivables", mock.Anything, mock.MatchedBy(func(f erpclient.BuscarFilter) bool { return f.Status == status })).
			Return([]erpclient.ParcelaResponse{parcela}, false, nil).Once()
		erp.On("BuscarPayables", mock.Anything, mock.MatchedBy(func(f erpclient.BuscarFilter) bool { return f.Status == status })).
			Return(nil, false, nil).Once()
	}
	jobs.On("Enqueue", mock.Anything, mock.Anything).Return(nil, nil).Times(len(openStatuses))

	result, err := svc.Run(context.Background(), httphandler.SettlementParams{Seller: "seller-1", LookbackDays: 90})
	require.NoError(t, err)
	assert.Equal(t, len(openStatuses), result.Processed)
	assert.Equal(t, len(openStatuses), result.Posted)
	jobs.AssertExpectations(t)
}

func TestService_Run_SkipsUnreleased(t *testing.T) {
	erp := new(MockParcelaLister)
	jobs := new(MockJobStore)
	releases := new(MockReleaseChecker)
	svc := NewService(erp, jobs, releases, func(ctx context.Context, sellerID string) (string, error) { return "token", nil })

	parcela := erpclient.ParcelaResponse{ID: "parcela-2", ExternalRef: "pay-2", Amount: decimal.NewFromInt(50), DueDate: time.Now().Add(-24 * time.Hour)}
	erp.On("BuscarReceivables", mock.Anything, mock.Anything).Return([]erpclient.ParcelaResponse{parcela}, false, nil).Once()
	erp.On("BuscarPayables", mock.Anything, mock.Anything).Return(nil, false, nil).Once()
	releases.On("IsReleased", mock.Anything, "token", "pay-2").Return(false, nil).Once()

	erp.On("BuscarReceivables", mock.Anything, mock.Anything).Return(nil, false, nil)
	erp.On("BuscarPayables", mock.Anything, mock.Anything).Return(nil, false, nil)

	result, err := svc.Run(context.Background(), httphandler.SettlementParams{Seller: "seller-2", VerifyRelease: true, LookbackDays: 90})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	jobs.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestWithinLookback(t *testing.T) {
	now := time.Now()
	assert.True(t, withinLookback(now.Add(-24*time.Hour), now, 90))
	assert.False(t, withinLookback(now.Add(-100*24*time.Hour), now, 90))
	assert.False(t, withinLookback(now.Add(24*time.Hour), now, 90))
}
