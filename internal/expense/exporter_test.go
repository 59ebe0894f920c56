package expense

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/data"
)

func TestExportWindow_BatchesPending(t *testing.T) {
	lister := new(MockExpenseLister)
	batches := new(MockBatchStore)
	exporter := NewExporter(lister, batches)

	from, to := time.Now().AddDate(0, 0, -1), time.Now()
	pending := []data.Expense{{ID: "e-1", Status: data.ExpenseStatusPendingReview}}
	lister.On("ListForRange", mock.Anything, "seller-1", from, to).Return(pending, nil)
	batches.On("Create", mock.Anything, "seller-1", pending, from, to).Return(&data.ExpenseBatch{ID: "b-1", Status: data.ExpenseBatchStatusGenerated}, nil)
	batches.On("TransitionStatus", mock.Anything, "b-1", data.ExpenseBatchStatusGenerated, data.ExpenseBatchStatusExported).Return(nil)
	lister.On("MarkStatus", mock.Anything, "e-1", data.ExpenseStatusExported).Return(nil)

	batch, err := exporter.ExportWindow(context.Background(), "seller-1", from, to)
	require.NoError(t, err)
	require.NotNil(t, batch)
	lister.AssertExpectations(t)
	batches.AssertExpectations(t)
}

func TestExportWindow_NothingPending_NoOp(t *testing.T) {
	lister := new(MockExpenseLister)
	batches := new(MockBatchStore)
	exporter := NewExporter(lister, batches)

	from, to := time.Now().AddDate(0, 0, -1), time.Now()
	lister.On("ListForRange", mock.Anything, "seller-1", from, to).
		Return([]data.Expense{{ID: "e-1", Status: data.ExpenseStatusImported}}, nil)

	batch, err := exporter.ExportWindow(context.Background(), "seller-1", from, to)
	require.NoError(t, err)
	require.Nil(t, batch)
	batches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
