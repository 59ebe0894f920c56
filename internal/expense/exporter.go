package expense

import (
	"context"
	"fmt"
	"time"

	"github.com/marketledger/reconciler/internal/data"
)

// ExpenseLister is the subset of *data.ExpenseModel the exporter depends on
// to find this window's pending expenses.
type ExpenseLister interface {
	ListForRange(ctx context.Context, sellerID string, from, to time.Time) ([]data.Expense, error)
	MarkStatus(ctx context.Context, expenseID string, status data.ExpenseStatus) error
}

// BatchStore is the subset of *data.ExpenseBatchModel the exporter depends
// on.
type BatchStore interface {
	Create(ctx context.Context, sellerID string, expenses []data.Expense, from, to time.Time) (*data.ExpenseBatch, error)
	TransitionStatus(ctx context.Context, batchID string, from, to data.ExpenseBatchStatus) error
}

// Exporter runs the "export non-order expenses" half of §4.5 step 5. The
// actual XLSX rendering and cloud-storage upload are out of scope (see
// SPEC_FULL.md §13's Non-goals); this advances the ExpenseBatch/Expense
// state machines as if that external hand-off succeeded, which is the part
// the rest of the pipeline (Coverage Checker, Financial Closing) actually
// reads.
type Exporter struct {
	Expenses ExpenseLister
	Batches  BatchStore
}

// NewExporter wires an Exporter from its collaborators.
func NewExporter(expenses ExpenseLister, batches BatchStore) *Exporter {
	return &Exporter{Expenses: expenses, Batches: batches}
}

// ExportWindow batches every not-yet-exported Expense in [from, to] for one
// seller, and is a no-op when there is nothing pending (§4.5 idempotency).
func (ex *Exporter) ExportWindow(ctx context.Context, sellerID string, from, to time.Time) (*data.ExpenseBatch, error) {
	all, err := ex.Expenses.ListForRange(ctx, sellerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing expenses for seller %s: %w", sellerID, err)
	}

	var pending []data.Expense
	for _, e := range all {
		if e.Status != data.ExpenseStatusExported && e.Status != data.ExpenseStatusImported {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	batch, err := ex.Batches.Create(ctx, sellerID, pending, from, to)
	if err != nil {
		return nil, fmt.Errorf("creating expense batch for seller %s: %w", sellerID, err)
	}

	if err := ex.Batches.TransitionStatus(ctx, batch.ID, data.ExpenseBatchStatusGenerated, data.ExpenseBatchStatusExported); err != nil {
		return nil, fmt.Errorf("transitioning batch %s to exported: %w", batch.ID, err)
	}

	for _, e := range pending {
		if err := ex.Expenses.MarkStatus(ctx, e.ID, data.ExpenseStatusExported); err != nil {
			return nil, fmt.Errorf("marking expense %s exported: %w", e.ID, err)
		}
	}

	return batch, nil
}
