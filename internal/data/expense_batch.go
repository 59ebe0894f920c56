package data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketledger/reconciler/db"
)

// ExpenseBatchStatus tracks one XLSX export run; transitions only forward
// (§3: generated -> exported -> imported).
type ExpenseBatchStatus string

const (
	ExpenseBatchStatusGenerated ExpenseBatchStatus = "generated"
	ExpenseBatchStatusExported  ExpenseBatchStatus = "exported"
	ExpenseBatchStatusImported  ExpenseBatchStatus = "imported"
)

func expenseBatchStateMachine(current ExpenseBatchStatus) *StateMachine {
	return NewStateMachine(State(current), []StateTransition{
		{From: State(ExpenseBatchStatusGenerated), To: State(ExpenseBatchStatusExported)},
		{From: State(ExpenseBatchStatusExported), To: State(ExpenseBatchStatusImported)},
	})
}

// CanTransitionExpenseBatchStatus reports whether from -> to is a legal,
// forward-only ExpenseBatch status transition.
func CanTransitionExpenseBatchStatus(from, to ExpenseBatchStatus) bool {
	if from == to {
		return true
	}
	return expenseBatchStateMachine(from).CanTransitionTo(State(to))
}

// ExpenseBatch is one XLSX export run (§3).
type ExpenseBatch struct {
	ID          string             `db:"id"`
	SellerID    string             `db:"seller_id"`
	Status      ExpenseBatchStatus `db:"status"`
	RowCount    int                `db:"row_count"`
	AmountTotal decimal.Decimal    `db:"amount_total"`
	DateFrom    time.Time          `db:"date_from"`
	DateTo      time.Time          `db:"date_to"`
	CreatedAt   time.Time          `db:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at"`
}

type ExpenseBatchModel struct {
	dbConnectionPool db.DBConnectionPool
}

const expenseBatchColumns = `id, seller_id, status, row_count, amount_total, date_from, date_to, created_at, updated_at`

// Create generates a new ExpenseBatch and links every given Expense ID to it
// via expense_batch_items, inside one transaction.
func (m *ExpenseBatchModel) Create(ctx context.Context, sellerID string, expenses []Expense, from, to time.Time) (*ExpenseBatch, error) {
	return db.RunInTransactionWithResult(ctx, m.dbConnectionPool, nil, func(dbTx db.DBTransaction) (*ExpenseBatch, error) {
		total := decimal.Zero
		for _, e := range expenses {
			if e.Direction == ExpenseDirectionExpense {
				total = total.Sub(e.Amount)
			} else {
				total = total.Add(e.Amount)
			}
		}

		batchID := uuid.NewString()
		insertBatch := `
			INSERT INTO expense_batches (id, seller_id, status, row_count, amount_total, date_from, date_to)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := dbTx.ExecContext(ctx, insertBatch, batchID, sellerID, ExpenseBatchStatusGenerated, len(expenses), total, from, to); err != nil {
			return nil, fmt.Errorf("inserting expense batch: %w", err)
		}

		for _, e := range expenses {
			itemID := uuid.NewString()
			insertItem := `INSERT INTO expense_batch_items (id, expense_batch_id, expense_id) VALUES ($1, $2, $3)`
			if _, err := dbTx.ExecContext(ctx, insertItem, itemID, batchID, e.ID); err != nil {
				return nil, fmt.Errorf("linking expense %s to batch %s: %w", e.ID, batchID, err)
			}
		}

		var batch ExpenseBatch
		query := `SELECT ` + expenseBatchColumns + ` FROM expense_batches WHERE id = $1`
		if err := dbTx.GetContext(ctx, &batch, query, batchID); err != nil {
			return nil, fmt.Errorf("reading back expense batch %s: %w", batchID, err)
		}
		return &batch, nil
	})
}

func (m *ExpenseBatchModel) TransitionStatus(ctx context.Context, batchID string, from, to ExpenseBatchStatus) error {
	if !CanTransitionExpenseBatchStatus(from, to) {
		return fmt.Errorf("expense batch %s: illegal transition %s -> %s", batchID, from, to)
	}
	query := `UPDATE expense_batches SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, to, batchID, from)
	if err != nil {
		return fmt.Errorf("transitioning expense batch %s to %s: %w", batchID, to, err)
	}
	return expectOneRowAffected(res)
}
