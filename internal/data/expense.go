package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketledger/reconciler/db"
)

// ExpenseSource distinguishes a non-order marketplace payment from a
// bank-statement gap line (§3).
type ExpenseSource string

const (
	ExpenseSourceMarketplaceAPI  ExpenseSource = "marketplace-api"
	ExpenseSourceBankStatement   ExpenseSource = "bank-statement"
)

// ExpenseDirection is the cash-flow direction of an Expense line (§3, §4.7).
type ExpenseDirection string

const (
	ExpenseDirectionExpense  ExpenseDirection = "expense"
	ExpenseDirectionIncome   ExpenseDirection = "income"
	ExpenseDirectionTransfer ExpenseDirection = "transfer"
)

// ExpenseStatus tracks an Expense through categorization and XLSX export
// (§3).
type ExpenseStatus string

const (
	ExpenseStatusPendingReview       ExpenseStatus = "pending-review"
	ExpenseStatusAutoCategorized     ExpenseStatus = "auto-categorized"
	ExpenseStatusManuallyCategorized ExpenseStatus = "manually-categorized"
	ExpenseStatusExported            ExpenseStatus = "exported"
	ExpenseStatusImported            ExpenseStatus = "imported"
)

// Expense is a non-order payment or bank-statement gap line to be exported
// to the ERP via XLSX (§3).
type Expense struct {
	ID                string           `db:"id"`
	SellerID          string           `db:"seller_id"`
	PaymentID          string           `db:"payment_id"`
	Source            ExpenseSource    `db:"source"`
	ExpenseType       string           `db:"expense_type"`
	Direction         ExpenseDirection `db:"direction"`
	Amount            decimal.Decimal  `db:"amount"`
	OccurredOn        time.Time        `db:"occurred_on"`
	Description       string           `db:"description"`
	Beneficiary       string           `db:"beneficiary"`
	SuggestedCategory string           `db:"suggested_category"`
	Status            ExpenseStatus    `db:"status"`
	CreatedAt         time.Time        `db:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at"`
}

type ExpenseModel struct {
	dbConnectionPool db.DBConnectionPool
}

const expenseColumns = `id, seller_id, payment_id, source, expense_type, direction, amount, occurred_on,
	description, beneficiary, suggested_category, status, created_at, updated_at`

func (m *ExpenseModel) GetByPaymentID(ctx context.Context, sellerID, paymentID string) (*Expense, error) {
	var e Expense
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE seller_id = $1 AND payment_id = $2`
	err := m.dbConnectionPool.GetContext(ctx, &e, query, sellerID, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting expense %s/%s: %w", sellerID, paymentID, err)
	}
	return &e, nil
}

// GetByReferenceID looks up an Expense by a bank-statement REFERENCE_ID,
// matching either a bare payment_id or a composite
// "{reference-id}:{abbreviation}" key (§4.7's multi-row-reference
// convention), used by the Coverage Checker which only has the raw
// reference id to go on.
func (m *ExpenseModel) GetByReferenceID(ctx context.Context, sellerID, referenceID string) (*Expense, error) {
	var e Expense
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE seller_id = $1 AND (payment_id = $2 OR payment_id LIKE $2 || ':%')
		ORDER BY created_at LIMIT 1`
	err := m.dbConnectionPool.GetContext(ctx, &e, query, sellerID, referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting expense by reference %s/%s: %w", sellerID, referenceID, err)
	}
	return &e, nil
}

// Insert creates an Expense unless one already exists for (seller,
// payment-id) — the dedup invariant from §3 and §8.8 (at most one Expense
// record per statement row across any number of re-ingests).
func (m *ExpenseModel) Insert(ctx context.Context, e *Expense) (*Expense, bool, error) {
	existing, err := m.GetByPaymentID(ctx, e.SellerID, e.PaymentID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = ExpenseStatusPendingReview
	}
	query := `
		INSERT INTO expenses (id, seller_id, payment_id, source, expense_type, direction, amount,
			occurred_on, description, beneficiary, suggested_category, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (seller_id, payment_id) DO NOTHING`
	_, err = m.dbConnectionPool.ExecContext(ctx, query, e.ID, e.SellerID, e.PaymentID, e.Source, e.ExpenseType,
		e.Direction, e.Amount, e.OccurredOn, e.Description, e.Beneficiary, e.SuggestedCategory, e.Status)
	if err != nil {
		return nil, false, fmt.Errorf("inserting expense: %w", err)
	}
	inserted, err := m.GetByPaymentID(ctx, e.SellerID, e.PaymentID)
	if err != nil {
		return nil, false, err
	}
	return inserted, true, nil
}

// ListForRange lists a seller's expenses with occurred_on in [from, to], used
// by the Coverage Checker and export step.
func (m *ExpenseModel) ListForRange(ctx context.Context, sellerID string, from, to time.Time) ([]Expense, error) {
	var expenses []Expense
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE seller_id = $1 AND occurred_on BETWEEN $2 AND $3 ORDER BY occurred_on`
	if err := m.dbConnectionPool.SelectContext(ctx, &expenses, query, sellerID, from, to); err != nil {
		return nil, fmt.Errorf("listing expenses for seller %s: %w", sellerID, err)
	}
	return expenses, nil
}

func (m *ExpenseModel) MarkStatus(ctx context.Context, expenseID string, status ExpenseStatus) error {
	query := `UPDATE expenses SET status = $1, updated_at = NOW() WHERE id = $2`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, status, expenseID)
	if err != nil {
		return fmt.Errorf("updating expense %s status: %w", expenseID, err)
	}
	return expectOneRowAffected(res)
}

func (m *ExpenseModel) CountPendingExport(ctx context.Context, sellerID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM expenses WHERE seller_id = $1 AND status NOT IN ($2, $3)`
	err := m.dbConnectionPool.GetContext(ctx, &count, query, sellerID, ExpenseStatusExported, ExpenseStatusImported)
	if err != nil {
		return 0, fmt.Errorf("counting pending export expenses for seller %s: %w", sellerID, err)
	}
	return count, nil
}
