package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketledger/reconciler/db"
)

// PaymentStatus is the local processing status of a Payment (§3). Terminal
// states are Synced, Refunded, Skipped and SkippedNonSale.
type PaymentStatus string

const (
	PaymentStatusPending         PaymentStatus = "pending"
	PaymentStatusQueued          PaymentStatus = "queued"
	PaymentStatusSynced          PaymentStatus = "synced"
	PaymentStatusRefunded        PaymentStatus = "refunded"
	PaymentStatusSkipped         PaymentStatus = "skipped"
	PaymentStatusSkippedNonSale  PaymentStatus = "skipped-non-sale"
)

// IsTerminal reports whether no further processor action is expected once a
// Payment reaches this status (§3: "emit nothing" once terminal).
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSynced, PaymentStatusRefunded, PaymentStatusSkipped, PaymentStatusSkippedNonSale:
		return true
	default:
		return false
	}
}

// paymentStateMachine encodes the transitions a Payment's status may take,
// reusing the generic StateMachine the teacher's state-machine files are
// built on.
func paymentStateMachine(current PaymentStatus) *StateMachine {
	return NewStateMachine(State(current), []StateTransition{
		{From: State(PaymentStatusPending), To: State(PaymentStatusQueued)},
		{From: State(PaymentStatusPending), To: State(PaymentStatusSynced)},
		{From: State(PaymentStatusPending), To: State(PaymentStatusRefunded)},
		{From: State(PaymentStatusPending), To: State(PaymentStatusSkipped)},
		{From: State(PaymentStatusPending), To: State(PaymentStatusSkippedNonSale)},
		{From: State(PaymentStatusQueued), To: State(PaymentStatusSynced)},
		{From: State(PaymentStatusQueued), To: State(PaymentStatusRefunded)},
		{From: State(PaymentStatusSynced), To: State(PaymentStatusRefunded)},
	})
}

// CanTransitionPaymentStatus reports whether from -> to is a legal Payment
// status transition.
func CanTransitionPaymentStatus(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	return paymentStateMachine(from).CanTransitionTo(State(to))
}

// Payment is the local record of one marketplace payment (§3).
type Payment struct {
	ID                   string          `db:"id"`
	SellerID             string          `db:"seller_id"`
	MarketplacePaymentID string          `db:"marketplace_payment_id"`
	MarketplaceStatus    string          `db:"marketplace_status"`
	GrossAmount          decimal.Decimal `db:"gross_amount"`
	NetAmount            decimal.Decimal `db:"net_amount"`
	ShippingToSeller     decimal.Decimal `db:"shipping_to_seller"`
	ReleaseDate          *time.Time      `db:"release_date"`
	ApprovalDate         *time.Time      `db:"approval_date"`
	Status               PaymentStatus   `db:"status"`
	RawPayload           []byte          `db:"raw_payload"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

// Commission is the fee identity invariant from §4.3 / §8.1:
// commission = gross - net - shipping, clamped to zero.
func (p Payment) Commission() decimal.Decimal {
	c := p.GrossAmount.Sub(p.NetAmount).Sub(p.ShippingToSeller)
	if c.IsNegative() {
		return decimal.Zero
	}
	return c
}

type PaymentModel struct {
	dbConnectionPool db.DBConnectionPool
}

const paymentColumns = `id, seller_id, marketplace_payment_id, marketplace_status, gross_amount, net_amount,
	shipping_to_seller, release_date, approval_date, status, raw_payload, created_at, updated_at`

func (m *PaymentModel) GetByMarketplaceID(ctx context.Context, sellerID, marketplacePaymentID string) (*Payment, error) {
	var p Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE seller_id = $1 AND marketplace_payment_id = $2`
	err := m.dbConnectionPool.GetContext(ctx, &p, query, sellerID, marketplacePaymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting payment %s/%s: %w", sellerID, marketplacePaymentID, err)
	}
	return &p, nil
}

// Upsert inserts a new Payment record on first observation, or updates the
// mutable fields on re-classification (§3 lifecycle: "inserted on first
// observation; updated on re-classification").
func (m *PaymentModel) Upsert(ctx context.Context, p *Payment) (*Payment, error) {
	existing, err := m.GetByMarketplaceID(ctx, p.SellerID, p.MarketplacePaymentID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	rawPayload := p.RawPayload
	if rawPayload == nil {
		rawPayload = []byte("{}")
	}
	if !json.Valid(rawPayload) {
		return nil, fmt.Errorf("raw_payload is not valid json")
	}

	if existing == nil {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Status == "" {
			p.Status = PaymentStatusPending
		}
		query := `
			INSERT INTO payments (id, seller_id, marketplace_payment_id, marketplace_status, gross_amount,
				net_amount, shipping_to_seller, release_date, approval_date, status, raw_payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err = m.dbConnectionPool.ExecContext(ctx, query, p.ID, p.SellerID, p.MarketplacePaymentID, p.MarketplaceStatus,
			p.GrossAmount, p.NetAmount, p.ShippingToSeller, p.ReleaseDate, p.ApprovalDate, p.Status, rawPayload)
		if err != nil {
			return nil, fmt.Errorf("inserting payment: %w", err)
		}
		return m.GetByMarketplaceID(ctx, p.SellerID, p.MarketplacePaymentID)
	}

	query := `
		UPDATE payments
		SET marketplace_status = $1, gross_amount = $2, net_amount = $3, shipping_to_seller = $4,
			release_date = $5, approval_date = $6, raw_payload = $7, updated_at = NOW()
		WHERE id = $8`
	_, err = m.dbConnectionPool.ExecContext(ctx, query, p.MarketplaceStatus, p.GrossAmount, p.NetAmount,
		p.ShippingToSeller, p.ReleaseDate, p.ApprovalDate, rawPayload, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("updating payment %s: %w", existing.ID, err)
	}
	return m.GetByMarketplaceID(ctx, p.SellerID, p.MarketplacePaymentID)
}

// TransitionStatus moves a payment to a new status, validating against the
// Payment state machine.
func (m *PaymentModel) TransitionStatus(ctx context.Context, paymentID string, from, to PaymentStatus) error {
	if !CanTransitionPaymentStatus(from, to) {
		return fmt.Errorf("payment %s: illegal transition %s -> %s", paymentID, from, to)
	}
	query := `UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, to, paymentID, from)
	if err != nil {
		return fmt.Errorf("transitioning payment %s to %s: %w", paymentID, to, err)
	}
	return expectOneRowAffected(res)
}

// ListForApprovalWindow lists a seller's payments with approval_date in
// [from, to], used by the Fee Validator and the Financial Closing step.
func (m *PaymentModel) ListForApprovalWindow(ctx context.Context, sellerID string, from, to time.Time) ([]Payment, error) {
	var payments []Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE seller_id = $1 AND approval_date BETWEEN $2 AND $3 ORDER BY approval_date`
	if err := m.dbConnectionPool.SelectContext(ctx, &payments, query, sellerID, from, to); err != nil {
		return nil, fmt.Errorf("listing payments for seller %s: %w", sellerID, err)
	}
	return payments, nil
}

// MarkSyncedIfGroupComplete implements the Group Completion invariant (§8.3):
// a Payment has status `synced` iff every Job with its group-id is completed.
func (m *PaymentModel) MarkSyncedIfGroupComplete(ctx context.Context, paymentID, groupID string) error {
	var outstanding int
	query := `SELECT COUNT(*) FROM jobs WHERE group_id = $1 AND status <> $2`
	if err := m.dbConnectionPool.GetContext(ctx, &outstanding, query, groupID, JobStatusCompleted); err != nil {
		return fmt.Errorf("counting outstanding jobs for group %s: %w", groupID, err)
	}
	if outstanding > 0 {
		return nil
	}
	upd := `UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2 AND status IN ($3, $4)`
	_, err := m.dbConnectionPool.ExecContext(ctx, upd, PaymentStatusSynced, paymentID, PaymentStatusPending, PaymentStatusQueued)
	if err != nil {
		return fmt.Errorf("marking payment %s synced: %w", paymentID, err)
	}
	return nil
}
