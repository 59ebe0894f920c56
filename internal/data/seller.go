package data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketledger/reconciler/db"
)

// IntegrationMode controls whether a seller's payments are posted to the ERP
// or only tracked for the dashboard.
type IntegrationMode string

const (
	IntegrationModeDashboardOnly IntegrationMode = "dashboard-only"
	IntegrationModeDashboardERP  IntegrationMode = "dashboard+erp"
)

// OnboardingStatus tracks a seller through admin-driven activation.
type OnboardingStatus string

const (
	OnboardingStatusPendingApproval OnboardingStatus = "pending-approval"
	OnboardingStatusApproved        OnboardingStatus = "approved"
	OnboardingStatusActive          OnboardingStatus = "active"
	OnboardingStatusSuspended       OnboardingStatus = "suspended"
)

// BackfillStatus tracks the onboarding backfill task (§4.11).
type BackfillStatus string

const (
	BackfillStatusPending   BackfillStatus = "pending"
	BackfillStatusRunning   BackfillStatus = "running"
	BackfillStatusCompleted BackfillStatus = "completed"
	BackfillStatusFailed    BackfillStatus = "failed"
)

// Seller is the identity of a marketplace account and its ERP posting
// configuration (§3).
type Seller struct {
	ID                         string           `db:"id"`
	MarketplaceUserID          string           `db:"marketplace_user_id"`
	MarketplaceAccessToken     string           `db:"marketplace_access_token"`
	MarketplaceRefreshToken    string           `db:"marketplace_refresh_token"`
	MarketplaceTokenExpiresAt  *time.Time       `db:"marketplace_token_expires_at"`
	MarketplaceAppID           string           `db:"marketplace_app_id"`
	MarketplaceAppSecret       string           `db:"marketplace_app_secret"`
	ERPRetainedFundsAccountID  string           `db:"erp_retained_funds_account_id"`
	ERPCostCenterID            string           `db:"erp_cost_center_id"`
	ERPCounterpartyContactID   string           `db:"erp_counterparty_contact_id"`
	CompanyName                string           `db:"company_name"`
	DashboardGroup             string           `db:"dashboard_group"`
	DashboardSegment           string           `db:"dashboard_segment"`
	IntegrationMode            IntegrationMode  `db:"integration_mode"`
	ERPStartDate               *time.Time       `db:"erp_start_date"`
	OnboardingStatus           OnboardingStatus `db:"onboarding_status"`
	BackfillStatus             *BackfillStatus  `db:"backfill_status"`
	BackfillTotal              int              `db:"backfill_total"`
	BackfillProcessed          int              `db:"backfill_processed"`
	BackfillSkipped            int              `db:"backfill_skipped"`
	BackfillErrors             int              `db:"backfill_errors"`
	BackfillLastPaymentID      string           `db:"backfill_last_payment_id"`
	CreatedAt                  time.Time        `db:"created_at"`
	UpdatedAt                  time.Time        `db:"updated_at"`
}

// TimeZone is the fixed operational time zone for competence/due date
// arithmetic (§6: "fixed to UTC−3 in this deployment").
func (s Seller) TimeZone() *time.Location {
	loc := time.FixedZone("seller-local", -3*60*60)
	return loc
}

// Validate enforces the invariant from §3: dashboard+erp mode requires ERP
// targets and an erp-start-date that falls on the first of a month.
func (s Seller) Validate() error {
	if s.IntegrationMode != IntegrationModeDashboardERP {
		return nil
	}
	if s.ERPRetainedFundsAccountID == "" || s.ERPCostCenterID == "" || s.ERPCounterpartyContactID == "" {
		return fmt.Errorf("seller %s: integration mode %s requires erp targets", s.ID, s.IntegrationMode)
	}
	if s.ERPStartDate == nil {
		return fmt.Errorf("seller %s: integration mode %s requires erp_start_date", s.ID, s.IntegrationMode)
	}
	if s.ERPStartDate.Day() != 1 {
		return fmt.Errorf("seller %s: erp_start_date %s must fall on the first day of a month", s.ID, s.ERPStartDate.Format("2006-01-02"))
	}
	return nil
}

// IsActiveERP reports whether this seller should receive ERP postings at all.
func (s Seller) IsActiveERP() bool {
	return s.IntegrationMode == IntegrationModeDashboardERP &&
		s.OnboardingStatus == OnboardingStatusActive
}

type SellerModel struct {
	dbConnectionPool db.DBConnectionPool
}

const sellerColumns = `id, marketplace_user_id, marketplace_access_token, marketplace_refresh_token,
	marketplace_token_expires_at, marketplace_app_id, marketplace_app_secret,
	erp_retained_funds_account_id, erp_cost_center_id, erp_counterparty_contact_id,
	company_name, dashboard_group, dashboard_segment, integration_mode, erp_start_date,
	onboarding_status, backfill_status, backfill_total, backfill_processed, backfill_skipped,
	backfill_errors, backfill_last_payment_id, created_at, updated_at`

func (m *SellerModel) Get(ctx context.Context, id string) (*Seller, error) {
	var s Seller
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1`
	if err := m.dbConnectionPool.GetContext(ctx, &s, query, id); err != nil {
		return nil, fmt.Errorf("getting seller %s: %w", id, err)
	}
	return &s, nil
}

func (m *SellerModel) GetActive(ctx context.Context) ([]Seller, error) {
	var sellers []Seller
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE onboarding_status = $1 ORDER BY id`
	if err := m.dbConnectionPool.SelectContext(ctx, &sellers, query, OnboardingStatusActive); err != nil {
		return nil, fmt.Errorf("getting active sellers: %w", err)
	}
	return sellers, nil
}

func (m *SellerModel) Insert(ctx context.Context, s *Seller) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	query := `
		INSERT INTO sellers (id, marketplace_user_id, integration_mode, onboarding_status)
		VALUES ($1, $2, $3, $4)`
	_, err := m.dbConnectionPool.ExecContext(ctx, query, s.ID, s.MarketplaceUserID, s.IntegrationMode, s.OnboardingStatus)
	if err != nil {
		return fmt.Errorf("inserting seller: %w", err)
	}
	return nil
}

func (m *SellerModel) UpdateMarketplaceTokens(ctx context.Context, sellerID, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE sellers
		SET marketplace_access_token = $1, marketplace_refresh_token = $2, marketplace_token_expires_at = $3, updated_at = NOW()
		WHERE id = $4`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, sellerID)
	if err != nil {
		return fmt.Errorf("updating marketplace tokens for seller %s: %w", sellerID, err)
	}
	return expectOneRowAffected(res)
}

func (m *SellerModel) UpdateBackfillProgress(ctx context.Context, sellerID string, status BackfillStatus, total, processed, skipped, errs int, lastPaymentID string) error {
	query := `
		UPDATE sellers
		SET backfill_status = $1, backfill_total = $2, backfill_processed = $3, backfill_skipped = $4,
			backfill_errors = $5, backfill_last_payment_id = $6, updated_at = NOW()
		WHERE id = $7`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, status, total, processed, skipped, errs, lastPaymentID, sellerID)
	if err != nil {
		return fmt.Errorf("updating backfill progress for seller %s: %w", sellerID, err)
	}
	return expectOneRowAffected(res)
}

func expectOneRowAffected(res interface {
	RowsAffected() (int64, error)
}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n != 1 {
		return ErrMismatchNumRowsAffected
	}
	return nil
}
