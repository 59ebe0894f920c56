package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marketledger/reconciler/db"
)

// Well-known sync keys used by the orchestrator and closing components.
const (
	SyncKeyPaymentsSync  = "payments-sync"
	SyncKeyFeeValidation = "fee-validation"
	SyncKeyGapIngestion  = "gap-ingestion"
	SyncKeySettlement    = "settlement"
	SyncKeyClosing       = "closing"
)

// SyncState is a per-(sync-key, seller) cursor/state blob used to resume
// interrupted runs and record last-run outcomes (§3).
type SyncState struct {
	SyncKey   string          `db:"sync_key"`
	SellerID  string          `db:"seller_id"`
	State     json.RawMessage `db:"state"`
	UpdatedAt string          `db:"updated_at"`
}

type SyncStateModel struct {
	dbConnectionPool db.DBConnectionPool
}

// Get returns the raw state blob for (syncKey, sellerID), or ErrRecordNotFound.
func (m *SyncStateModel) Get(ctx context.Context, syncKey, sellerID string) (json.RawMessage, error) {
	var state json.RawMessage
	query := `SELECT state FROM sync_state WHERE sync_key = $1 AND seller_id = $2`
	err := m.dbConnectionPool.GetContext(ctx, &state, query, syncKey, sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting sync state %s/%s: %w", syncKey, sellerID, err)
	}
	return state, nil
}

// Set upserts the state blob for (syncKey, sellerID).
func (m *SyncStateModel) Set(ctx context.Context, syncKey, sellerID string, state interface{}) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling sync state %s/%s: %w", syncKey, sellerID, err)
	}
	query := `
		INSERT INTO sync_state (sync_key, seller_id, state, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (sync_key, seller_id) DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()`
	if _, err := m.dbConnectionPool.ExecContext(ctx, query, syncKey, sellerID, body); err != nil {
		return fmt.Errorf("setting sync state %s/%s: %w", syncKey, sellerID, err)
	}
	return nil
}

// ClosingAttestation is the state blob persisted under SyncKeyClosing,
// recording the day's Financial Closing result (§4.10).
type ClosingAttestation struct {
	Date     string `json:"date"`
	Closed   bool   `json:"closed"`
	Reason   string `json:"reason,omitempty"`
}

// GetClosingAttestation looks up whether (sellerID, date) was already closed,
// so the orchestrator can skip a day that's already attested.
func (m *SyncStateModel) GetClosingAttestation(ctx context.Context, sellerID, date string) (*ClosingAttestation, error) {
	raw, err := m.Get(ctx, SyncKeyClosing+":"+date, sellerID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var att ClosingAttestation
	if err := json.Unmarshal(raw, &att); err != nil {
		return nil, fmt.Errorf("unmarshaling closing attestation for %s/%s: %w", sellerID, date, err)
	}
	return &att, nil
}

// SetClosingAttestation persists the day's closing result.
func (m *SyncStateModel) SetClosingAttestation(ctx context.Context, sellerID string, att ClosingAttestation) error {
	return m.Set(ctx, SyncKeyClosing+":"+att.Date, sellerID, att)
}
