package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketledger/reconciler/db"
)

// WebhookEvent is a lightweight record of one received marketplace webhook
// delivery, persisted before acknowledgment so the sync step can prioritize
// recently-notified payments (§6, §12).
type WebhookEvent struct {
	ID          string          `db:"id"`
	ReceivedAt  string          `db:"received_at"`
	Headers     json.RawMessage `db:"headers"`
	Body        json.RawMessage `db:"body"`
	ProcessedAt *string         `db:"processed_at"`
}

type WebhookEventModel struct {
	dbConnectionPool db.DBConnectionPool
}

// Insert persists one webhook delivery. headers and body are stored as JSONB
// so an operator can inspect a delivery without a wire-format decoder.
func (m *WebhookEventModel) Insert(ctx context.Context, headers, body json.RawMessage) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO webhook_events (id, headers, body) VALUES ($1, $2, $3)`
	if _, err := m.dbConnectionPool.ExecContext(ctx, query, id, headers, body); err != nil {
		return "", fmt.Errorf("inserting webhook event: %w", err)
	}
	return id, nil
}

// MarkProcessed timestamps a webhook event once a later sync pass has
// accounted for it.
func (m *WebhookEventModel) MarkProcessed(ctx context.Context, id string) error {
	query := `UPDATE webhook_events SET processed_at = NOW() WHERE id = $1`
	res, err := m.dbConnectionPool.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("marking webhook event %s processed: %w", id, err)
	}
	return expectOneRowAffected(res)
}

// ListUnprocessed returns webhook deliveries the sync step has not yet
// accounted for, most recent first.
func (m *WebhookEventModel) ListUnprocessed(ctx context.Context, limit int) ([]WebhookEvent, error) {
	var events []WebhookEvent
	query := `SELECT id, received_at, headers, body, processed_at FROM webhook_events
		WHERE processed_at IS NULL ORDER BY received_at DESC LIMIT $1`
	if err := m.dbConnectionPool.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("listing unprocessed webhook events: %w", err)
	}
	return events, nil
}
