// Package webhook implements the marketplace webhook intake hand-off
// (§6, §12): it validates and persists a delivery within the ≤500ms ack
// budget, and never calls the Payment Processor synchronously — a later
// sync pass reads back unprocessed events to prioritize recently-notified
// payments.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/marketledger/reconciler/internal/utils"
)

// EventStore is the subset of *data.WebhookEventModel the service depends
// on.
type EventStore interface {
	Insert(ctx context.Context, headers, body json.RawMessage) (string, error)
}

// payload is the minimal shape this service validates before persisting a
// delivery (§7 "local validation"): every marketplace webhook names an
// action and the id of the resource that changed.
type payload struct {
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Service implements internal/serve.WebhookService.
type Service struct {
	Events EventStore
}

// NewService wires a Service from its collaborator.
func NewService(events EventStore) *Service {
	return &Service{Events: events}
}

// Accept validates the payload shape and persists it; it deliberately does
// no further processing so the handler's response stays within budget.
func (s *Service) Accept(ctx context.Context, body []byte, headers http.Header) error {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return fmt.Errorf("invalid webhook payload %q: %w", utils.TruncateString(string(body), 80), err)
	}
	if p.Data.ID == "" {
		return fmt.Errorf("invalid webhook payload: missing data.id")
	}

	headerJSON, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("marshaling webhook headers: %w", err)
	}

	if _, err := s.Events.Insert(ctx, headerJSON, body); err != nil {
		return fmt.Errorf("persisting webhook event: %w", err)
	}
	return nil
}
