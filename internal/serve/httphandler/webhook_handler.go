package httphandler

import (
	"context"
	"io"
	"net/http"

	"github.com/marketledger/reconciler/internal/serve/httperror"
)

// WebhookHandler implements POST /webhooks/ml: it must acknowledge within
// the latency budget (≤500ms) and never process the payload synchronously.
type WebhookHandler struct {
	Service interface {
		Accept(ctx context.Context, body []byte, headers http.Header) error
	}
}

func (h WebhookHandler) Post(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httperror.BadRequest("reading webhook body", err, nil).Render(w)
		return
	}

	if err := h.Service.Accept(r.Context(), body, r.Header); err != nil {
		httperror.InternalError(r.Context(), "accepting webhook", err, nil).Render(w)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
