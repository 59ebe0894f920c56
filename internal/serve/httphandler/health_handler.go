package httphandler

import (
	"net/http"

	"github.com/marketledger/reconciler/db"
	"github.com/marketledger/reconciler/internal/serve/httpjson"
)

// HealthHandler backs a liveness/readiness probe: it pings the database and
// reports ok/degraded without leaking connection details.
type HealthHandler struct {
	DBConnectionPool db.DBConnectionPool
}

func (h HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if err := h.DBConnectionPool.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	httpjson.RenderStatus(w, code, map[string]string{"status": status}, httpjson.JSON)
}
