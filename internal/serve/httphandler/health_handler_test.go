package httphandler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/marketledger/reconciler/db/mocks"
)

func TestHealthHandler_Get_OkWhenDBPingSucceeds(t *testing.T) {
	pool := mocks.NewMockDBConnectionPool(t)
	pool.On("Ping", mock.Anything).Return(nil)

	handler := HealthHandler{DBConnectionPool: pool}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHealthHandler_Get_DegradedWhenDBPingFails(t *testing.T) {
	pool := mocks.NewMockDBConnectionPool(t)
	pool.On("Ping", mock.Anything).Return(errors.New("connection refused"))

	handler := HealthHandler{DBConnectionPool: pool}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded"}`, rr.Body.String())
}
