package serve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/crashtracker"
	"github.com/marketledger/reconciler/internal/serve/httphandler"
)

type mockHTTPServer struct {
	mock.Mock
}

func (m *mockHTTPServer) Run(conf Config) {
	m.Called(conf)
}

type mockQueueService struct{ mock.Mock }

func (m *mockQueueService) Status(ctx context.Context) (httphandler.QueueStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(httphandler.QueueStatus), args.Error(1)
}

func (m *mockQueueService) DeadJobs(ctx context.Context, page, pageLimit int) ([]httphandler.JobView, int, error) {
	args := m.Called(ctx, page, pageLimit)
	return args.Get(0).([]httphandler.JobView), args.Int(1), args.Error(2)
}

func (m *mockQueueService) Retry(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *mockQueueService) RetryAllDead(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockWebhookService struct{ mock.Mock }

func (m *mockWebhookService) Accept(ctx context.Context, body []byte, headers http.Header) error {
	args := m.Called(ctx, body, headers)
	return args.Error(0)
}

func Test_ServeOptions_Validate(t *testing.T) {
	t.Run("requires a positive port", func(t *testing.T) {
		opts := ServeOptions{Port: 0, Queue: &mockQueueService{}, Webhooks: &mockWebhookService{}}
		require.EqualError(t, opts.Validate(), "port must be positive")
	})

	t.Run("requires a queue service", func(t *testing.T) {
		opts := ServeOptions{Port: 8080, Webhooks: &mockWebhookService{}}
		require.EqualError(t, opts.Validate(), "queue service is required")
	})

	t.Run("requires a webhook service", func(t *testing.T) {
		opts := ServeOptions{Port: 8080, Queue: &mockQueueService{}}
		require.EqualError(t, opts.Validate(), "webhook service is required")
	})

	t.Run("passes with the minimum required dependencies", func(t *testing.T) {
		opts := ServeOptions{Port: 8080, Queue: &mockQueueService{}, Webhooks: &mockWebhookService{}}
		require.NoError(t, opts.Validate())
	})
}

func Test_Serve_InvalidOptions(t *testing.T) {
	mServer := &mockHTTPServer{}
	err := Serve(ServeOptions{}, mServer)
	require.Error(t, err)
	mServer.AssertNotCalled(t, "Run", mock.Anything)
}

func Test_Serve_ConfiguresListenAddrAndHandler(t *testing.T) {
	mServer := &mockHTTPServer{}
	mServer.On("Run", mock.MatchedBy(func(conf Config) bool {
		return conf.ListenAddr == ":8080" && conf.Handler != nil
	})).Return()

	crashClient, err := crashtracker.NewDryRunClient()
	require.NoError(t, err)

	opts := ServeOptions{
		Port:               8080,
		CorsAllowedOrigins: []string{"*"},
		CrashTrackerClient: crashClient,
		Queue:              &mockQueueService{},
		Webhooks:           &mockWebhookService{},
	}

	err = Serve(opts, mServer)
	require.NoError(t, err)
	mServer.AssertExpectations(t)
}

func Test_HandleHTTP_QueueStatus(t *testing.T) {
	mQueue := &mockQueueService{}
	mQueue.On("Status", mock.Anything).Return(httphandler.QueueStatus{Pending: 3, Dead: 1}, nil)

	mux := handleHTTP(ServeOptions{
		Queue:    mQueue,
		Webhooks: &mockWebhookService{},
	})

	req := httptest.NewRequest(http.MethodGet, "/queue/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mQueue.AssertExpectations(t)
}

func Test_HandleHTTP_WebhookAccept(t *testing.T) {
	mWebhook := &mockWebhookService{}
	mWebhook.On("Accept", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	mux := handleHTTP(ServeOptions{
		Queue:    &mockQueueService{},
		Webhooks: mWebhook,
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/ml", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	mWebhook.AssertExpectations(t)
}
