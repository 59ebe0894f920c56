package jobqueue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/erpclient"
	"github.com/marketledger/reconciler/internal/ratelimit"
)

func newTestWorker(t *testing.T, jobs *MockJobStore, payments *MockPaymentStore, erp *erpclient.MockClient) *Worker {
	t.Helper()
	limiter, err := ratelimit.NewTokenBucket(9, 9)
	require.NoError(t, err)
	return NewWorker(jobs, payments, erp, limiter, nil)
}

func receivableJob(groupID string) *data.Job {
	body, _ := json.Marshal(erpclient.ReceivableRequest{Amount: decimal.NewFromInt(100)})
	return &data.Job{ID: "job-1", Kind: data.JobKindRevenue, TargetEndpoint: TargetReceivable, GroupID: groupID, RequestBody: body}
}

func TestWorker_RunOnce_Success(t *testing.T) {
	jobs := new(MockJobStore)
	payments := new(MockPaymentStore)
	erp := new(erpclient.MockClient)
	w := newTestWorker(t, jobs, payments, erp)

	job := receivableJob("seller-1:payment-1")
	jobs.On("ClaimNext", mock.Anything).Return(job, nil).Once()
	erp.On("PostReceivable", mock.Anything, mock.Anything).Return(&erpclient.ParcelaResponse{ID: "parcela-1"}, nil).Once()
	jobs.On("Complete", mock.Anything, "job-1", 200, mock.Anything, "parcela-1").Return(nil).Once()
	payments.On("MarkSyncedIfGroupComplete", mock.Anything, "payment-1", "seller-1:payment-1").Return(nil).Once()

	claimed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, claimed)
	jobs.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func TestWorker_RunOnce_EmptyQueue(t *testing.T) {
	jobs := new(MockJobStore)
	payments := new(MockPaymentStore)
	erp := new(erpclient.MockClient)
	w := newTestWorker(t, jobs, payments, erp)

	jobs.On("ClaimNext", mock.Anything).Return(nil, data.ErrRecordNotFound).Once()

	claimed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestWorker_TransientFailure_RetriesWithBackoff(t *testing.T) {
	jobs := new(MockJobStore)
	payments := new(MockPaymentStore)
	erp := new(erpclient.MockClient)
	w := newTestWorker(t, jobs, payments, erp)

	job := receivableJob("seller-1:payment-2")
	job.Attempts = 1 // second failure -> 120s backoff
	jobs.On("ClaimNext", mock.Anything).Return(job, nil).Once()
	erp.On("PostReceivable", mock.Anything, mock.Anything).
		Return(nil, &erpclient.Error{Outcome: erpclient.OutcomeTransient, StatusCode: 503, Body: "down"}).Once()

	var scheduledAt time.Time
	jobs.On("Fail", mock.Anything, "job-1", true, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { scheduledAt = args.Get(3).(time.Time) }).
		Return(nil).Once()

	claimed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.WithinDuration(t, time.Now().Add(120*time.Second), scheduledAt, 5*time.Second)
}

func TestWorker_PermanentFailure_DeadLetters(t *testing.T) {
	jobs := new(MockJobStore)
	payments := new(MockPaymentStore)
	erp := new(erpclient.MockClient)
	w := newTestWorker(t, jobs, payments, erp)

	job := receivableJob("seller-1:payment-3")
	jobs.On("ClaimNext", mock.Anything).Return(job, nil).Once()
	erp.On("PostReceivable", mock.Anything, mock.Anything).
		Return(nil, &erpclient.Error{Outcome: erpclient.OutcomePermanent, StatusCode: 422, Body: "bad request"}).Once()
	jobs.On("DeadLetter", mock.Anything, "job-1", 422, "bad request", mock.Anything).Return(nil).Once()

	claimed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, claimed)
	jobs.AssertExpectations(t)
}

func TestPaymentIDFromGroup(t *testing.T) {
	assert.Equal(t, "payment-1", paymentIDFromGroup("seller-1:payment-1"))
	assert.Equal(t, "", paymentIDFromGroup("no-colon"))
}
