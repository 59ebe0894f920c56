package jobqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/data"
)

func TestService_Status_MapsCounts(t *testing.T) {
	jobs := new(MockStatusStore)
	svc := NewService(jobs)

	jobs.On("StatusCounts", mock.Anything).Return(map[data.JobStatus]int{
		data.JobStatusPending: 3,
		data.JobStatusDead:    1,
	}, nil)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, status.Pending)
	assert.Equal(t, 1, status.Dead)
	assert.Equal(t, 0, status.Completed)
}

func TestService_DeadJobs_RendersErrorDetail(t *testing.T) {
	jobs := new(MockStatusStore)
	svc := NewService(jobs)

	lastError := "erp rejected: invalid parcela"
	erpStatus := 422
	jobs.On("ListDead", mock.Anything, 1, 50).Return([]data.Job{
		{ID: "job-1", SellerID: "seller-1", Status: data.JobStatusDead, LastError: &lastError, ERPResponseCode: &erpStatus},
	}, 1, nil)

	views, total, err := svc.DeadJobs(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "job-1", views[0].ID)
	assert.Equal(t, lastError, views[0].LastError)
	assert.Equal(t, erpStatus, views[0].ERPResponseCode)
}

func TestService_RetryAllDead_ReturnsCount(t *testing.T) {
	jobs := new(MockStatusStore)
	svc := NewService(jobs)

	jobs.On("RetryAllDead", mock.Anything).Return(int64(4), nil)

	n, err := svc.RetryAllDead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
