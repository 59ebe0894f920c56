package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobModel_Enqueue_IsIdempotent(t *testing.T) {
	models := SetupModels(t)
	ctx := context.Background()

	in := EnqueueInput{
		IdempotencyKey: "seller-1:payment-1:revenue",
		SellerID:       "seller-1",
		Kind:           JobKindRevenue,
		GroupID:        "seller-1:payment-1",
		Priority:       PriorityRevenue,
		Endpoint:       "/contas-a-receber",
		Method:         "POST",
		Body:           []byte(`{"amount":"10.00"}`),
	}

	first, err := models.Jobs.Enqueue(ctx, in)
	require.NoError(t, err)

	second, err := models.Jobs.Enqueue(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestJobModel_ClaimNext_OrdersByPriorityThenAge(t *testing.T) {
	models := SetupModels(t)
	ctx := context.Background()

	_, err := models.Jobs.Enqueue(ctx, EnqueueInput{
		IdempotencyKey: "low-priority",
		SellerID:       "seller-1",
		Kind:           JobKindSettlement,
		GroupID:        "g1",
		Priority:       PrioritySettlement,
		Endpoint:       "/baixas",
		Method:         "POST",
	})
	require.NoError(t, err)

	_, err = models.Jobs.Enqueue(ctx, EnqueueInput{
		IdempotencyKey: "high-priority",
		SellerID:       "seller-1",
		Kind:           JobKindRevenue,
		GroupID:        "g2",
		Priority:       PriorityRevenue,
		Endpoint:       "/contas-a-receber",
		Method:         "POST",
	})
	require.NoError(t, err)

	claimed, err := models.Jobs.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "high-priority", claimed.IdempotencyKey)
	assert.Equal(t, JobStatusProcessing, claimed.Status)
}

func TestJobModel_ClaimNext_NoneEligible(t *testing.T) {
	models := SetupModels(t)
	_, err := models.Jobs.ClaimNext(context.Background())
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestJobModel_DeadLetter_ThenListDeadPaginates(t *testing.T) {
	models := SetupModels(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		job, err := models.Jobs.Enqueue(ctx, EnqueueInput{
			IdempotencyKey: "dead-job-" + string(rune('a'+i)),
			SellerID:       "seller-1",
			Kind:           JobKindCommission,
			GroupID:        "g",
			Priority:       PriorityExpense,
			Endpoint:       "/contas-a-receber",
			Method:         "POST",
			ScheduledAt:    time.Now(),
		})
		require.NoError(t, err)
		require.NoError(t, models.Jobs.DeadLetter(ctx, job.ID, 422, `{"error":"invalid"}`, "erp rejected"))
	}

	page1, total, err := models.Jobs.ListDead(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page1, 2)

	page2, total, err := models.Jobs.ListDead(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page2, 1)

	all, total, err := models.Jobs.ListDead(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)
}

func TestJobModel_RetryAllDead(t *testing.T) {
	models := SetupModels(t)
	ctx := context.Background()

	job, err := models.Jobs.Enqueue(ctx, EnqueueInput{
		IdempotencyKey: "to-retry",
		SellerID:       "seller-1",
		Kind:           JobKindShipping,
		GroupID:        "g",
		Priority:       PriorityExpense,
		Endpoint:       "/contas-a-receber",
		Method:         "POST",
	})
	require.NoError(t, err)
	require.NoError(t, models.Jobs.DeadLetter(ctx, job.ID, 500, "{}", "boom"))

	n, err := models.Jobs.RetryAllDead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reloaded, err := models.Jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, reloaded.Status)
}
