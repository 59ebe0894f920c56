package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/data"
)

func Test_Manager_MarketplaceToken_usesCachedTokenWhenFresh(t *testing.T) {
	sellers := &MockSellerStore{}
	syncState := &MockSyncStateStore{}
	mktAuth := &MockMarketplaceAuthenticator{}
	erpAuth := &MockERPAuthenticator{}
	m := NewManager(sellers, syncState, mktAuth, erpAuth)

	future := time.Now().Add(time.Hour)
	sellers.On("Get", mock.Anything, "seller-1").Return(&data.Seller{
		ID:                        "seller-1",
		MarketplaceAccessToken:    "still-good",
		MarketplaceTokenExpiresAt: &future,
	}, nil)

	token, err := m.MarketplaceToken(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "still-good", token)
	mktAuth.AssertNotCalled(t, "RefreshMarketplaceToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_Manager_MarketplaceToken_refreshesWhenExpired(t *testing.T) {
	sellers := &MockSellerStore{}
	syncState := &MockSyncStateStore{}
	mktAuth := &MockMarketplaceAuthenticator{}
	erpAuth := &MockERPAuthenticator{}
	m := NewManager(sellers, syncState, mktAuth, erpAuth)

	past := time.Now().Add(-time.Minute)
	sellers.On("Get", mock.Anything, "seller-1").Return(&data.Seller{
		ID:                        "seller-1",
		MarketplaceRefreshToken:   "old-refresh",
		MarketplaceAppID:          "app-1",
		MarketplaceAppSecret:      "secret-1",
		MarketplaceTokenExpiresAt: &past,
	}, nil)

	newExpiry := time.Now().Add(6 * time.Hour)
	mktAuth.On("RefreshMarketplaceToken", mock.Anything, "app-1", "secret-1", "old-refresh").
		Return("new-access", "new-refresh", newExpiry, nil)
	sellers.On("UpdateMarketplaceTokens", mock.Anything, "seller-1", "new-access", "new-refresh", newExpiry).Return(nil)

	token, err := m.MarketplaceToken(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	sellers.AssertExpectations(t)
	mktAuth.AssertExpectations(t)
}

func Test_Manager_MarketplaceToken_serializesPerSeller(t *testing.T) {
	sellers := &MockSellerStore{}
	syncState := &MockSyncStateStore{}
	mktAuth := &MockMarketplaceAuthenticator{}
	erpAuth := &MockERPAuthenticator{}
	m := NewManager(sellers, syncState, mktAuth, erpAuth)

	past := time.Now().Add(-time.Minute)
	seller := &data.Seller{
		ID:                        "seller-1",
		MarketplaceRefreshToken:   "old-refresh",
		MarketplaceTokenExpiresAt: &past,
	}
	sellers.On("Get", mock.Anything, "seller-1").Return(seller, nil)
	newExpiry := time.Now().Add(6 * time.Hour)
	mktAuth.On("RefreshMarketplaceToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("new-access", "new-refresh", newExpiry, nil).Once()
	// The stub persists the refreshed pair like the real store, so callers
	// that waited on the seller lock read the fresh token instead of refreshing.
	sellers.On("UpdateMarketplaceTokens", mock.Anything, "seller-1", "new-access", "new-refresh", newExpiry).
		Run(func(mock.Arguments) {
			seller.MarketplaceAccessToken = "new-access"
			seller.MarketplaceTokenExpiresAt = &newExpiry
		}).Return(nil).Once()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.MarketplaceToken(context.Background(), "seller-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	mktAuth.AssertExpectations(t)
}

func Test_Manager_Token_refreshesAndCaches(t *testing.T) {
	sellers := &MockSellerStore{}
	syncState := &MockSyncStateStore{}
	mktAuth := &MockMarketplaceAuthenticator{}
	erpAuth := &MockERPAuthenticator{}
	m := NewManager(sellers, syncState, mktAuth, erpAuth)

	syncState.On("Get", mock.Anything, erpTokenSyncKey, erpTokenSellerID).Return(nil, errors.New("not found"))
	newExpiry := time.Now().Add(time.Hour)
	erpAuth.On("RefreshERPToken", mock.Anything).Return("erp-access", newExpiry, nil).Once()
	syncState.On("Set", mock.Anything, erpTokenSyncKey, erpTokenSellerID, mock.Anything).Return(nil)

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "erp-access", token)

	// second call should hit the in-memory cache, not refresh again
	token2, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "erp-access", token2)

	erpAuth.AssertNumberOfCalls(t, "RefreshERPToken", 1)
}

func Test_Manager_Invalidate_forcesRefresh(t *testing.T) {
	sellers := &MockSellerStore{}
	syncState := &MockSyncStateStore{}
	mktAuth := &MockMarketplaceAuthenticator{}
	erpAuth := &MockERPAuthenticator{}
	m := NewManager(sellers, syncState, mktAuth, erpAuth)

	syncState.On("Get", mock.Anything, erpTokenSyncKey, erpTokenSellerID).Return(nil, errors.New("not found"))
	syncState.On("Set", mock.Anything, erpTokenSyncKey, erpTokenSellerID, mock.Anything).Return(nil)
	erpAuth.On("RefreshERPToken", mock.Anything).
		Return("first-token", time.Now().Add(time.Hour), nil).Once()

	_, err := m.Token(context.Background())
	require.NoError(t, err)

	m.Invalidate(context.Background())

	erpAuth.On("RefreshERPToken", mock.Anything).
		Return("second-token", time.Now().Add(time.Hour), nil).Once()
	token, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second-token", token)

	erpAuth.AssertExpectations(t)
}
