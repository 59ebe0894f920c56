// Package token implements the Token & Credential Manager (§4.6): per-seller
// marketplace OAuth refresh serialized per seller, and a single shared ERP
// token cell, invalidated and force-refreshed on a 401.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/support/log"
)

// SellerStore is the slice of *data.SellerModel this manager needs: loading
// a seller's current tokens and persisting a refreshed pair.
type SellerStore interface {
	Get(ctx context.Context, id string) (*data.Seller, error)
	UpdateMarketplaceTokens(ctx context.Context, sellerID, accessToken, refreshToken string, expiresAt time.Time) error
}

// SyncStateStore is the slice of *data.SyncStateModel this manager needs to
// persist the ERP token singleton across restarts.
type SyncStateStore interface {
	Get(ctx context.Context, syncKey, sellerID string) (json.RawMessage, error)
	Set(ctx context.Context, syncKey, sellerID string, state interface{}) error
}

// erpTokenSyncKey/erpTokenSellerID are the SyncState key this manager
// persists the ERP token singleton under, so it survives a process restart.
// In memory the token is a single shared cell guarded by erpMu: refreshes hold
// the write lock and reads take the read lock, so reads are not lock-free.
const (
	erpTokenSyncKey  = "erp-token"
	erpTokenSellerID = "global"

	// refreshSkew is how far ahead of actual expiry a token is treated as
	// stale, so a call never races a token that expires mid-flight.
	refreshSkew = 60 * time.Second
)

// MarketplaceAuthenticator performs the marketplace's OAuth refresh-token
// exchange. The OAuth dance itself (redirect/consent/code exchange) is
// handled elsewhere; this is only the single-use refresh-token grant.
type MarketplaceAuthenticator interface {
	RefreshMarketplaceToken(ctx context.Context, appID, appSecret, refreshToken string) (accessToken, newRefreshToken string, expiresAt time.Time, err error)
}

// ERPAuthenticator performs the ERP's OAuth2 refresh-token grant (§6).
type ERPAuthenticator interface {
	RefreshERPToken(ctx context.Context) (accessToken string, expiresAt time.Time, err error)
}

type erpTokenState struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Manager coordinates both token families. It satisfies erpclient.TokenProvider.
type Manager struct {
	sellers   SellerStore
	syncState SyncStateStore
	mktAuth   MarketplaceAuthenticator
	erpAuth   ERPAuthenticator

	erpMu    sync.RWMutex
	erpState erpTokenState
	erpReady bool

	sellerLocks sync.Map // sellerID -> *sync.Mutex
}

func NewManager(sellers SellerStore, syncState SyncStateStore, mktAuth MarketplaceAuthenticator, erpAuth ERPAuthenticator) *Manager {
	return &Manager{
		sellers:   sellers,
		syncState: syncState,
		mktAuth:   mktAuth,
		erpAuth:   erpAuth,
	}
}

func (m *Manager) sellerLock(sellerID string) *sync.Mutex {
	lock, _ := m.sellerLocks.LoadOrStore(sellerID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// MarketplaceToken returns a valid access token for sellerID, refreshing it
// first if it's expired or about to expire. The refresh itself is
// serialized per seller so two concurrent callers never both consume the
// same single-use refresh token (§5).
func (m *Manager) MarketplaceToken(ctx context.Context, sellerID string) (string, error) {
	lock := m.sellerLock(sellerID)
	lock.Lock()
	defer lock.Unlock()

	seller, err := m.sellers.Get(ctx, sellerID)
	if err != nil {
		return "", fmt.Errorf("loading seller %s: %w", sellerID, err)
	}

	if seller.MarketplaceTokenExpiresAt != nil && time.Until(*seller.MarketplaceTokenExpiresAt) > refreshSkew {
		return seller.MarketplaceAccessToken, nil
	}

	access, refresh, expiresAt, err := m.mktAuth.RefreshMarketplaceToken(ctx, seller.MarketplaceAppID, seller.MarketplaceAppSecret, seller.MarketplaceRefreshToken)
	if err != nil {
		return "", fmt.Errorf("refreshing marketplace token for seller %s: %w", sellerID, err)
	}

	if err = m.sellers.UpdateMarketplaceTokens(ctx, sellerID, access, refresh, expiresAt); err != nil {
		return "", fmt.Errorf("persisting refreshed marketplace token for seller %s: %w", sellerID, err)
	}

	log.Ctx(ctx).Infof("token: refreshed marketplace token for seller %s, expires %s", sellerID, expiresAt)
	return access, nil
}

// Token implements erpclient.TokenProvider: returns the current ERP token,
// refreshing it under lock if it's expired or never loaded.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.erpMu.RLock()
	if m.erpReady && time.Until(m.erpState.ExpiresAt) > refreshSkew {
		token := m.erpState.AccessToken
		m.erpMu.RUnlock()
		return token, nil
	}
	m.erpMu.RUnlock()

	m.erpMu.Lock()
	defer m.erpMu.Unlock()

	// Re-check: another goroutine may have refreshed while we waited for
	// the write lock.
	if m.erpReady && time.Until(m.erpState.ExpiresAt) > refreshSkew {
		return m.erpState.AccessToken, nil
	}

	if !m.erpReady {
		if loaded, ok := m.loadPersistedERPToken(ctx); ok && time.Until(loaded.ExpiresAt) > refreshSkew {
			m.erpState = loaded
			m.erpReady = true
			return m.erpState.AccessToken, nil
		}
	}

	access, expiresAt, err := m.erpAuth.RefreshERPToken(ctx)
	if err != nil {
		return "", fmt.Errorf("refreshing erp token: %w", err)
	}

	m.erpState = erpTokenState{AccessToken: access, ExpiresAt: expiresAt}
	m.erpReady = true
	if err = m.persistERPToken(ctx, m.erpState); err != nil {
		log.Ctx(ctx).Errorf("token: failed to persist refreshed erp token: %v", err)
	}

	log.Ctx(ctx).Infof("token: refreshed erp token, expires %s", expiresAt)
	return access, nil
}

// Invalidate implements erpclient.TokenProvider: forces the next Token call
// to refresh, used when a request comes back 401 (§4.2, §4.6).
func (m *Manager) Invalidate(ctx context.Context) {
	m.erpMu.Lock()
	defer m.erpMu.Unlock()
	m.erpReady = false
}

func (m *Manager) loadPersistedERPToken(ctx context.Context) (erpTokenState, bool) {
	raw, err := m.syncState.Get(ctx, erpTokenSyncKey, erpTokenSellerID)
	if err != nil {
		return erpTokenState{}, false
	}
	var state erpTokenState
	if err := json.Unmarshal(raw, &state); err != nil {
		return erpTokenState{}, false
	}
	return state, true
}

func (m *Manager) persistERPToken(ctx context.Context, state erpTokenState) error {
	return m.syncState.Set(ctx, erpTokenSyncKey, erpTokenSellerID, state)
}
