// Package marketplace implements the typed HTTP client the Payment
// Processor, Gap Ingester and Settlement Scheduler read marketplace state
// through (§4.3, §4.4, §4.7, §6).
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/marketledger/reconciler/internal/monitor"
	"github.com/marketledger/reconciler/internal/serve/httpclient"
	"github.com/marketledger/reconciler/internal/support/log"
)

const (
	paymentsSearchPath  = "/v1/payments/search"
	paymentByIDPathFmt  = "/v1/payments/%s"
	orderByIDPathFmt    = "/orders/%s"
	shipmentCostsFmt    = "/shipments/%s/costs"
	releaseReportPath   = "/v1/account/release_report"
	releaseCacheTTL     = 15 * time.Minute
	defaultBatchWorkers = 10
)

// SearchRange selects which date field the marketplace's payments/search
// filters on (§6).
type SearchRange string

const (
	SearchRangeDateApproved    SearchRange = "date_approved"
	SearchRangeMoneyReleased   SearchRange = "money_release_date"
)

// SearchParams narrows a payments/search listing (§6).
type SearchParams struct {
	Range     SearchRange
	BeginDate time.Time
	EndDate   time.Time
	Offset    int
	Limit     int
}

type searchResult struct {
	Results []PaymentSummary `json:"results"`
	Paging  struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
		Total  int `json:"total"`
	} `json:"paging"`
}

// PaymentSummary is one row of a payments/search listing.
type PaymentSummary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ChargeDetail is one entry of PaymentDetail.ChargesDetails. Type and From
// are what the Payment Processor's shipping-derivation rule matches against
// (§4.3: `type` starts with "shp_" and `from` = collector).
type ChargeDetail struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	From   string          `json:"from"`
	Amount decimal.Decimal `json:"amount"`
}

// Refund is one entry of PaymentDetail.Refunds.
type Refund struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
	Date   time.Time       `json:"date"`
}

// PaymentDetail is the full payload returned by GET /v1/payments/{id} (§6).
type PaymentDetail struct {
	ID                 string          `json:"id"`
	Status             string          `json:"status"`
	StatusDetail       string          `json:"status_detail"`
	Description        string          `json:"description"`
	CollectorID        string          `json:"collector_id"`
	DateApproved       *time.Time      `json:"date_approved"`
	MoneyReleaseDate   *time.Time      `json:"money_release_date"`
	TransactionAmount  decimal.Decimal `json:"transaction_amount"`
	TransactionDetails struct {
		NetReceivedAmount decimal.Decimal `json:"net_received_amount"`
	} `json:"transaction_details"`
	ChargesDetails []ChargeDetail `json:"charges_details"`
	Refunds        []Refund       `json:"refunds"`
	OrderID        string         `json:"order_id"`
	ShippingID     string         `json:"shipping_id"`
}

// OrderDetail is the payload returned by GET /orders/{id} (§6).
type OrderDetail struct {
	OrderItems []struct {
		Item struct {
			Title string `json:"title"`
		} `json:"item"`
	} `json:"order_items"`
	PackID string `json:"pack_id"`
}

// ShipmentCosts is the payload returned by GET /shipments/{id}/costs,
// consulted as a fallback when a payment's own shipping figure is absent
// (§6).
type ShipmentCosts struct {
	Senders []struct {
		Cost decimal.Decimal `json:"cost"`
	} `json:"senders"`
}

// ReleaseReportHandle identifies a release report requested via
// POST /v1/account/release_report, to be polled for completion (§6, §4.7).
type ReleaseReportHandle struct {
	File string `json:"file"`
}

// ClientInterface is what the Payment Processor, Gap Ingester and
// Settlement Scheduler depend on, so tests can substitute a mock.
//
//go:generate mockery --name=ClientInterface --case=underscore --structname=MockClient --filename=client_mock.go --inpackage
type ClientInterface interface {
	SearchPayments(ctx context.Context, sellerToken string, params SearchParams) ([]PaymentSummary, int, error)
	GetPaymentDetail(ctx context.Context, sellerToken, paymentID string) (*PaymentDetail, error)
	BatchGetPaymentDetails(ctx context.Context, sellerToken string, paymentIDs []string) (map[string]*PaymentDetail, map[string]error)
	GetOrder(ctx context.Context, sellerToken, orderID string) (*OrderDetail, error)
	GetShipmentCosts(ctx context.Context, sellerToken, shipmentID string) (*ShipmentCosts, error)
	RequestReleaseReport(ctx context.Context, sellerToken string, beginDate, endDate time.Time) (*ReleaseReportHandle, error)
	FetchReleaseReport(ctx context.Context, sellerToken string, handle ReleaseReportHandle) ([]byte, error)
	IsReleased(ctx context.Context, sellerToken, paymentID string) (bool, error)
}

// Client talks to the marketplace's payments/orders/shipments/account API.
type Client struct {
	BaseURL        string
	httpClient     httpclient.HTTPClientInterface
	sem            *semaphore.Weighted
	releaseCache   *ristretto.Cache
	monitorService monitor.MonitorServiceInterface
}

type ClientOptions struct {
	BaseURL        string
	BatchWorkers   int
	MonitorService monitor.MonitorServiceInterface
}

// NewClient builds a Client. Parallel batch reads are bounded by a
// semaphore (default 10, §4.5's "Suspension/blocking points"); release
// status lookups are cached for 15 minutes so the Settlement Scheduler's
// per-parcel verification doesn't re-fetch the same payment repeatedly.
func NewClient(opts ClientOptions) (*Client, error) {
	workers := opts.BatchWorkers
	if workers <= 0 {
		workers = defaultBatchWorkers
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("building release status cache: %w", err)
	}

	return &Client{
		BaseURL:        opts.BaseURL,
		httpClient:     httpclient.DefaultClient(),
		sem:            semaphore.NewWeighted(int64(workers)),
		releaseCache:   cache,
		monitorService: opts.MonitorService,
	}, nil
}

func (c *Client) SearchPayments(ctx context.Context, sellerToken string, params SearchParams) ([]PaymentSummary, int, error) {
	q := url.Values{}
	if params.Range != "" {
		q.Set("range", string(params.Range))
	}
	if !params.BeginDate.IsZero() {
		q.Set("begin_date", params.BeginDate.Format(time.RFC3339))
	}
	if !params.EndDate.IsZero() {
		q.Set("end_date", params.EndDate.Format(time.RFC3339))
	}
	q.Set("offset", strconv.Itoa(params.Offset))
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}

	var result searchResult
	if err := c.getJSON(ctx, sellerToken, paymentsSearchPath, q, &result); err != nil {
		return nil, 0, err
	}
	return result.Results, result.Paging.Total, nil
}

func (c *Client) GetPaymentDetail(ctx context.Context, sellerToken, paymentID string) (*PaymentDetail, error) {
	var detail PaymentDetail
	path := fmt.Sprintf(paymentByIDPathFmt, paymentID)
	if err := c.getJSON(ctx, sellerToken, path, nil, &detail); err != nil {
		return nil, err
	}

	released := detail.MoneyReleaseDate != nil && !detail.MoneyReleaseDate.After(time.Now())
	c.releaseCache.SetWithTTL(releaseKey(paymentID), released, 1, releaseCacheTTL)

	return &detail, nil
}

// BatchGetPaymentDetails fetches many payments concurrently, bounded by the
// client's semaphore, returning per-ID results and per-ID errors so one bad
// ID never aborts the batch (§7 "Partial-batch failures").
func (c *Client) BatchGetPaymentDetails(ctx context.Context, sellerToken string, paymentIDs []string) (map[string]*PaymentDetail, map[string]error) {
	results := make(map[string]*PaymentDetail, len(paymentIDs))
	errs := make(map[string]error)
	resultsCh := make(chan struct {
		id     string
		detail *PaymentDetail
		err    error
	}, len(paymentIDs))

	for _, id := range paymentIDs {
		id := id
		if err := c.sem.Acquire(ctx, 1); err != nil {
			resultsCh <- struct {
				id     string
				detail *PaymentDetail
				err    error
			}{id: id, err: err}
			continue
		}
		go func() {
			defer c.sem.Release(1)
			detail, err := c.GetPaymentDetail(ctx, sellerToken, id)
			resultsCh <- struct {
				id     string
				detail *PaymentDetail
				err    error
			}{id: id, detail: detail, err: err}
		}()
	}

	for range paymentIDs {
		r := <-resultsCh
		if r.err != nil {
			errs[r.id] = r.err
			continue
		}
		results[r.id] = r.detail
	}

	return results, errs
}

func (c *Client) GetOrder(ctx context.Context, sellerToken, orderID string) (*OrderDetail, error) {
	var order OrderDetail
	path := fmt.Sprintf(orderByIDPathFmt, orderID)
	if err := c.getJSON(ctx, sellerToken, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetShipmentCosts(ctx context.Context, sellerToken, shipmentID string) (*ShipmentCosts, error) {
	var costs ShipmentCosts
	path := fmt.Sprintf(shipmentCostsFmt, shipmentID)
	if err := c.getJSON(ctx, sellerToken, path, nil, &costs); err != nil {
		return nil, err
	}
	return &costs, nil
}

func (c *Client) RequestReleaseReport(ctx context.Context, sellerToken string, beginDate, endDate time.Time) (*ReleaseReportHandle, error) {
	body, err := json.Marshal(map[string]string{
		"begin_date": beginDate.Format("2006-01-02"),
		"end_date":   endDate.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling release report request: %w", err)
	}

	var handle ReleaseReportHandle
	if err = c.doJSON(ctx, sellerToken, http.MethodPost, releaseReportPath, nil, body, &handle); err != nil {
		return nil, err
	}
	return &handle, nil
}

// FetchReleaseReport downloads the semicolon-delimited CSV the Gap Ingester
// parses (§4.7); the response is returned raw, not JSON-decoded.
func (c *Client) FetchReleaseReport(ctx context.Context, sellerToken string, handle ReleaseReportHandle) ([]byte, error) {
	q := url.Values{}
	q.Set("file", handle.File)

	resp, err := c.request(ctx, sellerToken, http.MethodGet, releaseReportPath+"/"+url.PathEscape(handle.File), q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading release report body: %w", err)
	}
	return raw, nil
}

// IsReleased answers the Settlement Scheduler's release-status check (§4.4)
// from cache when available, falling back to a live payment-detail fetch.
func (c *Client) IsReleased(ctx context.Context, sellerToken, paymentID string) (bool, error) {
	if cached, ok := c.releaseCache.Get(releaseKey(paymentID)); ok {
		return cached.(bool), nil
	}

	detail, err := c.GetPaymentDetail(ctx, sellerToken, paymentID)
	if err != nil {
		return false, err
	}
	return detail.MoneyReleaseDate != nil && !detail.MoneyReleaseDate.After(time.Now()), nil
}

func releaseKey(paymentID string) string {
	return "release:" + paymentID
}

func (c *Client) getJSON(ctx context.Context, sellerToken, path string, query url.Values, out interface{}) error {
	return c.doJSON(ctx, sellerToken, http.MethodGet, path, query, nil, out)
}

func (c *Client) doJSON(ctx context.Context, sellerToken, method, path string, query url.Values, body []byte, out interface{}) error {
	resp, err := c.request(ctx, sellerToken, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding marketplace response: %w", err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, sellerToken, method, path string, query url.Values, body []byte) (*http.Response, error) {
	startTime := time.Now()

	u, err := url.JoinPath(c.BaseURL, path)
	if err != nil {
		return nil, fmt.Errorf("building path: %w", err)
	}
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}

	var bodyReader *bytes.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sellerToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	c.recordMarketplaceMetrics(ctx, method, path, startTime, resp, err)
	if err != nil {
		return nil, fmt.Errorf("submitting request to %s: %w", u, err)
	}
	return resp, nil
}

func (c *Client) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("marketplace API error: status=%d body=%s", resp.StatusCode, string(raw))
}

func (c *Client) recordMarketplaceMetrics(ctx context.Context, method, endpoint string, startTime time.Time, resp *http.Response, reqErr error) {
	if c.monitorService == nil {
		return
	}

	duration := time.Since(startTime)
	status, statusCode := monitor.ParseHTTPResponseStatus(resp, reqErr)

	labels := monitor.MarketplaceAPILabels{
		Method:     method,
		Endpoint:   endpoint,
		Status:     status,
		StatusCode: statusCode,
	}.ToMap()

	if err := c.monitorService.MonitorHistogram(duration.Seconds(), monitor.MarketplaceAPIRequestDurationTag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring marketplace histogram: %v", err)
	}
	if err := c.monitorService.MonitorCounters(monitor.MarketplaceAPIRequestsTotalTag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring marketplace counter: %v", err)
	}
}

var _ ClientInterface = (*Client)(nil)
