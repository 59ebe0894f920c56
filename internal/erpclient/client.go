// Package erpclient implements the typed HTTP client the Queue Worker posts
// revenue, commission, shipping and settlement jobs through (§4.2, §6).
package erpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/marketledger/reconciler/internal/monitor"
	"github.com/marketledger/reconciler/internal/ratelimit"
	"github.com/marketledger/reconciler/internal/serve/httpclient"
	"github.com/marketledger/reconciler/internal/support/log"
)

const (
	contasAReceberPath = "/contas-a-receber"
	contasAPagarPath   = "/contas-a-pagar"
	buscarReceberPath  = "/contas-a-receber/buscar"
	buscarPagarPath    = "/contas-a-pagar/buscar"
	baixaPathFmt       = "/parcelas/%s/baixa"
)

// TokenProvider supplies the bearer token to attach to each request, and is
// told to force a refresh when a request comes back 401 (§4.6).
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// Outcome classifies a completed or failed ERP call the way the Queue
// Worker needs to decide what happens to the job that issued it (§4.2).
type Outcome string

const (
	// OutcomeSuccess is any 2xx response.
	OutcomeSuccess Outcome = "success"
	// OutcomeUnauthorized is a 401: the worker should not count this as a
	// failed attempt, only force a token refresh and retry soon.
	OutcomeUnauthorized Outcome = "unauthorized"
	// OutcomeTransient is 429 or 5xx or a network error/timeout: retry with
	// exponential backoff up to the job's attempt budget.
	OutcomeTransient Outcome = "transient"
	// OutcomePermanent is any other 4xx: dead-letter immediately, no retry.
	OutcomePermanent Outcome = "permanent"
)

// Error wraps a non-2xx ERP response with the outcome classification and
// whatever the ERP told us about why.
type Error struct {
	Outcome    Outcome
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("erp API error: outcome=%s status=%d body=%s", e.Outcome, e.StatusCode, e.Body)
}

// ClassifyStatus maps an HTTP status code to the §4.2 outcome table.
func ClassifyStatus(statusCode int) Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return OutcomeSuccess
	case statusCode == http.StatusUnauthorized:
		return OutcomeUnauthorized
	case statusCode == http.StatusTooManyRequests, statusCode >= 500:
		return OutcomeTransient
	default:
		return OutcomePermanent
	}
}

// ReceivableRequest posts a new contas-a-receber entry (revenue/commission
// job intents land here).
type ReceivableRequest struct {
	SellerID    string          `json:"seller_id"`
	ExternalRef string          `json:"external_ref"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// PayableRequest posts a new contas-a-pagar entry (shipping/fee job intents
// land here).
type PayableRequest struct {
	SellerID    string          `json:"seller_id"`
	ExternalRef string          `json:"external_ref"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// ParcelaResponse is what the ERP hands back for both contas-a-receber and
// contas-a-pagar posts, and for each row a buscar listing returns.
type ParcelaResponse struct {
	ID          string          `json:"id"`
	ExternalRef string          `json:"external_ref"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	DueDate     time.Time       `json:"due_date"`
	SettledAt   *time.Time      `json:"settled_at,omitempty"`
}

// BuscarFilter narrows a GET .../buscar listing to one seller's open
// parcelas, paginated (§6).
type BuscarFilter struct {
	SellerID string
	Status   string
	Page     int
	PageSize int
}

type buscarResponse struct {
	Items      []ParcelaResponse `json:"items"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

// BaixaRequest settles (quita) a parcela, emitted by the Settlement
// Scheduler once the marketplace confirms the payment released (§4.4, §6).
type BaixaRequest struct {
	SettledAt time.Time       `json:"settled_at"`
	Amount    decimal.Decimal `json:"amount"`
}

// ClientInterface is what the Queue Worker and Settlement Scheduler depend
// on, so tests can substitute a mock.
//
//go:generate mockery --name=ClientInterface --case=underscore --structname=MockClient --filename=client_mock.go --inpackage
type ClientInterface interface {
	PostReceivable(ctx context.Context, req ReceivableRequest) (*ParcelaResponse, error)
	PostPayable(ctx context.Context, req PayableRequest) (*ParcelaResponse, error)
	BuscarReceivables(ctx context.Context, filter BuscarFilter) ([]ParcelaResponse, bool, error)
	BuscarPayables(ctx context.Context, filter BuscarFilter) ([]ParcelaResponse, bool, error)
	BaixaParcela(ctx context.Context, parcelaID string, req BaixaRequest) (*ParcelaResponse, error)
}

// Client talks to the ERP's contas-a-receber/contas-a-pagar API.
type Client struct {
	BaseURL        string
	httpClient     httpclient.HTTPClientInterface
	tokens         TokenProvider
	limiter        *ratelimit.TokenBucket
	breaker        *gobreaker.CircuitBreaker
	monitorService monitor.MonitorServiceInterface
}

type ClientOptions struct {
	BaseURL        string
	Tokens         TokenProvider
	Limiter        *ratelimit.TokenBucket
	MonitorService monitor.MonitorServiceInterface
}

// NewClient builds a Client wrapping its outbound calls in the shared rate
// limiter and a circuit breaker that opens after five consecutive failures
// (§4.1).
func NewClient(opts ClientOptions) *Client {
	breakerSettings := gobreaker.Settings{
		Name:        "erp-client",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		BaseURL:        opts.BaseURL,
		httpClient:     httpclient.DefaultClient(),
		tokens:         opts.Tokens,
		limiter:        opts.Limiter,
		breaker:        gobreaker.NewCircuitBreaker(breakerSettings),
		monitorService: opts.MonitorService,
	}
}

func (c *Client) PostReceivable(ctx context.Context, req ReceivableRequest) (*ParcelaResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling receivable request: %w", err)
	}

	var out ParcelaResponse
	if err = c.doJSON(ctx, http.MethodPost, contasAReceberPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PostPayable(ctx context.Context, req PayableRequest) (*ParcelaResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling payable request: %w", err)
	}

	var out ParcelaResponse
	if err = c.doJSON(ctx, http.MethodPost, contasAPagarPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BuscarReceivables(ctx context.Context, filter BuscarFilter) ([]ParcelaResponse, bool, error) {
	return c.buscar(ctx, buscarReceberPath, filter)
}

func (c *Client) BuscarPayables(ctx context.Context, filter BuscarFilter) ([]ParcelaResponse, bool, error) {
	return c.buscar(ctx, buscarPagarPath, filter)
}

func (c *Client) buscar(ctx context.Context, path string, filter BuscarFilter) ([]ParcelaResponse, bool, error) {
	q := url.Values{}
	q.Set("seller_id", filter.SellerID)
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(filter.PageSize))
	}

	var page buscarResponse
	if err := c.doJSONQuery(ctx, http.MethodGet, path, q, nil, &page); err != nil {
		return nil, false, err
	}
	hasMore := page.Page < page.TotalPages
	return page.Items, hasMore, nil
}

func (c *Client) BaixaParcela(ctx context.Context, parcelaID string, req BaixaRequest) (*ParcelaResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling baixa request: %w", err)
	}

	var out ParcelaResponse
	if err = c.doJSON(ctx, http.MethodPost, fmt.Sprintf(baixaPathFmt, parcelaID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON performs one logical call: rate-limit, circuit-break, retry on
// 429/5xx, classify the terminal outcome, and decode a JSON body on success.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out interface{}) error {
	return c.doJSONQuery(ctx, method, path, nil, body, out)
}

func (c *Client) doJSONQuery(ctx context.Context, method, path string, query url.Values, body []byte, out interface{}) error {
	if err := c.limiter.Acquire(ctx); err != nil {
		return fmt.Errorf("acquiring rate limit token: %w", err)
	}

	breakerResult, err := c.breaker.Execute(func() (interface{}, error) {
		return c.requestWithRetry(ctx, method, path, query, body, true)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &Error{Outcome: OutcomeTransient, StatusCode: 0, Body: err.Error()}
		}
		var rerr retryableError
		if errors.As(err, &rerr) {
			outcome := OutcomeTransient
			if rerr.statusCode == http.StatusUnauthorized {
				outcome = OutcomeUnauthorized
			}
			return &Error{Outcome: outcome, StatusCode: rerr.statusCode, Body: err.Error()}
		}
		return err
	}

	resp := breakerResult.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.ContentLength == 0 {
			return nil
		}
		if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil {
			return fmt.Errorf("decoding erp response: %w", decErr)
		}
		return nil
	}

	return c.classifiedError(resp)
}

func (c *Client) classifiedError(resp *http.Response) error {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return &Error{
		Outcome:    ClassifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Body:       buf.String(),
	}
}

// requestWithRetry retries 429/5xx with the backoff schedule from §4.2
// (30s/120s/480s), forcing one token refresh on a 401 before surfacing it.
func (c *Client) requestWithRetry(ctx context.Context, method, path string, query url.Values, body []byte, allowReauth bool) (*http.Response, error) {
	var resp *http.Response
	err := retry.Do(
		func() error {
			startTime := time.Now()
			r, doErr := c.do(ctx, method, path, query, body)
			c.recordERPMetrics(ctx, method, path, startTime, r, doErr)
			if doErr != nil {
				return retryableError{err: fmt.Errorf("submitting request: %w", doErr)}
			}

			if r.StatusCode == http.StatusUnauthorized && allowReauth {
				allowReauth = false
				c.tokens.Invalidate(ctx)
				r.Body.Close()
				return retryableError{
					err:        errors.New("unauthorized, retrying with refreshed token"),
					noBackoff:  true,
					statusCode: http.StatusUnauthorized,
				}
			}

			if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
				retryAfter := parseRetryAfter(r.Header.Get("Retry-After"))
				r.Body.Close()
				return retryableError{
					err:        fmt.Errorf("erp returned status %d", r.StatusCode),
					retryAfter: retryAfter,
					statusCode: r.StatusCode,
				}
			}

			resp = r
			return nil
		},
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			var rerr retryableError
			if errors.As(err, &rerr) {
				if rerr.noBackoff {
					return 0
				}
				if rerr.retryAfter > 0 {
					return rerr.retryAfter
				}
			}
			return backoffSchedule(n)
		}),
		retry.Attempts(4),
		retry.MaxDelay(480*time.Second),
		retry.RetryIf(func(err error) bool {
			var rerr retryableError
			return errors.As(err, &rerr)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warnf("erpclient: retrying %s %s, attempt %d: %v", method, path, n, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// backoffSchedule is the fixed 30s/120s/480s progression from §4.2, rather
// than retry-go's exponential default, since the ERP's own documented
// cooldown windows don't line up with a doubling schedule.
func backoffSchedule(attempt uint) time.Duration {
	switch attempt {
	case 0:
		return 30 * time.Second
	case 1:
		return 120 * time.Second
	default:
		return 480 * time.Second
	}
}

type retryableError struct {
	err        error
	retryAfter time.Duration
	noBackoff  bool
	statusCode int
}

func (r retryableError) Error() string {
	return r.err.Error()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting erp token: %w", err)
	}

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
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func parseRetryAfter(retryAfter string) time.Duration {
	if retryAfter == "" {
		return 0
	}
	seconds, err := strconv.Atoi(retryAfter)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Client) recordERPMetrics(ctx context.Context, method, endpoint string, startTime time.Time, resp *http.Response, reqErr error) {
	if c.monitorService == nil {
		return
	}

	duration := time.Since(startTime)
	status, statusCode := monitor.ParseHTTPResponseStatus(resp, reqErr)

	labels := monitor.ERPAPILabels{
		Method:     method,
		Endpoint:   endpoint,
		Status:     status,
		StatusCode: statusCode,
	}.ToMap()

	if err := c.monitorService.MonitorHistogram(duration.Seconds(), monitor.ERPAPIRequestDurationTag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring erp histogram: %v", err)
	}
	if err := c.monitorService.MonitorCounters(monitor.ERPAPIRequestsTotalTag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring erp counter: %v", err)
	}
}

var _ ClientInterface = (*Client)(nil)
