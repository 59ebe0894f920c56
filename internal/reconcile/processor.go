// Package reconcile implements the Payment Processor (§4.3): it turns one
// observed marketplace payment into local Payment state plus the ERP job
// intents (revenue, commission, shipping, refund-reversal, fee-reversal)
// that the Queue Worker will post.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/erpclient"
	"github.com/marketledger/reconciler/internal/jobqueue"
	"github.com/marketledger/reconciler/internal/marketplace"
)

// Fixed posting categories. The data model carries no per-seller category
// override (§3's Seller entity has no such field); every seller posts under
// the same five categories until that becomes configurable.
const (
	CategoryRevenue        = "marketplace-revenue"
	CategoryCommission     = "marketplace-commission"
	CategoryShipping       = "frete"
	CategoryRefundReversal = "devolucao-cancelamento"
	CategoryFeeReversal    = "estorno-taxa"
)

// chargeShippingFrom is the charges_details "from" value the shipping
// derivation rule matches (§4.3: "type starts with shp_ and from=collector").
const chargeShippingFrom = "collector"

// orderCacheSize bounds the best-effort order-title lookup cache; a nightly
// batch can reprocess many payments belonging to the same pack/order.
const orderCacheSize = 2048

// PaymentStore is the subset of *data.PaymentModel the processor depends on.
type PaymentStore interface {
	GetByMarketplaceID(ctx context.Context, sellerID, marketplacePaymentID string) (*data.Payment, error)
	Upsert(ctx context.Context, p *data.Payment) (*data.Payment, error)
	TransitionStatus(ctx context.Context, paymentID string, from, to data.PaymentStatus) error
}

// JobStore is the subset of *data.JobModel the processor depends on.
type JobStore interface {
	Enqueue(ctx context.Context, in data.EnqueueInput) (*data.Job, error)
}

// OrderLookup resolves a marketplace order, used only as a best-effort
// enrichment source; failures here never block posting a payment.
type OrderLookup interface {
	GetOrder(ctx context.Context, sellerToken, orderID string) (*marketplace.OrderDetail, error)
}

// ShipmentLookup is consulted when a payment's own charges_details carry no
// shipping entry, per §6's "fallback when a payment's own shipping figure is
// absent".
type ShipmentLookup interface {
	GetShipmentCosts(ctx context.Context, sellerToken, shipmentID string) (*marketplace.ShipmentCosts, error)
}

// OutcomeKind classifies what Process did with one observed payment.
type OutcomeKind string

const (
	OutcomeSkippedNonSale OutcomeKind = "skipped-non-sale"
	OutcomeSkipped        OutcomeKind = "skipped"
	OutcomePending        OutcomeKind = "pending"
	OutcomeProcessed      OutcomeKind = "processed"
	OutcomeAlreadyDone    OutcomeKind = "already-done"
)

// Result is what Process reports back to its caller (the nightly pipeline's
// sync step or the Onboarding Backfill).
type Result struct {
	Kind         OutcomeKind
	JobsEnqueued int
	Payment      *data.Payment
}

// Processor implements the Payment Processor component.
type Processor struct {
	Payments  PaymentStore
	Jobs      JobStore
	Orders    OrderLookup
	Shipments ShipmentLookup

	orderCache *lru.Cache[string, *marketplace.OrderDetail]
}

// NewProcessor wires a Processor from its collaborators.
func NewProcessor(payments PaymentStore, jobs JobStore, orders OrderLookup, shipments ShipmentLookup) *Processor {
	cache, err := lru.New[string, *marketplace.OrderDetail](orderCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which orderCacheSize
		// never is.
		panic(err)
	}
	return &Processor{Payments: payments, Jobs: jobs, Orders: orders, Shipments: shipments, orderCache: cache}
}

// Process runs one observed payment through the pre-filters, the processor-
// level idempotency check, status routing, and job emission (§4.3).
func (p *Processor) Process(ctx context.Context, seller *data.Seller, sellerToken string, detail marketplace.PaymentDetail, rawPayload []byte) (Result, error) {
	existing, err := p.Payments.GetByMarketplaceID(ctx, seller.ID, detail.ID)
	if err != nil && !errors.Is(err, data.ErrRecordNotFound) {
		return Result{}, fmt.Errorf("looking up payment %s: %w", detail.ID, err)
	}

	if reason, nonSale := preFilterNonSale(detail); nonSale {
		payment, err := p.recordTerminal(ctx, seller, detail, existing, rawPayload, data.PaymentStatusSkippedNonSale)
		if err != nil {
			return Result{}, fmt.Errorf("recording non-sale payment %s (%s): %w", detail.ID, reason, err)
		}
		return Result{Kind: OutcomeSkippedNonSale, Payment: payment}, nil
	}

	route := classify(detail)

	if existing != nil && existing.Status.IsTerminal() {
		if existing.Status != data.PaymentStatusSynced || route != routeRefund && route != routePartialRefund {
			return Result{Kind: OutcomeAlreadyDone, Payment: existing}, nil
		}
	}

	switch route {
	case routeSkip:
		payment, err := p.recordTerminal(ctx, seller, detail, existing, rawPayload, data.PaymentStatusSkipped)
		if err != nil {
			return Result{}, fmt.Errorf("recording skipped payment %s: %w", detail.ID, err)
		}
		return Result{Kind: OutcomeSkipped, Payment: payment}, nil

	case routePending:
		payment, err := p.upsertPending(ctx, seller, detail, rawPayload)
		if err != nil {
			return Result{}, fmt.Errorf("recording pending payment %s: %w", detail.ID, err)
		}
		return Result{Kind: OutcomePending, Payment: payment}, nil

	case routeApproved:
		payment, n, err := p.processApproved(ctx, seller, sellerToken, detail, rawPayload)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: OutcomeProcessed, JobsEnqueued: n, Payment: payment}, nil

	case routePartialRefund:
		payment, n, err := p.processPartialRefund(ctx, seller, sellerToken, detail, rawPayload)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: OutcomeProcessed, JobsEnqueued: n, Payment: payment}, nil

	case routeRefund:
		payment, n, err := p.processRefund(ctx, seller, sellerToken, detail, rawPayload, existing)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: OutcomeProcessed, JobsEnqueued: n, Payment: payment}, nil

	default:
		return Result{}, fmt.Errorf("payment %s: unclassifiable status %q/%q", detail.ID, detail.Status, detail.StatusDetail)
	}
}

// route is the §4.3 status-routing outcome for one PaymentDetail snapshot.
type route int

const (
	routePending route = iota
	routeApproved
	routeRefund
	routePartialRefund
	routeSkip
)

func classify(detail marketplace.PaymentDetail) route {
	status := strings.ToLower(detail.Status)
	detailLower := strings.ToLower(detail.StatusDetail)

	switch status {
	case "cancelled", "rejected":
		return routeSkip
	case "refunded":
		return routeRefund
	case "charged_back":
		if strings.Contains(detailLower, "reimbursed") {
			return routeApproved
		}
		return routeRefund
	case "approved":
		if detailLower == "partially_refunded" {
			return routePartialRefund
		}
		return routeApproved
	default:
		return routePending
	}
}

// preFilterNonSale implements §4.3's three pre-filters, checked before any
// status routing: a payment missing an order, tagged as a shipment-label
// charge, or with no collector is never a sale to this seller.
func preFilterNonSale(detail marketplace.PaymentDetail) (string, bool) {
	if detail.OrderID == "" {
		return "no order id", true
	}
	if detail.Description == "marketplace_shipment" {
		return "marketplace_shipment description", true
	}
	if detail.CollectorID == "" {
		return "no collector id", true
	}
	return "", false
}

func (p *Processor) recordTerminal(ctx context.Context, seller *data.Seller, detail marketplace.PaymentDetail, existing *data.Payment, rawPayload []byte, status data.PaymentStatus) (*data.Payment, error) {
	if existing != nil {
		if existing.Status == status {
			return existing, nil
		}
		if err := p.Payments.TransitionStatus(ctx, existing.ID, existing.Status, status); err != nil {
			return nil, err
		}
		existing.Status = status
		return existing, nil
	}

	payment := p.buildPayment(seller, detail, rawPayload)
	payment.Status = status
	return p.Payments.Upsert(ctx, payment)
}

func (p *Processor) upsertPending(ctx context.Context, seller *data.Seller, detail marketplace.PaymentDetail, rawPayload []byte) (*data.Payment, error) {
	payment := p.buildPayment(seller, detail, rawPayload)
	payment.Status = data.PaymentStatusPending
	return p.Payments.Upsert(ctx, payment)
}

func (p *Processor) buildPayment(seller *data.Seller, detail marketplace.PaymentDetail, rawPayload []byte) *data.Payment {
	return &data.Payment{
		SellerID:             seller.ID,
		MarketplacePaymentID: detail.ID,
		MarketplaceStatus:    detail.Status,
		GrossAmount:          detail.TransactionAmount,
		NetAmount:            detail.TransactionDetails.NetReceivedAmount,
		ShippingToSeller:     decimal.Zero,
		ApprovalDate:         detail.DateApproved,
		ReleaseDate:          detail.MoneyReleaseDate,
		RawPayload:           rawPayload,
	}
}

// shippingAmount implements §4.3's shipping-derivation rule: sum the
// charges_details entries whose type starts with "shp_" and whose from is
// the collector; if none match, fall back to the shipment-costs endpoint.
func (p *Processor) shippingAmount(ctx context.Context, sellerToken string, detail marketplace.PaymentDetail) decimal.Decimal {
	total := decimal.Zero
	matched := false
	for _, c := range detail.ChargesDetails {
		if strings.HasPrefix(c.Type, "shp_") && c.From == chargeShippingFrom {
			total = total.Add(c.Amount)
			matched = true
		}
	}
	if matched {
		return total
	}
	if detail.ShippingID == "" || p.Shipments == nil {
		return decimal.Zero
	}
	costs, err := p.Shipments.GetShipmentCosts(ctx, sellerToken, detail.ShippingID)
	if err != nil || costs == nil {
		return decimal.Zero
	}
	for _, s := range costs.Senders {
		total = total.Add(s.Cost)
	}
	return total
}

// processApproved enqueues the revenue/commission/shipping job intents for a
// newly-approved payment and advances it to queued (§4.3 process-as-approved).
func (p *Processor) processApproved(ctx context.Context, seller *data.Seller, sellerToken string, detail marketplace.PaymentDetail, rawPayload []byte) (*data.Payment, int, error) {
	payment := p.buildPayment(seller, detail, rawPayload)
	payment.ShippingToSeller = p.shippingAmount(ctx, sellerToken, detail)
	payment.Status = data.PaymentStatusPending

	saved, err := p.Payments.Upsert(ctx, payment)
	if err != nil {
		return nil, 0, fmt.Errorf("upserting approved payment %s: %w", detail.ID, err)
	}

	n, err := p.enqueueApprovalJobs(ctx, seller, sellerToken, saved, detail.OrderID)
	if err != nil {
		return nil, 0, err
	}

	if saved.Status == data.PaymentStatusPending {
		if err := p.Payments.TransitionStatus(ctx, saved.ID, data.PaymentStatusPending, data.PaymentStatusQueued); err != nil {
			return nil, 0, fmt.Errorf("queuing payment %s: %w", saved.ID, err)
		}
		saved.Status = data.PaymentStatusQueued
	}

	return saved, n, nil
}

func (p *Processor) enqueueApprovalJobs(ctx context.Context, seller *data.Seller, sellerToken string, payment *data.Payment, orderID string) (int, error) {
	groupID := groupID(seller.ID, payment.ID)
	dueDate := dueDate(payment, seller)
	n := 0

	if payment.GrossAmount.IsPositive() {
		description := string(data.JobKindRevenue)
		if title := p.orderTitle(ctx, sellerToken, orderID); title != "" {
			description = title
		}
		if err := p.enqueueReceivableDescribed(ctx, seller, payment, groupID, data.JobKindRevenue, idempotencyKey(seller.ID, payment.ID, "revenue"),
			payment.GrossAmount, dueDate, CategoryRevenue, data.PriorityRevenue, description); err != nil {
			return n, err
		}
		n++
	}

	if commission := payment.Commission(); commission.IsPositive() {
		if err := p.enqueuePayable(ctx, seller, payment, groupID, data.JobKindCommission, idempotencyKey(seller.ID, payment.ID, "commission"),
			commission, dueDate, CategoryCommission, data.PriorityExpense); err != nil {
			return n, err
		}
		n++
	}

	if payment.ShippingToSeller.IsPositive() {
		if err := p.enqueuePayable(ctx, seller, payment, groupID, data.JobKindShipping, idempotencyKey(seller.ID, payment.ID, "shipping"),
			payment.ShippingToSeller, dueDate, CategoryShipping, data.PriorityExpense); err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}

// processPartialRefund implements the partial-refund carve-out: one
// revenue-reversal job is emitted per refund entry, and the original
// revenue/commission/shipping jobs are left untouched (§4.3, §8.4). A payment
// not seen before is first processed as approved, which enqueues those
// original jobs.
func (p *Processor) processPartialRefund(ctx context.Context, seller *data.Seller, sellerToken string, detail marketplace.PaymentDetail, rawPayload []byte) (*data.Payment, int, error) {
	existing, err := p.Payments.GetByMarketplaceID(ctx, seller.ID, detail.ID)
	if err != nil && !errors.Is(err, data.ErrRecordNotFound) {
		return nil, 0, fmt.Errorf("looking up payment %s: %w", detail.ID, err)
	}
	seeded := 0
	if existing == nil {
		existing, seeded, err = p.processApproved(ctx, seller, sellerToken, detail, rawPayload)
		if err != nil {
			return nil, seeded, err
		}
	}

	groupID := groupID(seller.ID, existing.ID)
	n := seeded
	for _, refund := range detail.Refunds {
		amount := decimal.Min(refund.Amount, existing.GrossAmount)
		if !amount.IsPositive() {
			continue
		}
		if err := p.enqueuePayable(ctx, seller, existing, groupID, data.JobKindPartialRefund,
			idempotencyKey(seller.ID, refund.ID, "partial-refund"), amount, refundDueDate(refund, seller), CategoryRefundReversal, data.PriorityExpense); err != nil {
			return nil, n, err
		}
		n++
	}
	return existing, n, nil
}

// processRefund implements process-as-refunded (§4.3): if the payment was
// never synced before, it is first processed as approved to seed the ledger,
// then a capped revenue-reversal job is enqueued per refund entry, plus one
// fee-reversal job for the commission on a full refund.
func (p *Processor) processRefund(ctx context.Context, seller *data.Seller, sellerToken string, detail marketplace.PaymentDetail, rawPayload []byte, existing *data.Payment) (*data.Payment, int, error) {
	n := 0
	payment := existing
	if payment == nil || payment.Status == data.PaymentStatusPending {
		var err error
		var seeded int
		payment, seeded, err = p.processApproved(ctx, seller, sellerToken, detail, rawPayload)
		if err != nil {
			return nil, 0, err
		}
		n += seeded
	}

	groupID := groupID(seller.ID, payment.ID)
	for _, refund := range detail.Refunds {
		amount := decimal.Min(refund.Amount, payment.GrossAmount)
		if !amount.IsPositive() {
			continue
		}
		if err := p.enqueuePayable(ctx, seller, payment, groupID, data.JobKindRefundReversal,
			idempotencyKey(seller.ID, refund.ID, "refund-reversal"), amount, refundDueDate(refund, seller), CategoryRefundReversal, data.PriorityExpense); err != nil {
			return nil, n, err
		}
		n++
	}

	if commission := payment.Commission(); commission.IsPositive() {
		if err := p.enqueueReceivable(ctx, seller, payment, groupID, data.JobKindFeeReversal,
			idempotencyKey(seller.ID, payment.ID, "fee-reversal"), commission, dueDate(payment, seller), CategoryFeeReversal, data.PriorityExpense); err != nil {
			return nil, n, err
		}
		n++
	}

	from := payment.Status
	if from != data.PaymentStatusRefunded {
		if err := p.Payments.TransitionStatus(ctx, payment.ID, from, data.PaymentStatusRefunded); err != nil {
			return nil, n, fmt.Errorf("transitioning payment %s to refunded: %w", payment.ID, err)
		}
		payment.Status = data.PaymentStatusRefunded
	}

	return payment, n, nil
}

func (p *Processor) enqueueReceivable(ctx context.Context, seller *data.Seller, payment *data.Payment, groupID string, kind data.JobKind, idempotencyKey string, amount decimal.Decimal, due time.Time, category string, priority int) error {
	return p.enqueueReceivableDescribed(ctx, seller, payment, groupID, kind, idempotencyKey, amount, due, category, priority, string(kind))
}

func (p *Processor) enqueueReceivableDescribed(ctx context.Context, seller *data.Seller, payment *data.Payment, groupID string, kind data.JobKind, idempotencyKey string, amount decimal.Decimal, due time.Time, category string, priority int, description string) error {
	body, err := json.Marshal(erpclient.ReceivableRequest{
		SellerID:    seller.ID,
		ExternalRef: payment.MarketplacePaymentID,
		Amount:      amount,
		DueDate:     due,
		Description: description,
		Category:    category,
	})
	if err != nil {
		return fmt.Errorf("encoding receivable job body: %w", err)
	}
	_, err = p.Jobs.Enqueue(ctx, data.EnqueueInput{
		IdempotencyKey: idempotencyKey,
		SellerID:       seller.ID,
		Kind:           kind,
		GroupID:        groupID,
		Priority:       priority,
		Endpoint:       jobqueue.TargetReceivable,
		Method:         "POST",
		Body:           body,
	})
	return err
}

func (p *Processor) enqueuePayable(ctx context.Context, seller *data.Seller, payment *data.Payment, groupID string, kind data.JobKind, idempotencyKey string, amount decimal.Decimal, due time.Time, category string, priority int) error {
	body, err := json.Marshal(erpclient.PayableRequest{
		SellerID:    seller.ID,
		ExternalRef: payment.MarketplacePaymentID,
		Amount:      amount,
		DueDate:     due,
		Description: string(kind),
		Category:    category,
	})
	if err != nil {
		return fmt.Errorf("encoding payable job body: %w", err)
	}
	_, err = p.Jobs.Enqueue(ctx, data.EnqueueInput{
		IdempotencyKey: idempotencyKey,
		SellerID:       seller.ID,
		Kind:           kind,
		GroupID:        groupID,
		Priority:       priority,
		Endpoint:       jobqueue.TargetPayable,
		Method:         "POST",
		Body:           body,
	})
	return err
}

// orderTitle is a best-effort enrichment lookup, cached per order id since a
// nightly pass can observe many payments from the same pack/order. Errors
// are swallowed: the order title never blocks posting a payment.
func (p *Processor) orderTitle(ctx context.Context, sellerToken, orderID string) string {
	if orderID == "" || p.Orders == nil {
		return ""
	}
	if cached, ok := p.orderCache.Get(orderID); ok {
		return firstItemTitle(cached)
	}
	order, err := p.Orders.GetOrder(ctx, sellerToken, orderID)
	if err != nil || order == nil {
		return ""
	}
	p.orderCache.Add(orderID, order)
	return firstItemTitle(order)
}

func firstItemTitle(order *marketplace.OrderDetail) string {
	if order == nil || len(order.OrderItems) == 0 {
		return ""
	}
	return order.OrderItems[0].Item.Title
}

func groupID(sellerID, paymentID string) string {
	return sellerID + ":" + paymentID
}

func idempotencyKey(sellerID, refID, kind string) string {
	return sellerID + ":" + refID + ":" + kind
}

func dueDate(payment *data.Payment, seller *data.Seller) time.Time {
	if payment.ReleaseDate != nil {
		return payment.ReleaseDate.In(seller.TimeZone())
	}
	if payment.ApprovalDate != nil {
		return payment.ApprovalDate.In(seller.TimeZone())
	}
	return time.Now().In(seller.TimeZone())
}

func refundDueDate(refund marketplace.Refund, seller *data.Seller) time.Time {
	if !refund.Date.IsZero() {
		return refund.Date.In(seller.TimeZone())
	}
	return time.Now().In(seller.TimeZone())
}
