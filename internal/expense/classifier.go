// Package expense implements the Expense Classifier (§2's component table,
// supplemented in SPEC_FULL.md §12): it turns the marketplace payments the
// Payment Processor already flagged as non-sale into Expense records, and
// carries the non-order lane of the ERP export step.
package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/marketplace"
)

// rule is one row of the classifier's ordered substring table, matched
// against a non-order payment's description — the same shape as
// internal/ingest's statement rule table, applied to a different source.
type rule struct {
	match          []string
	expenseType    string
	direction      data.ExpenseDirection
	autoCategorize bool
	category       string
}

var ruleTable = []rule{
	{match: []string{"pix enviado", "transferencia pix"}, expenseType: "transferencia-pix", direction: data.ExpenseDirectionExpense},
	{match: []string{"pix recebido", "transferencia recebida"}, expenseType: "entrada-dinheiro", direction: data.ExpenseDirectionIncome},
	{match: []string{"pagamento de anuncio", "publicidade"}, expenseType: "publicidade", direction: data.ExpenseDirectionExpense, autoCategorize: true, category: "marketing"},
	{match: []string{"assinatura", "subscription"}, expenseType: "subscription", direction: data.ExpenseDirectionExpense, autoCategorize: true, category: "assinaturas"},
	{match: []string{"pagamento de conta", "pagamento com"}, expenseType: "pagamento-conta", direction: data.ExpenseDirectionExpense},
}

const defaultExpenseType = "movimentacao-nao-classificada"

// PaymentStore is the subset of *data.PaymentModel the classifier is built
// with. ClassifyNonSalePayment does not read it; a repeated payment is kept
// from being counted twice by ExpenseStore.Insert.
type PaymentStore interface {
	GetByMarketplaceID(ctx context.Context, sellerID, marketplacePaymentID string) (*data.Payment, error)
}

// ExpenseStore is the subset of *data.ExpenseModel the classifier depends
// on.
type ExpenseStore interface {
	Insert(ctx context.Context, e *data.Expense) (*data.Expense, bool, error)
}

// Classifier implements the Expense Classifier.
type Classifier struct {
	Payments PaymentStore
	Expenses ExpenseStore
}

// NewClassifier wires a Classifier from its collaborators.
func NewClassifier(payments PaymentStore, expenses ExpenseStore) *Classifier {
	return &Classifier{Payments: payments, Expenses: expenses}
}

// ClassifyNonSalePayment turns one non-sale marketplace payment (a payment
// the Payment Processor's pre-filter #1 already identified as having no
// order-id) into an Expense record, unless one already exists for it.
func (c *Classifier) ClassifyNonSalePayment(ctx context.Context, sellerID, marketplacePaymentID string, detail marketplace.PaymentDetail) (*data.Expense, bool, error) {
	r := classify(detail.Description)

	occurredOn := time.Now()
	if detail.DateApproved != nil {
		occurredOn = *detail.DateApproved
	}

	status := data.ExpenseStatusPendingReview
	if r.autoCategorize {
		status = data.ExpenseStatusAutoCategorized
	}

	expense := &data.Expense{
		SellerID:          sellerID,
		PaymentID:         marketplacePaymentID,
		Source:            data.ExpenseSourceMarketplaceAPI,
		ExpenseType:       r.expenseType,
		Direction:         r.direction,
		Amount:            detail.TransactionAmount.Abs(),
		OccurredOn:        occurredOn,
		Description:       detail.Description,
		SuggestedCategory: r.category,
		Status:            status,
	}

	saved, inserted, err := c.Expenses.Insert(ctx, expense)
	if err != nil {
		return nil, false, fmt.Errorf("inserting expense for payment %s: %w", marketplacePaymentID, err)
	}
	return saved, inserted, nil
}

func classify(description string) rule {
	lower := strings.ToLower(description)
	for _, r := range ruleTable {
		for _, m := range r.match {
			if strings.Contains(lower, m) {
				return r
			}
		}
	}
	return rule{expenseType: defaultExpenseType, direction: data.ExpenseDirectionExpense}
}
