package expense

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/marketplace"
)

func TestClassifyNonSalePayment_MatchesRule(t *testing.T) {
	payments := new(MockPaymentStore)
	expenses := new(MockExpenseStore)
	classifier := NewClassifier(payments, expenses)

	detail := marketplace.PaymentDetail{Description: "Transferencia PIX enviada", TransactionAmount: decimal.NewFromInt(50)}
	expenses.On("Insert", mock.Anything, mock.MatchedBy(func(e *data.Expense) bool {
		return e.ExpenseType == "transferencia-pix" && e.Source == data.ExpenseSourceMarketplaceAPI
	})).Return(&data.Expense{}, true, nil)

	_, inserted, err := classifier.ClassifyNonSalePayment(context.Background(), "seller-1", "pay-1", detail)
	require.NoError(t, err)
	assert.True(t, inserted)
	expenses.AssertExpectations(t)
}

func TestClassifyNonSalePayment_FallsBackToDefault(t *testing.T) {
	payments := new(MockPaymentStore)
	expenses := new(MockExpenseStore)
	classifier := NewClassifier(payments, expenses)

	detail := marketplace.PaymentDetail{Description: "something unrecognized", TransactionAmount: decimal.NewFromInt(10)}
	expenses.On("Insert", mock.Anything, mock.MatchedBy(func(e *data.Expense) bool {
		return e.ExpenseType == defaultExpenseType
	})).Return(&data.Expense{}, true, nil)

	_, _, err := classifier.ClassifyNonSalePayment(context.Background(), "seller-1", "pay-2", detail)
	require.NoError(t, err)
}
