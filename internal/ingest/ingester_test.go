package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketledger/reconciler/internal/data"
)

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

const sampleStatement = `Saldo inicial: 1.000,00; Saldo final: 1.234,56

RELEASE_DATE;TRANSACTION_TYPE;REFERENCE_ID;TRANSACTION_NET_AMOUNT;PARTIAL_BALANCE
01-03-2026;Diferenca da aliquota interestadual;ref-difal-1;123,45;1.123,45
02-03-2026;Transferencia recebida;ref-transfer-1;1.500,00;2.623,45
03-03-2026;Reclamacoes no Mercado Livre;ref-dispute-1;-80,00;2.543,45
`

func newTestIngester() (*MockPaymentStore, *MockExpenseStore, *Ingester) {
	payments := new(MockPaymentStore)
	expenses := new(MockExpenseStore)
	return payments, expenses, NewIngester(payments, expenses)
}

func TestIngestCSV_ClassifiesAndInserts(t *testing.T) {
	payments, expenses, in := newTestIngester()

	payments.On("GetByMarketplaceID", mock.Anything, "seller-1", mock.Anything).Return(nil, data.ErrRecordNotFound)
	expenses.On("GetByPaymentID", mock.Anything, "seller-1", mock.Anything).Return(nil, data.ErrRecordNotFound)
	expenses.On("Insert", mock.Anything, mock.Anything).Return(&data.Expense{}, true, nil)

	result, err := in.IngestCSV(context.Background(), "seller-1", strings.NewReader(sampleStatement))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, 0, result.Errors)

	expenses.AssertNumberOfCalls(t, "Insert", 3)
}

func TestIngestCSV_SkipsAlreadyCoveredByPayment(t *testing.T) {
	payments, expenses, in := newTestIngester()

	payments.On("GetByMarketplaceID", mock.Anything, "seller-1", "ref-difal-1").Return(&data.Payment{ID: "p-1"}, nil)
	payments.On("GetByMarketplaceID", mock.Anything, "seller-1", mock.Anything).Return(nil, data.ErrRecordNotFound)
	expenses.On("GetByPaymentID", mock.Anything, "seller-1", mock.Anything).Return(nil, data.ErrRecordNotFound)
	expenses.On("Insert", mock.Anything, mock.Anything).Return(&data.Expense{}, true, nil)

	result, err := in.IngestCSV(context.Background(), "seller-1", strings.NewReader(sampleStatement))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.SkippedAlreadyCovered)
	assert.Equal(t, 2, result.Inserted)
}

func TestIngestCSV_SkipsDisputedRefundAlreadyRefunded(t *testing.T) {
	payments, expenses, in := newTestIngester()

	payments.On("GetByMarketplaceID", mock.Anything, "seller-1", "ref-dispute-1").
		Return(&data.Payment{ID: "p-1", Status: data.PaymentStatusRefunded}, nil).Once()
	payments.On("GetByMarketplaceID", mock.Anything, "seller-1", "ref-dispute-1").
		Return(nil, data.ErrRecordNotFound)
	payments.On("GetByMarketplaceID", mock.Anything, "seller-1", mock.Anything).Return(nil, data.ErrRecordNotFound)
	expenses.On("GetByPaymentID", mock.Anything, "seller-1", mock.Anything).Return(nil, data.ErrRecordNotFound)
	expenses.On("Insert", mock.Anything, mock.Anything).Return(&data.Expense{}, true, nil)

	result, err := in.IngestCSV(context.Background(), "seller-1", strings.NewReader(sampleStatement))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedAlreadyCovered)
	assert.Equal(t, 2, result.Inserted)
}

func TestClassify_OrderedFirstMatchWins(t *testing.T) {
	r, ok := classify("Liberacao de dinheiro cancelada por disputa")
	require.True(t, ok)
	assert.Equal(t, "liberacao-cancelada", r.expenseType)

	r, ok = classify("Reembolso de tarifas de venda")
	require.True(t, ok)
	assert.Equal(t, "reembolso-generico", r.expenseType)
}

func TestParseStatementDecimal(t *testing.T) {
	d, err := parseStatementDecimal("1.234,56")
	require.NoError(t, err)
	assert.True(t, d.Equal(mustDecimal("1234.56")))

	d, err = parseStatementDecimal("-80,00")
	require.NoError(t, err)
	assert.True(t, d.Equal(mustDecimal("-80")))
}

func TestCompositeKey(t *testing.T) {
	assert.Equal(t, "ref-1:df", compositeKey("ref-1", "df"))
	assert.Equal(t, "ref-1", compositeKey("ref-1", ""))
}
