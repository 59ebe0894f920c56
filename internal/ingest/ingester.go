// Package ingest implements the Bank-Statement Gap Ingester (§4.7): it reads
// the marketplace's bank-account statement CSV, skips anything already
// covered by a Payment or an Expense, classifies the rest against an ordered
// rule table, and records the gaps as Expense lines.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/marketledger/reconciler/internal/data"
)

// statementDateLayout is §4.7's "DD-MM-YYYY" date format.
const statementDateLayout = "02-01-2006"

// headerPrefix marks the start of the actual data block; everything before
// it (the aggregate-balances header line, then a blank line) is preamble.
const headerPrefix = "RELEASE_DATE"

// statementRow is one data row of the statement CSV, after the preamble has
// been stripped (§4.7).
type statementRow struct {
	ReleaseDate string `csv:"RELEASE_DATE"`
	Type        string `csv:"TRANSACTION_TYPE"`
	ReferenceID string `csv:"REFERENCE_ID"`
	NetAmount   string `csv:"TRANSACTION_NET_AMOUNT"`
	Balance     string `csv:"PARTIAL_BALANCE"`
}

// rule is one row of §4.7's ordered classification table. ExpenseType ==""
// means the line is covered elsewhere and should be skipped without an
// Expense. Abbrev disambiguates the composite key when several rules can
// fire for the same REFERENCE_ID across a single dispute chain (§4.7's
// composite-key rule).
type rule struct {
	match          []string
	expenseType    string
	direction      data.ExpenseDirection
	autoCategorize bool
	category       string
	abbrev         string
}

// ruleTable is checked top to bottom; the first substring match wins
// (case-insensitive), exactly as specified in §4.7.
var ruleTable = []rule{
	{match: []string{"liberacao de dinheiro cancelada"}, expenseType: "liberacao-cancelada", direction: data.ExpenseDirectionExpense, abbrev: "lc"},
	{match: []string{"liberacao de dinheiro"}},
	{match: []string{"transferencia pix", "pix enviado"}},
	{match: []string{"pagamento de conta", "pagamento com"}},
	{match: []string{"compra mercado libre"}},
	{match: []string{"reembolso reclamacoes", "reembolso envio cancelado"}, expenseType: "reembolso-disputa", direction: data.ExpenseDirectionIncome, autoCategorize: true, category: "estorno-taxas", abbrev: "rd"},
	{match: []string{"reembolso de tarifas", "reembolso"}, expenseType: "reembolso-generico", direction: data.ExpenseDirectionIncome, autoCategorize: true, category: "estorno-taxas", abbrev: "rg"},
	{match: []string{"dinheiro retido"}, expenseType: "dinheiro-retido", direction: data.ExpenseDirectionExpense, abbrev: "dr"},
	{match: []string{"diferenca da aliquota", "difal"}, expenseType: "difal", direction: data.ExpenseDirectionExpense, autoCategorize: true, category: "icms-difal", abbrev: "df"},
	{match: []string{"faturas vencidas"}, expenseType: "faturas-ml", direction: data.ExpenseDirectionExpense, autoCategorize: true, category: "comissoes", abbrev: "fm"},
	{match: []string{"envio do mercado livre"}, expenseType: "debito-envio-ml", direction: data.ExpenseDirectionExpense, autoCategorize: true, category: "frete", abbrev: "de"},
	{match: []string{"reclamacoes no mercado livre"}, expenseType: "debito-divida-disputa", direction: data.ExpenseDirectionExpense, abbrev: "dd"},
	{match: []string{"troca de produto"}, expenseType: "debito-troca", direction: data.ExpenseDirectionExpense, abbrev: "dt"},
	{match: []string{"entrada de dinheiro"}, expenseType: "entrada-dinheiro", direction: data.ExpenseDirectionIncome, abbrev: "ed"},
	{match: []string{"dinheiro recebido"}, expenseType: "deposito-avulso", direction: data.ExpenseDirectionIncome, abbrev: "da"},
	{match: []string{"bonus por envio"}, expenseType: "bonus-envio", direction: data.ExpenseDirectionIncome, autoCategorize: true, category: "estorno-frete", abbrev: "be"},
	{match: []string{"transferencia recebida"}, expenseType: "entrada-dinheiro", direction: data.ExpenseDirectionIncome, abbrev: "tr"},
	{match: []string{"pagamento"}, expenseType: "subscription", direction: data.ExpenseDirectionExpense, abbrev: "pg"},
}

const disputedRefundAbbrev = "dd"

// PaymentStore is the subset of *data.PaymentModel the ingester depends on.
type PaymentStore interface {
	GetByMarketplaceID(ctx context.Context, sellerID, marketplacePaymentID string) (*data.Payment, error)
}

// ExpenseStore is the subset of *data.ExpenseModel the ingester depends on.
type ExpenseStore interface {
	GetByPaymentID(ctx context.Context, sellerID, paymentID string) (*data.Expense, error)
	Insert(ctx context.Context, e *data.Expense) (*data.Expense, bool, error)
}

// Result is the §4.7 output: total/inserted/skipped/error counts.
type Result struct {
	Total                 int
	Inserted              int
	SkippedAlreadyCovered int
	SkippedByRule         int
	Errors                int
}

// Ingester implements the Bank-Statement Gap Ingester.
type Ingester struct {
	Payments PaymentStore
	Expenses ExpenseStore
}

// NewIngester wires an Ingester from its collaborators.
func NewIngester(payments PaymentStore, expenses ExpenseStore) *Ingester {
	return &Ingester{Payments: payments, Expenses: expenses}
}

// IngestCSV reads one seller's bank-statement CSV and applies §4.7 row by
// row. Re-running on the same input is a no-op (idempotent).
func (in *Ingester) IngestCSV(ctx context.Context, sellerID string, r io.Reader) (Result, error) {
	rows, err := parseStatement(r)
	if err != nil {
		return Result{}, fmt.Errorf("parsing statement: %w", err)
	}

	var result Result
	for _, row := range rows {
		result.Total++
		if err := in.ingestRow(ctx, sellerID, row, &result); err != nil {
			result.Errors++
		}
	}
	return result, nil
}

func (in *Ingester) ingestRow(ctx context.Context, sellerID string, row statementRow, result *Result) error {
	refID := strings.TrimSpace(row.ReferenceID)
	if refID == "" {
		return fmt.Errorf("empty reference id")
	}

	payment, err := in.Payments.GetByMarketplaceID(ctx, sellerID, refID)
	if err != nil && !errors.Is(err, data.ErrRecordNotFound) {
		return fmt.Errorf("looking up payment %s: %w", refID, err)
	}
	if payment != nil {
		result.SkippedAlreadyCovered++
		return nil
	}
	if existingExpense, err := in.Expenses.GetByPaymentID(ctx, sellerID, refID); err != nil && !errors.Is(err, data.ErrRecordNotFound) {
		return fmt.Errorf("looking up expense %s: %w", refID, err)
	} else if existingExpense != nil {
		result.SkippedAlreadyCovered++
		return nil
	}

	matched, ok := classify(row.Type)
	if !ok || matched.expenseType == "" {
		result.SkippedByRule++
		return nil
	}

	if matched.abbrev == disputedRefundAbbrev {
		disputedPayment, err := in.Payments.GetByMarketplaceID(ctx, sellerID, refID)
		if err == nil && disputedPayment != nil && disputedPayment.Status == data.PaymentStatusRefunded {
			result.SkippedAlreadyCovered++
			return nil
		}
	}

	amount, err := parseStatementDecimal(row.NetAmount)
	if err != nil {
		return fmt.Errorf("parsing amount %q: %w", row.NetAmount, err)
	}
	occurredOn, err := time.Parse(statementDateLayout, strings.TrimSpace(row.ReleaseDate))
	if err != nil {
		return fmt.Errorf("parsing release date %q: %w", row.ReleaseDate, err)
	}

	status := data.ExpenseStatusPendingReview
	if matched.autoCategorize {
		status = data.ExpenseStatusAutoCategorized
	}

	expense := &data.Expense{
		SellerID:          sellerID,
		PaymentID:         compositeKey(refID, matched.abbrev),
		Source:            data.ExpenseSourceBankStatement,
		ExpenseType:       matched.expenseType,
		Direction:         matched.direction,
		Amount:            amount.Abs(),
		OccurredOn:        occurredOn,
		Description:       row.Type,
		SuggestedCategory: matched.category,
		Status:            status,
	}

	_, inserted, err := in.Expenses.Insert(ctx, expense)
	if err != nil {
		return fmt.Errorf("inserting expense for %s: %w", refID, err)
	}
	if inserted {
		result.Inserted++
	} else {
		result.SkippedAlreadyCovered++
	}
	return nil
}

func compositeKey(referenceID, abbrev string) string {
	if abbrev == "" {
		return referenceID
	}
	return referenceID + ":" + abbrev
}

// classify applies the §4.7 ordered rule table: case-insensitive substring
// match, first rule wins.
func classify(transactionType string) (rule, bool) {
	lower := strings.ToLower(transactionType)
	for _, r := range ruleTable {
		for _, m := range r.match {
			if strings.Contains(lower, m) {
				return r, true
			}
		}
	}
	return rule{}, false
}

// parseStatementDecimal converts §4.7's "decimal comma, thousands dot" money
// format (e.g. "1.234,56") into a decimal.Decimal.
func parseStatementDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// StatementLine is one parsed, untyped row of a bank statement — exported so
// the Coverage Checker can classify the same rows the ingester itself
// consumed, without re-implementing the CSV/preamble handling.
type StatementLine struct {
	ReferenceID string
	ReleaseDate time.Time
}

// ParseStatementLines exposes the statement parser for callers that only
// need the reference ids and dates (the Coverage Checker), without running
// classification or insertion.
func ParseStatementLines(r io.Reader) ([]StatementLine, error) {
	rows, err := parseStatement(r)
	if err != nil {
		return nil, err
	}
	lines := make([]StatementLine, 0, len(rows))
	for _, row := range rows {
		occurredOn, err := time.Parse(statementDateLayout, strings.TrimSpace(row.ReleaseDate))
		if err != nil {
			continue
		}
		lines = append(lines, StatementLine{ReferenceID: strings.TrimSpace(row.ReferenceID), ReleaseDate: occurredOn})
	}
	return lines, nil
}

// parseStatement strips the aggregate-balances preamble (a header line, then
// a blank line) and decodes the remaining semicolon-delimited rows.
func parseStatement(r io.Reader) ([]statementRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	lineStart := -1
	lineCount := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), headerPrefix) {
			lineStart = lineCount
			break
		}
		lineCount++
	}
	if lineStart < 0 {
		return nil, fmt.Errorf("no %q header line found", headerPrefix)
	}

	lines := strings.SplitAfter(string(raw), "\n")
	body := strings.Join(lines[lineStart:], "")

	csvReader := csv.NewReader(strings.NewReader(body))
	csvReader.Comma = ';'
	csvReader.FieldsPerRecord = -1

	var rows []statementRow
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return nil, fmt.Errorf("decoding csv: %w", err)
	}
	return rows, nil
}
