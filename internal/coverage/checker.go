// Package coverage implements the Coverage Checker (§4.9): for a seller and
// a bank-statement window, it verifies that every statement line is backed
// by either a Payment or an Expense record, reporting a coverage percentage
// and a sample of anything left uncovered.
package coverage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/marketledger/reconciler/internal/data"
	"github.com/marketledger/reconciler/internal/ingest"
)

// Source is the bucket a statement line falls into (§4.9).
type Source string

const (
	SourcePaymentsAPI     Source = "covered-by-payments-api"
	SourceExpenses        Source = "covered-by-expenses"
	SourceLegacyNonOrder  Source = "covered-by-legacy-non-order"
	SourceUncovered       Source = "uncovered"
)

// uncoveredSampleSize caps how many uncovered ids the Report carries, so a
// pathological statement can't blow up the nightly pipeline's log output.
const uncoveredSampleSize = 20

// PaymentStore is the subset of *data.PaymentModel the checker depends on.
type PaymentStore interface {
	GetByMarketplaceID(ctx context.Context, sellerID, marketplacePaymentID string) (*data.Payment, error)
}

// ExpenseStore is the subset of *data.ExpenseModel the checker depends on.
type ExpenseStore interface {
	GetByReferenceID(ctx context.Context, sellerID, referenceID string) (*data.Expense, error)
}

// Report is the §4.9 output.
type Report struct {
	Total           int
	Counts          map[Source]int
	CoveragePercent float64
	UncoveredSample []string
}

// Checker implements the Coverage Checker.
type Checker struct {
	Payments PaymentStore
	Expenses ExpenseStore
}

// NewChecker wires a Checker from its collaborators.
func NewChecker(payments PaymentStore, expenses ExpenseStore) *Checker {
	return &Checker{Payments: payments, Expenses: expenses}
}

// CheckStatement classifies every line of a bank statement for sellerID,
// reusing the Gap Ingester's own CSV parser so the two components never
// disagree about what a "line" is.
func (c *Checker) CheckStatement(ctx context.Context, sellerID string, r io.Reader) (Report, error) {
	lines, err := ingest.ParseStatementLines(r)
	if err != nil {
		return Report{}, fmt.Errorf("parsing statement for seller %s: %w", sellerID, err)
	}

	report := Report{Counts: make(map[Source]int, 4)}
	for _, line := range lines {
		if line.ReferenceID == "" {
			continue
		}
		report.Total++
		source := c.classify(ctx, sellerID, line.ReferenceID)
		report.Counts[source]++
		if source == SourceUncovered && len(report.UncoveredSample) < uncoveredSampleSize {
			report.UncoveredSample = append(report.UncoveredSample, line.ReferenceID)
		}
	}

	if report.Total > 0 {
		covered := report.Total - report.Counts[SourceUncovered]
		report.CoveragePercent = 100 * float64(covered) / float64(report.Total)
	} else {
		report.CoveragePercent = 100
	}
	return report, nil
}

func (c *Checker) classify(ctx context.Context, sellerID, referenceID string) Source {
	payment, err := c.Payments.GetByMarketplaceID(ctx, sellerID, referenceID)
	if err != nil && !errors.Is(err, data.ErrRecordNotFound) {
		return SourceUncovered
	}
	if payment != nil {
		return SourcePaymentsAPI
	}

	expense, err := c.Expenses.GetByReferenceID(ctx, sellerID, referenceID)
	if err != nil && !errors.Is(err, data.ErrRecordNotFound) {
		return SourceUncovered
	}
	if expense != nil {
		if expense.Source == data.ExpenseSourceMarketplaceAPI {
			return SourceLegacyNonOrder
		}
		return SourceExpenses
	}

	return SourceUncovered
}
