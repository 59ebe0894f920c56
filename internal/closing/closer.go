// Package closing implements Financial Closing (§4.10): for a seller and a
// day, it derives a closed/not-closed attestation from the day's payment,
// expense, job and coverage state, and persists it so later runs can skip a
// day that already closed.
package closing

import (
	"context"
	"fmt"
	"time"

	"github.com/marketledger/reconciler/internal/coverage"
	"github.com/marketledger/reconciler/internal/data"
)

// PaymentStore is the subset of *data.PaymentModel the closer depends on.
type PaymentStore interface {
	ListForApprovalWindow(ctx context.Context, sellerID string, from, to time.Time) ([]data.Payment, error)
}

// ExpenseStore is the subset of *data.ExpenseModel the closer depends on.
type ExpenseStore interface {
	ListForRange(ctx context.Context, sellerID string, from, to time.Time) ([]data.Expense, error)
}

// JobStore is the subset of *data.JobModel the closer depends on.
type JobStore interface {
	GroupHasDeadJobs(ctx context.Context, groupID string) (bool, error)
}

// AttestationStore is the subset of *data.SyncStateModel the closer depends
// on to persist and look up its result.
type AttestationStore interface {
	GetClosingAttestation(ctx context.Context, sellerID, date string) (*data.ClosingAttestation, error)
	SetClosingAttestation(ctx context.Context, sellerID string, att data.ClosingAttestation) error
}

// Closer implements Financial Closing.
type Closer struct {
	Payments PaymentStore
	Expenses ExpenseStore
	Jobs     JobStore
	States   AttestationStore
}

// NewCloser wires a Closer from its collaborators.
func NewCloser(payments PaymentStore, expenses ExpenseStore, jobs JobStore, states AttestationStore) *Closer {
	return &Closer{Payments: payments, Expenses: expenses, Jobs: jobs, States: states}
}

// Run evaluates the four §4.10 conditions for one seller/day and persists
// the resulting attestation. coverageReport is the same day's Coverage
// Checker output, already computed earlier in the pipeline run.
func (c *Closer) Run(ctx context.Context, sellerID string, day time.Time, coverageReport coverage.Report) (data.ClosingAttestation, error) {
	dateKey := day.Format("2006-01-02")
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)

	if existing, err := c.States.GetClosingAttestation(ctx, sellerID, dateKey); err == nil && existing != nil && existing.Closed {
		return *existing, nil
	}

	payments, err := c.Payments.ListForApprovalWindow(ctx, sellerID, from, to)
	if err != nil {
		return data.ClosingAttestation{}, fmt.Errorf("listing payments for seller %s day %s: %w", sellerID, dateKey, err)
	}
	for _, p := range payments {
		if !p.Status.IsTerminal() {
			return c.persist(ctx, sellerID, dateKey, false, fmt.Sprintf("payment %s not terminal (status=%s)", p.ID, p.Status))
		}
		groupID := sellerID + ":" + p.ID
		dead, err := c.Jobs.GroupHasDeadJobs(ctx, groupID)
		if err != nil {
			return data.ClosingAttestation{}, fmt.Errorf("checking dead jobs for payment %s: %w", p.ID, err)
		}
		if dead {
			return c.persist(ctx, sellerID, dateKey, false, fmt.Sprintf("payment %s has a dead job", p.ID))
		}
	}

	expenses, err := c.Expenses.ListForRange(ctx, sellerID, from, to)
	if err != nil {
		return data.ClosingAttestation{}, fmt.Errorf("listing expenses for seller %s day %s: %w", sellerID, dateKey, err)
	}
	for _, e := range expenses {
		if e.Status != data.ExpenseStatusExported && e.Status != data.ExpenseStatusImported {
			return c.persist(ctx, sellerID, dateKey, false, fmt.Sprintf("expense %s not exported/imported (status=%s)", e.ID, e.Status))
		}
	}

	if coverageReport.CoveragePercent < 100 {
		return c.persist(ctx, sellerID, dateKey, false, fmt.Sprintf("coverage %.2f%% < 100%%", coverageReport.CoveragePercent))
	}

	return c.persist(ctx, sellerID, dateKey, true, "")
}

func (c *Closer) persist(ctx context.Context, sellerID, dateKey string, closed bool, reason string) (data.ClosingAttestation, error) {
	att := data.ClosingAttestation{Date: dateKey, Closed: closed, Reason: reason}
	if err := c.States.SetClosingAttestation(ctx, sellerID, att); err != nil {
		return data.ClosingAttestation{}, fmt.Errorf("persisting closing attestation for seller %s day %s: %w", sellerID, dateKey, err)
	}
	return att, nil
}
