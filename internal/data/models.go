package data

import (
	"errors"

	"github.com/marketledger/reconciler/db"
)

var (
	ErrRecordNotFound          = errors.New("record not found")
	ErrRecordAlreadyExists     = errors.New("record already exists")
	ErrMismatchNumRowsAffected = errors.New("mismatch number of rows affected")
	ErrMissingInput            = errors.New("missing input")
)

// Models bundles every table-backed model the reconciliation engine reads
// and writes, wired against a single shared connection pool.
type Models struct {
	Sellers          *SellerModel
	Payments         *PaymentModel
	Jobs             *JobModel
	Expenses         *ExpenseModel
	ExpenseBatches   *ExpenseBatchModel
	SyncState        *SyncStateModel
	WebhookEvents    *WebhookEventModel
	DBConnectionPool db.DBConnectionPool
}

func NewModels(dbConnectionPool db.DBConnectionPool) (*Models, error) {
	if dbConnectionPool == nil {
		return nil, errors.New("dbConnectionPool is required for NewModels")
	}
	return &Models{
		Sellers:          &SellerModel{dbConnectionPool: dbConnectionPool},
		Payments:         &PaymentModel{dbConnectionPool: dbConnectionPool},
		Jobs:             &JobModel{dbConnectionPool: dbConnectionPool},
		Expenses:         &ExpenseModel{dbConnectionPool: dbConnectionPool},
		ExpenseBatches:   &ExpenseBatchModel{dbConnectionPool: dbConnectionPool},
		SyncState:        &SyncStateModel{dbConnectionPool: dbConnectionPool},
		WebhookEvents:    &WebhookEventModel{dbConnectionPool: dbConnectionPool},
		DBConnectionPool: dbConnectionPool,
	}, nil
}
