package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager is the unit of work used around every multi-row mutation.
// WithTx begins a transaction, hands its handle to fn and commits when fn
// returns nil; any error (or panic) rolls back so no partial state persists.
//
// The concrete type of tx is infra-defined (pgx.Tx for Postgres).
// Repositories MUST accept a nil tx and fall back to the pool.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
