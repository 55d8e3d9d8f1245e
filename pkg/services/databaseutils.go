package services

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TransactionCallback is the body of a multi-document sequence. ctx is a
// session context when the sequence runs inside a transaction.
type TransactionCallback func(ctx context.Context) (any, error)

// TxRunner runs multi-document sequences inside a MongoDB transaction when
// the deployment supports it (replica set or sharded cluster). With
// transactions disabled the callback runs directly and each step stands on
// its own.
type TxRunner struct {
	client  *mongo.Client
	enabled bool
}

func NewTxRunner(client *mongo.Client, enabled bool) *TxRunner {
	return &TxRunner{client: client, enabled: enabled && client != nil}
}

// Enabled reports whether callbacks run inside a transaction.
func (r *TxRunner) Enabled() bool {
	return r != nil && r.enabled
}

// Run executes callback, inside a transaction when enabled. WithTransaction
// commits on success and retries transient errors.
func (r *TxRunner) Run(ctx context.Context, callback TransactionCallback) (any, error) {
	if !r.Enabled() {
		return callback(ctx)
	}

	wc := writeconcern.New(writeconcern.WMajority())
	txnOptions := options.Transaction().
		SetWriteConcern(wc).
		SetReadConcern(readconcern.Snapshot())

	session, err := r.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return callback(sessCtx)
	}, txnOptions)
}

// isDuplicateKey reports whether err is a unique index violation.
func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
