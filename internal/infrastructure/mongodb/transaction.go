package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// errNotFound is an internal sentinel used to thread a missing-document
// result out of a transaction closure. It never leaves this package.
var errNotFound = errors.New("document not found")

// inTransaction runs fn inside a MongoDB transaction. If the context already
// carries a session the caller's transaction is joined instead of opening a
// nested one, so repository writes compose under TransactionManager.
func inTransaction(ctx context.Context, db *mongo.Database, fn func(sessCtx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// TransactionManager exposes MongoDB multi-document transactions to the
// application layer. Repositories invoked inside the callback detect the
// session on the context and join the same transaction.
type TransactionManager struct {
	client *mongo.Client
}

func NewTransactionManager(client *mongo.Client) *TransactionManager {
	return &TransactionManager{client: client}
}

func (m *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
