package graphstore

import (
	"context"
	"sort"
	"time"
)

// TxOptions configures a single read/write/batch call; zero value is valid.
type TxOptions struct {
	Retry RetryConfig
}

// TransactionManager wraps session acquisition with managed read/write
// scopes, a priority-ordered batch executor, and Unit-of-Work construction.
type TransactionManager struct {
	conn Connection
}

// NewTransactionManager wraps conn with transaction-scoped helpers.
func NewTransactionManager(conn Connection) *TransactionManager {
	return &TransactionManager{conn: conn}
}

// Read acquires a read session, runs work inside a managed read transaction,
// and releases the session on every exit path.
func (tm *TransactionManager) Read(ctx context.Context, work func(tx Transaction) (any, error)) (any, error) {
	session := tm.conn.GetReadSession(ctx)
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

// Write acquires a write session, runs work inside a managed write
// transaction, and releases the session on every exit path.
func (tm *TransactionManager) Write(ctx context.Context, work func(tx Transaction) (any, error)) (any, error) {
	session := tm.conn.GetWriteSession(ctx)
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

// BatchItem is one unit of work submitted to Batch; items run in descending
// Priority order inside a single write transaction.
type BatchItem struct {
	ID       string
	Priority int
	Execute  func(tx Transaction) (any, error)
}

// BatchResult reports the outcome of a Batch call.
type BatchResult struct {
	Successful []BatchItemResult
	Failed     []BatchItemError
	DurationMs int64
}

// BatchItemResult is one successfully executed batch item.
type BatchItemResult struct {
	ID     string
	Result any
}

// BatchItemError is one batch item that failed, aborting the shared
// transaction.
type BatchItemError struct {
	ID    string
	Error error
}

// Batch sorts items by descending priority and executes them inside one
// write transaction. Any item failure aborts and rolls back the whole
// transaction; the caller still receives both the successes observed up to
// the failure and the failed item, for observability.
func (tm *TransactionManager) Batch(ctx context.Context, items []BatchItem) BatchResult {
	start := time.Now()

	sorted := make([]BatchItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	var successful []BatchItemResult
	var failed []BatchItemError

	session := tm.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	_, _ = session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		for _, item := range sorted {
			result, err := item.Execute(tx)
			if err != nil {
				failed = append(failed, BatchItemError{ID: item.ID, Error: err})
				return nil, err // aborts and rolls back the whole transaction
			}
			successful = append(successful, BatchItemResult{ID: item.ID, Result: result})
		}
		return nil, nil
	})

	return BatchResult{
		Successful: successful,
		Failed:     failed,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// CreateUnitOfWork returns a fresh UnitOfWork bound to this manager's
// connection.
func (tm *TransactionManager) CreateUnitOfWork() *UnitOfWork {
	return &UnitOfWork{conn: tm.conn}
}
