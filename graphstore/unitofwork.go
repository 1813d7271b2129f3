package graphstore

import (
	"context"
	"strconv"
)

// OperationType is the closed set of mutation kinds a UnitOfWork tracks.
type OperationType string

const (
	OpCreate OperationType = "create"
	OpUpdate OperationType = "update"
	OpDelete OperationType = "delete"
)

// PendingOperation is one queued statement, recorded in registration order.
type PendingOperation struct {
	ID     string
	Type   OperationType
	Query  string
	Params map[string]any
}

// UnitOfWork accumulates pending store mutations and flushes them atomically
// in commit(), ordered create -> update -> delete across types, and in
// registration order within each type.
type UnitOfWork struct {
	conn    Connection
	pending []PendingOperation
	seq     int
}

// RegisterCreate queues a create statement.
func (u *UnitOfWork) RegisterCreate(query string, params map[string]any) {
	u.register(OpCreate, query, params)
}

// RegisterUpdate queues an update statement.
func (u *UnitOfWork) RegisterUpdate(query string, params map[string]any) {
	u.register(OpUpdate, query, params)
}

// RegisterDelete queues a delete statement.
func (u *UnitOfWork) RegisterDelete(query string, params map[string]any) {
	u.register(OpDelete, query, params)
}

func (u *UnitOfWork) register(opType OperationType, query string, params map[string]any) {
	u.seq++
	u.pending = append(u.pending, PendingOperation{
		ID:     operationID(u.seq),
		Type:   opType,
		Query:  query,
		Params: params,
	})
}

func operationID(seq int) string {
	return "op-" + strconv.Itoa(seq)
}

// HasPendingOperations reports whether any operation is queued.
func (u *UnitOfWork) HasPendingOperations() bool {
	return len(u.pending) > 0
}

// GetPendingCount returns the number of queued operations.
func (u *UnitOfWork) GetPendingCount() int {
	return len(u.pending)
}

// GetPendingOperations returns a defensive copy of the pending queue.
func (u *UnitOfWork) GetPendingOperations() []PendingOperation {
	out := make([]PendingOperation, len(u.pending))
	copy(out, u.pending)
	return out
}

// Rollback discards all pending operations without executing them.
func (u *UnitOfWork) Rollback() {
	u.pending = nil
}

// Commit opens one write transaction and executes the pending operations in
// the fixed order create -> update -> delete, registration order within
// each type, then clears the pending set.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	ordered := orderByType(u.pending)

	session := u.conn.GetWriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		for _, op := range ordered {
			if _, err := tx.Run(ctx, op.Query, op.Params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return NewStoreError(KindOther, "UnitOfWork.Commit", err)
	}

	u.pending = nil
	return nil
}

func orderByType(ops []PendingOperation) []PendingOperation {
	var creates, updates, deletes []PendingOperation
	for _, op := range ops {
		switch op.Type {
		case OpCreate:
			creates = append(creates, op)
		case OpUpdate:
			updates = append(updates, op)
		case OpDelete:
			deletes = append(deletes, op)
		}
	}
	ordered := make([]PendingOperation, 0, len(ops))
	ordered = append(ordered, creates...)
	ordered = append(ordered, updates...)
	ordered = append(ordered, deletes...)
	return ordered
}
