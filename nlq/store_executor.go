package nlq

import (
	"context"
	"fmt"
	"strings"

	"github.com/opencite/litgraph/graphstore"
)

// StoreExecutor runs and validates Cypher against a live graphstore
// connection. Validation prefixes the candidate with EXPLAIN, which Neo4j
// plans but never executes, catching syntax and unknown-identifier errors
// without touching data.
type StoreExecutor struct {
	conn graphstore.Connection
}

// NewStoreExecutor wraps conn.
func NewStoreExecutor(conn graphstore.Connection) *StoreExecutor {
	return &StoreExecutor{conn: conn}
}

func (e *StoreExecutor) Validate(ctx context.Context, cypher string) (bool, string, error) {
	session := e.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteRead(ctx, func(tx graphstore.Transaction) (any, error) {
		cursor, err := tx.Run(ctx, "EXPLAIN "+cypher, nil)
		if err != nil {
			return nil, err
		}
		for cursor.Next(ctx) {
		}
		return nil, cursor.Err()
	})
	if err != nil {
		return false, err.Error(), nil
	}
	return true, "", nil
}

func (e *StoreExecutor) Execute(ctx context.Context, cypher string) ([]map[string]any, error) {
	if strings.Contains(strings.ToUpper(cypher), "DELETE") || strings.Contains(strings.ToUpper(cypher), "DETACH") {
		return nil, fmt.Errorf("nlq: refusing to execute a generated query containing a DELETE clause")
	}

	session := e.conn.GetReadSession(ctx)
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx graphstore.Transaction) (any, error) {
		cursor, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		var records []map[string]any
		for cursor.Next(ctx) {
			records = append(records, map[string]any(cursor.Record()))
		}
		return records, cursor.Err()
	})
	if err != nil {
		return nil, err
	}
	records, _ := rows.([]map[string]any)
	return records, nil
}

var _ Executor = (*StoreExecutor)(nil)
