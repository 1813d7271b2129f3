package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/opencite/litgraph/common"
)

// Neo4jConnection is the Connection implementation backed by the official
// Neo4j driver. It owns the driver instance and the default database name.
type Neo4jConnection struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *common.ContextLogger
}

// NewNeo4jConnection dials uri with the given credentials and verifies
// connectivity before returning.
func NewNeo4jConnection(ctx context.Context, uri, username, password, database string) (*Neo4jConnection, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("graphstore: creating driver: %w", err)
	}

	conn := &Neo4jConnection{
		driver:   driver,
		database: database,
		logger:   common.ServiceLogger("graphstore", "neo4j"),
	}

	if err := conn.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}

	return conn, nil
}

func (c *Neo4jConnection) VerifyConnectivity(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return NewStoreError(KindConnection, "VerifyConnectivity", err)
	}
	return nil
}

func (c *Neo4jConnection) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Neo4jConnection) GetReadSession(ctx context.Context) Session {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	return &neo4jSession{session: session}
}

func (c *Neo4jConnection) GetWriteSession(ctx context.Context) Session {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	return &neo4jSession{session: session}
}

func (c *Neo4jConnection) Labels(ctx context.Context) ([]string, error) {
	return c.runStrings(ctx, "CALL db.labels() YIELD label RETURN label")
}

func (c *Neo4jConnection) RelationshipTypes(ctx context.Context) ([]string, error) {
	return c.runStrings(ctx, "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType")
}

// PropertyKeysForLabel samples up to 10 nodes of the given label and takes
// the union of their property keys; Neo4j community edition has no
// per-label key introspection procedure, so sampling is the documented
// fallback.
func (c *Neo4jConnection) PropertyKeysForLabel(ctx context.Context, label string) ([]string, error) {
	session := c.GetReadSession(ctx)
	defer session.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:`%s`) WITH n LIMIT 10 UNWIND keys(n) AS k RETURN DISTINCT k", label)
	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		var keys []string
		for cursor.Next(ctx) {
			if v, ok := cursor.Record()["k"].(string); ok {
				keys = append(keys, v)
			}
		}
		return keys, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "PropertyKeysForLabel", err)
	}
	keys, _ := result.([]string)
	return keys, nil
}

func (c *Neo4jConnection) runStrings(ctx context.Context, cypher string) ([]string, error) {
	session := c.GetReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		cursor, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		var out []string
		for cursor.Next(ctx) {
			for _, v := range cursor.Record() {
				if s, ok := v.(string); ok {
					out = append(out, s)
				}
			}
		}
		return out, cursor.Err()
	})
	if err != nil {
		return nil, NewStoreError(KindOther, "runStrings", err)
	}
	out, _ := result.([]string)
	return out, nil
}

// neo4jSession adapts neo4j.SessionWithContext to the Session interface.
type neo4jSession struct {
	session neo4j.SessionWithContext
}

func (s *neo4jSession) ExecuteRead(ctx context.Context, work func(tx Transaction) (any, error)) (any, error) {
	return s.session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&neo4jTx{tx: tx})
	})
}

func (s *neo4jSession) ExecuteWrite(ctx context.Context, work func(tx Transaction) (any, error)) (any, error) {
	return s.session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&neo4jTx{tx: tx})
	})
}

func (s *neo4jSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

// neo4jTx adapts neo4j.ManagedTransaction to the Transaction interface.
type neo4jTx struct {
	tx neo4j.ManagedTransaction
}

func (t *neo4jTx) Run(ctx context.Context, cypher string, params map[string]any) (ResultCursor, error) {
	result, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return &neo4jCursor{result: result}, nil
}

// neo4jCursor adapts neo4j.ResultWithContext to ResultCursor.
type neo4jCursor struct {
	result neo4j.ResultWithContext
	record *neo4j.Record
}

func (c *neo4jCursor) Next(ctx context.Context) bool {
	return c.result.NextRecord(ctx, &c.record)
}

func (c *neo4jCursor) Record() Record {
	out := make(Record, len(c.record.Keys))
	for _, k := range c.record.Keys {
		v, _ := c.record.Get(k)
		out[k] = v
	}
	return out
}

func (c *neo4jCursor) Err() error {
	return c.result.Err()
}
