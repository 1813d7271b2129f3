package graphstore

import "context"

// fakeCursor is a canned ResultCursor over a fixed slice of records.
type fakeCursor struct {
	records []Record
	pos     int
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	if c.pos >= len(c.records) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Record() Record {
	return c.records[c.pos-1]
}

func (c *fakeCursor) Err() error { return nil }

// fakeTx records every Run call it sees and returns a canned cursor/error
// looked up by query, falling back to an empty cursor.
type fakeTx struct {
	calls   *[]recordedCall
	results map[string][]Record
	errs    map[string]error
}

type recordedCall struct {
	Cypher string
	Params map[string]any
}

func (t *fakeTx) Run(ctx context.Context, cypher string, params map[string]any) (ResultCursor, error) {
	if t.calls != nil {
		*t.calls = append(*t.calls, recordedCall{Cypher: cypher, Params: params})
	}
	if err, ok := t.errs[cypher]; ok {
		return nil, err
	}
	return &fakeCursor{records: t.results[cypher]}, nil
}

// fakeSession runs work directly against a shared fakeTx, with no real
// transactional semantics, which is enough to exercise ordering and
// call-recording in the layers above the driver.
type fakeSession struct {
	tx     *fakeTx
	closed bool
}

func (s *fakeSession) ExecuteRead(ctx context.Context, work func(tx Transaction) (any, error)) (any, error) {
	return work(s.tx)
}

func (s *fakeSession) ExecuteWrite(ctx context.Context, work func(tx Transaction) (any, error)) (any, error) {
	return work(s.tx)
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

// fakeConnection is a Connection whose sessions all share one fakeTx so
// tests can inspect every Run call across a whole operation.
type fakeConnection struct {
	tx              *fakeTx
	labels          []string
	relTypes        []string
	propertyKeys    map[string][]string
	introspectCalls int
	introspectErr   error
}

func newFakeConnection() *fakeConnection {
	return &fakeConnection{tx: &fakeTx{calls: &[]recordedCall{}, results: map[string][]Record{}, errs: map[string]error{}}}
}

func (c *fakeConnection) VerifyConnectivity(ctx context.Context) error { return nil }

func (c *fakeConnection) GetReadSession(ctx context.Context) Session {
	return &fakeSession{tx: c.tx}
}

func (c *fakeConnection) GetWriteSession(ctx context.Context) Session {
	return &fakeSession{tx: c.tx}
}

func (c *fakeConnection) Labels(ctx context.Context) ([]string, error) {
	c.introspectCalls++
	if c.introspectErr != nil {
		return nil, c.introspectErr
	}
	return c.labels, nil
}

func (c *fakeConnection) RelationshipTypes(ctx context.Context) ([]string, error) {
	if c.introspectErr != nil {
		return nil, c.introspectErr
	}
	return c.relTypes, nil
}

func (c *fakeConnection) PropertyKeysForLabel(ctx context.Context, label string) ([]string, error) {
	if c.introspectErr != nil {
		return nil, c.introspectErr
	}
	return c.propertyKeys[label], nil
}

func (c *fakeConnection) Close(ctx context.Context) error { return nil }
