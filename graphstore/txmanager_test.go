package graphstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRunsInDescendingPriorityOrder(t *testing.T) {
	fc := newFakeConnection()
	tm := NewTransactionManager(fc)

	var order []string
	items := []BatchItem{
		{ID: "low", Priority: 1, Execute: func(tx Transaction) (any, error) {
			order = append(order, "low")
			return nil, nil
		}},
		{ID: "high", Priority: 10, Execute: func(tx Transaction) (any, error) {
			order = append(order, "high")
			return nil, nil
		}},
		{ID: "mid", Priority: 5, Execute: func(tx Transaction) (any, error) {
			order = append(order, "mid")
			return nil, nil
		}},
	}

	result := tm.Batch(context.Background(), items)
	require.Empty(t, result.Failed)
	require.Len(t, result.Successful, 3)
	assert.Equal(t, []string{"high", "mid", "low"}, order)
}

func TestBatchAbortsOnFirstFailure(t *testing.T) {
	fc := newFakeConnection()
	tm := NewTransactionManager(fc)

	boom := errors.New("boom")
	items := []BatchItem{
		{ID: "first", Priority: 2, Execute: func(tx Transaction) (any, error) { return "ok", nil }},
		{ID: "second", Priority: 1, Execute: func(tx Transaction) (any, error) { return nil, boom }},
		{ID: "third", Priority: 0, Execute: func(tx Transaction) (any, error) {
			t.Fatal("third item must not run after second fails")
			return nil, nil
		}},
	}

	result := tm.Batch(context.Background(), items)
	require.Len(t, result.Successful, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "first", result.Successful[0].ID)
	assert.Equal(t, "second", result.Failed[0].ID)
}

func TestReadAndWriteCloseSession(t *testing.T) {
	fc := newFakeConnection()
	tm := NewTransactionManager(fc)

	_, err := tm.Read(context.Background(), func(tx Transaction) (any, error) {
		return tx.Run(context.Background(), "MATCH (n) RETURN n", nil)
	})
	require.NoError(t, err)

	_, err = tm.Write(context.Background(), func(tx Transaction) (any, error) {
		return tx.Run(context.Background(), "CREATE (n)", nil)
	})
	require.NoError(t, err)
}

func TestCreateUnitOfWorkBindsConnection(t *testing.T) {
	fc := newFakeConnection()
	tm := NewTransactionManager(fc)

	uow := tm.CreateUnitOfWork()
	uow.RegisterCreate("CREATE 1", nil)
	require.NoError(t, uow.Commit(context.Background()))
}
