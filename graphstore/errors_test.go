package graphstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNeo4jCode(t *testing.T) {
	cases := map[string]ErrorKind{
		"Neo.TransientError.Transaction.LockClientStopped": KindLockClientStopped,
		"Neo.TransientError.Transaction.DeadlockDetected":  KindDeadlockDetected,
		"Neo.ClientError.Transaction.Outdated":             KindOutdated,
		"Neo.TransientError.General.ServiceUnavailable":    KindConnection,
		"Neo.ClientError.Statement.SyntaxError":            KindOther,
	}
	for code, want := range cases {
		assert.Equal(t, want, ClassifyNeo4jCode(code), code)
	}
}

func TestDefaultIsRetryableClassifiesStoreError(t *testing.T) {
	retryable := NewStoreError(KindDeadlockDetected, "op", errors.New("deadlock"))
	assert.True(t, DefaultIsRetryable(retryable))

	notRetryable := NewStoreError(KindOther, "op", errors.New("bad query"))
	assert.False(t, DefaultIsRetryable(notRetryable))

	assert.False(t, DefaultIsRetryable(errors.New("plain error")))
}

func TestStoreErrorUnwrapAndMessage(t *testing.T) {
	inner := errors.New("inner failure")
	se := NewStoreError(KindConnection, "Connect", inner)

	assert.Equal(t, "Connect: inner failure", se.Error())
	assert.ErrorIs(t, se, inner)
}
