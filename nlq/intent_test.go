package nlq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifierParsesValidIntent(t *testing.T) {
	provider := &mockProvider{responses: []string{
		`{"type":"PATH_FINDING","confidence":0.92,"entities":["BERT","GPT-3"],"relations":["cites"],"isAmbiguous":false,"clarificationNeeded":""}`,
	}}
	classifier := NewClassifier(provider)

	intent, err := classifier.Classify(context.Background(), "How is BERT connected to GPT-3?")
	require.NoError(t, err)
	assert.Equal(t, IntentPathFinding, intent.Type)
	assert.Equal(t, []string{"BERT", "GPT-3"}, intent.Entities)
	assert.False(t, intent.IsAmbiguous)
}

func TestClassifierFlagsUnparsableResponseAsAmbiguous(t *testing.T) {
	provider := &mockProvider{responses: []string{"I'm not sure what you mean."}}
	classifier := NewClassifier(provider)

	intent, err := classifier.Classify(context.Background(), "asdf")
	require.Error(t, err)
	assert.True(t, intent.IsAmbiguous)
	nlqErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrParse, nlqErr.Code)
}

func TestClassifierRejectsUnknownIntentType(t *testing.T) {
	provider := &mockProvider{responses: []string{
		`{"type":"UNKNOWN_TYPE","confidence":0.5,"entities":[],"relations":[],"isAmbiguous":false,"clarificationNeeded":""}`,
	}}
	classifier := NewClassifier(provider)

	intent, err := classifier.Classify(context.Background(), "???")
	require.Error(t, err)
	assert.True(t, intent.IsAmbiguous)
}
