package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

func TestBatchStatusTransitions(t *testing.T) {
	happy := []valueobject.BatchStatus{
		valueobject.BatchStatusStarted,
		valueobject.BatchStatusAligning,
		valueobject.BatchStatusScoring,
		valueobject.BatchStatusPerRowPersisting,
		valueobject.BatchStatusFinalized,
	}
	for i := 0; i < len(happy)-1; i++ {
		assert.True(t, happy[i].CanTransitionTo(happy[i+1]), "%s -> %s", happy[i], happy[i+1])
	}

	assert.True(t, valueobject.BatchStatusScoring.CanTransitionTo(valueobject.BatchStatusFailed))
	assert.False(t, valueobject.BatchStatusAligning.CanTransitionTo(valueobject.BatchStatusFailed))
	assert.False(t, valueobject.BatchStatusStarted.CanTransitionTo(valueobject.BatchStatusScoring))
	assert.False(t, valueobject.BatchStatusFinalized.CanTransitionTo(valueobject.BatchStatusFailed))
	assert.False(t, valueobject.BatchStatusFailed.CanTransitionTo(valueobject.BatchStatusStarted))
}

func TestBatchStatusTerminal(t *testing.T) {
	assert.True(t, valueobject.BatchStatusFinalized.IsTerminal())
	assert.True(t, valueobject.BatchStatusFailed.IsTerminal())
	assert.False(t, valueobject.BatchStatusPerRowPersisting.IsTerminal())
}

func TestNewBatchStatus(t *testing.T) {
	s, err := valueobject.NewBatchStatus("PER_ROW_PERSISTING")
	require.NoError(t, err)
	assert.True(t, s.Equal(valueobject.BatchStatusPerRowPersisting))

	_, err = valueobject.NewBatchStatus("DONE")
	assert.Error(t, err)
}
