package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitionValidatedFromNew(t *testing.T) {
	next, ok := StatusNew.Transition("validated")
	assert.Equal(t, StatusActive, next)
	assert.True(t, ok)
}

func TestStatusTransitionValidatedFromActiveIsUnnamed(t *testing.T) {
	next, ok := StatusActive.Transition("validated")
	assert.Equal(t, StatusActive, next)
	assert.False(t, ok, "active->active isn't one of the four named transitions")
}

func TestStatusTransitionSyncStartFromActive(t *testing.T) {
	next, ok := StatusActive.Transition("sync_start")
	assert.Equal(t, StatusSyncing, next)
	assert.True(t, ok)
}

func TestStatusTransitionSyncSuccessFromSyncing(t *testing.T) {
	next, ok := StatusSyncing.Transition("sync_success")
	assert.Equal(t, StatusActive, next)
	assert.True(t, ok)
}

func TestStatusTransitionFailedIsValidFromAnyStatus(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusActive, StatusSyncing, StatusError} {
		next, ok := s.Transition("failed")
		assert.Equal(t, StatusError, next)
		assert.True(t, ok)
	}
}

func TestStatusTransitionUnknownEventIsNoOp(t *testing.T) {
	next, ok := StatusActive.Transition("bogus")
	assert.Equal(t, StatusActive, next)
	assert.False(t, ok)
}
