package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masareefy-import-service/internal/models"
)

func TestTransition_HappyPath(t *testing.T) {
	state := models.ImportStateUploading
	for _, event := range []ImportEvent{EventParsed, EventConfirm, EventCommitStarted, EventCommitFinished} {
		next, err := Transition(state, event)
		require.NoError(t, err, "event %s", event)
		state = next
	}
	assert.Equal(t, models.ImportStateDone, state)
}

func TestTransition_DecisionPaths(t *testing.T) {
	tests := []struct {
		name  string
		from  models.ImportState
		event ImportEvent
		want  models.ImportState
	}{
		{"duplicates found", models.ImportStatePreviewing, EventDuplicatesFound, models.ImportStateAwaitingDuplicateDecision},
		{"skip duplicates", models.ImportStateAwaitingDuplicateDecision, EventSkipDuplicates, models.ImportStatePreviewing},
		{"cancel duplicates", models.ImportStateAwaitingDuplicateDecision, EventCancel, models.ImportStatePreviewing},
		{"quota exceeded", models.ImportStatePreviewing, EventQuotaExceeded, models.ImportStateAwaitingQuotaDecision},
		{"truncate", models.ImportStateAwaitingQuotaDecision, EventTruncate, models.ImportStateCommitting},
		{"cancel quota", models.ImportStateAwaitingQuotaDecision, EventCancel, models.ImportStatePreviewing},
		{"quota blocked", models.ImportStatePreviewing, EventQuotaBlocked, models.ImportStateFailed},
		{"parse failed", models.ImportStateUploading, EventParseFailed, models.ImportStateFailed},
		{"reupload after done", models.ImportStateDone, EventReupload, models.ImportStateUploading},
		{"reupload after failure", models.ImportStateFailed, EventReupload, models.ImportStateUploading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransition_Rejected(t *testing.T) {
	tests := []struct {
		from  models.ImportState
		event ImportEvent
	}{
		{models.ImportStateDone, EventConfirm},
		{models.ImportStateCommitting, EventCancel},
		{models.ImportStateCommitting, EventReupload},
		{models.ImportStateAwaitingQuotaDecision, EventSkipDuplicates},
		{models.ImportStateAwaitingDuplicateDecision, EventTruncate},
		{models.ImportStatePreviewing, EventCommitFinished},
	}

	for _, tt := range tests {
		got, err := Transition(tt.from, tt.event)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, tt.from, got, "state must not change on a rejected event")
		assert.False(t, CanApply(tt.from, tt.event))
	}
}
