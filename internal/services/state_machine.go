package services

import (
	"errors"
	"fmt"

	"masareefy-import-service/internal/models"
)

// ErrInvalidTransition is returned when an event is not allowed in the current state
var ErrInvalidTransition = errors.New("invalid import state transition")

// ImportEvent drives the import session state machine
type ImportEvent string

const (
	EventParsed          ImportEvent = "parsed"
	EventParseFailed     ImportEvent = "parseFailed"
	EventConfirm         ImportEvent = "confirm"
	EventDuplicatesFound ImportEvent = "duplicatesFound"
	EventSkipDuplicates  ImportEvent = "skipDuplicates"
	EventQuotaExceeded   ImportEvent = "quotaExceeded"
	EventQuotaBlocked    ImportEvent = "quotaBlocked"
	EventTruncate        ImportEvent = "truncate"
	EventCancel          ImportEvent = "cancel"
	EventCommitStarted   ImportEvent = "commitStarted"
	EventCommitFinished  ImportEvent = "commitFinished"
	EventReupload        ImportEvent = "reupload"
)

// Confirm keeps the session in PREVIEWING; the gates that follow decide
// where it goes next.
var transitions = map[models.ImportState]map[ImportEvent]models.ImportState{
	models.ImportStateUploading: {
		EventParsed:      models.ImportStatePreviewing,
		EventParseFailed: models.ImportStateFailed,
	},
	models.ImportStatePreviewing: {
		EventConfirm:         models.ImportStatePreviewing,
		EventDuplicatesFound: models.ImportStateAwaitingDuplicateDecision,
		EventQuotaExceeded:   models.ImportStateAwaitingQuotaDecision,
		EventQuotaBlocked:    models.ImportStateFailed,
		EventCommitStarted:   models.ImportStateCommitting,
		EventReupload:        models.ImportStateUploading,
	},
	models.ImportStateAwaitingDuplicateDecision: {
		EventSkipDuplicates: models.ImportStatePreviewing,
		EventCancel:         models.ImportStatePreviewing,
	},
	models.ImportStateAwaitingQuotaDecision: {
		EventTruncate: models.ImportStateCommitting,
		EventCancel:   models.ImportStatePreviewing,
	},
	models.ImportStateCommitting: {
		EventCommitFinished: models.ImportStateDone,
	},
	models.ImportStateDone: {
		EventReupload: models.ImportStateUploading,
	},
	models.ImportStateFailed: {
		EventReupload: models.ImportStateUploading,
	},
}

// Transition returns the state reached by applying event in from.
func Transition(from models.ImportState, event ImportEvent) (models.ImportState, error) {
	if next, ok := transitions[from][event]; ok {
		return next, nil
	}
	return from, fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, event, from)
}

// CanApply reports whether event is allowed in state.
func CanApply(state models.ImportState, event ImportEvent) bool {
	_, ok := transitions[state][event]
	return ok
}
