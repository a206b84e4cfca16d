// Package capture implements the capture-to-confirmation orchestration
// engine: the state machine that takes a raw image or manual input,
// supervises the extraction round-trip, and resolves to a persisted
// record or a recoverable error.
package capture

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/veranek/receiptwise/internal/model"
)

// Orchestration errors.
var (
	// ErrSessionActive means a capture session is already in progress;
	// only one may be active per orchestrator instance.
	ErrSessionActive = errors.New("a capture session is already active")
	// ErrInvalidTransition flags an illegal stage change. These are
	// programming errors, not user-recoverable conditions.
	ErrInvalidTransition = errors.New("invalid stage transition")
	// ErrStaleSession marks a result that arrived for a session that is
	// no longer current; the result must be discarded.
	ErrStaleSession = errors.New("session is no longer active")
)

// legalTransitions encodes the session state machine. A single table
// makes invalid combinations (confirming and processing at once, a
// commit before an accept) unrepresentable.
var legalTransitions = map[model.Stage][]model.Stage{
	model.StageIdle:         {model.StageMethodSelect},
	model.StageMethodSelect: {model.StageCapturing, model.StageUploading, model.StageManualEntry, model.StageIdle},
	model.StageCapturing:    {model.StageProcessing, model.StageMethodSelect, model.StageIdle},
	model.StageUploading:    {model.StageProcessing, model.StageMethodSelect, model.StageIdle},
	model.StageManualEntry:  {model.StageConfirming, model.StageMethodSelect, model.StageIdle},
	model.StageProcessing:   {model.StageConfirming, model.StageError, model.StageIdle},
	model.StageConfirming:   {model.StageCommitting, model.StageIdle},
	model.StageCommitting:   {model.StageIdle, model.StageError},
	model.StageError:        {model.StageIdle, model.StageMethodSelect},
}

// canTransition reports whether moving from one stage to another is legal.
func canTransition(from, to model.Stage) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transition moves the session to the next stage or fails loudly.
func transition(sess *model.CaptureSession, to model.Stage) error {
	if !canTransition(sess.Stage, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.Stage, to)
	}
	sess.Stage = to
	return nil
}

// newSession creates a fresh session in MethodSelect for the user scope.
func newSession(userID string) *model.CaptureSession {
	return &model.CaptureSession{
		ID:     uuid.NewString(),
		UserID: userID,
		Stage:  model.StageMethodSelect,
	}
}

// cancellable reports whether a user cancel is permitted at the current
// stage. Cancel is immediate and unconditional anywhere before the
// commit write is issued.
func cancellable(stage model.Stage) bool {
	switch stage {
	case model.StageMethodSelect, model.StageCapturing, model.StageUploading,
		model.StageManualEntry, model.StageProcessing, model.StageConfirming:
		return true
	default:
		return false
	}
}
