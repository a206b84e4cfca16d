package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranek/receiptwise/internal/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from model.Stage
		to   model.Stage
		want bool
	}{
		{name: "open session", from: model.StageIdle, to: model.StageMethodSelect, want: true},
		{name: "pick camera", from: model.StageMethodSelect, to: model.StageCapturing, want: true},
		{name: "pick upload", from: model.StageMethodSelect, to: model.StageUploading, want: true},
		{name: "pick manual", from: model.StageMethodSelect, to: model.StageManualEntry, want: true},
		{name: "frame to extraction", from: model.StageCapturing, to: model.StageProcessing, want: true},
		{name: "manual bypasses extraction", from: model.StageManualEntry, to: model.StageConfirming, want: true},
		{name: "extraction succeeds", from: model.StageProcessing, to: model.StageConfirming, want: true},
		{name: "extraction fails", from: model.StageProcessing, to: model.StageError, want: true},
		{name: "accept", from: model.StageConfirming, to: model.StageCommitting, want: true},
		{name: "commit lands", from: model.StageCommitting, to: model.StageIdle, want: true},
		{name: "commit fails", from: model.StageCommitting, to: model.StageError, want: true},
		{name: "error retried", from: model.StageError, to: model.StageMethodSelect, want: true},

		{name: "no confirm while processing", from: model.StageProcessing, to: model.StageCommitting, want: false},
		{name: "no commit without accept", from: model.StageMethodSelect, to: model.StageCommitting, want: false},
		{name: "no cancel mid-commit", from: model.StageCommitting, to: model.StageMethodSelect, want: false},
		{name: "manual never processes", from: model.StageManualEntry, to: model.StageProcessing, want: false},
		{name: "idle goes nowhere else", from: model.StageIdle, to: model.StageConfirming, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestTransition_RejectsIllegalMove(t *testing.T) {
	sess := newSession("user1")
	require.Equal(t, model.StageMethodSelect, sess.Stage)

	err := transition(sess, model.StageCommitting)
	require.ErrorIs(t, err, ErrInvalidTransition)
	// Stage is unchanged after a rejected move.
	assert.Equal(t, model.StageMethodSelect, sess.Stage)

	require.NoError(t, transition(sess, model.StageUploading))
	assert.Equal(t, model.StageUploading, sess.Stage)
}

func TestCancellable(t *testing.T) {
	assert.True(t, cancellable(model.StageMethodSelect))
	assert.True(t, cancellable(model.StageProcessing))
	assert.True(t, cancellable(model.StageConfirming))
	assert.False(t, cancellable(model.StageCommitting))
	assert.False(t, cancellable(model.StageError))
	assert.False(t, cancellable(model.StageIdle))
}
