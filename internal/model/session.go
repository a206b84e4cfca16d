package model

// Stage identifies where a capture session is in its lifecycle. The
// legal transitions are enforced by the capture orchestrator; a session
// is never in two stages at once.
type Stage string

const (
	// StageIdle is the initial and terminal stage of a session's lifetime.
	StageIdle Stage = "idle"
	// StageMethodSelect exposes the camera, upload, and manual choices.
	StageMethodSelect Stage = "method_select"
	// StageCapturing waits for a single camera frame.
	StageCapturing Stage = "capturing"
	// StageUploading waits for a user-selected file.
	StageUploading Stage = "uploading"
	// StageManualEntry collects the four fields directly, bypassing extraction.
	StageManualEntry Stage = "manual_entry"
	// StageProcessing has exactly one extraction request in flight.
	StageProcessing Stage = "processing"
	// StageConfirming presents the draft for correction and acceptance.
	StageConfirming Stage = "confirming"
	// StageCommitting has the persistence write in flight.
	StageCommitting Stage = "committing"
	// StageError holds a user-visible failure until dismissed or restarted.
	StageError Stage = "error"
)

// CaptureMethod is the entry path chosen at method selection.
type CaptureMethod string

const (
	MethodCamera CaptureMethod = "camera"
	MethodUpload CaptureMethod = "upload"
	MethodManual CaptureMethod = "manual"
)

// CaptureSession is the ephemeral state carried through one capture
// attempt. It is created when the capture affordance opens and destroyed
// on success, cancel, or dismissal of an error; nothing here is persisted.
type CaptureSession struct {
	ID       string
	UserID   string
	Stage    Stage
	Method   CaptureMethod
	Artifact *ImageArtifact
	Draft    *Draft
	Err      error
}
