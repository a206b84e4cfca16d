package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/veranek/receiptwise/internal/acquire"
	"github.com/veranek/receiptwise/internal/common"
	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
)

// extractionFailedMessage is shown whenever extraction fails, regardless
// of the underlying cause. The error screen offers retry and manual
// entry, so the cause does not change what the user can do next.
const extractionFailedMessage = "We couldn't read this receipt. You can try again or enter the details manually."

// processingNotifier is an optional prompter upgrade for surfacing the
// extraction wait, a spinner in the CLI.
type processingNotifier interface {
	ProcessingStarted()
	ProcessingDone()
}

// Orchestrator drives one capture session at a time from method
// selection to a committed record. All stage changes go through the
// transition table; concurrent callers (a late extraction result racing
// a cancel) are serialized on the session lock.
type Orchestrator struct {
	store      service.Store
	extractor  service.Extractor
	prompter   service.Prompter
	camera     service.ImageSource
	openUpload func(path string) service.ImageSource

	mu      sync.Mutex
	session *model.CaptureSession
}

// Config holds the dependencies for a capture orchestrator.
type Config struct {
	Store     service.Store
	Extractor service.Extractor
	Prompter  service.Prompter
	// Camera produces single frames. Nil means no camera is configured;
	// selecting the camera method falls back to method selection.
	Camera service.ImageSource
	// OpenUpload builds the source for a user-selected file. Defaults to
	// reading the path from the local filesystem.
	OpenUpload func(path string) service.ImageSource
}

// New creates a capture orchestrator from its dependencies.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: store is required", common.ErrMissingConfig)
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("%w: extractor is required", common.ErrMissingConfig)
	}
	if cfg.Prompter == nil {
		return nil, fmt.Errorf("%w: prompter is required", common.ErrMissingConfig)
	}
	openUpload := cfg.OpenUpload
	if openUpload == nil {
		openUpload = func(path string) service.ImageSource {
			return acquire.FileSource{Path: path}
		}
	}
	return &Orchestrator{
		store:      cfg.Store,
		extractor:  cfg.Extractor,
		prompter:   cfg.Prompter,
		camera:     cfg.Camera,
		openUpload: openUpload,
	}, nil
}

// Stage reports the current session stage, or idle when no session exists.
func (o *Orchestrator) Stage() model.Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return model.StageIdle
	}
	return o.session.Stage
}

// Session returns a snapshot of the active session, or nil when idle.
func (o *Orchestrator) Session() *model.CaptureSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	snapshot := *o.session
	return &snapshot
}

// Begin opens a new session in method selection. Only one session may be
// active at a time.
func (o *Orchestrator) Begin(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", common.ErrValidation)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil {
		return ErrSessionActive
	}
	o.session = newSession(userID)
	slog.Debug("capture session opened", "session_id", o.session.ID, "user_id", userID)
	return nil
}

// Cancel discards the active session without writing anything. It is
// legal at every stage before the commit write is issued; a cancel
// during processing leaves the in-flight extraction to finish and be
// discarded as stale.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return fmt.Errorf("%w: no active session", ErrInvalidTransition)
	}
	if !cancellable(o.session.Stage) {
		return fmt.Errorf("%w: cannot cancel during %s", ErrInvalidTransition, o.session.Stage)
	}
	slog.Debug("capture session canceled", "session_id", o.session.ID, "stage", o.session.Stage)
	o.session = nil
	return nil
}

// Dismiss acknowledges an error screen and closes the session.
func (o *Orchestrator) Dismiss() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil || o.session.Stage != model.StageError {
		return fmt.Errorf("%w: nothing to dismiss", ErrInvalidTransition)
	}
	o.session = nil
	return nil
}

// Restart returns from the error screen to method selection for another
// attempt, clearing the failed artifact and draft.
func (o *Orchestrator) Restart() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return fmt.Errorf("%w: no active session", ErrInvalidTransition)
	}
	if err := transition(o.session, model.StageMethodSelect); err != nil {
		return err
	}
	o.session.Method = ""
	o.session.Artifact = nil
	o.session.Draft = nil
	o.session.Err = nil
	return nil
}

// CaptureFromCamera grabs a single frame and hands it to extraction. An
// unavailable device is not a session failure: the session returns to
// method selection and the sentinel is passed through so the caller can
// fall back without an error screen.
func (o *Orchestrator) CaptureFromCamera(ctx context.Context) error {
	if err := o.startAcquisition(model.MethodCamera, model.StageCapturing); err != nil {
		return err
	}
	if o.camera == nil {
		o.returnToMethodSelect()
		return fmt.Errorf("%w: no camera configured", common.ErrDeviceUnavailable)
	}

	artifact, err := o.camera.Acquire(ctx)
	if err != nil {
		o.returnToMethodSelect()
		if errors.Is(err, common.ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrDeviceUnavailable, err)
	}
	return o.process(ctx, artifact)
}

// UploadFile reads a user-selected image and hands it to extraction.
// The file is accepted verbatim; an unreadable path returns the session
// to method selection with a user-visible message.
func (o *Orchestrator) UploadFile(ctx context.Context, path string) error {
	if err := o.startAcquisition(model.MethodUpload, model.StageUploading); err != nil {
		return err
	}

	artifact, err := o.openUpload(path).Acquire(ctx)
	if err != nil {
		o.returnToMethodSelect()
		return common.NewUserError(fmt.Sprintf("Could not read %s", path), err)
	}
	return o.process(ctx, artifact)
}

// EnterManual moves the session into the manual entry form.
func (o *Orchestrator) EnterManual() error {
	return o.startAcquisition(model.MethodManual, model.StageManualEntry)
}

// SubmitManual validates the manually entered fields and, when complete,
// moves straight to confirmation. An incomplete form keeps the session
// in manual entry and returns the validation message.
func (o *Orchestrator) SubmitManual(vendor, total, category, date string) error {
	draft, err := BuildManualDraft(vendor, total, category, date)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil || o.session.Stage != model.StageManualEntry {
		return fmt.Errorf("%w: not in manual entry", ErrInvalidTransition)
	}
	if err := transition(o.session, model.StageConfirming); err != nil {
		return err
	}
	o.session.Draft = &draft
	return nil
}

// Confirm validates the reviewed draft and commits it as a record. The
// session ends on success. A validation failure keeps the session in
// confirmation; a persistence failure moves it to the error screen.
func (o *Orchestrator) Confirm(ctx context.Context, edited model.Draft) (*model.Record, error) {
	o.mu.Lock()
	if o.session == nil || o.session.Stage != model.StageConfirming {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: not in confirmation", ErrInvalidTransition)
	}
	sessionID := o.session.ID
	userID := o.session.UserID
	o.mu.Unlock()

	categories, err := o.store.ListCategories(ctx, userID)
	if err != nil {
		// The session stays in confirmation; accepting again retries.
		return nil, common.NewUserError("Something went wrong saving this record.", err)
	}
	if err := ValidateDraft(edited, categories); err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.session == nil || o.session.ID != sessionID || o.session.Stage != model.StageConfirming {
		o.mu.Unlock()
		return nil, ErrStaleSession
	}
	if err := transition(o.session, model.StageCommitting); err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.session.Draft = &edited
	o.mu.Unlock()

	record, err := o.store.CreateRecord(ctx, userID, edited)
	if err != nil {
		return nil, o.failSession(sessionID, err, "Something went wrong saving this record.")
	}

	o.mu.Lock()
	if o.session != nil && o.session.ID == sessionID {
		o.session = nil
	}
	o.mu.Unlock()

	slog.Info("record committed",
		"record_id", record.ID,
		"vendor", record.Vendor,
		"category", record.Category)
	return record, nil
}

// startAcquisition moves from method selection into the chosen entry path.
func (o *Orchestrator) startAcquisition(method model.CaptureMethod, stage model.Stage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return fmt.Errorf("%w: no active session", ErrInvalidTransition)
	}
	if err := transition(o.session, stage); err != nil {
		return err
	}
	o.session.Method = method
	return nil
}

// returnToMethodSelect abandons the current entry path, keeping the
// session alive. A no-op when the session ended in the meantime.
func (o *Orchestrator) returnToMethodSelect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return
	}
	if err := transition(o.session, model.StageMethodSelect); err != nil {
		return
	}
	o.session.Method = ""
	o.session.Artifact = nil
}

// process runs the extraction round-trip for an acquired artifact. The
// result is applied only if the same session is still processing when it
// lands; a session canceled mid-flight discards the late result.
func (o *Orchestrator) process(ctx context.Context, artifact *model.ImageArtifact) error {
	o.mu.Lock()
	if o.session == nil {
		o.mu.Unlock()
		return ErrStaleSession
	}
	if err := transition(o.session, model.StageProcessing); err != nil {
		o.mu.Unlock()
		return err
	}
	o.session.Artifact = artifact
	sessionID := o.session.ID
	userID := o.session.UserID
	o.mu.Unlock()

	categories, err := o.store.ListCategories(ctx, userID)
	if err != nil {
		return o.failSession(sessionID, fmt.Errorf("failed to load categories: %w", err), extractionFailedMessage)
	}

	slog.Debug("extraction started",
		"session_id", sessionID,
		"artifact", artifact.Name,
		"bytes", len(artifact.Data))
	if n, ok := o.prompter.(processingNotifier); ok {
		n.ProcessingStarted()
		defer n.ProcessingDone()
	}
	draft, err := o.extractor.Extract(ctx, *artifact, categoryNames(categories))
	return o.completeExtraction(sessionID, draft, err)
}

// completeExtraction applies an extraction outcome to the session that
// requested it. Results for a replaced or ended session are dropped.
func (o *Orchestrator) completeExtraction(sessionID string, draft model.Draft, extractErr error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil || o.session.ID != sessionID || o.session.Stage != model.StageProcessing {
		slog.Debug("discarding extraction result for ended session", "session_id", sessionID)
		return ErrStaleSession
	}

	if extractErr != nil {
		if err := transition(o.session, model.StageError); err != nil {
			return err
		}
		o.session.Err = common.NewUserError(extractionFailedMessage, extractErr)
		slog.Warn("extraction failed", "session_id", sessionID, "error", extractErr)
		return nil
	}

	if err := transition(o.session, model.StageConfirming); err != nil {
		return err
	}
	// The draft is presented exactly as extracted, including empty
	// fields and category guesses that match nothing.
	o.session.Draft = &draft
	return nil
}

// failSession moves the session to the error screen with a user-visible
// message. Returns the wrapped cause for the caller's error chain.
func (o *Orchestrator) failSession(sessionID string, cause error, message string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	wrapped := common.NewUserError(message, cause)
	if o.session == nil || o.session.ID != sessionID {
		return wrapped
	}
	if err := transition(o.session, model.StageError); err != nil {
		o.session = nil
		return wrapped
	}
	o.session.Err = wrapped
	return wrapped
}
