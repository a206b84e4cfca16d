package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veranek/receiptwise/internal/common"
	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
)

// Run drives one complete capture attempt through the prompter: method
// selection, acquisition, extraction, confirmation, commit. It returns
// the committed record, (nil, nil) on a user cancel, or the failure that
// ended the session.
func (o *Orchestrator) Run(ctx context.Context, userID string) (*model.Record, error) {
	if err := o.Begin(userID); err != nil {
		return nil, err
	}
	return o.loop(ctx)
}

// RunWithFile is Run with the upload path already known: the session
// skips method selection and goes straight to extraction. If the file
// cannot be read the session falls back to interactive method selection.
func (o *Orchestrator) RunWithFile(ctx context.Context, userID, path string) (*model.Record, error) {
	if err := o.Begin(userID); err != nil {
		return nil, err
	}
	if err := o.UploadFile(ctx, path); err != nil {
		if errors.Is(err, ErrStaleSession) {
			return nil, err
		}
		o.prompter.NotifyError(common.UserMessage(err))
	}
	return o.loop(ctx)
}

func (o *Orchestrator) loop(ctx context.Context) (*model.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			o.abandon()
			return nil, err
		}

		switch o.Stage() {
		case model.StageIdle:
			// Session ended by cancel.
			return nil, nil

		case model.StageMethodSelect:
			if err := o.runMethodSelect(ctx); err != nil {
				return nil, err
			}

		case model.StageManualEntry:
			if err := o.runManualEntry(ctx); err != nil {
				return nil, err
			}

		case model.StageConfirming:
			record, done, err := o.runConfirmation(ctx)
			if done || err != nil {
				return record, err
			}

		case model.StageError:
			sess := o.Session()
			_ = o.Dismiss()
			if sess != nil && sess.Err != nil {
				return nil, sess.Err
			}
			return nil, errors.New("capture session failed")

		default:
			o.abandon()
			return nil, fmt.Errorf("%w: unexpected stage", ErrInvalidTransition)
		}
	}
}

// runMethodSelect asks for an entry path and starts it. A cancel choice
// ends the session; an unavailable camera quietly returns to selection.
func (o *Orchestrator) runMethodSelect(ctx context.Context) error {
	method, err := o.prompter.SelectMethod(ctx)
	if err != nil {
		o.abandon()
		return err
	}

	switch method {
	case model.MethodCamera:
		if err := o.CaptureFromCamera(ctx); err != nil {
			if errors.Is(err, common.ErrDeviceUnavailable) {
				slog.Debug("camera unavailable, returning to method selection", "error", err)
				return nil
			}
			o.abandon()
			return err
		}

	case model.MethodUpload:
		path, err := o.prompter.SelectFile(ctx)
		if err != nil {
			o.abandon()
			return err
		}
		if path == "" {
			return nil
		}
		if err := o.UploadFile(ctx, path); err != nil {
			if errors.Is(err, ErrStaleSession) {
				return err
			}
			o.prompter.NotifyError(common.UserMessage(err))
			return nil
		}

	case model.MethodManual:
		if err := o.EnterManual(); err != nil {
			o.abandon()
			return err
		}

	case "":
		return o.Cancel()

	default:
		o.prompter.NotifyError(fmt.Sprintf("Unknown entry method %q", method))
	}
	return nil
}

// runManualEntry collects the four fields and validates them. An
// incomplete form shows the message and asks again.
func (o *Orchestrator) runManualEntry(ctx context.Context) error {
	draft, err := o.prompter.CollectManualDraft(ctx)
	if err != nil {
		o.abandon()
		return err
	}
	if err := o.SubmitManual(draft.Vendor, draft.Total, draft.Category, draft.Date); err != nil {
		if errors.Is(err, common.ErrValidation) {
			o.prompter.NotifyError(common.UserMessage(err))
			return nil
		}
		o.abandon()
		return err
	}
	return nil
}

// runConfirmation presents the draft for review and commits on accept.
// done is true when the session finished, by commit or by cancel.
func (o *Orchestrator) runConfirmation(ctx context.Context) (record *model.Record, done bool, err error) {
	sess := o.Session()
	if sess == nil || sess.Draft == nil {
		return nil, true, fmt.Errorf("%w: no draft to confirm", ErrInvalidTransition)
	}

	categories, err := o.store.ListCategories(ctx, sess.UserID)
	if err != nil {
		o.abandon()
		return nil, true, fmt.Errorf("failed to load categories: %w", err)
	}

	edited, action, err := o.prompter.Review(ctx, *sess.Draft, categories)
	if err != nil {
		o.abandon()
		return nil, true, err
	}
	if action == service.ReviewCancel {
		return nil, true, o.Cancel()
	}

	record, err = o.Confirm(ctx, edited)
	if err != nil {
		if o.Stage() == model.StageError {
			// A commit failure parked the session on the error screen;
			// the outer loop surfaces it.
			return nil, false, nil
		}
		o.prompter.NotifyError(common.UserMessage(err))
		return nil, false, nil
	}
	return record, true, nil
}

// abandon drops the session unconditionally. Used on prompter failures
// and context cancellation, where there is no user left to ask.
func (o *Orchestrator) abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.session = nil
}
