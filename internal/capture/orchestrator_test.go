package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranek/receiptwise/internal/common"
	"github.com/veranek/receiptwise/internal/model"
	"github.com/veranek/receiptwise/internal/service"
	"github.com/veranek/receiptwise/internal/testutil"
)

// stubSource is a canned ImageSource for tests.
type stubSource struct {
	artifact *model.ImageArtifact
	err      error
}

func (s stubSource) Acquire(context.Context) (*model.ImageArtifact, error) {
	return s.artifact, s.err
}

func frameArtifact() *model.ImageArtifact {
	return &model.ImageArtifact{
		Name:        "captured-image.jpg",
		ContentType: "image/jpeg",
		Data:        []byte{0xFF, 0xD8, 0xFF, 0xE0},
	}
}

func writeReceiptFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0600))
	return path
}

func listRecords(t *testing.T, ts *testutil.TestStore) []model.Record {
	t.Helper()
	records, err := ts.Store.ListRecords(context.Background(), ts.UserID, service.RecordFilter{})
	require.NoError(t, err)
	return records
}

func TestNew_RequiresDependencies(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")

	_, err := New(Config{Extractor: &MockExtractor{}, Prompter: NewMockPrompter()})
	require.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = New(Config{Store: ts.Store, Prompter: NewMockPrompter()})
	require.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = New(Config{Store: ts.Store, Extractor: &MockExtractor{}})
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestRun_CameraHappyPath(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery", "Dining")
	extractor := &MockExtractor{
		Draft: model.Draft{Vendor: "Corner Store", Total: "23.10", Category: "Grocery", Date: "2024-06-02"},
	}
	prompter := NewMockPrompter().
		QueueMethod(model.MethodCamera).
		QueueAction(service.ReviewAccept)

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  prompter,
		Camera:    stubSource{artifact: frameArtifact()},
	})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "Corner Store", record.Vendor)
	assert.Equal(t, "23.10", record.Total)
	assert.Equal(t, "Grocery", record.Category)
	assert.Equal(t, model.StageIdle, o.Stage())

	// The extractor saw the registered category names.
	calls := extractor.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "captured-image.jpg", calls[0].ArtifactName)
	assert.ElementsMatch(t, []string{"Grocery", "Dining"}, calls[0].KnownCategories)

	require.Len(t, listRecords(t, ts), 1)
}

func TestRun_UploadHappyPath(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{
		Draft: model.Draft{Vendor: "Acme", Total: "42.50", Category: "Grocery", Date: "2024-03-01"},
	}
	prompter := NewMockPrompter().
		QueueMethod(model.MethodUpload).
		QueueFile(writeReceiptFile(t)).
		QueueAction(service.ReviewAccept)

	o, err := New(Config{Store: ts.Store, Extractor: extractor, Prompter: prompter})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "Acme", record.Vendor)
	calls := extractor.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "receipt.jpg", calls[0].ArtifactName)
}

func TestRunWithFile_SkipsMethodSelection(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{
		Draft: model.Draft{Vendor: "Acme", Total: "42.50", Category: "Grocery", Date: "2024-03-01"},
	}
	// No method queued: the prompter is only asked to review.
	prompter := NewMockPrompter().QueueAction(service.ReviewAccept)

	o, err := New(Config{Store: ts.Store, Extractor: extractor, Prompter: prompter})
	require.NoError(t, err)

	record, err := o.RunWithFile(context.Background(), ts.UserID, writeReceiptFile(t))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Acme", record.Vendor)
}

func TestRunWithFile_UnreadableFallsBackToMethodSelect(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	prompter := NewMockPrompter() // notice, then cancel at method select

	o, err := New(Config{Store: ts.Store, Extractor: &MockExtractor{}, Prompter: prompter})
	require.NoError(t, err)

	record, err := o.RunWithFile(context.Background(), ts.UserID, filepath.Join(t.TempDir(), "gone.jpg"))
	require.NoError(t, err)
	assert.Nil(t, record)
	require.Len(t, prompter.Notices(), 1)
}

func TestRun_CameraUnavailableFallsBackToUpload(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{
		Draft: model.Draft{Vendor: "Acme", Total: "5.00", Category: "Grocery", Date: "2024-03-01"},
	}
	prompter := NewMockPrompter().
		QueueMethod(model.MethodCamera, model.MethodUpload).
		QueueFile(writeReceiptFile(t)).
		QueueAction(service.ReviewAccept)

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  prompter,
		Camera:    stubSource{err: common.ErrDeviceUnavailable},
	})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	require.NotNil(t, record)

	// The fallback is silent: no error screen, no notice.
	assert.Empty(t, prompter.Notices())
}

func TestRun_NoCameraConfiguredFallsBack(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	prompter := NewMockPrompter().QueueMethod(model.MethodCamera)
	// Second method selection answers cancel (queue exhausted).

	o, err := New(Config{Store: ts.Store, Extractor: &MockExtractor{}, Prompter: prompter})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Empty(t, prompter.Notices())
}

func TestRun_ExtractionFailureShowsUniformMessage(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{Err: common.ErrExtractionFailed}
	prompter := NewMockPrompter().
		QueueMethod(model.MethodCamera).
		QueueAction(service.ReviewAccept)

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  prompter,
		Camera:    stubSource{artifact: frameArtifact()},
	})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.Error(t, err)
	assert.Nil(t, record)
	assert.Equal(t, extractionFailedMessage, common.UserMessage(err))
	assert.Equal(t, model.StageIdle, o.Stage())
	assert.Empty(t, listRecords(t, ts))
}

func TestRun_ManualEntry(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{}
	prompter := NewMockPrompter().
		QueueMethod(model.MethodManual).
		QueueDraft(
			model.Draft{Vendor: "Corner Store", Total: "8.40"}, // incomplete, asked again
			model.Draft{Vendor: "Corner Store", Total: "8.40", Category: "Grocery", Date: "2024-06-10"},
		).
		QueueAction(service.ReviewAccept)

	o, err := New(Config{Store: ts.Store, Extractor: extractor, Prompter: prompter})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "Corner Store", record.Vendor)
	assert.Equal(t, []string{"Please fill out all fields"}, prompter.Notices())
	// Manual entry bypasses extraction entirely.
	assert.Empty(t, extractor.Calls())
}

func TestRun_ReviewEditsAreCommitted(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery", "Dining")
	extractor := &MockExtractor{
		Draft: model.Draft{Vendor: "Acme", Total: "42.50", Category: "Grocery", Date: "2024-03-01"},
	}
	prompter := NewMockPrompter().
		QueueMethod(model.MethodCamera).
		QueueAction(service.ReviewAccept)
	prompter.ReviewEdit = func(draft model.Draft) model.Draft {
		draft.Category = "Dining"
		draft.Total = "43.00"
		return draft
	}

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  prompter,
		Camera:    stubSource{artifact: frameArtifact()},
	})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "Dining", record.Category)
	assert.Equal(t, "43.00", record.Total)

	// The review saw the extracted draft as-is.
	reviewed := prompter.ReviewedDrafts()
	require.Len(t, reviewed, 1)
	assert.Equal(t, "Grocery", reviewed[0].Category)
}

func TestRun_UnknownCategoryRejectedAtAccept(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{
		// The extractor may guess a name that matches nothing.
		Draft: model.Draft{Vendor: "Acme", Total: "42.50", Category: "Gadgets", Date: "2024-03-01"},
	}
	prompter := NewMockPrompter().
		QueueMethod(model.MethodCamera).
		QueueAction(service.ReviewAccept, service.ReviewAccept)
	fixed := false
	prompter.ReviewEdit = func(draft model.Draft) model.Draft {
		if fixed {
			draft.Category = "Grocery"
		}
		fixed = true
		return draft
	}

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  prompter,
		Camera:    stubSource{artifact: frameArtifact()},
	})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "Grocery", record.Category)
	require.Len(t, prompter.Notices(), 1)
	assert.Contains(t, prompter.Notices()[0], "Gadgets")
}

func TestRun_EmptyCategoryIsAccepted(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{
		Draft: model.Draft{Vendor: "Acme", Total: "42.50", Date: "2024-03-01"},
	}
	prompter := NewMockPrompter().
		QueueMethod(model.MethodCamera).
		QueueAction(service.ReviewAccept)

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  prompter,
		Camera:    stubSource{artifact: frameArtifact()},
	})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "", record.Category)
}

func TestRun_CancelAtMethodSelect(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	prompter := NewMockPrompter() // empty queue answers cancel

	o, err := New(Config{Store: ts.Store, Extractor: &MockExtractor{}, Prompter: prompter})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Equal(t, model.StageIdle, o.Stage())
	assert.Empty(t, listRecords(t, ts))
}

func TestRun_CancelAtReview(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{
		Draft: model.Draft{Vendor: "Acme", Total: "42.50", Category: "Grocery", Date: "2024-03-01"},
	}
	prompter := NewMockPrompter().
		QueueMethod(model.MethodCamera).
		QueueAction(service.ReviewCancel)

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  prompter,
		Camera:    stubSource{artifact: frameArtifact()},
	})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Empty(t, listRecords(t, ts))
}

func TestRun_UnreadableUploadReturnsToMethodSelect(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	prompter := NewMockPrompter().
		QueueMethod(model.MethodUpload).
		QueueFile(filepath.Join(t.TempDir(), "missing.jpg"))
	// Next method selection cancels.

	o, err := New(Config{Store: ts.Store, Extractor: &MockExtractor{}, Prompter: prompter})
	require.NoError(t, err)

	record, err := o.Run(context.Background(), ts.UserID)
	require.NoError(t, err)
	assert.Nil(t, record)
	require.Len(t, prompter.Notices(), 1)
	assert.Contains(t, prompter.Notices()[0], "missing.jpg")
}

func TestBegin_SecondSessionRejected(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	o, err := New(Config{Store: ts.Store, Extractor: &MockExtractor{}, Prompter: NewMockPrompter()})
	require.NoError(t, err)

	require.NoError(t, o.Begin(ts.UserID))
	require.ErrorIs(t, o.Begin(ts.UserID), ErrSessionActive)

	require.NoError(t, o.Cancel())
	require.NoError(t, o.Begin(ts.UserID))
}

func TestCancelDuringProcessing_DiscardsLateResult(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{
		Draft: model.Draft{Vendor: "Acme", Total: "42.50", Category: "Grocery", Date: "2024-03-01"},
		Block: make(chan struct{}),
	}

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  NewMockPrompter(),
		Camera:    stubSource{artifact: frameArtifact()},
	})
	require.NoError(t, err)
	require.NoError(t, o.Begin(ts.UserID))

	done := make(chan error, 1)
	go func() {
		done <- o.CaptureFromCamera(context.Background())
	}()

	require.Eventually(t, func() bool {
		return o.Stage() == model.StageProcessing
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, o.Cancel())
	close(extractor.Block)

	require.ErrorIs(t, <-done, ErrStaleSession)
	assert.Equal(t, model.StageIdle, o.Stage())
	assert.Empty(t, listRecords(t, ts))
}

func TestRestart_ReturnsToMethodSelect(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{Err: errors.New("model overloaded")}

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  NewMockPrompter(),
		Camera:    stubSource{artifact: frameArtifact()},
	})
	require.NoError(t, err)
	require.NoError(t, o.Begin(ts.UserID))
	require.NoError(t, o.CaptureFromCamera(context.Background()))

	require.Equal(t, model.StageError, o.Stage())
	sess := o.Session()
	require.NotNil(t, sess.Err)
	assert.Equal(t, extractionFailedMessage, common.UserMessage(sess.Err))

	require.NoError(t, o.Restart())
	assert.Equal(t, model.StageMethodSelect, o.Stage())

	sess = o.Session()
	assert.Nil(t, sess.Err)
	assert.Nil(t, sess.Artifact)
	assert.Nil(t, sess.Draft)
}

func TestDismiss_ClosesErroredSession(t *testing.T) {
	ts := testutil.SetupTestStore(t, "Grocery")
	extractor := &MockExtractor{Err: errors.New("timeout")}

	o, err := New(Config{
		Store:     ts.Store,
		Extractor: extractor,
		Prompter:  NewMockPrompter(),
		Camera:    stubSource{artifact: frameArtifact()},
	})
	require.NoError(t, err)
	require.NoError(t, o.Begin(ts.UserID))
	require.NoError(t, o.CaptureFromCamera(context.Background()))
	require.Equal(t, model.StageError, o.Stage())

	require.NoError(t, o.Dismiss())
	assert.Equal(t, model.StageIdle, o.Stage())

	require.Error(t, o.Dismiss())
}
