// Package acquire produces image artifacts for the capture pipeline.
// Two producers converge on one artifact type: a filesystem upload and a
// single-frame camera grab.
package acquire

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/veranek/receiptwise/internal/common"
	"github.com/veranek/receiptwise/internal/model"
)

// FileSource yields the user-selected file verbatim as an artifact.
// No type or size validation is applied beyond content-type sniffing.
type FileSource struct {
	Path string
}

// Acquire reads the file and wraps it as an image artifact.
func (s FileSource) Acquire(_ context.Context) (*model.ImageArtifact, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}

	return &model.ImageArtifact{
		Name:        filepath.Base(s.Path),
		ContentType: sniffContentType(s.Path, data),
		Data:        data,
	}, nil
}

// CameraSource grabs one still frame per invocation by running a
// configured capture command (fswebcam, imagesnap, ...) that writes a
// JPEG to the path given as its final argument. An unavailable device is
// not an error state: the orchestrator falls silently back to method
// selection on ErrDeviceUnavailable.
type CameraSource struct {
	// Command is the capture program plus fixed arguments.
	Command []string
	// Timeout bounds one grab. Zero means 10s.
	Timeout time.Duration
}

// Acquire triggers a single frame grab.
func (s CameraSource) Acquire(ctx context.Context) (*model.ImageArtifact, error) {
	if len(s.Command) == 0 {
		return nil, fmt.Errorf("%w: no capture command configured", common.ErrDeviceUnavailable)
	}
	if _, err := exec.LookPath(s.Command[0]); err != nil {
		return nil, fmt.Errorf("%w: %s not found", common.ErrDeviceUnavailable, s.Command[0])
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("receiptwise-frame-%d.jpg", time.Now().UnixNano()))
	defer func() { _ = os.Remove(outPath) }()

	args := append(append([]string{}, s.Command[1:]...), outPath)
	cmd := exec.CommandContext(ctx, s.Command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Debug("camera capture command failed",
			"command", s.Command[0],
			"stderr", stderr.String(),
			"error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDeviceUnavailable, err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("%w: no frame produced", common.ErrDeviceUnavailable)
	}

	return &model.ImageArtifact{
		Name:        "captured-image.jpg",
		ContentType: "image/jpeg",
		Data:        data,
	}, nil
}

// sniffContentType prefers the extension's well-known type and falls
// back to content sniffing for extensionless uploads.
func sniffContentType(path string, data []byte) string {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	}
	return http.DetectContentType(data)
}
