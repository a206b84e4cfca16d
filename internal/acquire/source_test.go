package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veranek/receiptwise/internal/common"
)

func TestFileSource_Acquire(t *testing.T) {
	tests := []struct {
		name            string
		filename        string
		data            []byte
		wantContentType string
	}{
		{
			name:            "jpeg by extension",
			filename:        "receipt.jpg",
			data:            []byte{0xFF, 0xD8, 0xFF, 0xE0},
			wantContentType: "image/jpeg",
		},
		{
			name:            "png by extension",
			filename:        "receipt.png",
			data:            []byte("fake png bytes"),
			wantContentType: "image/png",
		},
		{
			name:            "unknown extension falls back to sniffing",
			filename:        "receipt.bin",
			data:            []byte("plain text content"),
			wantContentType: "text/plain; charset=utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.filename)
			require.NoError(t, os.WriteFile(path, tt.data, 0600))

			artifact, err := FileSource{Path: path}.Acquire(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.filename, artifact.Name)
			assert.Equal(t, tt.data, artifact.Data)
			assert.Equal(t, tt.wantContentType, artifact.ContentType)
		})
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "nope.jpg")}.Acquire(context.Background())
	require.Error(t, err)
}

func TestCameraSource_Acquire(t *testing.T) {
	t.Run("no command configured", func(t *testing.T) {
		_, err := CameraSource{}.Acquire(context.Background())
		require.ErrorIs(t, err, common.ErrDeviceUnavailable)
	})

	t.Run("command not installed", func(t *testing.T) {
		src := CameraSource{Command: []string{"definitely-not-a-real-capture-tool"}}
		_, err := src.Acquire(context.Background())
		require.ErrorIs(t, err, common.ErrDeviceUnavailable)
	})

	t.Run("command failure is device unavailable", func(t *testing.T) {
		src := CameraSource{Command: []string{"false"}, Timeout: 2 * time.Second}
		_, err := src.Acquire(context.Background())
		require.ErrorIs(t, err, common.ErrDeviceUnavailable)
	})

	t.Run("single frame from capture command", func(t *testing.T) {
		// Stand-in capture tool: copies fixture bytes to the output path.
		fixture := filepath.Join(t.TempDir(), "frame.jpg")
		require.NoError(t, os.WriteFile(fixture, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0600))

		src := CameraSource{Command: []string{"cp", fixture}, Timeout: 5 * time.Second}
		artifact, err := src.Acquire(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "captured-image.jpg", artifact.Name)
		assert.Equal(t, "image/jpeg", artifact.ContentType)
		assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xE0}, artifact.Data)
	})
}
