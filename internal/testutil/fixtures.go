package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-mcp/internal/conf"
	"github.com/tphakala/birdnet-mcp/internal/logger"
)

// SampleLog holds two robins and a cardinal over three January days.
const SampleLog = `[
  {"species":"American Robin","confidence":0.85,"timestamp":"2024-01-01T10:00:00Z","audioFile":"robin1.wav"},
  {"species":"Northern Cardinal","confidence":0.92,"timestamp":"2024-01-02T11:30:00Z","audioFile":"cardinal1.wav"},
  {"species":"American Robin","confidence":0.78,"timestamp":"2024-01-03T09:15:00Z","audioFile":"robin2.wav"}
]`

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

// Settings returns validated UTC settings whose data and audio directories
// exist under a fresh temporary directory. detections, when not empty, is
// written as the detection log.
func Settings(t *testing.T, detections string) *conf.Settings {
	t.Helper()

	root := t.TempDir()
	settings := conf.Defaults()
	settings.Main.Timezone = "UTC"
	settings.Data.Path = filepath.Join(root, "data")
	settings.Audio.Path = filepath.Join(root, "audio")
	require.NoError(t, conf.ValidateSettings(settings))

	require.NoError(t, os.MkdirAll(settings.Data.Path, 0o755))
	require.NoError(t, os.MkdirAll(settings.Audio.Path, 0o755))
	if detections != "" {
		require.NoError(t, os.WriteFile(settings.DetectionFilePath(), []byte(detections), 0o600))
	}
	return settings
}

// WriteAudio writes data to name inside the audio directory, creating
// parent directories.
func WriteAudio(t *testing.T, settings *conf.Settings, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(settings.Audio.Path, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
