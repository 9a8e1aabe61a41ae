package setup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-mcp/internal/conf"
)

func baseSettings(t *testing.T) *conf.Settings {
	t.Helper()
	s := conf.Defaults()
	s.Main.Timezone = "UTC"
	require.NoError(t, conf.ValidateSettings(s))
	return s
}

func TestRunWritesConfigAndClientExample(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	audioDir := filepath.Join(root, "audio")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	require.NoError(t, os.MkdirAll(audioDir, 0o755))
	outDir := filepath.Join(root, "out")

	var out bytes.Buffer
	in := strings.NewReader(dataDir + "\n" + audioDir + "\n")
	require.NoError(t, Run(in, &out, baseSettings(t), Options{OutputDir: outDir, Executable: "/usr/local/bin/birdnet-mcp"}))

	assert.Contains(t, out.String(), "Verified access to BirdNET directories")
	assert.NotContains(t, out.String(), "Warning")
	assert.Contains(t, out.String(), "Setup completed successfully!")

	loaded, err := conf.Load(viper.New(), filepath.Join(outDir, ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, dataDir, loaded.Data.Path)
	assert.Equal(t, audioDir, loaded.Audio.Path)
	assert.Equal(t, conf.DefaultDetectionFile, loaded.Data.DetectionFile)

	data, err := os.ReadFile(filepath.Join(outDir, ClientConfigFileName))
	require.NoError(t, err)
	var client ClientConfig
	require.NoError(t, json.Unmarshal(data, &client))

	entry, ok := client.MCPServers["birdnet"]
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/birdnet-mcp", entry.Command)
	assert.Equal(t, []string{"serve", "--config", filepath.Join(outDir, ConfigFileName)}, entry.Args)
	assert.Equal(t, dataDir, entry.Env["BIRDNET_DATA_PATH"])
	assert.Equal(t, audioDir, entry.Env["BIRDNET_AUDIO_PATH"])
	assert.Equal(t, conf.DefaultDetectionFile, entry.Env["BIRDNET_DETECTION_FILE"])
}

func TestRunDefaultsAndMissingDirectories(t *testing.T) {
	t.Parallel()

	base := baseSettings(t)
	base.Data.Path = filepath.Join(t.TempDir(), "missing-data")
	base.Audio.Path = filepath.Join(t.TempDir(), "missing-audio")
	outDir := t.TempDir()

	var out bytes.Buffer
	// empty answers keep the defaults; EOF on the second prompt
	require.NoError(t, Run(strings.NewReader("\n"), &out, base, Options{OutputDir: outDir, Executable: "birdnet-mcp"}))

	assert.Contains(t, out.String(), "["+base.Data.Path+"]")
	assert.Contains(t, out.String(), "Warning: data directory "+base.Data.Path)
	assert.Contains(t, out.String(), "Warning: audio directory "+base.Audio.Path)
	assert.FileExists(t, filepath.Join(outDir, ConfigFileName))
	assert.FileExists(t, filepath.Join(outDir, ClientConfigFileName))
}
