package securefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupSecureFS creates a temporary directory and SecureFS instance for testing
func setupSecureFS(t *testing.T) (sfs *SecureFS, tempDir string) {
	t.Helper()

	tempDir = t.TempDir()
	sfs, err := New(tempDir)
	require.NoError(t, err, "Failed to create SecureFS")
	t.Cleanup(func() { _ = sfs.Close() })

	return sfs, tempDir
}

func TestNewRequiresExistingDirectory(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateRelativePath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain file", "robin1.wav", "robin1.wav", nil},
		{"nested file", "2024/01/robin1.wav", filepath.Join("2024", "01", "robin1.wav"), nil},
		{"redundant segments", "./2024/../robin1.wav", "robin1.wav", nil},
		{"parent traversal", "../etc/passwd", "", ErrPathTraversal},
		{"hidden traversal", "clips/../../secret.wav", "", ErrPathTraversal},
		{"bare parent", "..", "", ErrPathTraversal},
		{"absolute path", "/etc/passwd", "", ErrInvalidPath},
		{"empty", "", "", ErrInvalidPath},
		{"base directory", ".", "", ErrInvalidPath},
		{"nul byte", "a\x00.wav", "", ErrInvalidPath},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateRelativePath(tc.input)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSecureFSReadFile(t *testing.T) {
	t.Parallel()
	sfs, tempDir := setupSecureFS(t)

	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "clips"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "clips", "a.wav"), []byte("RIFF"), 0o600))

	data, err := sfs.ReadFile("clips/a.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), data)

	_, err = sfs.ReadFile("clips/missing.wav")
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = sfs.ReadFile("clips")
	require.ErrorIs(t, err, ErrNotRegularFile)
}

func TestSecureFSRejectsSymlinkEscape(t *testing.T) {
	t.Parallel()
	sfs, tempDir := setupSecureFS(t)

	outside := filepath.Join(t.TempDir(), "outside.wav")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))
	if err := os.Symlink(outside, filepath.Join(tempDir, "link.wav")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := sfs.ReadFile("link.wav")
	require.Error(t, err)
}

func TestSecureFSMaxReadFileSize(t *testing.T) {
	t.Parallel()
	sfs, tempDir := setupSecureFS(t)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "big.wav"), make([]byte, 64), 0o600))

	sfs.SetMaxReadFileSize(32)
	_, err := sfs.ReadFile("big.wav")
	require.ErrorIs(t, err, ErrFileTooLarge)

	sfs.SetMaxReadFileSize(64)
	data, err := sfs.ReadFile("big.wav")
	require.NoError(t, err)
	assert.Len(t, data, 64)
}
