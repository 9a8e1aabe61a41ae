package securefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/birdnet-mcp/internal/logger"
)

// GetLogger returns the securefs package logger scoped to the securefs module.
func GetLogger() logger.Logger {
	return logger.Global().Module("securefs")
}

// SecureFS provides read operations restricted to a base directory using
// os.Root. Symlinks and ".." components that resolve outside the base are
// rejected by the operating system as well as by ValidateRelativePath.
type SecureFS struct {
	root            *os.Root
	maxReadFileSize int64 // 0 = unlimited
}

// New opens a sandbox rooted at baseDir. The directory must already exist.
func New(baseDir string) (*SecureFS, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem sandbox: %w", err)
	}

	return &SecureFS{root: root}, nil
}

// SetMaxReadFileSize limits ReadFile; 0 disables the limit.
func (sfs *SecureFS) SetMaxReadFileSize(limit int64) {
	sfs.maxReadFileSize = limit
}

// ValidateRelativePath validates a path assumed to be relative to the base directory.
// It returns a cleaned, validated path or an error if the path is not valid.
func ValidateRelativePath(relPath string) (string, error) {
	if strings.TrimSpace(relPath) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsRune(relPath, 0) {
		return "", fmt.Errorf("%w: path contains NUL byte", ErrInvalidPath)
	}

	// Clean the path first to resolve . and .. components where possible
	cleanedPath := filepath.Clean(filepath.FromSlash(relPath))

	if filepath.IsAbs(cleanedPath) || filepath.VolumeName(cleanedPath) != "" {
		return "", fmt.Errorf("%w: path must be relative, but got '%s'", ErrInvalidPath, relPath)
	}

	// After cleaning, paths starting with ".." indicate an attempt to go above the root.
	if cleanedPath == ".." || strings.HasPrefix(cleanedPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: '%s' (cleaned from '%s')", ErrPathTraversal, cleanedPath, relPath)
	}

	if cleanedPath == "." {
		return "", fmt.Errorf("%w: path names the base directory", ErrInvalidPath)
	}

	return cleanedPath, nil
}

// ReadFile reads a regular file inside the sandbox, enforcing the size limit.
func (sfs *SecureFS) ReadFile(relPath string) ([]byte, error) {
	cleaned, err := ValidateRelativePath(relPath)
	if err != nil {
		return nil, err
	}

	file, err := sfs.root.Open(cleaned)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			GetLogger().Warn("Failed to close file", logger.Error(err))
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, cleaned)
	}
	if sfs.maxReadFileSize > 0 && stat.Size() > sfs.maxReadFileSize {
		return nil, fmt.Errorf("%w: file is %d bytes, limit is %d bytes",
			ErrFileTooLarge, stat.Size(), sfs.maxReadFileSize)
	}

	if sfs.maxReadFileSize > 0 {
		// guard against files growing after Stat
		return io.ReadAll(io.LimitReader(file, sfs.maxReadFileSize+1))
	}
	return io.ReadAll(file)
}

// Close releases the sandbox root.
func (sfs *SecureFS) Close() error {
	if sfs == nil || sfs.root == nil {
		return nil
	}
	return sfs.root.Close()
}
