// Package securefs provides read access to a directory tree through an
// os.Root sandbox so request-supplied names cannot escape it.
package securefs

import (
	"github.com/tphakala/birdnet-mcp/internal/errors"
)

// Sentinel errors for the securefs package.
// These errors can be used with errors.Is to check for specific error conditions.
var (
	// ErrPathTraversal indicates an attempt to access a path outside the allowed directory
	// via relative path traversal (e.g., using "../" to escape the directory).
	ErrPathTraversal = errors.NewStd("security error: path attempts to traverse outside base directory")

	// ErrInvalidPath indicates an invalid path, such as an absolute path where a relative one is required
	ErrInvalidPath = errors.NewStd("security error: invalid path")

	// ErrNotRegularFile indicates an attempt to read something that is not a regular file
	ErrNotRegularFile = errors.NewStd("security error: not a regular file")

	// ErrFileTooLarge indicates a file exceeding the configured read limit
	ErrFileTooLarge = errors.NewStd("file exceeds maximum read size")
)
