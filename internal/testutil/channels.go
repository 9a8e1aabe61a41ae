// Package testutil provides shared test fixtures and helpers: temporary
// data and audio directories, a sample detection log and channel waits.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Common test timeout constants.
const (
	// DefaultTestTimeout is the standard timeout for most async test operations.
	DefaultTestTimeout = 5 * time.Second

	// LongTestTimeout is for operations that may take longer (CI environments).
	LongTestTimeout = 30 * time.Second
)

// Receive returns the next value from ch or fails the test after timeout.
func Receive[T any](t *testing.T, ch <-chan T, timeout time.Duration, msg string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		require.Fail(t, msg)
	}
	var zero T
	return zero
}
