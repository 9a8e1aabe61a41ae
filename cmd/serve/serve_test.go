package serve

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-mcp/internal/buildinfo"
	"github.com/tphakala/birdnet-mcp/internal/testutil"
)

func TestRunReturnsWhenListenFails(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	settings := testutil.Settings(t, testutil.SampleLog)
	settings.Server.Listen = busy.Addr().String()
	settings.Metrics.Enabled = false

	done := make(chan error, 1)
	go func() { done <- Run(t.Context(), settings, &buildinfo.Context{}) }()

	err = testutil.Receive(t, done, testutil.DefaultTestTimeout, "Run did not return after listen failure")
	assert.ErrorContains(t, err, "server error")
}
