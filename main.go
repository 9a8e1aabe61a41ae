package main

import (
	"os"

	"github.com/tphakala/birdnet-mcp/cmd"
	"github.com/tphakala/birdnet-mcp/internal/buildinfo"
)

// Set with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	build := &buildinfo.Context{
		Version:   version,
		BuildDate: buildDate,
	}

	if err := cmd.RootCommand(build).Execute(); err != nil {
		os.Exit(1)
	}
}
