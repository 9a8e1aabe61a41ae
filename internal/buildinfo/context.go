// Package buildinfo carries build-time metadata separate from user configuration
package buildinfo

// UnknownValue is reported for metadata not injected at build time.
const UnknownValue = "unknown"

// Context contains build-time metadata injected with -ldflags at startup.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// GetVersion returns the build version, or UnknownValue
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate returns the build date, or UnknownValue
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}
