package myaudio

import (
	"fmt"

	"github.com/tphakala/birdnet-mcp/internal/errors"
)

// Error sentinel values for common myaudio errors
var (
	// ErrAudioNotFound is returned when a requested clip cannot be read from
	// the audio directory.
	ErrAudioNotFound = errors.NewStd("audio file not found")
)

func notFound(filename string, cause error) error {
	return errors.New(fmt.Errorf("%w: %s", ErrAudioNotFound, filename)).
		Component("myaudio").
		Category(errors.CategoryNotFound).
		Context("filename", filename).
		Context("cause", cause.Error()).
		Build()
}
