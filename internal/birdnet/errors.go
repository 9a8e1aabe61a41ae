package birdnet

import (
	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/myaudio"
)

var (
	// ErrAudioNotFound is matched by errors returned when a requested clip
	// does not exist in the audio directory.
	ErrAudioNotFound = myaudio.ErrAudioNotFound

	// ErrUnknownFunction is matched by Invoke errors for names that are not
	// in the function manifest.
	ErrUnknownFunction = errors.NewStd("unknown function")
)

// paramError reports a malformed or missing request parameter.
func paramError(param, format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("birdnet").
		Category(errors.CategoryValidation).
		Context("parameter", param).
		Build()
}
