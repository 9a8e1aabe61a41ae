package myaudio

import (
	"context"
	"fmt"
	"os"

	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/logger"
	"github.com/tphakala/birdnet-mcp/internal/securefs"
)

// Recording is a clip read from the audio directory.
type Recording struct {
	Filename    string
	ContentType string
	Data        []byte
	Info        *Info
}

// Retriever reads clips from a directory. It keeps no open handles between
// calls; every Get opens a fresh sandbox so clips added or removed on disk
// are seen immediately.
type Retriever struct {
	audioDir    string
	maxFileSize int64
	log         logger.Logger
}

// NewRetriever creates a Retriever for audioDir. maxFileSize of 0 disables
// the size limit.
func NewRetriever(audioDir string, maxFileSize int64, log logger.Logger) *Retriever {
	if log == nil {
		log = logger.Global().Module("myaudio")
	}
	return &Retriever{audioDir: audioDir, maxFileSize: maxFileSize, log: log}
}

// Get reads filename, which must be relative to the audio directory.
// Missing files yield an error matching ErrAudioNotFound; names that would
// leave the directory are validation errors.
func (r *Retriever) Get(ctx context.Context, filename string) (*Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaned, err := securefs.ValidateRelativePath(filename)
	if err != nil {
		return nil, errors.New(fmt.Errorf("invalid filename %q: %w", filename, err)).
			Component("myaudio").
			Category(errors.CategoryValidation).
			Build()
	}

	sfs, err := securefs.New(r.audioDir)
	if err != nil {
		r.log.Warn("Audio directory unavailable",
			logger.String("path", r.audioDir),
			logger.Error(err))
		return nil, notFound(filename, err)
	}
	defer func() {
		if err := sfs.Close(); err != nil {
			r.log.Debug("Failed to close audio directory", logger.Error(err))
		}
	}()
	sfs.SetMaxReadFileSize(r.maxFileSize)

	data, err := sfs.ReadFile(cleaned)
	switch {
	case err == nil:
	case errors.Is(err, securefs.ErrFileTooLarge):
		return nil, errors.New(fmt.Errorf("audio file %q: %w", filename, err)).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Context("limit_bytes", r.maxFileSize).
			Build()
	case errors.Is(err, os.ErrNotExist), errors.Is(err, securefs.ErrNotRegularFile):
		return nil, notFound(filename, err)
	default:
		// permission errors and sandbox escapes surface as not found
		r.log.Warn("Audio file unreadable",
			logger.String("filename", cleaned),
			logger.Error(err))
		return nil, notFound(filename, err)
	}

	return &Recording{
		Filename:    filename,
		ContentType: ContentType(cleaned),
		Data:        data,
		Info:        Probe(cleaned, data),
	}, nil
}
