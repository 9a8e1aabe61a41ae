// Package datastore loads the detection log written by the classifier.
//
// The log is a single JSON array of detection records. It is read in full
// on every call; nothing is cached between loads.
package datastore

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/tphakala/birdnet-mcp/internal/detection"
	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/logger"
	"github.com/tphakala/birdnet-mcp/internal/observability/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Loader returns the detection records currently in storage.
type Loader interface {
	Load(ctx context.Context) []detection.Detection
}

// FileStore reads detections from a JSON file.
type FileStore struct {
	path     string
	location *time.Location
	log      logger.Logger
	recorder metrics.StoreRecorder
}

// NewFileStore creates a store over the file at path. Offset-less
// timestamps in the file are read in loc. A nil recorder disables metrics.
func NewFileStore(path string, loc *time.Location, log logger.Logger, recorder metrics.StoreRecorder) *FileStore {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Global().Module("datastore")
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &FileStore{path: path, location: loc, log: log, recorder: recorder}
}

// Path returns the detection file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the detection file. It never fails: a missing,
// unreadable or malformed file yields an empty, non-nil slice and a logged
// diagnostic. A missing file and an empty file are equivalent.
func (s *FileStore) Load(ctx context.Context) []detection.Detection {
	log := s.log.WithContext(ctx)

	records, reason, err := s.read(ctx, log)
	if err != nil {
		if reason == metrics.ReasonNotFound {
			log.Debug("Detection file not found, using empty set", logger.String("path", s.path))
		} else {
			log.Warn("Detection file could not be loaded, using empty set",
				logger.String("path", s.path),
				logger.String("reason", reason),
				logger.Error(err))
		}
		s.recorder.RecordLoadError(reason)
		s.recorder.SetDetectionsLoaded(0)
		return []detection.Detection{}
	}

	s.recorder.SetDetectionsLoaded(len(records))
	log.Debug("Detections loaded", logger.String("path", s.path), logger.Int("count", len(records)))
	return records
}

func (s *FileStore) read(ctx context.Context, log logger.Logger) ([]detection.Detection, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, metrics.ReasonReadError, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		reason := metrics.ReasonReadError
		category := errors.CategoryFileIO
		if errors.Is(err, fs.ErrNotExist) {
			reason, category = metrics.ReasonNotFound, errors.CategoryNotFound
		}
		return nil, reason, errors.New(err).
			Component("datastore").
			Category(category).
			Context("path", s.path).
			Build()
	}

	records, err := s.decode(log, data)
	if err != nil {
		return nil, metrics.ReasonParseError, errors.New(err).
			Component("datastore").
			Category(errors.CategoryFileParsing).
			Context("path", s.path).
			Context("size", len(data)).
			Build()
	}
	return records, "", nil
}

// decode skips entries that are null or carry no species name.
func (s *FileStore) decode(log logger.Logger, data []byte) ([]detection.Detection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []detection.Detection{}, nil
	}

	var entries []*detection.Detection
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	records := make([]detection.Detection, 0, len(entries))
	invalidTimes := 0
	for i, d := range entries {
		if d == nil || strings.TrimSpace(d.Species) == "" {
			log.Warn("Skipping detection entry without species",
				logger.String("path", s.path),
				logger.Int("index", i))
			continue
		}
		d.Timestamp = d.Timestamp.In(s.location)
		if !d.Timestamp.Valid() {
			invalidTimes++
		}
		records = append(records, *d)
	}
	if invalidTimes > 0 {
		log.Debug("Detections with unparseable timestamps are excluded from date filters",
			logger.String("path", s.path),
			logger.Int("count", invalidTimes))
	}
	return records, nil
}
