// Package birdnet implements the detection query functions exposed to
// clients: detection listing, statistics, daily activity, audio retrieval
// and report generation.
//
// Every call loads the detection log afresh and runs load, filter and
// aggregate on its own; the Service keeps no state between calls.
package birdnet

import (
	"context"
	"strings"
	"time"

	"github.com/tphakala/birdnet-mcp/internal/conf"
	"github.com/tphakala/birdnet-mcp/internal/datastore"
	"github.com/tphakala/birdnet-mcp/internal/detection"
	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/logger"
	"github.com/tphakala/birdnet-mcp/internal/myaudio"
	"github.com/tphakala/birdnet-mcp/internal/observability/metrics"
	"github.com/tphakala/birdnet-mcp/internal/report"
)

// Function names as exposed to clients.
const (
	FuncGetBirdDetections       = "getBirdDetections"
	FuncGetDetectionStats       = "getDetectionStats"
	FuncGetAudioRecording       = "getAudioRecording"
	FuncGetDailyActivity        = "getDailyActivity"
	FuncGenerateDetectionReport = "generateDetectionReport"
)

// speciesAll is reported by getDailyActivity when no species filter is set.
const speciesAll = "all"

// AudioSource resolves clip names to recordings.
type AudioSource interface {
	Get(ctx context.Context, filename string) (*myaudio.Recording, error)
}

// Service answers the exposed functions.
type Service struct {
	location *time.Location
	store    datastore.Loader
	audio    AudioSource
	recorder metrics.QueryRecorder
	log      logger.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now as the reference for period windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecorder records per-function call metrics.
func WithRecorder(recorder metrics.QueryRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithLogger replaces the package logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Service. The data path, audio path and detection file name
// must all be set; settings are otherwise assumed to be validated.
func New(settings *conf.Settings, store datastore.Loader, audio AudioSource, opts ...Option) (*Service, error) {
	if err := checkSettings(settings); err != nil {
		return nil, err
	}
	if store == nil || audio == nil {
		return nil, errors.Newf("birdnet: detection store and audio source are required").
			Component("birdnet").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s := &Service{
		location: settings.Location(),
		store:    store,
		audio:    audio,
		recorder: metrics.NopRecorder{},
		log:      GetLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromSettings creates a Service backed by the detection file and audio
// directory named in settings. storeRecorder may be nil.
func NewFromSettings(settings *conf.Settings, storeRecorder metrics.StoreRecorder, opts ...Option) (*Service, error) {
	if err := checkSettings(settings); err != nil {
		return nil, err
	}
	store := datastore.NewFileStore(settings.DetectionFilePath(), settings.Location(),
		logger.Global().Module("datastore"), storeRecorder)
	audio := myaudio.NewRetriever(settings.Audio.Path, settings.Audio.MaxFileSize,
		logger.Global().Module("myaudio"))
	return New(settings, store, audio, opts...)
}

func checkSettings(settings *conf.Settings) error {
	var missing []string
	switch {
	case settings == nil:
		missing = []string{"settings"}
	default:
		if strings.TrimSpace(settings.Data.Path) == "" {
			missing = append(missing, "data.path")
		}
		if strings.TrimSpace(settings.Audio.Path) == "" {
			missing = append(missing, "audio.path")
		}
		if strings.TrimSpace(settings.Data.DetectionFile) == "" {
			missing = append(missing, "data.detectionfile")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.Newf("birdnet: missing configuration: %s", strings.Join(missing, ", ")).
		Component("birdnet").
		Category(errors.CategoryConfiguration).
		Context("missing", missing).
		Build()
}

// Location returns the timezone used for calendar dates.
func (s *Service) Location() *time.Location {
	return s.location
}

// GetBirdDetections lists detections on the calendar days from StartDate
// through EndDate, optionally narrowed to species containing Species.
func (s *Service) GetBirdDetections(ctx context.Context, p DetectionsParams) (*DetectionsResult, error) {
	var result *DetectionsResult
	err := s.observe(ctx, FuncGetBirdDetections, func(ctx context.Context) error {
		r, err := p.Validate(s.location)
		if err != nil {
			return err
		}

		records := detection.FilterByDate(s.store.Load(ctx), r.Start, r.End)
		if p.Species != "" {
			records = detection.FilterBySpecies(records, p.Species)
		}

		result = &DetectionsResult{
			Detections: records,
			Stats:      detection.CalculateConfidenceStats(records),
			Total:      len(records),
		}
		return nil
	})
	return result, err
}

// GetDetectionStats summarizes detections inside the period ending now with
// confidence at or above MinConfidence.
func (s *Service) GetDetectionStats(ctx context.Context, p StatsParams) (*StatsResult, error) {
	var result *StatsResult
	err := s.observe(ctx, FuncGetDetectionStats, func(ctx context.Context) error {
		period, floor, err := p.Validate()
		if err != nil {
			return err
		}

		records := detection.FilterByPeriod(s.store.Load(ctx), period, floor, s.now())
		result = &StatsResult{
			DetectionStats:  detection.CalculateDetectionStats(records),
			ConfidenceStats: detection.CalculateConfidenceStats(records),
			PeriodCovered:   period,
			MinConfidence:   floor,
		}
		return nil
	})
	return result, err
}

// GetAudioRecording reads a clip from the audio directory. Missing clips
// yield an error matching ErrAudioNotFound.
func (s *Service) GetAudioRecording(ctx context.Context, p AudioParams) (*AudioResult, error) {
	var result *AudioResult
	err := s.observe(ctx, FuncGetAudioRecording, func(ctx context.Context) error {
		format, err := p.Validate()
		if err != nil {
			return err
		}

		rec, err := s.audio.Get(ctx, p.Filename)
		if err != nil {
			return err
		}

		result = &AudioResult{
			Filename:    rec.Filename,
			Format:      format,
			ContentType: rec.ContentType,
			Size:        len(rec.Data),
			Info:        rec.Info,
		}
		if format == myaudio.FormatBuffer {
			result.Data = rec.Data
		} else {
			result.Audio = myaudio.EncodeBase64(rec.Data)
		}
		return nil
	})
	return result, err
}

// GetDailyActivity profiles one calendar day by hour.
func (s *Service) GetDailyActivity(ctx context.Context, p DailyActivityParams) (*DailyActivityResult, error) {
	var result *DailyActivityResult
	err := s.observe(ctx, FuncGetDailyActivity, func(ctx context.Context) error {
		day, err := p.Validate(s.location)
		if err != nil {
			return err
		}

		activity := detection.CalculateDailyActivity(s.store.Load(ctx), day, p.Species, s.location)
		species := p.Species
		if species == "" {
			species = speciesAll
		}
		result = &DailyActivityResult{
			Date:            strings.TrimSpace(p.Date),
			Species:         species,
			TotalDetections: activity.Total,
			HourlyActivity:  activity.Hourly,
			PeakHour:        activity.PeakHour,
			UniqueSpecies:   activity.UniqueSpecies,
		}
		return nil
	})
	return result, err
}

// GenerateDetectionReport renders a summary of the date range with charts.
func (s *Service) GenerateDetectionReport(ctx context.Context, p ReportParams) (*ReportResult, error) {
	var result *ReportResult
	err := s.observe(ctx, FuncGenerateDetectionReport, func(ctx context.Context) error {
		r, format, err := p.Validate(s.location)
		if err != nil {
			return err
		}

		records := detection.FilterByDate(s.store.Load(ctx), r.Start, r.End)
		summary := report.Summarize(strings.TrimSpace(p.StartDate), strings.TrimSpace(p.EndDate), records, s.location)
		doc, err := report.Compose(format, &summary)
		if err != nil {
			return err
		}

		result = &ReportResult{
			Format:      format,
			ContentType: format.ContentType(),
			Report:      doc,
		}
		return nil
	})
	return result, err
}

// observe runs fn inside a span and logs the outcome.
func (s *Service) observe(ctx context.Context, function string, fn func(context.Context) error) error {
	sp, ctx := startSpan(ctx, function, s.recorder)
	err := fn(ctx)
	duration := sp.Finish(err)

	log := s.log.WithContext(ctx)
	switch {
	case err == nil:
		log.Debug("Function completed",
			logger.String("function", function),
			logger.Duration("duration", duration))
	case errors.IsValidation(err), errors.IsNotFound(err):
		log.Debug("Function rejected",
			logger.String("function", function),
			logger.Error(err))
	default:
		log.Warn("Function failed",
			logger.String("function", function),
			logger.Duration("duration", duration),
			logger.Error(err))
	}
	return err
}
