package birdnet

import (
	"math"
	"strings"
	"time"

	"github.com/tphakala/birdnet-mcp/internal/detection"
	"github.com/tphakala/birdnet-mcp/internal/errors"
	"github.com/tphakala/birdnet-mcp/internal/myaudio"
	"github.com/tphakala/birdnet-mcp/internal/report"
	"github.com/tphakala/birdnet-mcp/internal/securefs"
)

// DetectionsParams are the arguments of getBirdDetections.
type DetectionsParams struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Species   string `json:"species,omitempty"`
}

// StatsParams are the arguments of getDetectionStats. A nil MinConfidence
// means no floor.
type StatsParams struct {
	Period        string   `json:"period"`
	MinConfidence *float64 `json:"minConfidence,omitempty"`
}

// AudioParams are the arguments of getAudioRecording.
type AudioParams struct {
	Filename string `json:"filename"`
	Format   string `json:"format,omitempty"`
}

// DailyActivityParams are the arguments of getDailyActivity.
type DailyActivityParams struct {
	Date    string `json:"date"`
	Species string `json:"species,omitempty"`
}

// ReportParams are the arguments of generateDetectionReport.
type ReportParams struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Format    string `json:"format,omitempty"`
}

// DateRange is a validated inclusive calendar range.
type DateRange struct {
	Start, End time.Time
}

func parseDateRange(startDate, endDate string, loc *time.Location) (DateRange, error) {
	if strings.TrimSpace(startDate) == "" {
		return DateRange{}, paramError("startDate", "startDate is required")
	}
	if strings.TrimSpace(endDate) == "" {
		return DateRange{}, paramError("endDate", "endDate is required")
	}
	start, end, err := detection.ParseDateRange(startDate, endDate, loc)
	if err != nil {
		param := "startDate"
		var ee *errors.EnhancedError
		if errors.As(err, &ee) {
			if field, ok := ee.GetContext()["field"].(string); ok {
				param = field
			}
		}
		return DateRange{}, paramError(param, "%v", err)
	}
	return DateRange{Start: start, End: end}, nil
}

// Validate checks the parameters against loc and trims the species filter.
func (p *DetectionsParams) Validate(loc *time.Location) (DateRange, error) {
	p.Species = strings.TrimSpace(p.Species)
	return parseDateRange(p.StartDate, p.EndDate, loc)
}

// Validate checks the period name and confidence floor.
func (p *StatsParams) Validate() (detection.Period, float64, error) {
	if strings.TrimSpace(p.Period) == "" {
		return "", 0, paramError("period", "period is required")
	}
	period, err := detection.ParsePeriod(p.Period)
	if err != nil {
		return "", 0, paramError("period", "period: %v", err)
	}
	floor := 0.0
	if p.MinConfidence != nil {
		floor = *p.MinConfidence
		if math.IsNaN(floor) || floor < 0 || floor > 1 {
			return "", 0, paramError("minConfidence", "minConfidence must be between 0 and 1, got %v", floor)
		}
	}
	return period, floor, nil
}

// Validate checks the clip name and output format.
func (p *AudioParams) Validate() (myaudio.Format, error) {
	if strings.TrimSpace(p.Filename) == "" {
		return "", paramError("filename", "filename is required")
	}
	if _, err := securefs.ValidateRelativePath(p.Filename); err != nil {
		return "", paramError("filename", "filename %q: %v", p.Filename, err)
	}
	format, err := myaudio.ParseFormat(p.Format)
	if err != nil {
		return "", paramError("format", "format: %v", err)
	}
	return format, nil
}

// Validate parses the day in loc and trims the species filter.
func (p *DailyActivityParams) Validate(loc *time.Location) (time.Time, error) {
	p.Species = strings.TrimSpace(p.Species)
	if strings.TrimSpace(p.Date) == "" {
		return time.Time{}, paramError("date", "date is required")
	}
	day, err := detection.ParseDate(p.Date, loc)
	if err != nil {
		return time.Time{}, paramError("date", "date: %v", err)
	}
	return day, nil
}

// Validate checks the date range and report format.
func (p *ReportParams) Validate(loc *time.Location) (DateRange, report.Format, error) {
	r, err := parseDateRange(p.StartDate, p.EndDate, loc)
	if err != nil {
		return DateRange{}, "", err
	}
	format, err := report.ParseFormat(p.Format)
	if err != nil {
		return DateRange{}, "", paramError("format", "format: %v", err)
	}
	return r, format, nil
}
