package birdnet

import (
	"encoding/json"
	"strconv"

	"github.com/tphakala/birdnet-mcp/internal/detection"
	"github.com/tphakala/birdnet-mcp/internal/myaudio"
	"github.com/tphakala/birdnet-mcp/internal/report"
)

// DetectionsResult is returned by getBirdDetections.
type DetectionsResult struct {
	Detections []detection.Detection     `json:"detections"`
	Stats      detection.ConfidenceStats `json:"stats"`
	Total      int                       `json:"total"`
}

// StatsResult is returned by getDetectionStats.
type StatsResult struct {
	detection.DetectionStats
	ConfidenceStats detection.ConfidenceStats `json:"confidenceStats"`
	PeriodCovered   detection.Period          `json:"periodCovered"`
	MinConfidence   float64                   `json:"minConfidence"`
}

// DailyActivityResult is returned by getDailyActivity. Species is "all"
// when no species filter was given.
type DailyActivityResult struct {
	Date            string                   `json:"date"`
	Species         string                   `json:"species"`
	TotalDetections int                      `json:"totalDetections"`
	HourlyActivity  detection.HourlyActivity `json:"hourlyActivity"`
	PeakHour        int                      `json:"peakHour"`
	UniqueSpecies   int                      `json:"uniqueSpecies"`
}

// AudioResult is returned by getAudioRecording. For FormatBase64 Audio holds
// the encoded clip; for FormatBuffer Data holds the raw bytes and Audio is
// empty. Either way the clip is serialized under the "audio" key, as base64
// text or as an array of byte values.
type AudioResult struct {
	Filename    string         `json:"filename"`
	Format      myaudio.Format `json:"format"`
	ContentType string         `json:"contentType"`
	Size        int            `json:"size"`
	Audio       string         `json:"-"`
	Data        []byte         `json:"-"`
	Info        *myaudio.Info  `json:"info,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r AudioResult) MarshalJSON() ([]byte, error) {
	type plain AudioResult
	var audio any = r.Audio
	if r.Format == myaudio.FormatBuffer {
		audio = ByteArray(r.Data)
	}
	return json.Marshal(struct {
		*plain
		Audio any `json:"audio"`
	}{plain: (*plain)(&r), Audio: audio})
}

// ReportResult is returned by generateDetectionReport.
type ReportResult struct {
	Format      report.Format `json:"format"`
	ContentType string        `json:"contentType"`
	Report      string        `json:"report"`
}

// ByteArray marshals to a JSON array of numbers instead of base64 text.
type ByteArray []byte

// MarshalJSON implements json.Marshaler.
func (b ByteArray) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	out := make([]byte, 0, 2+len(b)*4)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}
