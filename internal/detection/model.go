// Package detection provides the domain model for logged bird detections and
// the pure filtering and aggregation functions that run over it.
//
// Every function in this package takes a record slice and returns new
// values; input slices are never modified and output order follows input
// order unless stated otherwise.
package detection

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// HoursPerDay is the number of buckets in an HourlyActivity histogram.
const HoursPerDay = 24

// Location is the optional recording position of a detection.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Detection is one entry of the detection log. It has no identity field;
// two entries with the same content are distinct detections.
type Detection struct {
	Species    string    `json:"species"`
	Confidence float64   `json:"confidence"`
	Timestamp  Timestamp `json:"timestamp"`
	AudioFile  string    `json:"audioFile"`
	Location   *Location `json:"location,omitempty"`
}

// Time returns the parsed detection time and whether it is valid.
func (d *Detection) Time() (time.Time, bool) {
	return d.Timestamp.Time()
}

// maxEpochMillis bounds numeric timestamps to the int64 millisecond range.
const maxEpochMillis = 1 << 63

// timestampLayouts are tried in order for textual timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp keeps the detection time exactly as logged together with its
// parsed value. Text that does not parse yields an invalid Timestamp, which
// is neither before nor after any instant and never matches a date filter.
type Timestamp struct {
	text    string
	numeric bool
	t       time.Time
	valid   bool
}

// ParseTimestamp parses logged timestamp text. Values without a UTC offset
// are read in loc.
func ParseTimestamp(text string, loc *time.Location) Timestamp {
	if loc == nil {
		loc = time.Local
	}
	ts := Timestamp{text: text}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ts
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			ts.t, ts.valid = t, true
			return ts
		}
	}
	return ts
}

// Time returns the parsed instant and whether the timestamp is valid.
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.t, ts.valid
}

// Valid reports whether the timestamp parsed.
func (ts Timestamp) Valid() bool {
	return ts.valid
}

// String returns the timestamp as logged.
func (ts Timestamp) String() string {
	return ts.text
}

// In re-reads an offset-less textual timestamp in loc. Numeric and
// offset-qualified timestamps are unaffected.
func (ts Timestamp) In(loc *time.Location) Timestamp {
	if ts.numeric {
		return ts
	}
	return ParseTimestamp(ts.text, loc)
}

// MarshalJSON writes the timestamp in the form it was read.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.numeric {
		return []byte(ts.text), nil
	}
	if ts.text == "" && !ts.valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.text)
}

// UnmarshalJSON accepts a timestamp string or epoch milliseconds. Values of
// any other shape produce an invalid Timestamp rather than an error so a
// single bad entry never poisons the whole log.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*ts = Timestamp{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*ts = Timestamp{}
			return nil
		}
		*ts = ParseTimestamp(s, time.Local)
	default:
		text := string(data)
		ms, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(ms) || ms >= maxEpochMillis || ms < -maxEpochMillis {
			*ts = Timestamp{text: text, numeric: true}
			return nil
		}
		*ts = Timestamp{text: text, numeric: true, t: time.UnixMilli(int64(ms)), valid: true}
	}
	return nil
}

// ConfidenceStats summarizes detection confidence. All fields are zero for
// an empty record set.
type ConfidenceStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SpeciesCount pairs a species with its detection count.
type SpeciesCount struct {
	Species string `json:"species"`
	Count   int    `json:"count"`
}

// DetectionStats is the per-species breakdown of a record set.
type DetectionStats struct {
	TotalDetections     int            `json:"totalDetections"`
	UniqueSpecies       int            `json:"uniqueSpecies"`
	DetectionsBySpecies map[string]int `json:"detectionsBySpecies"`
	TopSpecies          []SpeciesCount `json:"topSpecies"`
}

// HourlyActivity holds detection counts indexed by local hour of day.
type HourlyActivity [HoursPerDay]int

// Max returns the largest bucket value.
func (h *HourlyActivity) Max() int {
	m := 0
	for _, v := range h {
		m = max(m, v)
	}
	return m
}

// PeakHour returns the first hour holding the maximum count; 0 when every
// bucket is zero.
func (h *HourlyActivity) PeakHour() int {
	peak := 0
	for hour, v := range h {
		if v > h[peak] {
			peak = hour
		}
	}
	return peak
}

// Total returns the sum of all buckets.
func (h *HourlyActivity) Total() int {
	total := 0
	for _, v := range h {
		total += v
	}
	return total
}

// DailyActivity is the hourly profile of a single calendar day.
type DailyActivity struct {
	Hourly        HourlyActivity
	PeakHour      int
	UniqueSpecies int
	Total         int
}
