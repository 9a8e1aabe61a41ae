package detection

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-mcp/internal/errors"
)

func mustDetection(species string, confidence float64, ts, audio string) Detection {
	return Detection{
		Species:    species,
		Confidence: confidence,
		Timestamp:  ParseTimestamp(ts, time.UTC),
		AudioFile:  audio,
	}
}

func sampleDetections() []Detection {
	return []Detection{
		mustDetection("American Robin", 0.85, "2024-01-01T10:00:00Z", "robin1.wav"),
		mustDetection("Northern Cardinal", 0.92, "2024-01-02T11:30:00Z", "cardinal1.wav"),
		mustDetection("American Robin", 0.78, "2024-01-03T09:15:00Z", "robin2.wav"),
	}
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestFilterByDate(t *testing.T) {
	t.Parallel()

	records := sampleDetections()

	testCases := []struct {
		name       string
		start, end string
		want       []string
	}{
		{"two day range", "2024-01-01", "2024-01-02", []string{"robin1.wav", "cardinal1.wav"}},
		{"single day", "2024-01-01", "2024-01-01", []string{"robin1.wav"}},
		{"last day included in full", "2024-01-03", "2024-01-03", []string{"robin2.wav"}},
		{"no records in range", "2023-12-01", "2023-12-31", []string{}},
		{"whole range keeps order", "2024-01-01", "2024-01-31", []string{"robin1.wav", "cardinal1.wav", "robin2.wav"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := FilterByDate(records, date(t, tc.start), date(t, tc.end))
			files := make([]string, 0, len(got))
			for _, d := range got {
				files = append(files, d.AudioFile)
			}
			assert.Equal(t, tc.want, files)
		})
	}
}

func TestFilterByDateBoundaries(t *testing.T) {
	t.Parallel()

	records := []Detection{
		mustDetection("A", 0.5, "2024-03-09T23:59:59.999Z", "before.wav"),
		mustDetection("A", 0.5, "2024-03-10T00:00:00Z", "start.wav"),
		mustDetection("A", 0.5, "2024-03-10T23:59:59.999Z", "end.wav"),
		mustDetection("A", 0.5, "2024-03-11T00:00:00Z", "after.wav"),
		mustDetection("A", 0.5, "not a timestamp", "invalid.wav"),
	}

	got := FilterByDate(records, date(t, "2024-03-10"), date(t, "2024-03-10"))
	require.Len(t, got, 2)
	assert.Equal(t, "start.wav", got[0].AudioFile)
	assert.Equal(t, "end.wav", got[1].AudioFile)
}

func TestFilterByDateDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	records := sampleDetections()
	_ = FilterByDate(records, date(t, "2024-01-02"), date(t, "2024-01-02"))

	assert.Equal(t, sampleDetections(), records)
}

func TestFilterBySpecies(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		substring string
		want      int
	}{
		{"capitalized", "Robin", 2},
		{"lower case", "robin", 2},
		{"upper case", "ROBIN", 2},
		{"prefix", "Card", 1},
		{"no match", "Sparrow", 0},
		{"empty matches all", "", 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := FilterBySpecies(sampleDetections(), tc.substring)
			assert.Len(t, got, tc.want)
			assert.NotNil(t, got)
		})
	}
}

func TestFilterBySpeciesPreservesOrder(t *testing.T) {
	t.Parallel()

	got := FilterBySpecies(sampleDetections(), "robin")
	require.Len(t, got, 2)
	assert.Equal(t, "robin1.wav", got[0].AudioFile)
	assert.Equal(t, "robin2.wav", got[1].AudioFile)
}

func TestFilterBySpeciesUnicodeFolding(t *testing.T) {
	t.Parallel()

	records := []Detection{
		{Species: "Östlicher Zilpzalp"},
		{Species: "Ämmerling"},
	}

	assert.Len(t, FilterBySpecies(records, "östLICHER"), 1)
	assert.Len(t, FilterBySpecies(records, "ÄMM"), 1)
}

func TestParseDateRange(t *testing.T) {
	t.Parallel()

	start, end, err := ParseDateRange("2024-01-01", "2024-01-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), end)

	_, _, err = ParseDateRange("2024-01-03", "2024-01-02", time.UTC)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	for _, tc := range []struct{ start, end, field string }{
		{"2024-01-03", "2024-01-02", "startDate"},
		{"01/01/2024", "2024-01-02", "startDate"},
		{"2024-01-01", "2024-13-01", "endDate"},
	} {
		_, _, err := ParseDateRange(tc.start, tc.end, time.UTC)
		var ee *errors.EnhancedError
		require.True(t, errors.As(err, &ee), "%s..%s", tc.start, tc.end)
		assert.Equal(t, tc.field, ee.GetContext()["field"], "%s..%s", tc.start, tc.end)
	}

	for _, bad := range []string{"", "2024-1-1", "01/02/2024", "2024-02-30", "yesterday"} {
		_, err := ParseDate(bad, time.UTC)
		assert.True(t, errors.IsValidation(err), "input %q", bad)
	}
}

func TestTimestampParsing(t *testing.T) {
	t.Parallel()

	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		text  string
		valid bool
		want  time.Time
	}{
		{"rfc3339 utc", "2024-01-01T10:00:00Z", true, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"rfc3339 millis", "2024-01-01T10:00:00.250Z", true, time.Date(2024, 1, 1, 10, 0, 0, 250e6, time.UTC)},
		{"offset", "2024-06-01T08:00:00+03:00", true, time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC)},
		{"zoneless uses location", "2024-06-01T08:00:00", true, time.Date(2024, 6, 1, 8, 0, 0, 0, helsinki)},
		{"space separated", "2024-06-01 08:00:00", true, time.Date(2024, 6, 1, 8, 0, 0, 0, helsinki)},
		{"date only", "2024-06-01", true, time.Date(2024, 6, 1, 0, 0, 0, 0, helsinki)},
		{"garbage", "yesterday at noon", false, time.Time{}},
		{"empty", "", false, time.Time{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ts := ParseTimestamp(tc.text, helsinki)
			got, ok := ts.Time()
			require.Equal(t, tc.valid, ok)
			if tc.valid {
				assert.True(t, tc.want.Equal(got), "want %v got %v", tc.want, got)
			}
			assert.Equal(t, tc.text, ts.String())
		})
	}
}

func TestTimestampJSON(t *testing.T) {
	t.Parallel()

	input := `[
		{"species":"A","confidence":0.5,"timestamp":"2024-01-01T10:00:00Z","audioFile":"a.wav"},
		{"species":"B","confidence":0.6,"timestamp":1704103200000,"audioFile":"b.wav","location":{"latitude":60.1,"longitude":24.9}},
		{"species":"C","confidence":0.7,"timestamp":"garbage","audioFile":"c.wav"},
		{"species":"D","confidence":0.8,"timestamp":{"nested":true},"audioFile":"d.wav"}
	]`

	var records []Detection
	require.NoError(t, json.Unmarshal([]byte(input), &records))
	require.Len(t, records, 4)

	assert.True(t, records[0].Timestamp.Valid())
	ts, ok := records[1].Time()
	require.True(t, ok)
	assert.Equal(t, int64(1704103200000), ts.UnixMilli())
	require.NotNil(t, records[1].Location)
	assert.InDelta(t, 60.1, records[1].Location.Latitude, 1e-9)
	assert.False(t, records[2].Timestamp.Valid())
	assert.False(t, records[3].Timestamp.Valid())

	out, err := json.Marshal(records[:3])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"timestamp":"2024-01-01T10:00:00Z"`)
	assert.Contains(t, string(out), `"timestamp":1704103200000`)
	assert.Contains(t, string(out), `"timestamp":"garbage"`)

	first, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.NotContains(t, string(first), `"location"`)
}

func TestTimestampNumericOutOfRange(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"1e22", "-1e22", "9223372036854775808", "1e400"} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.False(t, ts.Valid(), raw)
		assert.Equal(t, raw, ts.String(), raw)
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte("-1000"), &ts))
	got, ok := ts.Time()
	require.True(t, ok)
	assert.Equal(t, int64(-1000), got.UnixMilli())
}

func TestTimestampIn(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	zoneless := ParseTimestamp("2024-06-01T08:00:00", time.UTC).In(tokyo)
	got, ok := zoneless.Time()
	require.True(t, ok)
	assert.Equal(t, 8, got.Hour())
	assert.Equal(t, tokyo, got.Location())

	qualified := ParseTimestamp("2024-06-01T08:00:00Z", time.UTC).In(tokyo)
	got, _ = qualified.Time()
	assert.True(t, got.Equal(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)))
}
