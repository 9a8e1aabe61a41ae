package detection

import (
	"slices"
	"time"
)

// TopSpeciesLimit caps DetectionStats.TopSpecies.
const TopSpeciesLimit = 10

// CalculateConfidenceStats returns the mean, minimum and maximum confidence.
func CalculateConfidenceStats(records []Detection) ConfidenceStats {
	if len(records) == 0 {
		return ConfidenceStats{}
	}

	stats := ConfidenceStats{Min: records[0].Confidence, Max: records[0].Confidence}
	sum := 0.0
	for i := range records {
		c := records[i].Confidence
		sum += c
		stats.Min = min(stats.Min, c)
		stats.Max = max(stats.Max, c)
	}
	stats.Avg = sum / float64(len(records))
	return stats
}

// CalculateDetectionStats counts detections per species. TopSpecies holds at
// most TopSpeciesLimit entries ordered by count, with equal counts kept in
// the order the species first appear in records.
func CalculateDetectionStats(records []Detection) DetectionStats {
	bySpecies := make(map[string]int)
	order := make([]string, 0)
	for i := range records {
		name := records[i].Species
		if _, seen := bySpecies[name]; !seen {
			order = append(order, name)
		}
		bySpecies[name]++
	}

	ranking := make([]SpeciesCount, 0, len(order))
	for _, name := range order {
		ranking = append(ranking, SpeciesCount{Species: name, Count: bySpecies[name]})
	}
	slices.SortStableFunc(ranking, func(a, b SpeciesCount) int {
		return b.Count - a.Count
	})
	if len(ranking) > TopSpeciesLimit {
		ranking = ranking[:TopSpeciesLimit]
	}

	return DetectionStats{
		TotalDetections:     len(records),
		UniqueSpecies:       len(order),
		DetectionsBySpecies: bySpecies,
		TopSpecies:          ranking,
	}
}

// CountUniqueSpecies returns the number of distinct species names.
func CountUniqueSpecies(records []Detection) int {
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		seen[records[i].Species] = struct{}{}
	}
	return len(seen)
}

// HourlyHistogram buckets records by hour of day in loc. Records with
// invalid timestamps are skipped.
func HourlyHistogram(records []Detection, loc *time.Location) HourlyActivity {
	if loc == nil {
		loc = time.Local
	}
	var hist HourlyActivity
	for i := range records {
		t, ok := records[i].Time()
		if !ok {
			continue
		}
		hist[t.In(loc).Hour()]++
	}
	return hist
}

// CalculateDailyActivity profiles the calendar day date in loc, optionally
// restricted to species names containing species (case-insensitive).
func CalculateDailyActivity(records []Detection, date time.Time, species string, loc *time.Location) DailyActivity {
	if loc == nil {
		loc = time.Local
	}
	day := midnight(date.In(loc))
	dayRecords := FilterBySpecies(FilterByDate(records, day, day), species)

	hist := HourlyHistogram(dayRecords, loc)
	return DailyActivity{
		Hourly:        hist,
		PeakHour:      hist.PeakHour(),
		UniqueSpecies: CountUniqueSpecies(dayRecords),
		Total:         len(dayRecords),
	}
}
