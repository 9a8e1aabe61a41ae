package detection

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/tphakala/birdnet-mcp/internal/errors"
)

// DateLayout is the accepted calendar date format.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return parseDate("date", value, loc)
}

// ParseDateRange parses an inclusive calendar range and rejects a start date
// that falls after the end date. Errors name the offending argument,
// "startDate" or "endDate", under the "field" context key.
func ParseDateRange(startDate, endDate string, loc *time.Location) (start, end time.Time, err error) {
	if start, err = parseDate("startDate", startDate, loc); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end, err = parseDate("endDate", endDate, loc); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, errors.Newf("startDate %s is after endDate %s",
			strings.TrimSpace(startDate), strings.TrimSpace(endDate)).
			Component("detection").
			Category(errors.CategoryValidation).
			Context("field", "startDate").
			Build()
	}
	return start, end, nil
}

func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, errors.New(fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", field, value)).
			Component("detection").
			Category(errors.CategoryValidation).
			Context("field", field).
			Context("value", value).
			Build()
	}
	return d, nil
}

// FilterByDate keeps records whose timestamp falls on any calendar day from
// startDate through endDate. Both arguments are calendar days (their clock
// time is ignored) and the end day is included in full. Records with invalid
// timestamps are dropped.
func FilterByDate(records []Detection, startDate, endDate time.Time) []Detection {
	lower := midnight(startDate)
	upper := midnight(endDate).AddDate(0, 0, 1)

	out := make([]Detection, 0, len(records))
	for i := range records {
		t, ok := records[i].Time()
		if !ok {
			continue
		}
		if !t.Before(lower) && t.Before(upper) {
			out = append(out, records[i])
		}
	}
	return out
}

// FilterBySpecies keeps records whose species name contains substring,
// ignoring case. An empty substring keeps every record.
func FilterBySpecies(records []Detection, substring string) []Detection {
	out := make([]Detection, 0, len(records))
	if substring == "" {
		return append(out, records...)
	}

	folder := cases.Fold()
	needle := folder.String(substring)
	for i := range records {
		if strings.Contains(folder.String(records[i].Species), needle) {
			out = append(out, records[i])
		}
	}
	return out
}

// FilterByMinConfidence keeps records with confidence at or above floor.
func FilterByMinConfidence(records []Detection, floor float64) []Detection {
	out := make([]Detection, 0, len(records))
	for i := range records {
		if records[i].Confidence >= floor {
			out = append(out, records[i])
		}
	}
	return out
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
