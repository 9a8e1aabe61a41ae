package detection

import (
	"fmt"
	"strings"
	"time"

	"github.com/tphakala/birdnet-mcp/internal/errors"
)

// Period selects a window that ends at the query time.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// Periods lists the accepted period values.
var Periods = []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodAll}

// Window lengths are fixed durations, not calendar units.
const (
	dayWindow   = 86_400_000 * time.Millisecond
	weekWindow  = 604_800_000 * time.Millisecond
	monthWindow = 2_592_000_000 * time.Millisecond
)

// ParsePeriod validates a period name.
func ParsePeriod(value string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := p.Window(); ok || p == PeriodAll {
		return p, nil
	}
	return "", errors.New(fmt.Errorf("invalid period %q, expected one of day, week, month, all", value)).
		Component("detection").
		Category(errors.CategoryValidation).
		Context("value", value).
		Build()
}

// Window returns the window length and false for PeriodAll or unknown
// periods.
func (p Period) Window() (time.Duration, bool) {
	switch p {
	case PeriodDay:
		return dayWindow, true
	case PeriodWeek:
		return weekWindow, true
	case PeriodMonth:
		return monthWindow, true
	default:
		return 0, false
	}
}

// FilterByPeriod keeps records at or above minConfidence that lie inside
// the period ending at now. A record is inside when now minus its time is
// at most the window, so future timestamps are included. Invalid timestamps
// only pass PeriodAll.
func FilterByPeriod(records []Detection, period Period, minConfidence float64, now time.Time) []Detection {
	confident := FilterByMinConfidence(records, minConfidence)
	window, bounded := period.Window()
	if !bounded {
		return confident
	}

	out := confident[:0]
	for i := range confident {
		t, ok := confident[i].Time()
		if ok && now.Sub(t) <= window {
			out = append(out, confident[i])
		}
	}
	return out
}
