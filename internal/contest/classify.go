package contest

import (
	"strings"
	"time"

	"github.com/jjudge-oj/workbench/types"
)

var (
	combinedLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	clockLayouts = []string{
		"15:04",
		"15:04:05",
	}
)

// Classify returns the status of a contest at the current wall-clock time,
// using the local time zone for timings without an explicit offset. The
// result depends on time.Now and must not be cached.
func Classify(timing types.ContestTiming) types.ContestStatus {
	return ClassifyAt(timing, time.Now(), time.Local)
}

// ClassifyAt returns the status of a contest at now. Timings without an
// explicit offset are interpreted in loc. Timings that cannot be parsed, and
// negative durations, yield ContestUnknown.
func ClassifyAt(timing types.ContestTiming, now time.Time, loc *time.Location) types.ContestStatus {
	start, ok := StartInstant(timing, loc)
	if !ok || timing.DurationMinutes < 0 {
		return types.ContestUnknown
	}
	end := start.Add(time.Duration(timing.DurationMinutes) * time.Minute)

	switch {
	case now.Before(start):
		return types.ContestUpcoming
	case now.After(end):
		return types.ContestFinished
	default:
		return types.ContestRunning
	}
}

// StartInstant combines the start date and time of a contest into a single
// instant. A StartDate carrying a "T" is treated as a full ISO datetime and
// StartTime is ignored.
func StartInstant(timing types.ContestTiming, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	date := strings.TrimSpace(timing.StartDate)
	if date == "" {
		return time.Time{}, false
	}

	if strings.Contains(date, "T") {
		if t, err := time.Parse(time.RFC3339Nano, date); err == nil {
			return t, true
		}
		return parseIn(date, combinedLayouts, loc)
	}

	day, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return time.Time{}, false
	}
	clock, ok := parseIn(strings.TrimSpace(timing.StartTime), clockLayouts, time.UTC)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, loc), true
}

func parseIn(value string, layouts []string, loc *time.Location) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
