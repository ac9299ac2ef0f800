package contest

import (
	"testing"
	"time"

	"github.com/jjudge-oj/workbench/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timing(date, clock string, minutes int) types.ContestTiming {
	return types.ContestTiming{StartDate: date, StartTime: clock, DurationMinutes: minutes}
}

func TestClassifyAtRunning(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	status := ClassifyAt(timing("2024-01-01", "10:00", 60), now, time.UTC)
	assert.Equal(t, types.ContestRunning, status)
}

func TestClassifyAtBoundaries(t *testing.T) {
	c := timing("2024-01-01", "10:00", 60)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	assert.Equal(t, types.ContestUpcoming, ClassifyAt(c, start.Add(-time.Nanosecond), time.UTC))
	assert.Equal(t, types.ContestRunning, ClassifyAt(c, start, time.UTC))
	assert.Equal(t, types.ContestRunning, ClassifyAt(c, end, time.UTC))
	assert.Equal(t, types.ContestFinished, ClassifyAt(c, end.Add(time.Nanosecond), time.UTC))
}

func TestClassifyAtIsMonotonic(t *testing.T) {
	rank := map[types.ContestStatus]int{
		types.ContestUpcoming: 0,
		types.ContestRunning:  1,
		types.ContestFinished: 2,
	}
	c := timing("2024-03-10", "23:30", 90)
	now := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)

	last := -1
	for i := 0; i < 48; i++ {
		status := ClassifyAt(c, now, time.UTC)
		r, ok := rank[status]
		require.True(t, ok, "unexpected status %s", status)
		require.GreaterOrEqual(t, r, last, "status regressed at %s", now)
		last = r
		now = now.Add(7 * time.Minute)
	}
	assert.Equal(t, 2, last)
}

func TestClassifyAtCombinedISO(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, types.ContestRunning, ClassifyAt(timing("2024-05-01T11:30:00Z", "", 60), now, time.UTC))
	assert.Equal(t, types.ContestRunning, ClassifyAt(timing("2024-05-01T11:30:00.000Z", "ignored", 60), now, time.UTC))
	assert.Equal(t, types.ContestUpcoming, ClassifyAt(timing("2024-05-01T12:30", "", 60), now, time.UTC))
	assert.Equal(t, types.ContestFinished, ClassifyAt(timing("2024-05-01T09:00:00+00:00", "", 60), now, time.UTC))
}

func TestClassifyAtUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC)

	assert.Equal(t, types.ContestRunning, ClassifyAt(timing("2024-01-01", "10:00", 60), now, loc))
	assert.Equal(t, types.ContestUpcoming, ClassifyAt(timing("2024-01-01", "10:00", 60), now, time.UTC))
}

func TestClassifyAtUnknown(t *testing.T) {
	now := time.Now()
	cases := []types.ContestTiming{
		timing("", "10:00", 60),
		timing("not-a-date", "10:00", 60),
		timing("2024-01-01", "", 60),
		timing("2024-01-01", "25:99", 60),
		timing("2024-13-01", "10:00", 60),
		timing("2024-01-01Tgarbage", "", 60),
		timing("2024-01-01", "10:00", -5),
	}
	for _, c := range cases {
		assert.NotPanics(t, func() {
			assert.Equal(t, types.ContestUnknown, ClassifyAt(c, now, time.UTC), "%+v", c)
		})
	}
}

func TestClassifyTracksWallClock(t *testing.T) {
	past := time.Now().Add(-3 * time.Hour).UTC().Format(time.RFC3339)
	future := time.Now().Add(3 * time.Hour).UTC().Format(time.RFC3339)

	assert.Equal(t, types.ContestFinished, Classify(timing(past, "", 60)))
	assert.Equal(t, types.ContestUpcoming, Classify(timing(future, "", 60)))
}
