package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skylog-app/skylog/internal/event"
	"github.com/skylog-app/skylog/internal/rebuild"
)

func TestPeriodStart(t *testing.T) {
	// Wednesday, 2026-09-16 14:30 UTC
	now := time.Date(2026, 9, 16, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		period event.Period
		want   time.Time
	}{
		{event.PeriodDay, time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC)},
		{event.PeriodWeek, time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)}, // Monday
		{event.PeriodMonth, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		{event.PeriodYear, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want.Unix(), periodStart(now, tt.period), "period %s", tt.period)
	}
}

func TestPeriodStart_SundayBelongsToPreviousMonday(t *testing.T) {
	now := time.Date(2026, 9, 20, 8, 0, 0, 0, time.UTC) // Sunday
	want := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want.Unix(), periodStart(now, event.PeriodWeek))
}

func TestMinutesSince(t *testing.T) {
	sessions := []rebuild.Session{
		{Start: 1000, Minutes: 10},
		{Start: 2000, Minutes: 20},
		{Start: 3000, Minutes: 30},
	}
	assert.Equal(t, 60, minutesSince(sessions, 0))
	assert.Equal(t, 50, minutesSince(sessions, 2000))
	assert.Equal(t, 0, minutesSince(sessions, 4000))
}
