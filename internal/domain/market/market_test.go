package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(weekday time.Weekday, hour int) time.Time {
	// 2025-06-02 is a Monday.
	base := time.Date(2025, 6, 2, hour, 30, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(weekday-time.Monday))
}

func TestCalendar_ActiveAt(t *testing.T) {
	cal := DefaultForexCalendar()

	tests := []struct {
		name string
		hour int
		want []SessionID
	}{
		{"asian only", 3, []SessionID{SessionAsian}},
		{"london only", 10, []SessionID{SessionLondon}},
		{"london-ny overlap", 15, []SessionID{SessionLondon, SessionNewYork, SessionLondonNYOverlap}},
		{"new york tail", 20, []SessionID{SessionNewYork}},
		{"dead hour", 23, []SessionID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.ActiveAt(at(time.Tuesday, tt.hour))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHourInWindow_WrapsMidnight(t *testing.T) {
	assert.True(t, hourInWindow(23, 22, 6))
	assert.True(t, hourInWindow(3, 22, 6))
	assert.False(t, hourInWindow(12, 22, 6))
}

func TestAvoidance_ShouldAvoid(t *testing.T) {
	a := DefaultAvoidance()

	tests := []struct {
		name  string
		ctx   Context
		avoid bool
	}{
		{
			"monday before open",
			Context{Timestamp: at(time.Monday, 7), Weekday: time.Monday},
			true,
		},
		{
			"monday after open",
			Context{Timestamp: at(time.Monday, 10), Weekday: time.Monday},
			false,
		},
		{
			"friday after cutoff",
			Context{Timestamp: at(time.Friday, 17), Weekday: time.Friday},
			true,
		},
		{
			"friday before cutoff",
			Context{Timestamp: at(time.Friday, 14), Weekday: time.Friday},
			false,
		},
		{
			"midweek normal hours",
			Context{Timestamp: at(time.Wednesday, 12), Weekday: time.Wednesday},
			false,
		},
		{
			"news window does not block by default",
			Context{Timestamp: at(time.Wednesday, 12), Weekday: time.Wednesday, NewsWithinWindow: true},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avoid, reason := a.ShouldAvoid(tt.ctx)
			assert.Equal(t, tt.avoid, avoid)
			if avoid {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestAvoidance_NewsWindowWhenEnabled(t *testing.T) {
	a := DefaultAvoidance()
	a.AvoidNewsWindow = true

	ctx := Context{Timestamp: at(time.Wednesday, 12), Weekday: time.Wednesday, NewsWithinWindow: true}
	avoid, reason := a.ShouldAvoid(ctx)
	assert.True(t, avoid)
	assert.Contains(t, reason, "news")
}

func TestAvoidance_HolidayRange(t *testing.T) {
	a := DefaultAvoidance()

	christmas := time.Date(2025, 12, 24, 12, 0, 0, 0, time.UTC)
	ctx := Context{Timestamp: christmas, Weekday: christmas.Weekday()}
	avoid, reason := a.ShouldAvoid(ctx)
	assert.True(t, avoid)
	assert.Contains(t, reason, "holiday")

	november := time.Date(2025, 11, 24, 12, 0, 0, 0, time.UTC)
	ctx = Context{Timestamp: november, Weekday: november.Weekday()}
	avoid, _ = a.ShouldAvoid(ctx)
	assert.False(t, avoid)
}
