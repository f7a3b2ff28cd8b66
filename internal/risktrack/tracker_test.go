package risktrack

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(capital float64, limits Limits) (*Tracker, *time.Time) {
	t := NewTracker(capital, limits)
	clock := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)
	t.now = func() time.Time { return clock }
	t.day = dateOnly(clock)
	return t, &clock
}

func TestTracker_OpenClosePositions(t *testing.T) {
	tr, _ := newTestTracker(10000, DefaultLimits())

	tr.OpenPosition(200)
	tr.OpenPosition(300)

	m := tr.Snapshot()
	assert.Equal(t, 2, m.OpenPositions)
	assert.InDelta(t, 500, m.CapitalAtRisk, 1e-9)
	assert.InDelta(t, 0.05, m.RiskPercentage, 1e-9)

	tr.ClosePosition(150, 200)
	m = tr.Snapshot()
	assert.Equal(t, 1, m.OpenPositions)
	assert.InDelta(t, 300, m.CapitalAtRisk, 1e-9)
	assert.Equal(t, 1, m.TradesToday)
	assert.InDelta(t, 10150, tr.Capital(), 1e-9)
}

func TestTracker_MaxOpenPositionsBlocks(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxOpenPositions = 2
	tr, _ := newTestTracker(10000, limits)

	ok, _ := tr.CanTrade()
	require.True(t, ok)

	tr.OpenPosition(100)
	tr.OpenPosition(100)

	ok, reason := tr.CanTrade()
	assert.False(t, ok)
	assert.Contains(t, reason, "open positions")
}

func TestTracker_DailyDrawdownBlocks(t *testing.T) {
	tr, _ := newTestTracker(10000, DefaultLimits())

	// Lose 3.5% of the day-start equity.
	tr.OpenPosition(400)
	tr.ClosePosition(-350, 400)

	ok, reason := tr.CanTrade()
	assert.False(t, ok)
	assert.Contains(t, reason, "drawdown")

	m := tr.Snapshot()
	assert.InDelta(t, 0.035, m.DailyDrawdown, 1e-9)
	assert.True(t, m.Blocked)
}

func TestTracker_ConsecutiveLossCooldown(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxDailyDrawdownPct = 0.5 // keep drawdown out of the way
	tr, clock := newTestTracker(100000, limits)

	for i := 0; i < 3; i++ {
		tr.OpenPosition(100)
		tr.ClosePosition(-50, 100)
	}

	ok, reason := tr.CanTrade()
	assert.False(t, ok)
	assert.Contains(t, reason, "consecutive losses")

	// Cooldown expires.
	*clock = clock.Add(limits.Cooldown + time.Minute)
	ok, _ = tr.CanTrade()
	assert.True(t, ok)
}

func TestTracker_WinResetsLossStreak(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxDailyDrawdownPct = 0.5
	tr, _ := newTestTracker(100000, limits)

	tr.OpenPosition(100)
	tr.ClosePosition(-50, 100)
	tr.OpenPosition(100)
	tr.ClosePosition(-50, 100)
	tr.OpenPosition(100)
	tr.ClosePosition(80, 100)
	tr.OpenPosition(100)
	tr.ClosePosition(-50, 100)

	ok, _ := tr.CanTrade()
	assert.True(t, ok)
}

func TestTracker_DayRollover(t *testing.T) {
	tr, clock := newTestTracker(10000, DefaultLimits())

	tr.OpenPosition(400)
	tr.ClosePosition(-250, 400)
	assert.Equal(t, 1, tr.Snapshot().TradesToday)
	assert.Greater(t, tr.Snapshot().DailyDrawdown, 0.0)

	*clock = clock.Add(24 * time.Hour)
	m := tr.Snapshot()
	assert.Equal(t, 0, m.TradesToday)
	assert.Zero(t, m.DailyDrawdown)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr, _ := newTestTracker(1e6, Limits{
		MaxDailyDrawdownPct:  0.9,
		MaxOpenPositions:     1 << 30,
		MaxConsecutiveLosses: 0,
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.OpenPosition(10)
			tr.ClosePosition(1, 10)
			tr.CanTrade()
			tr.Snapshot()
		}()
	}
	wg.Wait()

	m := tr.Snapshot()
	assert.Equal(t, 0, m.OpenPositions)
	assert.Equal(t, 50, m.TradesToday)
	assert.InDelta(t, 1e6+50, tr.Capital(), 1e-9)
}
