// Package risktrack holds the process-wide risk counters shared by
// concurrent analysis runs: daily drawdown, trade count, open positions.
// All access is serialized behind a single mutex.
package risktrack

import (
	"fmt"
	"sync"
	"time"
)

// Limits are the hard risk limits that block new entries when breached.
type Limits struct {
	MaxDailyDrawdownPct  float64       `yaml:"max_daily_drawdown_pct"`
	MaxOpenPositions     int           `yaml:"max_open_positions"`
	MaxConsecutiveLosses int           `yaml:"max_consecutive_losses"`
	Cooldown             time.Duration `yaml:"cooldown"`
}

// DefaultLimits returns the production risk limits.
func DefaultLimits() Limits {
	return Limits{
		MaxDailyDrawdownPct:  0.03,
		MaxOpenPositions:     3,
		MaxConsecutiveLosses: 3,
		Cooldown:             4 * time.Hour,
	}
}

// Metrics is an immutable snapshot of the tracker state.
type Metrics struct {
	DailyDrawdown  float64 `json:"dailyDrawdown"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
	OpenPositions  int     `json:"openPositions"`
	MaxPositions   int     `json:"maxPositions"`
	TradesToday    int     `json:"tradesToday"`
	CapitalAtRisk  float64 `json:"capitalAtRisk"`
	RiskPercentage float64 `json:"riskPercentage"`
	Blocked        bool    `json:"blocked"`
	BlockReason    string  `json:"blockReason,omitempty"`
}

// Tracker serializes updates to the shared risk counters. One instance per
// process; every analysis run reads it and every executed trade updates it.
type Tracker struct {
	mu sync.Mutex

	limits Limits

	capital        float64
	peakEquity     float64
	dayStartEquity float64
	day            time.Time

	tradesToday       int
	openPositions     int
	capitalAtRisk     float64
	consecutiveLosses int

	blockedUntil time.Time
	blockReason  string

	now func() time.Time // injected for tests
}

// NewTracker creates a tracker with the given starting capital.
func NewTracker(capital float64, limits Limits) *Tracker {
	t := &Tracker{
		limits:         limits,
		capital:        capital,
		peakEquity:     capital,
		dayStartEquity: capital,
		now:            time.Now,
	}
	t.day = dateOnly(t.now())
	return t
}

// OpenPosition registers a newly opened position and the capital it risks.
func (t *Tracker) OpenPosition(atRisk float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollDay()
	t.openPositions++
	t.capitalAtRisk += atRisk
}

// ClosePosition records a closed position's realized PnL and releases its
// risked capital.
func (t *Tracker) ClosePosition(pnl, atRisk float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollDay()

	if t.openPositions > 0 {
		t.openPositions--
	}
	t.capitalAtRisk -= atRisk
	if t.capitalAtRisk < 0 {
		t.capitalAtRisk = 0
	}

	t.capital += pnl
	if t.capital > t.peakEquity {
		t.peakEquity = t.capital
	}
	t.tradesToday++

	if pnl < 0 {
		t.consecutiveLosses++
	} else {
		t.consecutiveLosses = 0
	}

	t.checkLimits()
}

// CanTrade reports whether risk limits allow a new entry right now.
func (t *Tracker) CanTrade() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollDay()

	if !t.blockedUntil.IsZero() {
		if t.now().Before(t.blockedUntil) {
			return false, t.blockReason
		}
		t.blockedUntil = time.Time{}
		t.blockReason = ""
	}

	if t.openPositions >= t.limits.MaxOpenPositions {
		return false, fmt.Sprintf("open positions at limit (%d)", t.limits.MaxOpenPositions)
	}
	if dd := t.dailyDrawdownLocked(); dd >= t.limits.MaxDailyDrawdownPct {
		return false, fmt.Sprintf("daily drawdown %.2f%% at limit", dd*100)
	}
	return true, ""
}

// Snapshot returns the current metrics.
func (t *Tracker) Snapshot() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollDay()

	blocked := !t.blockedUntil.IsZero() && t.now().Before(t.blockedUntil)
	m := Metrics{
		DailyDrawdown: t.dailyDrawdownLocked(),
		MaxDrawdown:   t.maxDrawdownLocked(),
		OpenPositions: t.openPositions,
		MaxPositions:  t.limits.MaxOpenPositions,
		TradesToday:   t.tradesToday,
		CapitalAtRisk: t.capitalAtRisk,
		Blocked:       blocked,
	}
	if t.capital > 0 {
		m.RiskPercentage = t.capitalAtRisk / t.capital
	}
	if blocked {
		m.BlockReason = t.blockReason
	}
	return m
}

// Capital returns the current account equity.
func (t *Tracker) Capital() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.capital
}

// checkLimits imposes a cooldown block after a loss streak or a breached
// daily drawdown. Caller must hold the mutex.
func (t *Tracker) checkLimits() {
	if t.limits.MaxConsecutiveLosses > 0 && t.consecutiveLosses >= t.limits.MaxConsecutiveLosses {
		t.blockedUntil = t.now().Add(t.limits.Cooldown)
		t.blockReason = fmt.Sprintf("%d consecutive losses, cooling down", t.consecutiveLosses)
		return
	}
	if dd := t.dailyDrawdownLocked(); dd >= t.limits.MaxDailyDrawdownPct {
		t.blockedUntil = t.now().Add(t.limits.Cooldown)
		t.blockReason = fmt.Sprintf("daily drawdown %.2f%% breached limit", dd*100)
	}
}

func (t *Tracker) dailyDrawdownLocked() float64 {
	if t.dayStartEquity <= 0 || t.capital >= t.dayStartEquity {
		return 0
	}
	return (t.dayStartEquity - t.capital) / t.dayStartEquity
}

func (t *Tracker) maxDrawdownLocked() float64 {
	if t.peakEquity <= 0 || t.capital >= t.peakEquity {
		return 0
	}
	return (t.peakEquity - t.capital) / t.peakEquity
}

// rollDay resets the daily counters at the first touch of a new day.
// Caller must hold the mutex.
func (t *Tracker) rollDay() {
	today := dateOnly(t.now())
	if today.Equal(t.day) {
		return
	}
	t.day = today
	t.dayStartEquity = t.capital
	t.tradesToday = 0
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
