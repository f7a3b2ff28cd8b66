package market

import (
	"fmt"
	"time"
)

// Avoidance configures the windows in which the session gate refuses to
// trade even though a session is formally open.
type Avoidance struct {
	// MondayOpenHour: Mondays before this hour carry weekend-gap risk.
	MondayOpenHour int `yaml:"monday_open_hour"`
	// FridayCutoffHour: Fridays after this hour thin out before the weekend.
	FridayCutoffHour int `yaml:"friday_cutoff_hour"`
	// AvoidNewsWindow vetoes trading near major news when set. Off by
	// default: news proximity normally reweights signal categories through
	// the news-window regime instead of blocking outright.
	AvoidNewsWindow bool `yaml:"avoid_news_window"`
	// Holiday range (month-day, inclusive) with dried-up liquidity.
	HolidayStartMonth time.Month `yaml:"holiday_start_month"`
	HolidayStartDay   int        `yaml:"holiday_start_day"`
	HolidayEndMonth   time.Month `yaml:"holiday_end_month"`
	HolidayEndDay     int        `yaml:"holiday_end_day"`
}

// DefaultAvoidance returns the production avoidance windows: Monday before
// 09:00, Friday after 16:00, and the year-end holiday stretch.
func DefaultAvoidance() Avoidance {
	return Avoidance{
		MondayOpenHour:    9,
		FridayCutoffHour:  16,
		HolidayStartMonth: time.December,
		HolidayStartDay:   20,
		HolidayEndMonth:   time.December,
		HolidayEndDay:     31,
	}
}

// ShouldAvoid reports whether the context falls inside an avoidance window
// and why. Rules are checked in fixed order; the first match wins.
func (a Avoidance) ShouldAvoid(ctx Context) (bool, string) {
	hour := ctx.Timestamp.Hour()

	if ctx.Weekday == time.Monday && hour < a.MondayOpenHour {
		return true, fmt.Sprintf("Monday before %02d:00, weekend-gap risk", a.MondayOpenHour)
	}
	if ctx.Weekday == time.Friday && hour >= a.FridayCutoffHour {
		return true, fmt.Sprintf("Friday after %02d:00, reduced liquidity before the weekend", a.FridayCutoffHour)
	}
	if a.AvoidNewsWindow && ctx.NewsWithinWindow {
		return true, "inside a major-news window"
	}
	if a.inHolidayRange(ctx.Timestamp) {
		return true, "year-end holiday period, dried-up liquidity"
	}
	return false, ""
}

func (a Avoidance) inHolidayRange(t time.Time) bool {
	if a.HolidayStartDay == 0 || a.HolidayEndDay == 0 {
		return false
	}
	start := time.Date(t.Year(), a.HolidayStartMonth, a.HolidayStartDay, 0, 0, 0, 0, t.Location())
	end := time.Date(t.Year(), a.HolidayEndMonth, a.HolidayEndDay, 23, 59, 59, 0, t.Location())
	return !t.Before(start) && !t.After(end)
}
