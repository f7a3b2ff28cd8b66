package market

import "time"

// SessionID names a trading session window.
type SessionID string

const (
	SessionAsian           SessionID = "asian"
	SessionLondon          SessionID = "london"
	SessionNewYork         SessionID = "new_york"
	SessionLondonNYOverlap SessionID = "london_ny_overlap"
	SessionUSPrime         SessionID = "us_prime"
	SessionEurope          SessionID = "europe"
)

// Context is the per-run market snapshot the gates evaluate. Supplied once
// per analysis run and never mutated.
type Context struct {
	Timestamp        time.Time   `json:"timestamp"`
	Weekday          time.Weekday `json:"weekday"`
	ActiveSessions   []SessionID `json:"activeSessions"`
	VIX              float64     `json:"vix"`
	NewsWithinWindow bool        `json:"newsWithinWindow"`
}

// Session is one named trading window with wall-clock bounds. Windows may
// wrap midnight (start after end).
type Session struct {
	ID          SessionID `yaml:"id"`
	Name        string    `yaml:"name"`
	StartHour   int       `yaml:"start_hour"`
	EndHour     int       `yaml:"end_hour"`
	Recommended bool      `yaml:"recommended"`
}

// Calendar is the session table for one market.
type Calendar struct {
	Sessions []Session `yaml:"sessions"`
}

// DefaultForexCalendar returns the forex session windows (CET).
func DefaultForexCalendar() Calendar {
	return Calendar{Sessions: []Session{
		{ID: SessionAsian, Name: "Asia (Tokyo/Sydney)", StartHour: 0, EndHour: 8},
		{ID: SessionLondon, Name: "London", StartHour: 8, EndHour: 17, Recommended: true},
		{ID: SessionNewYork, Name: "New York", StartHour: 14, EndHour: 22, Recommended: true},
		{ID: SessionLondonNYOverlap, Name: "London-NY overlap", StartHour: 14, EndHour: 17, Recommended: true},
	}}
}

// DefaultCryptoCalendar returns the crypto session windows. Crypto trades
// around the clock; sessions mark the liquidity peaks.
func DefaultCryptoCalendar() Calendar {
	return Calendar{Sessions: []Session{
		{ID: SessionUSPrime, Name: "US prime time", StartHour: 14, EndHour: 22, Recommended: true},
		{ID: SessionAsian, Name: "Asia prime time", StartHour: 0, EndHour: 8, Recommended: true},
		{ID: SessionEurope, Name: "Europe hours", StartHour: 8, EndHour: 17, Recommended: true},
	}}
}

// ActiveAt returns the sessions whose window contains t.
func (c Calendar) ActiveAt(t time.Time) []SessionID {
	hour := t.Hour()
	active := []SessionID{}
	for _, s := range c.Sessions {
		if hourInWindow(hour, s.StartHour, s.EndHour) {
			active = append(active, s.ID)
		}
	}
	return active
}

func hourInWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour < end
	}
	// window wraps midnight
	return hour >= start || hour < end
}
