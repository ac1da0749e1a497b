// Package market_hours knows the trading sessions of the mainland fund market,
// during which realtime NAV estimates move.
package market_hours

import (
	"sort"
	"time"
)

// Exchange is the calendar the fund market follows
const Exchange = "XSHG"

// Timezone of the sessions
const Timezone = "Asia/Shanghai"

// chinaTZ is fixed at +8; the mainland has no DST
var chinaTZ = time.FixedZone("CST", 8*3600)

type session struct {
	openH, openM, closeH, closeM int
}

// morning and afternoon continuous trading
var sessions = []session{
	{9, 30, 11, 30},
	{13, 0, 15, 0},
}

// MarketStatus is the state of the market at an instant
type MarketStatus struct {
	Exchange  string `json:"exchange"`
	Open      bool   `json:"open"`
	Timezone  string `json:"timezone"`
	OpensAt   string `json:"opens_at,omitempty"`
	OpensDate string `json:"opens_date,omitempty"`
	ClosesAt  string `json:"closes_at,omitempty"`
}

// MarketHoursService answers session questions. Holidays are full-day closures
// given as YYYY-MM-DD dates.
type MarketHoursService struct {
	holidays map[string]bool
}

// NewMarketHoursService creates a service with the given holidays
func NewMarketHoursService(holidays ...string) *MarketHoursService {
	s := &MarketHoursService{holidays: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		s.holidays[h] = true
	}
	return s
}

// IsTradingDay reports whether the market opens at all on t's local date
func (s *MarketHoursService) IsTradingDay(t time.Time) bool {
	local := t.In(chinaTZ)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !s.holidays[local.Format("2006-01-02")]
}

// IsMarketOpen reports whether t falls inside a trading session
func (s *MarketHoursService) IsMarketOpen(t time.Time) bool {
	_, open := s.currentSession(t)
	return open
}

// GetMarketStatus describes the market at t
func (s *MarketHoursService) GetMarketStatus(t time.Time) MarketStatus {
	status := MarketStatus{Exchange: Exchange, Timezone: Timezone}

	if sess, open := s.currentSession(t); open {
		status.Open = true
		status.ClosesAt = clock(sess.closeH, sess.closeM)
		return status
	}

	next := s.nextOpen(t)
	status.OpensAt = next.Format("15:04")
	if next.Format("2006-01-02") != t.In(chinaTZ).Format("2006-01-02") {
		status.OpensDate = next.Format("2006-01-02")
	}
	return status
}

// Holidays returns the configured holidays in year, sorted
func (s *MarketHoursService) Holidays(year int) []string {
	prefix := time.Date(year, 1, 1, 0, 0, 0, 0, chinaTZ).Format("2006")
	out := []string{}
	for h := range s.holidays {
		if len(h) >= 4 && h[:4] == prefix {
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out
}

func (s *MarketHoursService) currentSession(t time.Time) (session, bool) {
	if !s.IsTradingDay(t) {
		return session{}, false
	}
	local := t.In(chinaTZ)
	minute := local.Hour()*60 + local.Minute()
	for _, sess := range sessions {
		if minute >= sess.openH*60+sess.openM && minute < sess.closeH*60+sess.closeM {
			return sess, true
		}
	}
	return session{}, false
}

// nextOpen returns the start of the next session strictly after t
func (s *MarketHoursService) nextOpen(t time.Time) time.Time {
	local := t.In(chinaTZ)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, chinaTZ)

	// a long holiday plus weekends never exceeds a few weeks
	for i := 0; i < 60; i++ {
		if s.IsTradingDay(day) {
			for _, sess := range sessions {
				open := day.Add(time.Duration(sess.openH)*time.Hour + time.Duration(sess.openM)*time.Minute)
				if open.After(local) {
					return open
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return day
}

func clock(h, m int) string {
	return time.Date(2000, 1, 1, h, m, 0, 0, chinaTZ).Format("15:04")
}
