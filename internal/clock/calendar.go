// Package clock classifies a point in time against the KRX trading
// calendar: which Session it falls in, whether execution is currently
// allowed, and how long until the market next opens.
package clock

import (
	"os"
	"time"

	"github.com/aristath/trading-council/internal/domain"
	"gopkg.in/yaml.v3"
)

var seoul = mustLoadLocation("Asia/Seoul")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Holidays is a loaded set of market-closed dates, keyed "2006-01-02".
type Holidays struct {
	dates map[string]bool
}

type holidaysFile struct {
	Holidays []string `yaml:"holidays"`
}

// LoadHolidays reads a YAML holiday list of the form:
//
//	holidays:
//	  - "2026-01-01"
//	  - "2026-02-17"
//
// A missing file is not an error: it yields an empty calendar (no
// holidays observed), since the regular session windows still apply.
func LoadHolidays(path string) (*Holidays, error) {
	h := &Holidays{dates: make(map[string]bool)}
	if path == "" {
		return h, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, err
	}

	var f holidaysFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	for _, d := range f.Holidays {
		h.dates[d] = true
	}
	return h, nil
}

func (h *Holidays) isHoliday(t time.Time) bool {
	return h.dates[t.In(seoul).Format("2006-01-02")]
}

// Calendar classifies timestamps against the KRX trading calendar.
// PRE_MARKET 08:30-09:00, REGULAR 09:00-15:30, POST_MARKET 15:30-18:00,
// everything else (including weekends and holidays) is CLOSED.
type Calendar struct {
	holidays *Holidays
}

// New creates a Calendar backed by the given holiday set. A nil holidays
// set is treated as "no holidays".
func New(holidays *Holidays) *Calendar {
	if holidays == nil {
		holidays = &Holidays{dates: make(map[string]bool)}
	}
	return &Calendar{holidays: holidays}
}

func (c *Calendar) isTradingDay(t time.Time) bool {
	t = t.In(seoul)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.holidays.isHoliday(t)
}

// Session classifies t into one of the four market sessions.
func (c *Calendar) Session(t time.Time) domain.Session {
	t = t.In(seoul)
	if !c.isTradingDay(t) {
		return domain.SessionClosed
	}

	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes >= 8*60+30 && minutes < 9*60:
		return domain.SessionPreMarket
	case minutes >= 9*60 && minutes < 15*60+30:
		return domain.SessionRegular
	case minutes >= 15*60+30 && minutes < 18*60:
		return domain.SessionPostMarket
	default:
		return domain.SessionClosed
	}
}

// CanExecute reports whether a broker order placed at t would be
// accepted: only during the REGULAR session.
func (c *Calendar) CanExecute(t time.Time) bool {
	return c.Session(t) == domain.SessionRegular
}

// NextOpen returns the next timestamp at or after t when the REGULAR
// session begins.
func (c *Calendar) NextOpen(t time.Time) time.Time {
	t = t.In(seoul)
	day := time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, seoul)

	minutes := t.Hour()*60 + t.Minute()
	if c.isTradingDay(t) && minutes < 9*60 {
		return day
	}

	for i := 1; i <= 30; i++ {
		candidate := day.AddDate(0, 0, i)
		if c.isTradingDay(candidate) {
			return candidate
		}
	}
	return day.AddDate(0, 0, 30)
}

// SecondsUntilOpen returns how many seconds remain until the next
// REGULAR session, 0 if the market is open right now.
func (c *Calendar) SecondsUntilOpen(t time.Time) int64 {
	if c.CanExecute(t) {
		return 0
	}
	next := c.NextOpen(t)
	diff := next.Sub(t)
	if diff < 0 {
		return 0
	}
	return int64(diff.Seconds())
}
