package clock

import (
	"testing"
	"time"

	"github.com/aristath/trading-council/internal/domain"
	"github.com/stretchr/testify/assert"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, seoul)
}

func TestCalendar_Session(t *testing.T) {
	cal := New(nil)

	// 2026-07-30 is a Thursday.
	assert.Equal(t, domain.SessionClosed, cal.Session(at(2026, 7, 30, 8, 0)))
	assert.Equal(t, domain.SessionPreMarket, cal.Session(at(2026, 7, 30, 8, 45)))
	assert.Equal(t, domain.SessionRegular, cal.Session(at(2026, 7, 30, 10, 0)))
	assert.Equal(t, domain.SessionPostMarket, cal.Session(at(2026, 7, 30, 16, 0)))
	assert.Equal(t, domain.SessionClosed, cal.Session(at(2026, 7, 30, 19, 0)))
}

func TestCalendar_Weekend(t *testing.T) {
	cal := New(nil)
	// 2026-08-01 is a Saturday.
	assert.Equal(t, domain.SessionClosed, cal.Session(at(2026, 8, 1, 10, 0)))
}

func TestCalendar_Holiday(t *testing.T) {
	h := &Holidays{dates: map[string]bool{"2026-07-30": true}}
	cal := New(h)
	assert.Equal(t, domain.SessionClosed, cal.Session(at(2026, 7, 30, 10, 0)))
}

func TestCalendar_CanExecute(t *testing.T) {
	cal := New(nil)
	assert.True(t, cal.CanExecute(at(2026, 7, 30, 10, 0)))
	assert.False(t, cal.CanExecute(at(2026, 7, 30, 8, 45)))
}

func TestCalendar_NextOpen_SameDayBeforeOpen(t *testing.T) {
	cal := New(nil)
	next := cal.NextOpen(at(2026, 7, 30, 7, 0))
	assert.Equal(t, at(2026, 7, 30, 9, 0), next)
}

func TestCalendar_NextOpen_SkipsWeekend(t *testing.T) {
	cal := New(nil)
	// 2026-07-31 is a Friday afternoon, after close.
	next := cal.NextOpen(at(2026, 7, 31, 16, 0))
	assert.Equal(t, at(2026, 8, 3, 9, 0), next) // Monday
}

func TestCalendar_SecondsUntilOpen_WhenOpen(t *testing.T) {
	cal := New(nil)
	assert.EqualValues(t, 0, cal.SecondsUntilOpen(at(2026, 7, 30, 10, 0)))
}

func TestLoadHolidays_MissingFileIsEmpty(t *testing.T) {
	h, err := LoadHolidays("/nonexistent/path/holidays.yaml")
	assert.NoError(t, err)
	assert.False(t, h.isHoliday(at(2026, 7, 30, 0, 0)))
}
