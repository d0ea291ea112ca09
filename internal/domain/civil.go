package domain

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCivilTimezone is the calendar zone shared by every served locality.
const DefaultCivilTimezone = "America/Argentina/Cordoba"

// DateKeyLayout formats the per-day key used by the remote store and the
// summary store.
const DateKeyLayout = "20060102"

var (
	spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	spanishMonths   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
		"agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// LoadCivilLocation resolves an IANA zone name, defaulting to
// DefaultCivilTimezone when name is empty.
func LoadCivilLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultCivilTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load civil timezone %q: %w", name, err)
	}
	return loc, nil
}

// CivilClock reports the current instant in a fixed civil timezone, never
// the host's local zone. Tests swap the underlying clock for a fake one.
type CivilClock struct {
	clock clockwork.Clock
	loc   *time.Location
}

// NewCivilClock wraps c. A nil clock means the real clock and a nil
// location means UTC.
func NewCivilClock(c clockwork.Clock, loc *time.Location) *CivilClock {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CivilClock{clock: c, loc: loc}
}

// Now returns the current time in the civil zone, truncated to the second.
func (c *CivilClock) Now() time.Time {
	return c.clock.Now().In(c.loc).Truncate(time.Second)
}

// Location returns the civil zone.
func (c *CivilClock) Location() *time.Location { return c.loc }

// CivilToday returns midnight of t's calendar day in loc.
func CivilToday(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// CivilTomorrow returns midnight of the calendar day after t's, in loc.
// Calendar arithmetic avoids the off-by-one a fixed 24h offset produces
// around zone transitions.
func CivilTomorrow(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// DateKey formats t's civil date as YYYYMMDD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateKeyLayout)
}

// SpanishDate renders t as "jueves 15 de octubre de 2026" using t's own
// location.
func SpanishDate(t time.Time) string {
	return fmt.Sprintf("%s %d de %s de %d",
		spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}
