package service

import (
	"time"

	"nutritrack/app/internal/domain"
)

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

func (c Clock) today() string {
	return domain.FormatDate(c.now())
}

// dateOrToday validates an optional YYYY-MM-DD date, defaulting to today.
func (c Clock) dateOrToday(date string) (string, error) {
	if date == "" {
		return c.today(), nil
	}
	if !domain.ValidDate(date) {
		return "", invalid("date must be formatted YYYY-MM-DD")
	}
	return date, nil
}
