package helpers

import (
	"context"
	"math"
	"regexp"
	"time"
)

const DateLayout = "2006-01-02"

func IsContextDone(ctx context.Context) bool {
	if ctx == nil {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
	}
	return false
}

var dateRegexp = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)

// ParseDate строгий разбор YYYY-MM-DD (2024-02-30 тоже отклоняется)
func ParseDate(value string) (time.Time, bool) {
	if !dateRegexp.MatchString(value) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var digitsRegexp = regexp.MustCompile(`^\d+$`)

func IsDigits(value string) bool {
	return digitsRegexp.MatchString(value)
}

// MonthRange границы календарного месяца [from, to)
func MonthRange(t time.Time) (from, to time.Time) {
	from = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	to = from.AddDate(0, 1, 0)
	return from, to
}

func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween разница в календарных днях (to - from), может быть отрицательной
func DaysBetween(from, to time.Time) int {
	from = TruncateToDay(from)
	to = TruncateToDay(to.In(from.Location()))
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
