package services

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// Clock lets tests pin "today".
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func dayStart(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func dayEnd(t time.Time) time.Time { return dayStart(t).AddDate(0, 0, 1) }

// ParseDay reads YYYY-MM-DD in server local time; empty means today.
func ParseDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return dayStart(now), nil
	}
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, invalid("date must be YYYY-MM-DD")
	}
	return d, nil
}

// ParseRange reads from/to (inclusive days), defaulting to the last 7 days.
func ParseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	end, err := ParseDay(to, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := end.AddDate(0, 0, -6)
	if from != "" {
		if start, err = ParseDay(from, now); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, invalid("from must not be after to")
	}
	if end.Sub(start) > 366*24*time.Hour {
		return time.Time{}, time.Time{}, invalid("range may not exceed one year")
	}
	return start, end, nil
}

func pct(actual, goal float64) float64 {
	if goal <= 0 {
		if actual <= 0 {
			return 0
		}
		return 100
	}
	return round2(actual / goal * 100)
}

func avg(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
