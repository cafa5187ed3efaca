package timemath

import "time"

// Period is a half-open range of calendar days [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar day of t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	day := CivilDate(t)
	return !day.Before(p.Start) && day.Before(p.End)
}

// ISOWeek returns the Monday-to-Sunday week containing now.
func ISOWeek(now time.Time) Period {
	day := CivilDate(now)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return Period{Start: start, End: start.AddDate(0, 0, 7)}
}

// Month returns the calendar month containing now.
func Month(now time.Time) Period {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}
