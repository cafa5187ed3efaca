// Package timemath turns (date, start, end) wall-clock triples into billable hours.
//
// Durations are computed on the wall clock of the work date: an end time at or
// before the start time means the shift ran past midnight into the next day.
// Daylight-saving shifts are not modelled.
package timemath

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

const (
	// DateLayout is the accepted format for work dates.
	DateLayout = "2006-01-02"

	// DefaultMaxShiftHours is the sanity ceiling for a single ticket.
	DefaultMaxShiftHours = 24

	secondsPerDay  = 24 * 60 * 60
	secondsPerHour = 60 * 60
)

var clockLayouts = []string{"15:04", "15:04:05"}

// Calculator computes ticket durations against a configurable ceiling.
type Calculator struct {
	maxHours decimal.Decimal
}

// NewCalculator builds a Calculator. Non-positive ceilings fall back to the default.
func NewCalculator(maxShiftHours int) *Calculator {
	if maxShiftHours <= 0 || maxShiftHours > DefaultMaxShiftHours {
		maxShiftHours = DefaultMaxShiftHours
	}
	return &Calculator{maxHours: decimal.NewFromInt(int64(maxShiftHours))}
}

// ComputeDuration uses the default 24h ceiling.
func ComputeDuration(date time.Time, startTime, endTime string) (decimal.Decimal, error) {
	return NewCalculator(DefaultMaxShiftHours).ComputeDuration(date, startTime, endTime)
}

// ComputeDuration returns the worked hours rounded to 0.01h.
//
// end > start yields end-start. end <= start is an overnight shift and yields
// (24:00 - start) + end, so equal times mean a full 24h shift.
func (c *Calculator) ComputeDuration(date time.Time, startTime, endTime string) (decimal.Decimal, error) {
	if date.IsZero() {
		return decimal.Zero, apperrors.NewValidationError("date required", nil)
	}
	start, err := ParseClock(startTime)
	if err != nil {
		return decimal.Zero, err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return decimal.Zero, err
	}

	seconds := end - start
	if end <= start {
		seconds = (secondsPerDay - start) + end
	}

	hours := decimal.NewFromInt(int64(seconds)).
		Div(decimal.NewFromInt(secondsPerHour)).
		Round(2)

	details := map[string]any{
		"start_time": startTime,
		"end_time":   endTime,
		"hours":      hours.StringFixed(2),
	}
	if !hours.IsPositive() {
		return decimal.Zero, apperrors.NewInvalidRange("duration must be greater than zero", details)
	}
	if hours.GreaterThan(c.maxHours) {
		details["max_hours"] = c.maxHours.String()
		return decimal.Zero, apperrors.NewInvalidRange("duration exceeds maximum shift length", details)
	}
	return hours, nil
}

// ParseClock parses HH:MM or HH:MM:SS into seconds after midnight.
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	for _, layout := range clockLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.Hour()*secondsPerHour + parsed.Minute()*60 + parsed.Second(), nil
		}
	}
	return 0, apperrors.NewValidationError("invalid time of day", map[string]any{"value": value})
}

// ParseDate parses a YYYY-MM-DD work date as UTC midnight.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid date", map[string]any{"value": value})
	}
	return parsed, nil
}

// CivilDate strips the clock from t, keeping the calendar day as seen in t's
// location, and returns it as UTC midnight.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a work date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
