// Package timeutil provides utility functions and types for working with
// time-related operations.
package timeutil

import (
	"math"
	"time"

	"github.com/dfilippo/lavoro/internal/models"
)

const secondsInAMinute = 60

const minutesInAnHour = 60

// RoundInstant rounds an instant to the nearest multiple of the rule's step.
// RoundingOff returns the instant unchanged.
func RoundInstant(t time.Time, rule models.RoundingRule) time.Time {
	step := rule.Step()
	if step == 0 {
		return t
	}

	stepSecs := step.Seconds()
	secs := float64(t.Unix())
	rounded := math.Round(secs/stepSecs) * stepSecs

	return time.Unix(int64(rounded), 0).In(t.Location())
}

// PayableMinutes computes the billable duration between start and end after
// rounding both endpoints independently and subtracting the break. The
// result is never negative, even when rounding inverts the interval.
func PayableMinutes(
	start, end time.Time,
	breakMinutes int,
	rule models.RoundingRule,
) int {
	s := RoundInstant(start, rule)
	e := RoundInstant(end, rule)

	rawMinutes := int(e.Unix()-s.Unix()) / secondsInAMinute

	return max(0, rawMinutes-max(0, breakMinutes))
}

// SessionMinutes returns the payable minutes for a session, or 0 while it is
// still open.
func SessionMinutes(s *models.WorkSession) int {
	if s.End == nil {
		return 0
	}

	return PayableMinutes(s.Start, *s.End, s.BreakMinutes, s.Rounding)
}

// MinsToHoursAndMins expresses a minutes value in hours and mins.
func MinsToHoursAndMins(val int) (hrs, mins int) {
	hrs = val / minutesInAnHour
	mins = val % minutesInAnHour

	return
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// RoundToEnd resets the given time to the end of the day.
func RoundToEnd(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		23,
		59,
		59,
		0,
		t.Location(),
	)
}

// MonthBounds returns the first and last instants of the month containing t.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Second)

	return start, end
}
