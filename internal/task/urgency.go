package task

import (
	"math"
	"time"
)

const (
	dueCoefficient       = 12.0
	scheduledCoefficient = 5.0
	startedCoefficient   = -3.0
	hoursPerDay          = 24
)

var priorityCoefficients = map[Priority]float64{
	PriorityHighest: 9.0,
	PriorityHigh:    6.0,
	PriorityMedium:  3.9,
	PriorityNone:    1.95,
	PriorityLow:     0.0,
	PriorityLowest:  -1.8,
}

// Urgency scores a task relative to today. Higher is more urgent.
func (t *Task) Urgency(today time.Time) float64 {
	today = Day(today)
	urgency := 0.0

	if t.Due != nil {
		daysOverdue := math.Round(today.Sub(Day(*t.Due)).Hours() / hoursPerDay)
		var multiplier float64
		switch {
		case daysOverdue >= 7:
			multiplier = 1.0
		case daysOverdue >= -14:
			multiplier = ((daysOverdue+14)*0.8)/21 + 0.2
		default:
			multiplier = 0.2
		}
		urgency += multiplier * dueCoefficient
	}

	if t.Scheduled != nil && !Day(*t.Scheduled).After(today) {
		urgency += scheduledCoefficient
	}

	if t.Start != nil && Day(*t.Start).After(today) {
		urgency += startedCoefficient
	}

	urgency += priorityCoefficients[t.Priority]
	return urgency
}
