// Package challenge contains the scheduled challenge domain model. Challenge
// status transitions are driven solely by the scheduler jobs comparing the
// current time to start/end dates; nothing else mutates status.
package challenge

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradeya/tradeya-backend/pkg/timeutil"
)

// Status is a challenge lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether the status is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusUpcoming, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Recurrence describes how a challenge template regenerates.
type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// IsRecurring reports whether the recurrence creates new challenges.
func (r Recurrence) IsRecurring() bool {
	return r == RecurrenceDaily || r == RecurrenceWeekly
}

// Window returns the duration of one recurrence window.
func (r Recurrence) Window() time.Duration {
	switch r {
	case RecurrenceDaily:
		return 24 * time.Hour
	case RecurrenceWeekly:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Challenge is a time-bounded record whose status follows its dates.
type Challenge struct {
	ID         string
	TemplateID string
	Title      string
	Status     Status
	Recurrence Recurrence
	StartDate  time.Time
	EndDate    time.Time
	RewardXP   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Template is the source configuration for recurring challenges.
type Template struct {
	ID         string
	Title      string
	Recurrence Recurrence
	RewardXP   int
	CreatedAt  time.Time
}

// NextInstance creates the next upcoming challenge from a template: the new
// window opens one recurrence period from now and spans one more.
func (t Template) NextInstance(now time.Time) Challenge {
	var start, end time.Time
	switch t.Recurrence {
	case RecurrenceWeekly:
		start, end = timeutil.NextWeeklyWindow(now)
	default:
		start, end = timeutil.NextDailyWindow(now)
	}

	return Challenge{
		ID:         uuid.NewString(),
		TemplateID: t.ID,
		Title:      t.Title,
		Status:     StatusUpcoming,
		Recurrence: t.Recurrence,
		StartDate:  start,
		EndDate:    end,
		RewardXP:   t.RewardXP,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
