package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusUpcoming, StatusActive, StatusCompleted, StatusCancelled} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, Status("archived").IsValid())
}

func TestRecurrence_Window(t *testing.T) {
	assert.Equal(t, 24*time.Hour, RecurrenceDaily.Window())
	assert.Equal(t, 7*24*time.Hour, RecurrenceWeekly.Window())
	assert.Equal(t, time.Duration(0), RecurrenceNone.Window())
}

func TestTemplate_NextInstance(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("daily", func(t *testing.T) {
		tpl := Template{ID: "tpl-1", Title: "Daily sketch", Recurrence: RecurrenceDaily, RewardXP: 50}
		c := tpl.NextInstance(now)

		require.NotEmpty(t, c.ID)
		assert.Equal(t, "tpl-1", c.TemplateID)
		assert.Equal(t, StatusUpcoming, c.Status)
		assert.Equal(t, now.Add(24*time.Hour), c.StartDate)
		assert.Equal(t, now.Add(48*time.Hour), c.EndDate)
		assert.Equal(t, 50, c.RewardXP)
	})

	t.Run("weekly", func(t *testing.T) {
		tpl := Template{ID: "tpl-2", Title: "Weekly build", Recurrence: RecurrenceWeekly, RewardXP: 200}
		c := tpl.NextInstance(now)

		assert.Equal(t, now.Add(7*24*time.Hour), c.StartDate)
		assert.Equal(t, now.Add(14*24*time.Hour), c.EndDate)
	})

	t.Run("fresh identifiers per instance", func(t *testing.T) {
		tpl := Template{ID: "tpl-3", Title: "Daily", Recurrence: RecurrenceDaily}
		a := tpl.NextInstance(now)
		b := tpl.NextInstance(now)
		assert.NotEqual(t, a.ID, b.ID)
	})
}
