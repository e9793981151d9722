package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShiftClockMinutes(t *testing.T) {
	shift := Shift{StartTime: "08:00:00", EndTime: "16:30:00"}
	assert.Equal(t, 480, shift.StartMinutes())
	assert.Equal(t, 990, shift.EndMinutes())

	assert.Equal(t, 420, Shift{StartTime: "07:00"}.StartMinutes(), "HH:MM works without seconds")
	assert.Zero(t, Shift{StartTime: "bad"}.StartMinutes())
	assert.Zero(t, Shift{StartTime: "xx:30:00"}.StartMinutes())
	assert.Zero(t, Shift{}.EndMinutes())
}

func TestShiftOvernight(t *testing.T) {
	assert.False(t, Shift{StartTime: "08:00:00", EndTime: "16:00:00"}.Overnight())
	assert.True(t, Shift{StartTime: "22:00:00", EndTime: "06:00:00"}.Overnight(), "end before start wraps")
	assert.True(t, Shift{StartTime: "16:00:00", EndTime: "00:00:00"}.Overnight())
	assert.True(t, Shift{StartTime: "08:00:00", EndTime: "16:00:00", IsOvernight: true}.Overnight(), "stored flag wins")
}

func TestShiftDailyMinutes(t *testing.T) {
	assert.Equal(t, 480, Shift{StartTime: "08:00:00", EndTime: "16:00:00"}.DailyMinutes())
	assert.Equal(t, 480, Shift{StartTime: "22:00:00", EndTime: "06:00:00"}.DailyMinutes(), "overnight spans midnight")
	assert.Equal(t, 480, Shift{StartTime: "16:00:00", EndTime: "00:00:00"}.DailyMinutes())
}
