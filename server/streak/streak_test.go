package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(dayOfMonth int) time.Time {
	return time.Date(2025, time.January, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestCalculate_Empty(t *testing.T) {
	result := Calculate(nil)
	assert.Equal(t, Result{}, result)

	result = Calculate([]Entry{})
	assert.Equal(t, 0, result.CurrentStreak)
	assert.Equal(t, 0, result.LongestStreak)
	assert.Equal(t, 0.0, result.ConsistencyScore)
}

func TestCalculate_ConsecutiveCompleted(t *testing.T) {
	logs := []Entry{
		{Date: day(5), Completed: true},
		{Date: day(4), Completed: true},
		{Date: day(3), Completed: true},
	}

	result := Calculate(logs)
	assert.Equal(t, 3, result.CurrentStreak)
	assert.Equal(t, 3, result.LongestStreak)
	assert.Equal(t, 100.0, result.ConsistencyScore)
}

func TestCalculate_MostRecentNotCompleted(t *testing.T) {
	logs := []Entry{
		{Date: day(5), Completed: false},
		{Date: day(4), Completed: true},
		{Date: day(3), Completed: true},
	}

	result := Calculate(logs)
	assert.Equal(t, 0, result.CurrentStreak)
	assert.Equal(t, 2, result.LongestStreak)
	assert.Equal(t, 66.67, result.ConsistencyScore)
}

func TestCalculate_DateGapBreaksStreak(t *testing.T) {
	logs := []Entry{
		{Date: day(5), Completed: true},
		{Date: day(3), Completed: true},
	}

	result := Calculate(logs)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 1, result.LongestStreak)
	assert.Equal(t, 100.0, result.ConsistencyScore)
}

func TestCalculate_LongestStreakInMiddle(t *testing.T) {
	logs := []Entry{
		{Date: day(10), Completed: true},
		{Date: day(9), Completed: false},
		{Date: day(8), Completed: true},
		{Date: day(7), Completed: true},
		{Date: day(6), Completed: true},
		{Date: day(5), Completed: true},
		{Date: day(4), Completed: false},
	}

	result := Calculate(logs)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 4, result.LongestStreak)
}

func TestCalculate_LongestAtLeastCurrent(t *testing.T) {
	logs := []Entry{
		{Date: day(7), Completed: true},
		{Date: day(6), Completed: true},
		{Date: day(5), Completed: false},
		{Date: day(4), Completed: true},
	}

	result := Calculate(logs)
	assert.Equal(t, 2, result.CurrentStreak)
	assert.GreaterOrEqual(t, result.LongestStreak, result.CurrentStreak)
	assert.Equal(t, 2, result.LongestStreak)
	assert.Equal(t, 75.0, result.ConsistencyScore)
}

func TestCalculate_ConsistencyRounding(t *testing.T) {
	// 1 of 3 completed: 33.333...% rounds to 33.33.
	logs := []Entry{
		{Date: day(5), Completed: true},
		{Date: day(2), Completed: false},
		{Date: day(1), Completed: false},
	}

	result := Calculate(logs)
	assert.Equal(t, 33.33, result.ConsistencyScore)
}

func TestIsConsecutive(t *testing.T) {
	assert.True(t, IsConsecutive(day(2), day(1)))
	assert.True(t, IsConsecutive(day(1), day(2)))
	assert.False(t, IsConsecutive(day(1), day(3)))
	assert.False(t, IsConsecutive(day(3), day(1)))
	assert.False(t, IsConsecutive(day(1), day(1)))
}

func TestIsConsecutive_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, time.January, 2, 23, 45, 0, 0, time.UTC)
	early := time.Date(2025, time.January, 1, 0, 10, 0, 0, time.UTC)
	assert.True(t, IsConsecutive(late, early))

	sameDay := time.Date(2025, time.January, 1, 22, 0, 0, 0, time.UTC)
	assert.False(t, IsConsecutive(early, sameDay))
}
