package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLeaveCovers(t *testing.T) {
	leave := DoctorLeave{
		LeaveStart: day(2026, 9, 5),
		LeaveEnd:   day(2026, 9, 10),
	}

	assert.True(t, leave.Covers(day(2026, 9, 5)), "window is inclusive of the start")
	assert.True(t, leave.Covers(day(2026, 9, 10)), "window is inclusive of the end")
	assert.True(t, leave.Covers(day(2026, 9, 7)))
	assert.False(t, leave.Covers(day(2026, 9, 4)))
	assert.False(t, leave.Covers(day(2026, 9, 11)))
}

func TestLeaveOverlaps(t *testing.T) {
	leave := DoctorLeave{
		LeaveStart: day(2026, 9, 5),
		LeaveEnd:   day(2026, 9, 10),
	}

	assert.True(t, leave.Overlaps(day(2026, 9, 1), day(2026, 9, 5)), "touching at the start overlaps")
	assert.True(t, leave.Overlaps(day(2026, 9, 10), day(2026, 9, 15)), "touching at the end overlaps")
	assert.True(t, leave.Overlaps(day(2026, 9, 1), day(2026, 9, 30)), "containment overlaps")
	assert.False(t, leave.Overlaps(day(2026, 9, 1), day(2026, 9, 4)))
	assert.False(t, leave.Overlaps(day(2026, 9, 11), day(2026, 9, 30)))
}
