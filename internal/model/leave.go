package model

import (
	"time"

	"github.com/google/uuid"
)

type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "pending"
	LeaveStatusApproved  LeaveStatus = "approved"
	LeaveStatusCompleted LeaveStatus = "completed"
)

// DoctorLeave is a leave request. Approval flips the doctor unavailable;
// ending the leave (manually or by the expiry sweep) flips them back.
type DoctorLeave struct {
	Base
	DoctorID   uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	LeaveStart time.Time   `db:"leave_start" json:"leave_start"`
	LeaveEnd   time.Time   `db:"leave_end" json:"leave_end"`
	Reason     string      `db:"reason" json:"reason,omitempty"`
	ApprovedBy string      `db:"approved_by" json:"approved_by,omitempty"`
	Status     LeaveStatus `db:"status" json:"status"`
}

// Covers reports whether the leave window contains the given date.
func (l *DoctorLeave) Covers(date time.Time) bool {
	return !date.Before(l.LeaveStart) && !date.After(l.LeaveEnd)
}

// Overlaps reports whether [start,end] intersects the leave window.
func (l *DoctorLeave) Overlaps(start, end time.Time) bool {
	return !l.LeaveEnd.Before(start) && !l.LeaveStart.After(end)
}

type ApplyLeaveRequest struct {
	DoctorID   uuid.UUID `json:"doctor_id" binding:"required"`
	LeaveStart string    `json:"leave_start" binding:"required,datetime=2006-01-02"`
	LeaveEnd   string    `json:"leave_end" binding:"required,datetime=2006-01-02"`
	Reason     string    `json:"reason"`
}

type LeaveFilters struct {
	DoctorID uuid.UUID
	Status   LeaveStatus
}
