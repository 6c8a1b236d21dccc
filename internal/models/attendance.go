package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceAbsent     AttendanceStatus = "absent"
	AttendanceLate       AttendanceStatus = "late"
	AttendancePermission AttendanceStatus = "permission"
	AttendancePresent    AttendanceStatus = "present"
)

// Valid reports whether the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceAbsent, AttendanceLate, AttendancePermission, AttendancePresent:
		return true
	default:
		return false
	}
}

// Attendance is one student's record for a class on a date. The table holds
// a uniqueness constraint on (student_id, class_id, date); recording twice
// for the same key updates status and remarks.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	ClassID   string           `db:"class_id" json:"class_id"`
	Date      string           `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Remarks   *string          `db:"remarks" json:"remarks,omitempty"`
	TeacherID string           `db:"recorded_by_teacher_id" json:"recorded_by_teacher_id"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord extends the row with student and class metadata.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	Date        string           `db:"date" json:"date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Remarks     *string          `db:"remarks" json:"remarks,omitempty"`
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentName string           `db:"student_name" json:"student_name"`
	ClassName   string           `db:"class_name" json:"class_name"`
}
