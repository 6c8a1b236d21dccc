package models

import "time"

// Class groups students within a school for one academic year.
type Class struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	Name         string    `db:"name" json:"name"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	StartTime    *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime      *string   `db:"end_time" json:"end_time,omitempty"`
	StartDate    *string   `db:"start_date" json:"start_date,omitempty"`
	EndDate      *string   `db:"end_date" json:"end_date,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSummary is a class row enriched with aggregated teacher and subject
// names for listing screens.
type ClassSummary struct {
	Class
	TeacherNames *string `db:"teacher_names" json:"teacher_names,omitempty"`
	SubjectNames *string `db:"subject_names" json:"subject_names,omitempty"`
}

// ClassDetail is a class with its schedules and student roster.
type ClassDetail struct {
	Class
	Schedules []ScheduleDetail `json:"schedules"`
	Students  []ClassStudent   `json:"students"`
}

// ClassStudent is one roster entry.
type ClassStudent struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	FirstName   string  `db:"first_name" json:"first_name"`
	LastName    string  `db:"last_name" json:"last_name"`
	Email       string  `db:"email" json:"email"`
	DateOfBirth *string `db:"date_of_birth" json:"date_of_birth,omitempty"`
}
