package models

import "time"

// School is the unit of data isolation for non-admin roles.
type School struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Address     *string    `db:"address" json:"address,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Status      string     `db:"status" json:"status"`
	FoundedDate *string    `db:"founded_date" json:"founded_date,omitempty"`
	Level       *string    `db:"level" json:"level,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// SchoolDetail extends a school with aggregate info for listings.
type SchoolDetail struct {
	School
	DirectorName  *string `db:"director_name" json:"director_name,omitempty"`
	TotalTeachers int     `db:"total_teachers" json:"total_teachers"`
	TotalStudents int     `db:"total_students" json:"total_students"`
	TotalClasses  int     `db:"total_classes" json:"total_classes"`
}
