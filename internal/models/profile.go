package models

import "time"

// PrincipalProfile maps a principal-role user to the school they direct.
type PrincipalProfile struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	SchoolID  *string   `db:"school_id" json:"school_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Teacher maps a teacher-role user to their school.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	SchoolID  *string   `db:"school_id" json:"school_id,omitempty"`
	HireDate  *string   `db:"hire_date" json:"hire_date,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Student maps a student-role user to their school.
type Student struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	SchoolID       *string   `db:"school_id" json:"school_id,omitempty"`
	DateOfBirth    *string   `db:"date_of_birth" json:"date_of_birth,omitempty"`
	EnrollmentDate *string   `db:"enrollment_date" json:"enrollment_date,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherDetail joins teacher profile and user fields for listings.
type TeacherDetail struct {
	Teacher
	FirstName  string  `db:"first_name" json:"first_name"`
	LastName   string  `db:"last_name" json:"last_name"`
	Email      string  `db:"email" json:"email"`
	Phone      *string `db:"phone" json:"phone,omitempty"`
	SchoolName *string `db:"school_name" json:"school_name,omitempty"`
}

// StudentDetail joins student profile and user fields for listings.
type StudentDetail struct {
	Student
	FirstName  string  `db:"first_name" json:"first_name"`
	LastName   string  `db:"last_name" json:"last_name"`
	Email      string  `db:"email" json:"email"`
	Phone      *string `db:"phone" json:"phone,omitempty"`
	SchoolName *string `db:"school_name" json:"school_name,omitempty"`
}

// PrincipalDetail joins principal profile and user fields for listings.
type PrincipalDetail struct {
	PrincipalProfile
	FirstName  string  `db:"first_name" json:"first_name"`
	LastName   string  `db:"last_name" json:"last_name"`
	Email      string  `db:"email" json:"email"`
	Phone      *string `db:"phone" json:"phone,omitempty"`
	SchoolName *string `db:"school_name" json:"school_name,omitempty"`
}
