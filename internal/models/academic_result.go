package models

import "time"

// AcademicResult is a finalized period result for a student in a class and
// subject. Uniqueness is enforced on (student_id, class_id, subject_id,
// academic_period).
type AcademicResult struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	AcademicPeriod string    `db:"academic_period" json:"academic_period"`
	FinalScore     float64   `db:"final_score" json:"final_score"`
	Grade          string    `db:"grade" json:"grade"`
	Rank           *int      `db:"rank" json:"rank,omitempty"`
	Remarks        *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicResultDetail extends the row with display metadata.
type AcademicResultDetail struct {
	ID             string  `db:"id" json:"id"`
	AcademicPeriod string  `db:"academic_period" json:"academic_period"`
	FinalScore     float64 `db:"final_score" json:"final_score"`
	Grade          string  `db:"grade" json:"grade"`
	Rank           *int    `db:"rank" json:"rank,omitempty"`
	StudentID      string  `db:"student_id" json:"student_id"`
	StudentName    string  `db:"student_name" json:"student_name"`
	ClassName      string  `db:"class_name" json:"class_name"`
	SubjectName    string  `db:"subject_name" json:"subject_name"`
}
