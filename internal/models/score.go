package models

import "time"

// AssessmentType classifies how a score was collected.
type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "quiz"
	AssessmentHomework   AssessmentType = "homework"
	AssessmentMidterm    AssessmentType = "midterm"
	AssessmentFinal      AssessmentType = "final"
	AssessmentOralTest   AssessmentType = "oral_test"
	AssessmentAssignment AssessmentType = "assignment"
)

// Valid reports whether the assessment type is a supported value.
func (a AssessmentType) Valid() bool {
	switch a {
	case AssessmentQuiz, AssessmentHomework, AssessmentMidterm, AssessmentFinal, AssessmentOralTest, AssessmentAssignment:
		return true
	default:
		return false
	}
}

// Score is a single assessment score. Uniqueness is enforced on
// (student_id, subject_id, assessment_type, date_recorded) so re-submitting
// the same assessment overwrites the value.
type Score struct {
	ID             string         `db:"id" json:"id"`
	StudentID      string         `db:"student_id" json:"student_id"`
	ClassID        string         `db:"class_id" json:"class_id"`
	SubjectID      string         `db:"subject_id" json:"subject_id"`
	TeacherID      string         `db:"teacher_id" json:"teacher_id"`
	Value          float64        `db:"value" json:"value"`
	AssessmentType AssessmentType `db:"assessment_type" json:"assessment_type"`
	DateRecorded   string         `db:"date_recorded" json:"date_recorded"`
	Remarks        *string        `db:"remarks" json:"remarks,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// ScoreRecord extends the row with student and subject metadata for listings.
type ScoreRecord struct {
	ID             string         `db:"id" json:"id"`
	Value          float64        `db:"value" json:"value"`
	AssessmentType AssessmentType `db:"assessment_type" json:"assessment_type"`
	DateRecorded   string         `db:"date_recorded" json:"date_recorded"`
	Remarks        *string        `db:"remarks" json:"remarks,omitempty"`
	StudentID      string         `db:"student_id" json:"student_id"`
	StudentName    string         `db:"student_name" json:"student_name"`
	ClassID        string         `db:"class_id" json:"class_id"`
	ClassName      string         `db:"class_name" json:"class_name"`
	SubjectID      string         `db:"subject_id" json:"subject_id"`
	SubjectName    string         `db:"subject_name" json:"subject_name"`
}

// ScoreOwner locates the student behind a score, with the school needed
// for tenant checks.
type ScoreOwner struct {
	StudentID string  `db:"student_id"`
	SchoolID  *string `db:"school_id"`
}

// SubjectAverage is one subject's aggregated line in a student report.
type SubjectAverage struct {
	SubjectID   string  `db:"subject_id" json:"subject_id"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	Average     float64 `db:"average" json:"average"`
	ScoreCount  int     `db:"score_count" json:"score_count"`
	Grade       string  `json:"grade"`
}

// StudentReport is the per-student score report with subject averages and
// an overall classification.
type StudentReport struct {
	StudentID    string           `json:"student_id"`
	StudentName  string           `json:"student_name"`
	ClassName    string           `json:"class_name,omitempty"`
	Subjects     []SubjectAverage `json:"subjects"`
	Overall      float64          `json:"overall"`
	OverallGrade string           `json:"overall_grade"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// StudentStanding is one student's line in a standings report. A student
// without recorded scores keeps rank 0 and an empty grade.
type StudentStanding struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	Average     float64 `db:"average" json:"average"`
	ScoreCount  int     `db:"score_count" json:"score_count"`
	Grade       string  `json:"grade,omitempty"`
	Passed      bool    `json:"passed"`
	Rank        int     `json:"rank"`
}

// StandingsStats summarizes a standings report.
type StandingsStats struct {
	TotalStudents     int            `json:"total_students"`
	Scored            int            `json:"scored"`
	Passed            int            `json:"passed"`
	Failed            int            `json:"failed"`
	AverageScore      float64        `json:"average_score"`
	GradeDistribution map[string]int `json:"grade_distribution"`
}

// StandingsReport ranks every student of a class or school by overall
// average score.
type StandingsReport struct {
	ClassID     string            `json:"class_id,omitempty"`
	ClassName   string            `json:"class_name,omitempty"`
	SchoolID    string            `json:"school_id,omitempty"`
	Standings   []StudentStanding `json:"standings"`
	Stats       StandingsStats    `json:"stats"`
	GeneratedAt time.Time         `json:"generated_at"`
}
