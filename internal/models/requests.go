package models

// CreateSchoolRequest is the payload to register a school. PrincipalID,
// when set, assigns that principal to the new school in the same
// transaction.
type CreateSchoolRequest struct {
	Name        string  `json:"name" validate:"required,min=2"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Status      string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	FoundedDate *string `json:"founded_date,omitempty"`
	Level       *string `json:"level,omitempty"`
	PrincipalID *string `json:"principal_id,omitempty"`
}

// UpdateSchoolRequest is the payload to modify a school. PrincipalID, when
// set, replaces the school's current principal in the same transaction.
type UpdateSchoolRequest struct {
	Name        string  `json:"name" validate:"required,min=2"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Status      string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	FoundedDate *string `json:"founded_date,omitempty"`
	Level       *string `json:"level,omitempty"`
	PrincipalID *string `json:"principal_id,omitempty"`
}

// CreateAccountRequest registers a user account together with its role
// profile. SchoolID is required for principal, teacher and student roles.
type CreateAccountRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=6"`
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name" validate:"required"`
	Role      UserRole `json:"role" validate:"required"`
	Phone     *string  `json:"phone,omitempty"`
	Address   *string  `json:"address,omitempty"`
	SchoolID  *string  `json:"school_id,omitempty"`
}

// UpdateProfileRequest modifies the mutable fields of a user profile.
type UpdateProfileRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

// ScheduleInput is one schedule slot inside a class payload.
type ScheduleInput struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	DayOfWeek string `json:"day_of_week" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// CreateClassRequest creates a class with its schedule slots in one
// transaction. Teacher assignments are derived from the schedules.
type CreateClassRequest struct {
	SchoolID     string          `json:"school_id" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	AcademicYear string          `json:"academic_year" validate:"required"`
	StartTime    *string         `json:"start_time,omitempty"`
	EndTime      *string         `json:"end_time,omitempty"`
	StartDate    *string         `json:"start_date,omitempty"`
	EndDate      *string         `json:"end_date,omitempty"`
	Schedules    []ScheduleInput `json:"schedules" validate:"dive"`
}

// UpdateClassRequest replaces class fields and, when Schedules is non-nil,
// replaces the full schedule set.
type UpdateClassRequest struct {
	Name         string          `json:"name" validate:"required"`
	AcademicYear string          `json:"academic_year" validate:"required"`
	StartTime    *string         `json:"start_time,omitempty"`
	EndTime      *string         `json:"end_time,omitempty"`
	StartDate    *string         `json:"start_date,omitempty"`
	EndDate      *string         `json:"end_date,omitempty"`
	Schedules    []ScheduleInput `json:"schedules,omitempty" validate:"omitempty,dive"`
}

// EnrollStudentsRequest adds students to a class.
type EnrollStudentsRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
}

// CreateSubjectRequest registers a subject in a school.
type CreateSubjectRequest struct {
	SchoolID string `json:"school_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

// UpdateSubjectRequest modifies an existing subject.
type UpdateSubjectRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
}

// AttendanceEntry is one student's attendance line in a bulk submission.
type AttendanceEntry struct {
	StudentID string           `json:"student_id" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required"`
	Remarks   *string          `json:"remarks,omitempty"`
}

// BulkAttendanceRequest records attendance for a class on a date in a
// single write.
type BulkAttendanceRequest struct {
	ClassID string            `json:"class_id" validate:"required"`
	Date    string            `json:"date" validate:"required"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// ScoreEntry is one student's score line in a bulk submission.
type ScoreEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Value     float64 `json:"value" validate:"min=0"`
	Remarks   *string `json:"remarks,omitempty"`
}

// BulkScoreRequest records scores for one class, subject and assessment
// in a single write.
type BulkScoreRequest struct {
	ClassID        string         `json:"class_id" validate:"required"`
	SubjectID      string         `json:"subject_id" validate:"required"`
	AssessmentType AssessmentType `json:"assessment_type" validate:"required"`
	DateRecorded   string         `json:"date_recorded" validate:"required"`
	Entries        []ScoreEntry   `json:"entries" validate:"required,min=1,dive"`
}

// ResultEntry is one student's line in a bulk result publication.
type ResultEntry struct {
	StudentID  string  `json:"student_id" validate:"required"`
	FinalScore float64 `json:"final_score" validate:"min=0"`
	Rank       *int    `json:"rank,omitempty"`
	Remarks    *string `json:"remarks,omitempty"`
}

// PublishResultsRequest finalizes period results for a whole class and
// subject in one write.
type PublishResultsRequest struct {
	ClassID        string        `json:"class_id" validate:"required"`
	SubjectID      string        `json:"subject_id" validate:"required"`
	AcademicPeriod string        `json:"academic_period" validate:"required"`
	Entries        []ResultEntry `json:"entries" validate:"required,min=1,dive"`
}

// UpsertAcademicResultRequest finalizes a period result for a student.
type UpsertAcademicResultRequest struct {
	StudentID      string  `json:"student_id" validate:"required"`
	ClassID        string  `json:"class_id" validate:"required"`
	SubjectID      string  `json:"subject_id" validate:"required"`
	AcademicPeriod string  `json:"academic_period" validate:"required"`
	FinalScore     float64 `json:"final_score" validate:"min=0"`
	Rank           *int    `json:"rank,omitempty"`
	Remarks        *string `json:"remarks,omitempty"`
}

// CreateEventRequest schedules a school event.
type CreateEventRequest struct {
	SchoolID    string  `json:"school_id" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	StartAt     string  `json:"start_at" validate:"required"`
	EndAt       string  `json:"end_at" validate:"required"`
}

// UpdateEventRequest modifies an existing event.
type UpdateEventRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	StartAt     string  `json:"start_at" validate:"required"`
	EndAt       string  `json:"end_at" validate:"required"`
}
