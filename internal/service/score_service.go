package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/config"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
	"github.com/salaedu/sala-api/pkg/export"
	"github.com/salaedu/sala-api/pkg/jobs"
)

type scoreRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ScoreRecord, int, error)
	BulkRecord(ctx context.Context, scores []models.Score) (int64, error)
	FindOwner(ctx context.Context, id string) (*models.ScoreOwner, error)
	Delete(ctx context.Context, id string) (string, error)
	SubjectAverages(ctx context.Context, studentID string) ([]models.SubjectAverage, error)
	ClassStandings(ctx context.Context, classID string) ([]models.StudentStanding, error)
	SchoolStandings(ctx context.Context, schoolID string) ([]models.StudentStanding, error)
}

type scoreStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type scoreClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type scoreCacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type scoreNotificationRepository interface {
	CreateMany(ctx context.Context, userIDs []string, typ models.NotificationType, title, message string) error
}

type reportWarmQueue interface {
	Enqueue(job jobs.Job) error
}

// ScoreService records assessment scores and builds per-student reports.
// Reports are cached in Redis; a bulk write invalidates the affected
// reports and queues background warming so the next read is already hot.
type ScoreService struct {
	repo          scoreRepository
	students      scoreStudentRepository
	classes       scoreClassRepository
	cache         scoreCacheRepository
	notifications scoreNotificationRepository
	warmQueue     reportWarmQueue
	exportCSV     *export.CSVExporter
	exportPDF     *export.PDFExporter
	validator     *validator.Validate
	logger        *zap.Logger
	grading       config.GradingConfig
	cacheTTL      time.Duration
	maxValue      float64
}

// NewScoreService constructs a ScoreService.
func NewScoreService(repo scoreRepository, students scoreStudentRepository, classes scoreClassRepository, cache scoreCacheRepository, notifications scoreNotificationRepository, warmQueue reportWarmQueue, validate *validator.Validate, logger *zap.Logger, grading config.GradingConfig, cacheTTL time.Duration) *ScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	maxValue := grading.MaxScore
	if maxValue <= 0 {
		maxValue = 10
	}
	return &ScoreService{
		repo:          repo,
		students:      students,
		classes:       classes,
		cache:         cache,
		notifications: notifications,
		warmQueue:     warmQueue,
		exportCSV:     export.NewCSVExporter(),
		exportPDF:     export.NewPDFExporter(),
		validator:     validate,
		logger:        logger,
		grading:       grading,
		cacheTTL:      cacheTTL,
		maxValue:      maxValue,
	}
}

func reportCacheKey(studentID string) string {
	return "report:student:" + studentID
}

// List returns score records visible to the caller.
func (s *ScoreService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.ScoreRecord, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.ScoreRecord{}, 0, nil
	}
	scores, total, err := s.repo.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return scores, total, nil
}

// BulkRecord writes a batch of scores for one subject and assessment in a
// single statement, notifies the affected students and schedules report
// cache warming.
func (s *ScoreService) BulkRecord(ctx context.Context, req models.BulkScoreRequest, teacherID string) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if !req.AssessmentType.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("unsupported assessment type %q", req.AssessmentType))
	}
	for i, entry := range req.Entries {
		if entry.Value < 0 || entry.Value > s.maxValue {
			return 0, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("entry %d value %.2f is outside [0, %.0f]", i, entry.Value, s.maxValue)),
				map[string]interface{}{"student_id": entry.StudentID})
		}
	}

	scores := make([]models.Score, 0, len(req.Entries))
	for _, entry := range req.Entries {
		scores = append(scores, models.Score{
			StudentID:      entry.StudentID,
			ClassID:        req.ClassID,
			SubjectID:      req.SubjectID,
			TeacherID:      teacherID,
			Value:          entry.Value,
			AssessmentType: req.AssessmentType,
			DateRecorded:   req.DateRecorded,
			Remarks:        entry.Remarks,
		})
	}

	affected, err := s.repo.BulkRecord(ctx, scores)
	if err != nil {
		return 0, database.TranslateError(err)
	}

	s.afterBulkWrite(ctx, req)

	s.logger.Info("scores recorded",
		zap.String("class_id", req.ClassID),
		zap.String("subject_id", req.SubjectID),
		zap.String("assessment_type", string(req.AssessmentType)),
		zap.Int64("rows", affected))
	return affected, nil
}

// Delete removes one score and invalidates the owning student's cached
// report so the next read rebuilds it without the deleted row. Restricted
// callers can only delete scores of students in their own school.
func (s *ScoreService) Delete(ctx context.Context, id string, scope *models.Scope) error {
	owner, err := s.repo.FindOwner(ctx, id)
	if err != nil {
		return database.TranslateError(err)
	}
	if scope != nil && scope.Restricted {
		if owner.SchoolID == nil || !scope.Allows(*owner.SchoolID) {
			return appErrors.Clone(appErrors.ErrForbidden, "score is outside your scope")
		}
	}
	studentID, err := s.repo.Delete(ctx, id)
	if err != nil {
		return database.TranslateError(err)
	}
	if err := s.cache.Delete(ctx, reportCacheKey(studentID)); err != nil {
		s.logger.Warn("failed to invalidate report cache",
			zap.String("student_id", studentID), zap.Error(err))
	}
	s.logger.Info("score deleted", zap.String("score_id", id), zap.String("student_id", studentID))
	return nil
}

// afterBulkWrite invalidates stale report caches, queues re-warming and
// notifies students. All of it is best effort: the scores are already
// committed.
func (s *ScoreService) afterBulkWrite(ctx context.Context, req models.BulkScoreRequest) {
	userIDs := make([]string, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if err := s.cache.Delete(ctx, reportCacheKey(entry.StudentID)); err != nil {
			s.logger.Warn("failed to invalidate report cache",
				zap.String("student_id", entry.StudentID), zap.Error(err))
		}
		if s.warmQueue != nil {
			job := jobs.Job{ID: uuid.NewString(), Type: "warm_student_report", Payload: entry.StudentID}
			if err := s.warmQueue.Enqueue(job); err != nil {
				s.logger.Warn("failed to queue report warming",
					zap.String("student_id", entry.StudentID), zap.Error(err))
			}
		}
		student, err := s.students.FindByID(ctx, entry.StudentID)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, student.UserID)
	}
	if len(userIDs) > 0 {
		if err := s.notifications.CreateMany(ctx, userIDs, models.NotificationScorePublished,
			"New scores published", "New assessment scores have been published"); err != nil {
			s.logger.Warn("failed to notify students about scores", zap.Error(err))
		}
	}
}

// Report builds a student's score report with per-subject averages and
// grade classifications, served from cache when warm.
func (s *ScoreService) Report(ctx context.Context, studentID string, scope *models.Scope) (*models.StudentReport, error) {
	var cached models.StudentReport
	if err := s.cache.Get(ctx, reportCacheKey(studentID), &cached); err == nil {
		return &cached, nil
	} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.String("student_id", studentID), zap.Error(err))
	}

	report, err := s.buildReport(ctx, studentID, scope)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, reportCacheKey(studentID), report, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("student_id", studentID), zap.Error(err))
	}
	return report, nil
}

// WarmReport rebuilds and caches a student's report. Used by the background
// warm queue after bulk score writes.
func (s *ScoreService) WarmReport(ctx context.Context, studentID string) error {
	report, err := s.buildReport(ctx, studentID, nil)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, reportCacheKey(studentID), report, s.cacheTTL)
}

func (s *ScoreService) buildReport(ctx context.Context, studentID string, scope *models.Scope) (*models.StudentReport, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	if scope != nil && scope.Restricted {
		if student.SchoolID == nil || !scope.Allows(*student.SchoolID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "student is outside your scope")
		}
	}

	averages, err := s.repo.SubjectAverages(ctx, studentID)
	if err != nil {
		return nil, database.TranslateError(err)
	}

	var weighted float64
	var count int
	for i := range averages {
		averages[i].Grade = gradeFor(averages[i].Average, s.grading)
		weighted += averages[i].Average * float64(averages[i].ScoreCount)
		count += averages[i].ScoreCount
	}
	var overall float64
	if count > 0 {
		overall = weighted / float64(count)
	}

	return &models.StudentReport{
		StudentID:    studentID,
		StudentName:  student.FirstName + " " + student.LastName,
		Subjects:     averages,
		Overall:      overall,
		OverallGrade: gradeFor(overall, s.grading),
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// Standings builds the ranked report for a class or a whole school:
// per-student overall averages, grade classifications, pass status and
// competition ranks. Exactly one of classID or schoolID selects the group.
func (s *ScoreService) Standings(ctx context.Context, classID, schoolID string, scope *models.Scope) (*models.StandingsReport, error) {
	if classID == "" && schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "either class_id or school_id is required")
	}

	report := &models.StandingsReport{GeneratedAt: time.Now().UTC()}
	var standings []models.StudentStanding
	if classID != "" {
		class, err := s.classes.FindByID(ctx, classID)
		if err != nil {
			return nil, database.TranslateError(err)
		}
		if scope != nil && !scope.Allows(class.SchoolID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "class is outside your scope")
		}
		report.ClassID = class.ID
		report.ClassName = class.Name
		if standings, err = s.repo.ClassStandings(ctx, classID); err != nil {
			return nil, database.TranslateError(err)
		}
	} else {
		if scope != nil && !scope.Allows(schoolID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "school is outside your scope")
		}
		report.SchoolID = schoolID
		var err error
		if standings, err = s.repo.SchoolStandings(ctx, schoolID); err != nil {
			return nil, database.TranslateError(err)
		}
	}

	rankStandings(standings)

	passMark := s.maxValue / 2
	stats := models.StandingsStats{
		TotalStudents:     len(standings),
		GradeDistribution: map[string]int{},
	}
	var sum float64
	for i := range standings {
		st := &standings[i]
		if st.ScoreCount == 0 {
			continue
		}
		st.Grade = gradeFor(st.Average, s.grading)
		st.Passed = st.Average >= passMark
		stats.Scored++
		sum += st.Average
		if st.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
		stats.GradeDistribution[st.Grade]++
	}
	if stats.Scored > 0 {
		stats.AverageScore = sum / float64(stats.Scored)
	}

	report.Standings = standings
	report.Stats = stats
	return report, nil
}

// rankStandings orders students best first and assigns competition ranks:
// equal averages share a rank and the next distinct average resumes at its
// list position. Students without scores sort last and keep rank 0.
func rankStandings(standings []models.StudentStanding) {
	sort.SliceStable(standings, func(i, j int) bool {
		if (standings[i].ScoreCount == 0) != (standings[j].ScoreCount == 0) {
			return standings[j].ScoreCount == 0
		}
		return standings[i].Average > standings[j].Average
	})
	rank := 0
	for i := range standings {
		if standings[i].ScoreCount == 0 {
			standings[i].Rank = 0
			continue
		}
		if i == 0 || standings[i].Average < standings[i-1].Average {
			rank = i + 1
		}
		standings[i].Rank = rank
	}
}

// ExportReport renders a student report as CSV or PDF.
func (s *ScoreService) ExportReport(ctx context.Context, studentID, format string, scope *models.Scope) ([]byte, string, error) {
	report, err := s.Report(ctx, studentID, scope)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Subject", "Average", "Scores", "Grade"},
	}
	for _, subject := range report.Subjects {
		dataset.Rows = append(dataset.Rows, []string{
			subject.SubjectName,
			strconv.FormatFloat(subject.Average, 'f', 2, 64),
			strconv.Itoa(subject.ScoreCount),
			subject.Grade,
		})
	}
	dataset.Rows = append(dataset.Rows, []string{
		"Overall",
		strconv.FormatFloat(report.Overall, 'f', 2, 64),
		strconv.Itoa(len(report.Subjects)),
		report.OverallGrade,
	})

	switch format {
	case "csv", "":
		payload, err := s.exportCSV.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.exportPDF.Render(dataset, "Score report: "+report.StudentName)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
