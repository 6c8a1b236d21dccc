package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/salaedu/sala-api/internal/models"
	"github.com/salaedu/sala-api/pkg/config"
	"github.com/salaedu/sala-api/pkg/database"
	appErrors "github.com/salaedu/sala-api/pkg/errors"
)

type academicResultRepository interface {
	List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.AcademicResultDetail, int, error)
	Upsert(ctx context.Context, result *models.AcademicResult) error
	BulkPublish(ctx context.Context, results []models.AcademicResult) (int64, error)
	SchoolID(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

type resultClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	EnrolledStudentIDs(ctx context.Context, classID string, studentIDs []string) ([]string, error)
}

// AcademicResultService finalizes period results. The grade classification
// is derived from the configured bands, never taken from the caller.
type AcademicResultService struct {
	repo      academicResultRepository
	classes   resultClassRepository
	validator *validator.Validate
	logger    *zap.Logger
	grading   config.GradingConfig
}

// NewAcademicResultService constructs an AcademicResultService.
func NewAcademicResultService(repo academicResultRepository, classes resultClassRepository, validate *validator.Validate, logger *zap.Logger, grading config.GradingConfig) *AcademicResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AcademicResultService{repo: repo, classes: classes, validator: validate, logger: logger, grading: grading}
}

// List returns result details visible to the caller.
func (s *AcademicResultService) List(ctx context.Context, params url.Values, scope *models.Scope) ([]models.AcademicResultDetail, int, error) {
	if scope != nil && scope.Restricted && scope.SchoolID == nil {
		return []models.AcademicResultDetail{}, 0, nil
	}
	results, total, err := s.repo.List(ctx, params, scope)
	if err != nil {
		return nil, 0, database.TranslateError(err)
	}
	return results, total, nil
}

// Upsert finalizes a result, overwriting an earlier result for the same
// (student, class, subject, period) key.
func (s *AcademicResultService) Upsert(ctx context.Context, req models.UpsertAcademicResultRequest) (*models.AcademicResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	max := s.grading.MaxScore
	if max <= 0 {
		max = 10
	}
	if req.FinalScore < 0 || req.FinalScore > max {
		return nil, appErrors.Clone(appErrors.ErrValidation, "final score is outside the configured scale")
	}

	result := &models.AcademicResult{
		StudentID:      req.StudentID,
		ClassID:        req.ClassID,
		SubjectID:      req.SubjectID,
		AcademicPeriod: req.AcademicPeriod,
		FinalScore:     req.FinalScore,
		Grade:          gradeFor(req.FinalScore, s.grading),
		Rank:           req.Rank,
		Remarks:        req.Remarks,
	}
	if err := s.repo.Upsert(ctx, result); err != nil {
		return nil, database.TranslateError(err)
	}

	s.logger.Info("academic result finalized",
		zap.String("student_id", req.StudentID),
		zap.String("academic_period", req.AcademicPeriod))
	return result, nil
}

// Publish finalizes results for a whole class and subject in one write.
// The batch is validated in full before any row is written: one score out
// of range or one unenrolled student rejects the whole batch.
func (s *AcademicResultService) Publish(ctx context.Context, req models.PublishResultsRequest, scope *models.Scope) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid results payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return 0, database.TranslateError(err)
	}
	if scope != nil && !scope.Allows(class.SchoolID) {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "class is outside your scope")
	}

	max := s.grading.MaxScore
	if max <= 0 {
		max = 10
	}
	studentIDs := make([]string, 0, len(req.Entries))
	for i, entry := range req.Entries {
		if entry.FinalScore < 0 || entry.FinalScore > max {
			return 0, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("entry %d final score %.2f is outside [0, %.0f]", i, entry.FinalScore, max)),
				map[string]interface{}{"student_id": entry.StudentID})
		}
		studentIDs = append(studentIDs, entry.StudentID)
	}

	enrolled, err := s.classes.EnrolledStudentIDs(ctx, req.ClassID, studentIDs)
	if err != nil {
		return 0, database.TranslateError(err)
	}
	enrolledSet := make(map[string]struct{}, len(enrolled))
	for _, id := range enrolled {
		enrolledSet[id] = struct{}{}
	}
	var missing []string
	for _, id := range studentIDs {
		if _, ok := enrolledSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return 0, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "some students are not enrolled in this class"),
			map[string]interface{}{"student_ids": missing})
	}

	results := make([]models.AcademicResult, 0, len(req.Entries))
	for _, entry := range req.Entries {
		results = append(results, models.AcademicResult{
			StudentID:      entry.StudentID,
			ClassID:        req.ClassID,
			SubjectID:      req.SubjectID,
			AcademicPeriod: req.AcademicPeriod,
			FinalScore:     entry.FinalScore,
			Grade:          gradeFor(entry.FinalScore, s.grading),
			Rank:           entry.Rank,
			Remarks:        entry.Remarks,
		})
	}

	affected, err := s.repo.BulkPublish(ctx, results)
	if err != nil {
		return 0, database.TranslateError(err)
	}

	s.logger.Info("academic results published",
		zap.String("class_id", req.ClassID),
		zap.String("subject_id", req.SubjectID),
		zap.String("academic_period", req.AcademicPeriod),
		zap.Int64("rows", affected))
	return affected, nil
}

// Delete removes a finalized result. Restricted callers can only delete
// results of classes in their own school.
func (s *AcademicResultService) Delete(ctx context.Context, id string, scope *models.Scope) error {
	schoolID, err := s.repo.SchoolID(ctx, id)
	if err != nil {
		return database.TranslateError(err)
	}
	if scope != nil && !scope.Allows(schoolID) {
		return appErrors.Clone(appErrors.ErrForbidden, "result is outside your scope")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return database.TranslateError(err)
	}
	return nil
}
