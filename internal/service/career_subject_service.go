package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/repository"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
)

type careerSubjectRepository interface {
	FindByID(ctx context.Context, id int64) (*models.CareerSubject, error)
	ListByCareer(ctx context.Context, careerID string) ([]models.CareerSubject, error)
	List(ctx context.Context) ([]models.CareerSubject, error)
	Create(ctx context.Context, cs *models.CareerSubject) error
	Delete(ctx context.Context, id int64) error
}

// CareerSubjectService manages curriculum slots, the rows enrollments point
// at. The (career, subject, semester) triple is unique.
type CareerSubjectService struct {
	slots     careerSubjectRepository
	careers   authCareerReader
	subjects  enrollmentSubjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

type enrollmentSubjectReader interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

// NewCareerSubjectService constructs a CareerSubjectService.
func NewCareerSubjectService(slots careerSubjectRepository, careers authCareerReader, subjects enrollmentSubjectReader, validate *validator.Validate, logger *zap.Logger) *CareerSubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CareerSubjectService{slots: slots, careers: careers, subjects: subjects, validator: validate, logger: logger}
}

// Get returns one curriculum slot.
func (s *CareerSubjectService) Get(ctx context.Context, id int64) (*models.CareerSubject, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "career subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch career subject")
	}
	return slot, nil
}

// List returns curriculum slots, optionally narrowed to a career.
func (s *CareerSubjectService) List(ctx context.Context, careerID string) ([]models.CareerSubject, error) {
	var (
		slots []models.CareerSubject
		err   error
	)
	if careerID != "" {
		slots, err = s.slots.ListByCareer(ctx, careerID)
	} else {
		slots, err = s.slots.List(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list career subjects")
	}
	if slots == nil {
		slots = []models.CareerSubject{}
	}
	return slots, nil
}

// Create binds a subject into a career's curriculum at a semester. Both
// references must exist, and the triple must be new.
func (s *CareerSubjectService) Create(ctx context.Context, slot *models.CareerSubject) error {
	if err := s.validator.Struct(slot); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid career subject payload")
	}

	if _, err := s.careers.FindByID(ctx, slot.CareerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "referenced career does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check career")
	}
	if _, err := s.subjects.FindByID(ctx, slot.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "referenced subject does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintCurriculumSlot) {
			return appErrors.Clone(appErrors.ErrDuplicate, "curriculum slot already exists for (career, subject, semester)")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create career subject")
	}
	return nil
}

// Delete removes a curriculum slot.
func (s *CareerSubjectService) Delete(ctx context.Context, id int64) error {
	if err := s.slots.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "career subject not found")
		}
		if repository.IsForeignKeyViolation(err, "") {
			return appErrors.Clone(appErrors.ErrValidation, "career subject is referenced by enrollments")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete career subject")
	}
	return nil
}
