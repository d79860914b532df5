package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/repository"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
)

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type careerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Career, error)
	List(ctx context.Context) ([]models.Career, error)
	Create(ctx context.Context, career *models.Career) error
	Update(ctx context.Context, career *models.Career) error
	Delete(ctx context.Context, id string) error
}

type subjectRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	List(ctx context.Context) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id int64) error
}

type periodRepository interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
	List(ctx context.Context) ([]models.Period, error)
	Create(ctx context.Context, period *models.Period) error
	Update(ctx context.Context, period *models.Period) error
	Delete(ctx context.Context, id string) error
}

// CatalogService manages the reference data enrollments hang off: careers,
// subjects and periods. List reads go through the catalog cache; every write
// invalidates the affected keys.
type CatalogService struct {
	careers   careerRepository
	subjects  subjectRepository
	periods   periodRepository
	cache     catalogCache
	metrics   *MetricsService
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(careers careerRepository, subjects subjectRepository, periods periodRepository, cache catalogCache, metrics *MetricsService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogService{careers: careers, subjects: subjects, periods: periods, cache: cache, metrics: metrics, ttl: ttl, validator: validate, logger: logger}
}

const (
	cacheKeyCareers  = "catalog:careers"
	cacheKeySubjects = "catalog:subjects"
	cacheKeyPeriods  = "catalog:periods"
)

// invalidate drops cached catalog entries after a write. Cache errors are
// logged and swallowed; the database remains authoritative.
func (s *CatalogService) invalidate(ctx context.Context, pattern string) {
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// ListCareers returns all careers, served from cache when warm.
func (s *CatalogService) ListCareers(ctx context.Context) ([]models.Career, error) {
	var cached []models.Career
	if err := s.cache.Get(ctx, cacheKeyCareers, &cached); err == nil {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	}
	s.metrics.RecordCacheLookup(false)

	careers, err := s.careers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list careers")
	}
	if careers == nil {
		careers = []models.Career{}
	}
	if err := s.cache.Set(ctx, cacheKeyCareers, careers, s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", cacheKeyCareers), zap.Error(err))
	}
	return careers, nil
}

// GetCareer returns one career by code.
func (s *CatalogService) GetCareer(ctx context.Context, id string) (*models.Career, error) {
	career, err := s.careers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "career not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch career")
	}
	return career, nil
}

// CreateCareer adds a career to the catalog.
func (s *CatalogService) CreateCareer(ctx context.Context, career *models.Career) error {
	if err := s.validator.Struct(career); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid career payload")
	}
	if err := s.careers.Create(ctx, career); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return appErrors.Clone(appErrors.ErrDuplicate, "career code already exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create career")
	}
	s.invalidate(ctx, cacheKeyCareers+"*")
	return nil
}

// UpdateCareer renames a career.
func (s *CatalogService) UpdateCareer(ctx context.Context, career *models.Career) error {
	if err := s.validator.Struct(career); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid career payload")
	}
	if _, err := s.GetCareer(ctx, career.ID); err != nil {
		return err
	}
	if err := s.careers.Update(ctx, career); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update career")
	}
	s.invalidate(ctx, cacheKeyCareers+"*")
	return nil
}

// DeleteCareer removes a career.
func (s *CatalogService) DeleteCareer(ctx context.Context, id string) error {
	if err := s.careers.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "career not found")
		}
		if repository.IsForeignKeyViolation(err, "") {
			return appErrors.Clone(appErrors.ErrValidation, "career is referenced by curriculum or students")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete career")
	}
	s.invalidate(ctx, cacheKeyCareers+"*")
	return nil
}

// ListSubjects returns all subjects, served from cache when warm.
func (s *CatalogService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var cached []models.Subject
	if err := s.cache.Get(ctx, cacheKeySubjects, &cached); err == nil {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	}
	s.metrics.RecordCacheLookup(false)

	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	if err := s.cache.Set(ctx, cacheKeySubjects, subjects, s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", cacheKeySubjects), zap.Error(err))
	}
	return subjects, nil
}

// GetSubject returns one subject by id.
func (s *CatalogService) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch subject")
	}
	return subject, nil
}

// CreateSubject adds a subject to the catalog.
func (s *CatalogService) CreateSubject(ctx context.Context, subject *models.Subject) error {
	if err := s.validator.Struct(subject); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return appErrors.Clone(appErrors.ErrDuplicate, "subject id already exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.invalidate(ctx, cacheKeySubjects+"*")
	return nil
}

// UpdateSubject renames a subject.
func (s *CatalogService) UpdateSubject(ctx context.Context, subject *models.Subject) error {
	if err := s.validator.Struct(subject); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if _, err := s.GetSubject(ctx, subject.ID); err != nil {
		return err
	}
	if err := s.subjects.Update(ctx, subject); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	s.invalidate(ctx, cacheKeySubjects+"*")
	return nil
}

// DeleteSubject removes a subject.
func (s *CatalogService) DeleteSubject(ctx context.Context, id int64) error {
	if err := s.subjects.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		if repository.IsForeignKeyViolation(err, "") {
			return appErrors.Clone(appErrors.ErrValidation, "subject is referenced by curriculum")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.invalidate(ctx, cacheKeySubjects+"*")
	return nil
}

// ListPeriods returns all periods, served from cache when warm.
func (s *CatalogService) ListPeriods(ctx context.Context) ([]models.Period, error) {
	var cached []models.Period
	if err := s.cache.Get(ctx, cacheKeyPeriods, &cached); err == nil {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	}
	s.metrics.RecordCacheLookup(false)

	periods, err := s.periods.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	if periods == nil {
		periods = []models.Period{}
	}
	if err := s.cache.Set(ctx, cacheKeyPeriods, periods, s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", cacheKeyPeriods), zap.Error(err))
	}
	return periods, nil
}

// GetPeriod returns one period by id.
func (s *CatalogService) GetPeriod(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.periods.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch period")
	}
	return period, nil
}

// CreatePeriod adds an academic term.
func (s *CatalogService) CreatePeriod(ctx context.Context, period *models.Period) error {
	if err := s.validator.Struct(period); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if !period.EndDate.After(period.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "period end date must be after start date")
	}
	if err := s.periods.Create(ctx, period); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return appErrors.Clone(appErrors.ErrDuplicate, "period id already exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	s.invalidate(ctx, cacheKeyPeriods+"*")
	return nil
}

// UpdatePeriod edits an academic term.
func (s *CatalogService) UpdatePeriod(ctx context.Context, period *models.Period) error {
	if err := s.validator.Struct(period); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if !period.EndDate.After(period.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "period end date must be after start date")
	}
	if _, err := s.GetPeriod(ctx, period.ID); err != nil {
		return err
	}
	if err := s.periods.Update(ctx, period); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period")
	}
	s.invalidate(ctx, cacheKeyPeriods+"*")
	return nil
}

// DeletePeriod removes an academic term.
func (s *CatalogService) DeletePeriod(ctx context.Context, id string) error {
	if err := s.periods.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		if repository.IsForeignKeyViolation(err, "") {
			return appErrors.Clone(appErrors.ErrValidation, "period is referenced by enrollments")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete period")
	}
	s.invalidate(ctx, cacheKeyPeriods+"*")
	return nil
}
