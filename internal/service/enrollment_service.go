package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/repository"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	ExistsTriple(ctx context.Context, studentID, careerSubjectID int64, periodID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	UpdateState(ctx context.Context, id int64, state models.EnrollmentState) error
	Delete(ctx context.Context, id int64) error
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type enrollmentCareerSubjectReader interface {
	FindByID(ctx context.Context, id int64) (*models.CareerSubject, error)
}

type enrollmentPeriodReader interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
}

type submissionLogRecorder interface {
	Create(ctx context.Context, log *models.SubmissionLog) error
}

// EnrollmentService implements the preregistration ledger: creation with the
// one-row-per-triple invariant, forward-only state transitions, and the
// audit hook on administrative mutations.
type EnrollmentService struct {
	enrollments    enrollmentRepository
	students       enrollmentStudentReader
	careerSubjects enrollmentCareerSubjectReader
	periods        enrollmentPeriodReader
	admins         authAdminRepository
	logs           submissionLogRecorder
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(
	enrollments enrollmentRepository,
	students enrollmentStudentReader,
	careerSubjects enrollmentCareerSubjectReader,
	periods enrollmentPeriodReader,
	admins authAdminRepository,
	logs submissionLogRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments:    enrollments,
		students:       students,
		careerSubjects: careerSubjects,
		periods:        periods,
		admins:         admins,
		logs:           logs,
		validator:      validate,
		logger:         logger,
	}
}

// List returns enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	if filter.State != "" && !filter.State.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment state filter")
	}

	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if enrollments == nil {
		enrollments = []models.Enrollment{}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single enrollment by id.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch enrollment")
	}
	return enrollment, nil
}

// Create registers a preregistration for the (student, career subject,
// period) triple. The existence pre-check keeps the common duplicate path
// cheap; the unique constraint decides under concurrency, so a constraint
// violation from the insert is translated to the same duplicate error.
func (s *EnrollmentService) Create(ctx context.Context, claims *models.Claims, req models.CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	state := req.State
	if state == "" {
		state = models.EnrollmentStateDraft
	}
	if !state.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment state")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
	}
	if _, err := s.careerSubjects.FindByID(ctx, req.CareerSubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "career subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check career subject")
	}
	if _, err := s.periods.FindByID(ctx, req.PeriodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period")
	}

	exists, err := s.enrollments.ExistsTriple(ctx, req.StudentID, req.CareerSubjectID, req.PeriodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.ErrDuplicateEnrollment
	}

	enrollment := &models.Enrollment{
		StudentID:       req.StudentID,
		CareerSubjectID: req.CareerSubjectID,
		PeriodID:        req.PeriodID,
		State:           state,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintEnrollmentTriple) {
			return nil, appErrors.ErrDuplicateEnrollment
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	if err := s.audit(ctx, claims, enrollment, models.SubmissionActionCreate, nil, changeSet(nil, enrollment)); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Update applies a partial update. State changes must follow the forward-only
// transition table.
func (s *EnrollmentService) Update(ctx context.Context, claims *models.Claims, id int64, req models.UpdateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *current

	if req.StudentID != nil {
		if _, err := s.students.FindByID(ctx, *req.StudentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student")
		}
		current.StudentID = *req.StudentID
	}
	if req.CareerSubjectID != nil {
		if _, err := s.careerSubjects.FindByID(ctx, *req.CareerSubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "career subject not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check career subject")
		}
		current.CareerSubjectID = *req.CareerSubjectID
	}
	if req.PeriodID != nil {
		if _, err := s.periods.FindByID(ctx, *req.PeriodID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period")
		}
		current.PeriodID = *req.PeriodID
	}
	if req.State != nil {
		if !req.State.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment state")
		}
		if !before.State.CanTransitionTo(*req.State) {
			return nil, appErrors.Clone(appErrors.ErrIllegalTransition,
				"illegal enrollment state transition: "+string(before.State)+" -> "+string(*req.State))
		}
		current.State = *req.State
	}

	if err := s.enrollments.Update(ctx, current); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintEnrollmentTriple) {
			return nil, appErrors.ErrDuplicateEnrollment
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	if err := s.audit(ctx, claims, current, models.SubmissionActionUpdate, req.Reason, changeSet(&before, current)); err != nil {
		return nil, err
	}
	return current, nil
}

// Confirm transitions an enrollment to CONFIRMED.
func (s *EnrollmentService) Confirm(ctx context.Context, claims *models.Claims, id int64, req models.EnrollmentStateRequest) (*models.Enrollment, error) {
	return s.transition(ctx, claims, id, models.EnrollmentStateConfirmed, models.SubmissionActionConfirm, req.Reason)
}

// Block transitions an enrollment to BLOCKED.
func (s *EnrollmentService) Block(ctx context.Context, claims *models.Claims, id int64, req models.EnrollmentStateRequest) (*models.Enrollment, error) {
	return s.transition(ctx, claims, id, models.EnrollmentStateBlocked, models.SubmissionActionBlock, req.Reason)
}

func (s *EnrollmentService) transition(ctx context.Context, claims *models.Claims, id int64, target models.EnrollmentState, action models.SubmissionAction, reason *string) (*models.Enrollment, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *current

	if !current.State.CanTransitionTo(target) {
		return nil, appErrors.Clone(appErrors.ErrIllegalTransition,
			"illegal enrollment state transition: "+string(current.State)+" -> "+string(target))
	}

	if err := s.enrollments.UpdateState(ctx, id, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment state")
	}
	current.State = target

	if err := s.audit(ctx, claims, current, action, reason, changeSet(&before, current)); err != nil {
		return nil, err
	}
	return current, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, claims *models.Claims, id int64) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.enrollments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}

	return s.audit(ctx, claims, current, models.SubmissionActionDelete, nil, changeSet(current, nil))
}

// audit records an administrative mutation in the submission log. Student
// self-service actions are not audited. Failure to append is surfaced, not
// swallowed: the mutation has already been applied, so the caller learns the
// trail is incomplete.
func (s *EnrollmentService) audit(ctx context.Context, claims *models.Claims, enrollment *models.Enrollment, action models.SubmissionAction, reason *string, changes json.RawMessage) error {
	if claims == nil || !claims.Roles.Has(models.RoleAdmin) {
		return nil
	}

	actor, err := s.admins.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve audit actor")
	}

	studentID := enrollment.StudentID
	entry := &models.SubmissionLog{
		ActorAdminID: actor.ID,
		StudentID:    &studentID,
		Entity:       models.SubmissionLogEntityEnrollments,
		EntityID:     strconv.FormatInt(enrollment.ID, 10),
		Action:       action,
		Reason:       reason,
		Changes:      changes,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Error("audit append failed",
			zap.String("action", string(action)),
			zap.Int64("enrollment_id", enrollment.ID),
			zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit entry")
	}
	return nil
}

// changeSet builds the before/after JSON document stored with an audit
// entry. Nil sides are omitted.
func changeSet(from, to *models.Enrollment) json.RawMessage {
	doc := map[string]interface{}{}
	if from != nil {
		doc["from"] = from
	}
	if to != nil {
		doc["to"] = to
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	return raw
}
