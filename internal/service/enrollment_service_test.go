package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/repository"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[int64]models.Enrollment
	nextID      int64
	createErr   error
	states      map[int64]models.EnrollmentState
	deleted     []int64
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	var out []models.Enrollment
	for _, e := range m.enrollments {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsTriple(ctx context.Context, studentID, careerSubjectID int64, periodID string) (bool, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CareerSubjectID == careerSubjectID && e.PeriodID == periodID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.enrollments == nil {
		m.enrollments = make(map[int64]models.Enrollment)
	}
	m.nextID++
	enrollment.ID = m.nextID
	enrollment.CreatedAt = time.Now().UTC()
	enrollment.UpdatedAt = enrollment.CreatedAt
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateState(ctx context.Context, id int64, state models.EnrollmentState) error {
	if m.states == nil {
		m.states = make(map[int64]models.EnrollmentState)
	}
	m.states[id] = state
	if e, ok := m.enrollments[id]; ok {
		e.State = state
		m.enrollments[id] = e
	}
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.enrollments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.enrollments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockEnrollStudentReader struct {
	ids map[int64]bool
}

func (m *mockEnrollStudentReader) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if m.ids[id] {
		return &models.Student{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

type mockCareerSubjectReader struct {
	ids map[int64]bool
}

func (m *mockCareerSubjectReader) FindByID(ctx context.Context, id int64) (*models.CareerSubject, error) {
	if m.ids[id] {
		return &models.CareerSubject{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

type mockPeriodReader struct {
	ids map[string]bool
}

func (m *mockPeriodReader) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if m.ids[id] {
		return &models.Period{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

type mockLogRecorder struct {
	entries []models.SubmissionLog
	err     error
}

func (m *mockLogRecorder) Create(ctx context.Context, log *models.SubmissionLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *log)
	return nil
}

func adminClaims(username string) *models.Claims {
	return &models.Claims{
		Roles:            models.RoleSet{models.RoleAdmin},
		RegisteredClaims: jwt.RegisteredClaims{Subject: username},
	}
}

func studentClaims(id string) *models.Claims {
	return &models.Claims{
		Roles:            models.RoleSet{models.RoleStudent},
		RegisteredClaims: jwt.RegisteredClaims{Subject: id},
	}
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentRepo, *mockLogRecorder) {
	repo := &mockEnrollmentRepo{}
	logs := &mockLogRecorder{}
	admins := &mockAdminRepo{admins: map[string]*models.Admin{
		"jefa.sistemas": {ID: "a0000000-0000-4000-8000-000000000001", Username: "jefa.sistemas"},
	}}
	svc := NewEnrollmentService(
		repo,
		&mockEnrollStudentReader{ids: map[int64]bool{20250001: true}},
		&mockCareerSubjectReader{ids: map[int64]bool{7: true}},
		&mockPeriodReader{ids: map[string]bool{"2026-ENE-JUN": true}},
		admins,
		logs,
		nil,
		nil,
	)
	return svc, repo, logs
}

func TestEnrollmentCreateDefaultsToDraft(t *testing.T) {
	svc, _, logs := newEnrollmentFixture()

	enrollment, err := svc.Create(context.Background(), studentClaims("20250001"), models.CreateEnrollmentRequest{
		StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStateDraft, enrollment.State)
	assert.NotZero(t, enrollment.ID)
	// Student self-service actions leave no audit entries.
	assert.Empty(t, logs.entries)
}

func TestEnrollmentCreateByAdminIsAudited(t *testing.T) {
	svc, _, logs := newEnrollmentFixture()

	enrollment, err := svc.Create(context.Background(), adminClaims("jefa.sistemas"), models.CreateEnrollmentRequest{
		StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN",
	})
	require.NoError(t, err)

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, "a0000000-0000-4000-8000-000000000001", entry.ActorAdminID)
	assert.Equal(t, models.SubmissionActionCreate, entry.Action)
	assert.Equal(t, models.SubmissionLogEntityEnrollments, entry.Entity)
	assert.Equal(t, fmt.Sprintf("%d", enrollment.ID), entry.EntityID)
	require.NotNil(t, entry.StudentID)
	assert.Equal(t, int64(20250001), *entry.StudentID)
}

func TestEnrollmentCreateDuplicatePrecheck(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	req := models.CreateEnrollmentRequest{StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN"}
	_, err := svc.Create(context.Background(), studentClaims("20250001"), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), studentClaims("20250001"), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicateEnrollment.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestEnrollmentCreateUniqueViolationTranslated(t *testing.T) {
	svc, repo, _ := newEnrollmentFixture()
	// Pre-check passes (empty repo) but the insert loses the race.
	repo.createErr = fmt.Errorf("create enrollment: %w", &pq.Error{
		Code:       "23505",
		Constraint: repository.ConstraintEnrollmentTriple,
	})

	_, err := svc.Create(context.Background(), studentClaims("20250001"), models.CreateEnrollmentRequest{
		StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicateEnrollment.Code, appErr.Code)
}

func TestEnrollmentCreateUnknownReferences(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	cases := []models.CreateEnrollmentRequest{
		{StudentID: 404, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN"},
		{StudentID: 20250001, CareerSubjectID: 404, PeriodID: "2026-ENE-JUN"},
		{StudentID: 20250001, CareerSubjectID: 7, PeriodID: "1999-XXX"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), studentClaims("20250001"), req)
		require.Error(t, err)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	}
}

func TestEnrollmentConfirmFromDraft(t *testing.T) {
	svc, repo, logs := newEnrollmentFixture()
	repo.enrollments = map[int64]models.Enrollment{
		1: {ID: 1, StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN", State: models.EnrollmentStateDraft},
	}

	enrollment, err := svc.Confirm(context.Background(), adminClaims("jefa.sistemas"), 1, models.EnrollmentStateRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStateConfirmed, enrollment.State)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, models.SubmissionActionConfirm, logs.entries[0].Action)
}

func TestEnrollmentIllegalTransitions(t *testing.T) {
	svc, repo, logs := newEnrollmentFixture()
	repo.enrollments = map[int64]models.Enrollment{
		1: {ID: 1, StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN", State: models.EnrollmentStateBlocked},
		2: {ID: 2, StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-AGO-DIC", State: models.EnrollmentStateConfirmed},
	}

	// Blocked is terminal.
	_, err := svc.Confirm(context.Background(), adminClaims("jefa.sistemas"), 1, models.EnrollmentStateRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErr.Code)

	// Confirmed never returns to draft.
	draft := models.EnrollmentStateDraft
	_, err = svc.Update(context.Background(), adminClaims("jefa.sistemas"), 2, models.UpdateEnrollmentRequest{State: &draft})
	require.Error(t, err)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrIllegalTransition.Code, appErr.Code)

	// Failed transitions leave no audit entries.
	assert.Empty(t, logs.entries)
}

func TestEnrollmentSameStateTransitionAllowed(t *testing.T) {
	svc, repo, _ := newEnrollmentFixture()
	repo.enrollments = map[int64]models.Enrollment{
		1: {ID: 1, StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN", State: models.EnrollmentStateConfirmed},
	}

	enrollment, err := svc.Confirm(context.Background(), adminClaims("jefa.sistemas"), 1, models.EnrollmentStateRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStateConfirmed, enrollment.State)
}

func TestEnrollmentBlockWithReason(t *testing.T) {
	svc, repo, logs := newEnrollmentFixture()
	repo.enrollments = map[int64]models.Enrollment{
		1: {ID: 1, StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN", State: models.EnrollmentStateDraft},
	}

	reason := "document validation failed"
	_, err := svc.Block(context.Background(), adminClaims("jefa.sistemas"), 1, models.EnrollmentStateRequest{Reason: &reason})
	require.NoError(t, err)
	require.Len(t, logs.entries, 1)
	require.NotNil(t, logs.entries[0].Reason)
	assert.Equal(t, reason, *logs.entries[0].Reason)
}

func TestEnrollmentDeleteAudited(t *testing.T) {
	svc, repo, logs := newEnrollmentFixture()
	repo.enrollments = map[int64]models.Enrollment{
		1: {ID: 1, StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN", State: models.EnrollmentStateDraft},
	}

	require.NoError(t, svc.Delete(context.Background(), adminClaims("jefa.sistemas"), 1))
	assert.Equal(t, []int64{1}, repo.deleted)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, models.SubmissionActionDelete, logs.entries[0].Action)
}

func TestEnrollmentAuditFailureSurfaced(t *testing.T) {
	svc, repo, logs := newEnrollmentFixture()
	repo.enrollments = map[int64]models.Enrollment{
		1: {ID: 1, StudentID: 20250001, CareerSubjectID: 7, PeriodID: "2026-ENE-JUN", State: models.EnrollmentStateDraft},
	}
	logs.err = errors.New("log store down")

	_, err := svc.Confirm(context.Background(), adminClaims("jefa.sistemas"), 1, models.EnrollmentStateRequest{})
	require.Error(t, err)
	// The state change itself still happened.
	assert.Equal(t, models.EnrollmentStateConfirmed, repo.enrollments[1].State)
}

func TestEnrollmentGetNotFound(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()

	_, err := svc.Get(context.Background(), 404)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
