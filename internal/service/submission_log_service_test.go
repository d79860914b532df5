package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/repository"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
	"github.com/escolar-dev/sie-enrollment-api/pkg/export"
)

type mockSubmissionLogRepo struct {
	logs      []models.SubmissionLog
	createErr error
}

func (m *mockSubmissionLogRepo) Create(ctx context.Context, log *models.SubmissionLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	if log.ID == "" {
		log.ID = fmt.Sprintf("log-%d", len(m.logs)+1)
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockSubmissionLogRepo) FindByID(ctx context.Context, id string) (*models.SubmissionLog, error) {
	for _, l := range m.logs {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionLogRepo) List(ctx context.Context, filter models.SubmissionLogFilter) ([]models.SubmissionLog, int, error) {
	var out []models.SubmissionLog
	for _, l := range m.logs {
		if filter.ActorAdminID != "" && l.ActorAdminID != filter.ActorAdminID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		out = append(out, l)
	}
	// Newest first, matching the repository ordering contract.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, len(out), nil
}

func newSubmissionLogService(repo *mockSubmissionLogRepo) *SubmissionLogService {
	return NewSubmissionLogService(repo, export.NewCSVExporter(), export.NewPDFExporter(), nil, nil)
}

const testActorID = "a0000000-0000-4000-8000-000000000001"

func TestSubmissionLogAppendAndGet(t *testing.T) {
	repo := &mockSubmissionLogRepo{}
	svc := newSubmissionLogService(repo)

	entry, err := svc.Append(context.Background(), models.CreateSubmissionLogRequest{
		ActorAdminID: testActorID,
		EntityID:     "42",
		Action:       models.SubmissionActionBlock,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionLogEntityEnrollments, entry.Entity)

	got, err := svc.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, models.SubmissionActionBlock, got.Action)
}

func TestSubmissionLogAppendUnknownAction(t *testing.T) {
	svc := newSubmissionLogService(&mockSubmissionLogRepo{})

	_, err := svc.Append(context.Background(), models.CreateSubmissionLogRequest{
		ActorAdminID: testActorID,
		EntityID:     "42",
		Action:       "promote",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmissionLogAppendUnknownActor(t *testing.T) {
	repo := &mockSubmissionLogRepo{createErr: fmt.Errorf("create submission log: %w", &pq.Error{
		Code:       "23503",
		Constraint: repository.ConstraintSubmissionLogActor,
	})}
	svc := newSubmissionLogService(repo)

	_, err := svc.Append(context.Background(), models.CreateSubmissionLogRequest{
		ActorAdminID: testActorID,
		EntityID:     "42",
		Action:       models.SubmissionActionCreate,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "actor admin")
}

func TestSubmissionLogQueryNewestFirst(t *testing.T) {
	repo := &mockSubmissionLogRepo{}
	svc := newSubmissionLogService(repo)

	for _, action := range []models.SubmissionAction{models.SubmissionActionCreate, models.SubmissionActionConfirm, models.SubmissionActionBlock} {
		_, err := svc.Append(context.Background(), models.CreateSubmissionLogRequest{
			ActorAdminID: testActorID, EntityID: "42", Action: action,
		})
		require.NoError(t, err)
	}

	logs, pagination, err := svc.Query(context.Background(), models.SubmissionLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, 3, pagination.TotalCount)
	assert.Equal(t, models.SubmissionActionBlock, logs[0].Action)
	assert.Equal(t, models.SubmissionActionCreate, logs[2].Action)
}

func TestSubmissionLogQueryInvalidActionFilter(t *testing.T) {
	svc := newSubmissionLogService(&mockSubmissionLogRepo{})

	_, _, err := svc.Query(context.Background(), models.SubmissionLogFilter{Action: "promote"})
	require.Error(t, err)
}

func TestSubmissionLogExportCSV(t *testing.T) {
	repo := &mockSubmissionLogRepo{}
	svc := newSubmissionLogService(repo)

	reason := "duplicate paperwork"
	_, err := svc.Append(context.Background(), models.CreateSubmissionLogRequest{
		ActorAdminID: testActorID, EntityID: "42",
		Action: models.SubmissionActionDelete, Reason: &reason,
	})
	require.NoError(t, err)

	result, err := svc.Export(context.Background(), models.SubmissionLogFilter{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Data)
	assert.Contains(t, body, "Log ID")
	assert.Contains(t, body, testActorID)
	assert.Contains(t, body, "duplicate paperwork")
}

func TestSubmissionLogExportPDF(t *testing.T) {
	svc := newSubmissionLogService(&mockSubmissionLogRepo{})

	result, err := svc.Export(context.Background(), models.SubmissionLogFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}

func TestSubmissionLogExportUnknownFormat(t *testing.T) {
	svc := newSubmissionLogService(&mockSubmissionLogRepo{})

	_, err := svc.Export(context.Background(), models.SubmissionLogFilter{}, "xlsx")
	require.Error(t, err)
}
