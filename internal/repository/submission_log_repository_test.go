package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

func TestSubmissionLogRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionLogRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submission_logs")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.SubmissionLog{
		ActorAdminID: "a0000000-0000-4000-8000-000000000001",
		EntityID:     "42",
		Action:       models.SubmissionActionConfirm,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.Equal(t, models.SubmissionLogEntityEnrollments, entry.Entity)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionLogRepositoryCreateActorViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionLogRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submission_logs")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: ConstraintSubmissionLogActor})

	err := repo.Create(context.Background(), &models.SubmissionLog{
		ActorAdminID: "missing",
		EntityID:     "42",
		Action:       models.SubmissionActionCreate,
	})
	require.Error(t, err)
	require.True(t, IsForeignKeyViolation(err, ConstraintSubmissionLogActor))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionLogRepositoryListOrdersByTimestampDesc(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSubmissionLogRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"log_id", "actor_admin_id", "student_id", "entity", "entity_id", "action", "reason", "changes_json", "ts"}).
		AddRow("log-2", "actor-1", nil, "ENROLLMENTS", "42", "block", nil, nil, now).
		AddRow("log-1", "actor-1", nil, "ENROLLMENTS", "42", "create", nil, nil, now.Add(-time.Hour))

	mock.ExpectQuery("(?s)SELECT log_id, actor_admin_id.*ORDER BY ts DESC").
		WithArgs("actor-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("actor-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	logs, total, err := repo.List(context.Background(), models.SubmissionLogFilter{ActorAdminID: "actor-1"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, logs, 2)
	require.Equal(t, "log-2", logs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
