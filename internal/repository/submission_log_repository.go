package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

// SubmissionLogRepository persists the append-only audit trail. There are
// deliberately no update or delete methods.
type SubmissionLogRepository struct {
	db *sqlx.DB
}

// NewSubmissionLogRepository constructs the repository.
func NewSubmissionLogRepository(db *sqlx.DB) *SubmissionLogRepository {
	return &SubmissionLogRepository{db: db}
}

// Create appends an audit entry. Foreign-key violations on the actor admin
// bubble up for the service to translate.
func (r *SubmissionLogRepository) Create(ctx context.Context, log *models.SubmissionLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Entity == "" {
		log.Entity = models.SubmissionLogEntityEnrollments
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submission_logs (log_id, actor_admin_id, student_id, entity, entity_id, action, reason, changes_json, ts)
        VALUES (:log_id, :actor_admin_id, :student_id, :entity, :entity_id, :action, :reason, :changes_json, :ts)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create submission log: %w", err)
	}
	return nil
}

// FindByID returns an audit entry by identifier.
func (r *SubmissionLogRepository) FindByID(ctx context.Context, id string) (*models.SubmissionLog, error) {
	const query = `SELECT log_id, actor_admin_id, student_id, entity, entity_id, action, reason, changes_json, ts FROM submission_logs WHERE log_id = $1`
	var log models.SubmissionLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission log: %w", err)
	}
	return &log, nil
}

// List returns audit entries matching the filter, newest first.
func (r *SubmissionLogRepository) List(ctx context.Context, filter models.SubmissionLogFilter) ([]models.SubmissionLog, int, error) {
	base := `FROM submission_logs`
	var conditions []string
	var args []interface{}

	if filter.ActorAdminID != "" {
		conditions = append(conditions, fmt.Sprintf("actor_admin_id = $%d", len(args)+1))
		args = append(args, filter.ActorAdminID)
	}
	if filter.StudentID > 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Entity != "" {
		conditions = append(conditions, fmt.Sprintf("entity = $%d", len(args)+1))
		args = append(args, filter.Entity)
	}
	if filter.EntityID != "" {
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", len(args)+1))
		args = append(args, filter.EntityID)
	}
	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)+1))
		args = append(args, filter.Action)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT log_id, actor_admin_id, student_id, entity, entity_id, action, reason, changes_json, ts
        %s ORDER BY ts DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var logs []models.SubmissionLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submission logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submission logs: %w", err)
	}
	return logs, total, nil
}
