package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

// EnrollmentRepository handles persistence of preregistrations. The
// uq_student_subject_period unique constraint is the source of truth for the
// one-row-per-triple invariant; callers detect it with IsUniqueViolation.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria with a total
// count for pagination.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	base := `FROM enrollments`
	var conditions []string
	var args []interface{}

	if filter.StudentID > 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CareerSubjectID > 0 {
		conditions = append(conditions, fmt.Sprintf("career_subject_id = $%d", len(args)+1))
		args = append(args, filter.CareerSubjectID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
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
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT enrollment_id, student_id, career_subject_id, period_id, state, created_at, updated_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	const query = `SELECT enrollment_id, student_id, career_subject_id, period_id, state, created_at, updated_at FROM enrollments WHERE enrollment_id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsTriple checks whether an enrollment already exists for the triple.
// This is a fast-path UX check only; Create relies on the unique constraint
// for correctness under concurrent inserts.
func (r *EnrollmentRepository) ExistsTriple(ctx context.Context, studentID, careerSubjectID int64, periodID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND career_subject_id = $2 AND period_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, careerSubjectID, periodID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment triple: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment and loads the generated id and
// timestamps. Unique violations are returned unwrapped enough for
// IsUniqueViolation to recognise them.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.State == "" {
		enrollment.State = models.EnrollmentStateDraft
	}
	const query = `INSERT INTO enrollments (student_id, career_subject_id, period_id, state)
        VALUES ($1, $2, $3, $4)
        RETURNING enrollment_id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, enrollment.StudentID, enrollment.CareerSubjectID, enrollment.PeriodID, enrollment.State)
	if err := row.Scan(&enrollment.ID, &enrollment.CreatedAt, &enrollment.UpdatedAt); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update persists the merged enrollment row.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET student_id = :student_id, career_subject_id = :career_subject_id, period_id = :period_id, state = :state, updated_at = :updated_at WHERE enrollment_id = :enrollment_id`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// UpdateState transitions only the lifecycle state.
func (r *EnrollmentRepository) UpdateState(ctx context.Context, id int64, state models.EnrollmentState) error {
	const query = `UPDATE enrollments SET state = $2, updated_at = $3 WHERE enrollment_id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, state, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment state: %w", err)
	}
	return nil
}

// Delete removes an enrollment row.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE enrollment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
