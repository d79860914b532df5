package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

// CareerRepository stores degree programs.
type CareerRepository struct {
	db *sqlx.DB
}

func NewCareerRepository(db *sqlx.DB) *CareerRepository {
	return &CareerRepository{db: db}
}

func (r *CareerRepository) FindByID(ctx context.Context, id string) (*models.Career, error) {
	const query = `SELECT career_id, name FROM careers WHERE career_id = $1 LIMIT 1`
	var career models.Career
	if err := r.db.GetContext(ctx, &career, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find career: %w", err)
	}
	return &career, nil
}

func (r *CareerRepository) List(ctx context.Context) ([]models.Career, error) {
	const query = `SELECT career_id, name FROM careers ORDER BY career_id`
	var careers []models.Career
	if err := r.db.SelectContext(ctx, &careers, query); err != nil {
		return nil, fmt.Errorf("list careers: %w", err)
	}
	return careers, nil
}

func (r *CareerRepository) Create(ctx context.Context, career *models.Career) error {
	const query = `INSERT INTO careers (career_id, name) VALUES (:career_id, :name)`
	if _, err := r.db.NamedExecContext(ctx, query, career); err != nil {
		return fmt.Errorf("create career: %w", err)
	}
	return nil
}

func (r *CareerRepository) Update(ctx context.Context, career *models.Career) error {
	const query = `UPDATE careers SET name = :name WHERE career_id = :career_id`
	if _, err := r.db.NamedExecContext(ctx, query, career); err != nil {
		return fmt.Errorf("update career: %w", err)
	}
	return nil
}

func (r *CareerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM careers WHERE career_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete career: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SubjectRepository stores course units.
type SubjectRepository struct {
	db *sqlx.DB
}

func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	const query = `SELECT subject_id, name FROM subjects WHERE subject_id = $1 LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT subject_id, name FROM subjects ORDER BY subject_id`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	const query = `INSERT INTO subjects (subject_id, name) VALUES (:subject_id, :name)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	const query = `UPDATE subjects SET name = :name WHERE subject_id = :subject_id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE subject_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PeriodRepository stores academic terms.
type PeriodRepository struct {
	db *sqlx.DB
}

func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.Period, error) {
	const query = `SELECT period_id, start_date, end_date, active FROM periods WHERE period_id = $1 LIMIT 1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find period: %w", err)
	}
	return &period, nil
}

func (r *PeriodRepository) List(ctx context.Context) ([]models.Period, error) {
	const query = `SELECT period_id, start_date, end_date, active FROM periods ORDER BY start_date DESC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	const query = `INSERT INTO periods (period_id, start_date, end_date, active) VALUES (:period_id, :start_date, :end_date, :active)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

func (r *PeriodRepository) Update(ctx context.Context, period *models.Period) error {
	const query = `UPDATE periods SET start_date = :start_date, end_date = :end_date, active = :active WHERE period_id = :period_id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	return nil
}

func (r *PeriodRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM periods WHERE period_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete period: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
