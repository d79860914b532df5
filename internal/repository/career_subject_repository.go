package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

// CareerSubjectRepository stores curriculum slots. The
// uq_career_subject_semester constraint keeps (career, subject, semester)
// unique.
type CareerSubjectRepository struct {
	db *sqlx.DB
}

func NewCareerSubjectRepository(db *sqlx.DB) *CareerSubjectRepository {
	return &CareerSubjectRepository{db: db}
}

func (r *CareerSubjectRepository) FindByID(ctx context.Context, id int64) (*models.CareerSubject, error) {
	const query = `SELECT career_subject_id, career_id, subject_id, semester FROM career_subject WHERE career_subject_id = $1 LIMIT 1`
	var cs models.CareerSubject
	if err := r.db.GetContext(ctx, &cs, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find career subject: %w", err)
	}
	return &cs, nil
}

// ListByCareer returns the curriculum for a career ordered by semester.
func (r *CareerSubjectRepository) ListByCareer(ctx context.Context, careerID string) ([]models.CareerSubject, error) {
	const query = `SELECT career_subject_id, career_id, subject_id, semester FROM career_subject WHERE career_id = $1 ORDER BY semester, subject_id`
	var slots []models.CareerSubject
	if err := r.db.SelectContext(ctx, &slots, query, careerID); err != nil {
		return nil, fmt.Errorf("list career subjects: %w", err)
	}
	return slots, nil
}

func (r *CareerSubjectRepository) List(ctx context.Context) ([]models.CareerSubject, error) {
	const query = `SELECT career_subject_id, career_id, subject_id, semester FROM career_subject ORDER BY career_id, semester, subject_id`
	var slots []models.CareerSubject
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list career subjects: %w", err)
	}
	return slots, nil
}

// Create inserts a curriculum slot and loads the generated id. Unique
// violations bubble up for the service to translate.
func (r *CareerSubjectRepository) Create(ctx context.Context, cs *models.CareerSubject) error {
	const query = `INSERT INTO career_subject (career_id, subject_id, semester) VALUES ($1, $2, $3) RETURNING career_subject_id`
	if err := r.db.GetContext(ctx, &cs.ID, query, cs.CareerID, cs.SubjectID, cs.Semester); err != nil {
		return fmt.Errorf("create career subject: %w", err)
	}
	return nil
}

func (r *CareerSubjectRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM career_subject WHERE career_subject_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete career subject: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
