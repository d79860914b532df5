package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

// AdminRepository provides database access for administrator records.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByUsername returns an admin by its unique username. Credentials are
// never part of the query predicate; hash comparison happens in the service.
func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	const query = `SELECT admin_id, name, username, password_hash, assigned_department FROM admins WHERE username = $1 LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by username: %w", err)
	}
	return &admin, nil
}

// FindByID returns an admin by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	const query = `SELECT admin_id, name, username, password_hash, assigned_department FROM admins WHERE admin_id = $1 LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// List returns all admins ordered by username.
func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	const query = `SELECT admin_id, name, username, password_hash, assigned_department FROM admins ORDER BY username`
	var admins []models.Admin
	if err := r.db.SelectContext(ctx, &admins, query); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// Create inserts a new admin record.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	const query = `INSERT INTO admins (admin_id, name, username, password_hash, assigned_department)
        VALUES (:admin_id, :name, :username, :password_hash, :assigned_department)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Update persists mutable fields of an admin.
func (r *AdminRepository) Update(ctx context.Context, admin *models.Admin) error {
	const query = `UPDATE admins SET name = :name, password_hash = :password_hash, assigned_department = :assigned_department WHERE admin_id = :admin_id`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	return nil
}

// Delete removes an admin record. Admins are hard-deleted.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM admins WHERE admin_id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
