package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/repository"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
)

type adminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	FindByID(ctx context.Context, id string) (*models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	Update(ctx context.Context, admin *models.Admin) error
	Delete(ctx context.Context, id string) error
}

// AdminService manages administrator provisioning. There is no self-service
// registration for admins.
type AdminService struct {
	admins    adminRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(admins adminRepository, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{admins: admins, validator: validate, logger: logger}
}

// List returns all administrators.
func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	return admins, nil
}

// Get returns one administrator by id.
func (s *AdminService) Get(ctx context.Context, id string) (*models.Admin, error) {
	admin, err := s.admins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch admin")
	}
	return admin, nil
}

// Create provisions a new administrator with a hashed credential.
func (s *AdminService) Create(ctx context.Context, req models.CreateAdminRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash credential")
	}

	admin := &models.Admin{
		Name:               req.Name,
		Username:           req.Username,
		PasswordHash:       string(hash),
		AssignedDepartment: req.AssignedDepartment,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if repository.IsUniqueViolation(err, repository.ConstraintAdminUsername) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "username already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}
	return admin, nil
}

// Update applies a partial update; a new password is re-hashed.
func (s *AdminService) Update(ctx context.Context, id string, req models.UpdateAdminRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}

	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		admin.Name = *req.Name
	}
	if req.AssignedDepartment != nil {
		admin.AssignedDepartment = *req.AssignedDepartment
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash credential")
		}
		admin.PasswordHash = string(hash)
	}

	if err := s.admins.Update(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admin")
	}
	return admin, nil
}

// Delete removes an administrator. Their past audit entries remain.
func (s *AdminService) Delete(ctx context.Context, id string) error {
	if err := s.admins.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		if repository.IsForeignKeyViolation(err, repository.ConstraintSubmissionLogActor) {
			return appErrors.Clone(appErrors.ErrValidation, "admin has recorded audit entries")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete admin")
	}
	return nil
}
