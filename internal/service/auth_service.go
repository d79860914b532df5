package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/repository"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
)

type authAdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
}

type authStudentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type authCareerReader interface {
	FindByID(ctx context.Context, id string) (*models.Career, error)
}

// LoginResult carries an issued session token and its expiry.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService implements registration, the login flows, and session profile
// resolution for both identity kinds.
type AuthService struct {
	admins    authAdminRepository
	students  authStudentRepository
	careers   authCareerReader
	tokens    *TokenService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(admins authAdminRepository, students authStudentRepository, careers authCareerReader, tokens *TokenService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{admins: admins, students: students, careers: careers, tokens: tokens, validator: validate, logger: logger}
}

// RegisterStudent self-registers a student, hashing the credential before it
// is persisted. Duplicate record numbers and emails are rejected, as is an
// unknown career reference.
func (s *AuthService) RegisterStudent(ctx context.Context, req models.RegisterStudentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err == nil {
		return appErrors.Clone(appErrors.ErrDuplicate, "record number is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check record number")
	}

	if _, err := s.students.FindByEmail(ctx, req.Email); err == nil {
		return appErrors.Clone(appErrors.ErrDuplicate, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	if _, err := s.careers.FindByID(ctx, req.CareerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "referenced career does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check career")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash credential")
	}

	student := &models.Student{
		ID:           req.StudentID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		GroupNo:      req.GroupNo,
		Semester:     req.Semester,
		CareerID:     req.CareerID,
	}

	if err := s.students.Create(ctx, student); err != nil {
		// The pre-checks race against concurrent registrations; the unique
		// constraints decide.
		if repository.IsUniqueViolation(err, "") {
			return appErrors.Clone(appErrors.ErrDuplicate, "record number or email is already registered")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	return nil
}

// LoginStudent authenticates a student by record number. Unknown record
// numbers and credential mismatches fail identically so the endpoint cannot
// be used to enumerate registered students.
func (s *AuthService) LoginStudent(ctx context.Context, req models.LoginStudentRequest) (*LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid record number or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid record number or password")
	}

	token, expiresAt, err := s.tokens.Issue(strconv.FormatInt(student.ID, 10), models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// LoginAdmin authenticates an administrator by username. The credential is
// compared against the stored hash in application code, never inside the
// lookup query. Admin logins additionally return the profile payload.
func (s *AuthService) LoginAdmin(ctx context.Context, req models.LoginAdminRequest) (*LoginResult, *models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	admin, err := s.admins.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch admin")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}

	token, expiresAt, err := s.tokens.Issue(admin.Username, models.RoleAdmin)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}

	profile := &models.Profile{
		Role:               models.RoleAdmin,
		Name:               admin.Name,
		Username:           admin.Username,
		AssignedDepartment: admin.AssignedDepartment,
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt}, profile, nil
}

// Profile re-reads the backing record for verified claims and builds the
// role-shaped view. A valid token whose identity has since been deleted does
// not produce a session.
func (s *AuthService) Profile(ctx context.Context, claims *models.Claims) (*models.Profile, error) {
	switch {
	case claims.Roles.Has(models.RoleAdmin):
		admin, err := s.admins.FindByUsername(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrUnauthorized, "identity no longer exists")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve admin profile")
		}
		return &models.Profile{
			Role:               models.RoleAdmin,
			Name:               admin.Name,
			Username:           admin.Username,
			AssignedDepartment: admin.AssignedDepartment,
		}, nil

	case claims.Roles.Has(models.RoleStudent):
		studentID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "malformed subject claim")
		}
		student, err := s.students.FindByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrUnauthorized, "identity no longer exists")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student profile")
		}
		return &models.Profile{
			Role:      models.RoleStudent,
			Name:      student.Name,
			StudentID: student.ID,
			GroupNo:   student.GroupNo,
			Semester:  student.Semester,
			CareerID:  student.CareerID,
		}, nil
	}

	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unrecognized role")
}
