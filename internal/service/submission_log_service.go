package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/repository"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
	"github.com/escolar-dev/sie-enrollment-api/pkg/export"
)

type submissionLogRepository interface {
	Create(ctx context.Context, log *models.SubmissionLog) error
	FindByID(ctx context.Context, id string) (*models.SubmissionLog, error)
	List(ctx context.Context, filter models.SubmissionLogFilter) ([]models.SubmissionLog, int, error)
}

// ExportResult carries rendered export bytes with response metadata.
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
}

// SubmissionLogService exposes the audit trail: direct appends, filtered
// queries, and tabular exports.
type SubmissionLogService struct {
	logs      submissionLogRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubmissionLogService constructs a SubmissionLogService.
func NewSubmissionLogService(logs submissionLogRepository, csv *export.CSVExporter, pdf *export.PDFExporter, validate *validator.Validate, logger *zap.Logger) *SubmissionLogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionLogService{logs: logs, csv: csv, pdf: pdf, validator: validate, logger: logger}
}

// Append records an audit entry. The referenced actor admin must exist; a
// foreign-key violation from the insert is translated to a validation error.
func (s *SubmissionLogService) Append(ctx context.Context, req models.CreateSubmissionLogRequest) (*models.SubmissionLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission log payload")
	}
	if !req.Action.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown submission action")
	}

	entry := &models.SubmissionLog{
		ActorAdminID: req.ActorAdminID,
		StudentID:    req.StudentID,
		Entity:       models.SubmissionLogEntityEnrollments,
		EntityID:     req.EntityID,
		Action:       req.Action,
		Reason:       req.Reason,
		Changes:      req.Changes,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		if repository.IsForeignKeyViolation(err, repository.ConstraintSubmissionLogActor) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "actor admin does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record audit entry")
	}
	return entry, nil
}

// Get returns one audit entry by id.
func (s *SubmissionLogService) Get(ctx context.Context, id string) (*models.SubmissionLog, error) {
	entry, err := s.logs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch submission log")
	}
	return entry, nil
}

// Query returns audit entries matching the conjunctive filter, newest first.
func (s *SubmissionLogService) Query(ctx context.Context, filter models.SubmissionLogFilter) ([]models.SubmissionLog, *models.Pagination, error) {
	if filter.Action != "" && !filter.Action.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown submission action filter")
	}

	logs, total, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submission logs")
	}
	if logs == nil {
		logs = []models.SubmissionLog{}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return logs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Export renders the filtered audit trail as CSV or PDF.
func (s *SubmissionLogService) Export(ctx context.Context, filter models.SubmissionLogFilter, format string) (*ExportResult, error) {
	// Exports ignore pagination; cap at the repository maximum per page.
	filter.Page = 1
	filter.PageSize = 200

	logs, _, err := s.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Log ID", "Actor Admin", "Student", "Entity", "Entity ID", "Action", "Reason", "Timestamp"},
	}
	for _, entry := range logs {
		student := ""
		if entry.StudentID != nil {
			student = strconv.FormatInt(*entry.StudentID, 10)
		}
		reason := ""
		if entry.Reason != nil {
			reason = *entry.Reason
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Log ID":      entry.ID,
			"Actor Admin": entry.ActorAdminID,
			"Student":     student,
			"Entity":      entry.Entity,
			"Entity ID":   entry.EntityID,
			"Action":      string(entry.Action),
			"Reason":      reason,
			"Timestamp":   entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("submission-logs-%s.csv", stamp),
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Submission Logs")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("submission-logs-%s.pdf", stamp),
			Data:        data,
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, use csv or pdf")
}
