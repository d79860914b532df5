package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/service"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
	"github.com/escolar-dev/sie-enrollment-api/pkg/response"
)

// SubmissionLogHandler wires the audit trail endpoints.
type SubmissionLogHandler struct {
	service *service.SubmissionLogService
	metrics *service.MetricsService
}

// NewSubmissionLogHandler creates a new handler.
func NewSubmissionLogHandler(svc *service.SubmissionLogService, metrics *service.MetricsService) *SubmissionLogHandler {
	return &SubmissionLogHandler{service: svc, metrics: metrics}
}

func (h *SubmissionLogHandler) filterFromQuery(c *gin.Context) (models.SubmissionLogFilter, error) {
	filter := models.SubmissionLogFilter{
		ActorAdminID: c.Query("actorAdminId"),
		Entity:       c.Query("entity"),
		EntityID:     c.Query("entityId"),
		Action:       models.SubmissionAction(c.Query("action")),
	}
	if raw := c.Query("studentId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid studentId filter")
		}
		filter.StudentID = id
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))
	return filter, nil
}

// List returns audit entries newest first, filtered by query parameters.
func (h *SubmissionLogHandler) List(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	logs, pagination, err := h.service.Query(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, logs, pagination)
}

// Get returns one audit entry.
func (h *SubmissionLogHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entry, nil)
}

// Create appends an audit entry directly.
func (h *SubmissionLogHandler) Create(c *gin.Context) {
	var req models.CreateSubmissionLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission log payload"))
		return
	}

	entry, err := h.service.Append(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordAuditAppend()
	response.Created(c, entry)
}

// Export streams the filtered audit trail as CSV or PDF.
func (h *SubmissionLogHandler) Export(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Export(c.Request.Context(), filter, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
