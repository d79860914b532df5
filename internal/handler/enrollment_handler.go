package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/escolar-dev/sie-enrollment-api/internal/middleware"
	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/service"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
	"github.com/escolar-dev/sie-enrollment-api/pkg/response"
)

// EnrollmentHandler wires the preregistration ledger endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
	metrics *service.MetricsService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc, metrics: metrics}
}

func parseIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id parameter")
	}
	return id, nil
}

// List returns enrollments filtered by query parameters.
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		PeriodID: c.Query("periodId"),
		State:    models.EnrollmentState(c.Query("state")),
	}
	if raw := c.Query("studentId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid studentId filter"))
			return
		}
		filter.StudentID = id
	}
	if raw := c.Query("careerSubjectId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid careerSubjectId filter"))
			return
		}
		filter.CareerSubjectID = id
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	enrollments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get returns one enrollment.
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	enrollment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Create registers a new preregistration.
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req models.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	enrollment, err := h.service.Create(c.Request.Context(), middleware.CurrentClaims(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordEnrollmentMutation(string(models.SubmissionActionCreate))
	response.Created(c, enrollment)
}

// Update applies a partial update to an enrollment.
func (h *EnrollmentHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	enrollment, err := h.service.Update(c.Request.Context(), middleware.CurrentClaims(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordEnrollmentMutation(string(models.SubmissionActionUpdate))
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Confirm transitions an enrollment to CONFIRMED.
func (h *EnrollmentHandler) Confirm(c *gin.Context) {
	h.transition(c, h.service.Confirm, models.SubmissionActionConfirm)
}

// Block transitions an enrollment to BLOCKED.
func (h *EnrollmentHandler) Block(c *gin.Context) {
	h.transition(c, h.service.Block, models.SubmissionActionBlock)
}

type transitionFunc func(ctx context.Context, claims *models.Claims, id int64, req models.EnrollmentStateRequest) (*models.Enrollment, error)

func (h *EnrollmentHandler) transition(c *gin.Context, apply transitionFunc, action models.SubmissionAction) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Body is optional; an empty body means no reason.
	var req models.EnrollmentStateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	enrollment, err := apply(c.Request.Context(), middleware.CurrentClaims(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordEnrollmentMutation(string(action))
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Delete removes an enrollment.
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentClaims(c), id); err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordEnrollmentMutation(string(models.SubmissionActionDelete))
	response.NoContent(c)
}
