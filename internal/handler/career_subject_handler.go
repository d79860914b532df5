package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/service"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
	"github.com/escolar-dev/sie-enrollment-api/pkg/response"
)

// CareerSubjectHandler wires the curriculum slot endpoints.
type CareerSubjectHandler struct {
	service *service.CareerSubjectService
}

// NewCareerSubjectHandler creates a new handler.
func NewCareerSubjectHandler(svc *service.CareerSubjectService) *CareerSubjectHandler {
	return &CareerSubjectHandler{service: svc}
}

// List returns curriculum slots, optionally filtered by careerId.
func (h *CareerSubjectHandler) List(c *gin.Context) {
	slots, err := h.service.List(c.Request.Context(), c.Query("careerId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Get returns one curriculum slot.
func (h *CareerSubjectHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	slot, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Create binds a subject into a career's curriculum.
func (h *CareerSubjectHandler) Create(c *gin.Context) {
	var slot models.CareerSubject
	if err := c.ShouldBindJSON(&slot); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid career subject payload"))
		return
	}
	if err := h.service.Create(c.Request.Context(), &slot); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Delete removes a curriculum slot.
func (h *CareerSubjectHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
