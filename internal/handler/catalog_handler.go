package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/service"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
	"github.com/escolar-dev/sie-enrollment-api/pkg/response"
)

// CatalogHandler wires the career, subject and period endpoints.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListCareers returns all careers.
func (h *CatalogHandler) ListCareers(c *gin.Context) {
	careers, err := h.service.ListCareers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, careers, nil)
}

// GetCareer returns one career by code.
func (h *CatalogHandler) GetCareer(c *gin.Context) {
	career, err := h.service.GetCareer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, career, nil)
}

// CreateCareer adds a career.
func (h *CatalogHandler) CreateCareer(c *gin.Context) {
	var career models.Career
	if err := c.ShouldBindJSON(&career); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid career payload"))
		return
	}
	if err := h.service.CreateCareer(c.Request.Context(), &career); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, career)
}

// UpdateCareer renames a career.
func (h *CatalogHandler) UpdateCareer(c *gin.Context) {
	var career models.Career
	if err := c.ShouldBindJSON(&career); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid career payload"))
		return
	}
	career.ID = c.Param("id")
	if err := h.service.UpdateCareer(c.Request.Context(), &career); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, career, nil)
}

// DeleteCareer removes a career.
func (h *CatalogHandler) DeleteCareer(c *gin.Context) {
	if err := h.service.DeleteCareer(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubjects returns all subjects.
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// GetSubject returns one subject.
func (h *CatalogHandler) GetSubject(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	subject, err := h.service.GetSubject(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// CreateSubject adds a subject.
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var subject models.Subject
	if err := c.ShouldBindJSON(&subject); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}
	if err := h.service.CreateSubject(c.Request.Context(), &subject); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// UpdateSubject renames a subject.
func (h *CatalogHandler) UpdateSubject(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var subject models.Subject
	if err := c.ShouldBindJSON(&subject); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}
	subject.ID = id
	if err := h.service.UpdateSubject(c.Request.Context(), &subject); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// DeleteSubject removes a subject.
func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteSubject(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPeriods returns all academic terms.
func (h *CatalogHandler) ListPeriods(c *gin.Context) {
	periods, err := h.service.ListPeriods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// GetPeriod returns one academic term.
func (h *CatalogHandler) GetPeriod(c *gin.Context) {
	period, err := h.service.GetPeriod(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// CreatePeriod adds an academic term.
func (h *CatalogHandler) CreatePeriod(c *gin.Context) {
	var period models.Period
	if err := c.ShouldBindJSON(&period); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period payload"))
		return
	}
	if err := h.service.CreatePeriod(c.Request.Context(), &period); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// UpdatePeriod edits an academic term.
func (h *CatalogHandler) UpdatePeriod(c *gin.Context) {
	var period models.Period
	if err := c.ShouldBindJSON(&period); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period payload"))
		return
	}
	period.ID = c.Param("id")
	if err := h.service.UpdatePeriod(c.Request.Context(), &period); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// DeletePeriod removes an academic term.
func (h *CatalogHandler) DeletePeriod(c *gin.Context) {
	if err := h.service.DeletePeriod(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
