package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/escolar-dev/sie-enrollment-api/internal/middleware"
	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/service"
	appErrors "github.com/escolar-dev/sie-enrollment-api/pkg/errors"
	"github.com/escolar-dev/sie-enrollment-api/pkg/response"
)

// AuthHandler wires the registration, login, session and logout endpoints.
type AuthHandler struct {
	service    *service.AuthService
	cookieName string
	cookieTTL  int
}

// NewAuthHandler creates a new handler. cookieTTL is the session cookie max
// age in seconds, matching the token lifetime.
func NewAuthHandler(svc *service.AuthService, cookieName string, cookieTTL int) *AuthHandler {
	return &AuthHandler{service: svc, cookieName: cookieName, cookieTTL: cookieTTL}
}

// setSessionCookie attaches the token as an httpOnly cookie for browser
// clients. SameSite=None with Secure because the SPA runs on another origin.
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.cookieName, token, maxAge, "/", "", true, true)
}

// RegisterStudent handles student self-registration.
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req models.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	if err := h.service.RegisterStudent(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "student registered")
}

// LoginStudent authenticates a student and sets the session cookie. The body
// deliberately carries no profile; clients call Me afterwards.
func (h *AuthHandler) LoginStudent(c *gin.Context) {
	var req models.LoginStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	result, err := h.service.LoginStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, h.cookieTTL)
	response.Message(c, http.StatusOK, "login successful")
}

// LoginAdmin authenticates an administrator, sets the session cookie and
// returns the admin profile.
func (h *AuthHandler) LoginAdmin(c *gin.Context) {
	var req models.LoginAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	result, profile, err := h.service.LoginAdmin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, h.cookieTTL)
	response.JSON(c, http.StatusOK, profile, nil)
}

// Me resolves the verified session into a role-shaped profile.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	profile, err := h.service.Profile(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile, nil)
}

// Logout clears the session cookie. Tokens are not tracked server side, so
// this is purely a client-state operation.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	response.Message(c, http.StatusOK, "logout successful")
}
