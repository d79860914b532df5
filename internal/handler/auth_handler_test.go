package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/escolar-dev/sie-enrollment-api/internal/middleware"
	"github.com/escolar-dev/sie-enrollment-api/internal/models"
	"github.com/escolar-dev/sie-enrollment-api/internal/service"
)

type stubAdminRepo struct {
	admins map[string]*models.Admin
}

func (s *stubAdminRepo) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if a, ok := s.admins[username]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

type stubStudentRepo struct {
	students map[int64]*models.Student
}

func (s *stubStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if st, ok := s.students[id]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubStudentRepo) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	for _, st := range s.students {
		if st.Email == email {
			return st, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if s.students == nil {
		s.students = make(map[int64]*models.Student)
	}
	s.students[student.ID] = student
	return nil
}

type stubCareerRepo struct{}

func (s *stubCareerRepo) FindByID(ctx context.Context, id string) (*models.Career, error) {
	if id == "ISC" {
		return &models.Career{ID: "ISC", Name: "Sistemas"}, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	admins := &stubAdminRepo{admins: map[string]*models.Admin{
		"jefa.sistemas": {
			ID: "a0000000-0000-4000-8000-000000000001", Name: "Laura M",
			Username: "jefa.sistemas", PasswordHash: string(hash),
			AssignedDepartment: "Sistemas",
		},
	}}
	students := &stubStudentRepo{students: map[int64]*models.Student{
		20250001: {ID: 20250001, Name: "Ana Torres", Email: "ana@example.com", PasswordHash: string(hash), GroupNo: 3, Semester: 4, CareerID: "ISC"},
	}}

	tokens := service.NewTokenService("test-secret", "test-issuer", 30*time.Minute)
	authSvc := service.NewAuthService(admins, students, &stubCareerRepo{}, tokens, nil, nil)
	h := NewAuthHandler(authSvc, "token", 1800)

	r := gin.New()
	guard := middleware.Auth(tokens, "token")
	r.POST("/auth/students-register", h.RegisterStudent)
	r.POST("/auth/students-login", h.LoginStudent)
	r.POST("/auth/admins-login", h.LoginAdmin)
	r.GET("/auth/me", guard, h.Me)
	r.POST("/auth/logout", guard, h.Logout)
	return r
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := w.Result()
	defer res.Body.Close()
	for _, c := range res.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func TestStudentLoginSetsCookieWithoutProfile(t *testing.T) {
	r := newAuthTestRouter(t)

	body := `{"studentId":20250001,"password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/students-login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, 1800, cookie.MaxAge)

	// Student logins return a bare message, never profile data.
	assert.NotContains(t, w.Body.String(), "Ana Torres")
	assert.Contains(t, w.Body.String(), "login successful")
}

func TestAdminLoginReturnsProfile(t *testing.T) {
	r := newAuthTestRouter(t)

	body := `{"username":"jefa.sistemas","password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/admins-login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, sessionCookie(t, w))
	assert.Contains(t, w.Body.String(), `"rol":"Admin"`)
	assert.Contains(t, w.Body.String(), "Laura M")
	assert.Contains(t, w.Body.String(), `"department":"Sistemas"`)
}

func TestLoginThenMeWithCookie(t *testing.T) {
	r := newAuthTestRouter(t)

	body := `{"studentId":20250001,"password":"supersecret"}`
	loginReq := httptest.NewRequest(http.MethodPost, "/auth/students-login", strings.NewReader(body))
	loginReq.Header.Set("Content-Type", "application/json")
	loginW := httptest.NewRecorder()
	r.ServeHTTP(loginW, loginReq)
	require.Equal(t, http.StatusOK, loginW.Code)

	cookie := sessionCookie(t, loginW)
	require.NotNil(t, cookie)

	meReq := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	meReq.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	meW := httptest.NewRecorder()
	r.ServeHTTP(meW, meReq)

	require.Equal(t, http.StatusOK, meW.Code)
	assert.Contains(t, meW.Body.String(), `"rol":"Student"`)
	assert.Contains(t, meW.Body.String(), "Ana Torres")
	assert.Contains(t, meW.Body.String(), `"careerId":"ISC"`)
}

func TestLogoutClearsCookie(t *testing.T) {
	r := newAuthTestRouter(t)

	body := `{"studentId":20250001,"password":"supersecret"}`
	loginReq := httptest.NewRequest(http.MethodPost, "/auth/students-login", strings.NewReader(body))
	loginReq.Header.Set("Content-Type", "application/json")
	loginW := httptest.NewRecorder()
	r.ServeHTTP(loginW, loginReq)
	cookie := sessionCookie(t, loginW)
	require.NotNil(t, cookie)

	logoutReq := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logoutReq.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	logoutW := httptest.NewRecorder()
	r.ServeHTTP(logoutW, logoutReq)

	require.Equal(t, http.StatusOK, logoutW.Code)
	cleared := sessionCookie(t, logoutW)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestRegisterStudentEndpoint(t *testing.T) {
	r := newAuthTestRouter(t)

	body := `{"studentId":20250099,"name":"Luis Rey","email":"luis@example.com","password":"supersecret","groupNo":2,"semester":1,"careerId":"ISC"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/students-register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAuthRoutesUseHyphenatedPaths(t *testing.T) {
	r := newAuthTestRouter(t)

	body := `{"studentId":20250001,"password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/students/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Only the single-segment hyphenated paths are registered.
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginBadCredentialsNoCookie(t *testing.T) {
	r := newAuthTestRouter(t)

	body := `{"studentId":20250001,"password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/students-login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, sessionCookie(t, w))
}
