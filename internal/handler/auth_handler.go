package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/middleware"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/response"
	"github.com/apexlabs/ntamock-backend/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, studentService *service.StudentService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		studentService: studentService,
		log:            log.With().Str("component", "auth_handler").Logger(),
	}
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
// Looks the roll number up and returns a student token.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.StudentLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.LoginStudent(c.Request.Context(), req.RollNumber)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.LoginAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// GetStudentProfile godoc
// GET /api/v1/auth/student/me
func (h *AuthHandler) GetStudentProfile(c *gin.Context) {
	student, err := h.studentService.Get(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// GetAdminProfile godoc
// GET /api/v1/auth/admin/me
func (h *AuthHandler) GetAdminProfile(c *gin.Context) {
	admin, err := h.authService.Admin(c.Request.Context(), middleware.SubjectID(c))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"admin": admin})
}
