package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/middleware"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/response"
	"github.com/apexlabs/ntamock-backend/internal/service"
	"github.com/apexlabs/ntamock-backend/internal/validator"
)

// SessionHandler exposes a student's live test session over REST.
type SessionHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// StartSession godoc
// POST /api/v1/student/sessions
// Starts a timed attempt. The body is optional; without exam_id the newest
// exam is used.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	snap, err := h.sessionService.Start(c.Request.Context(), middleware.SubjectID(c), req.ExamID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": snap})
}

// ActiveSession godoc
// GET /api/v1/student/sessions/active
func (h *SessionHandler) ActiveSession(c *gin.Context) {
	snap, err := h.sessionService.Active(middleware.SubjectID(c))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// GetSession godoc
// GET /api/v1/student/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	snap, err := h.sessionService.Get(middleware.SubjectID(c), c.Param("id"))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// GetPaper godoc
// GET /api/v1/student/sessions/:id/paper
// Returns the rendered questions without answer keys.
func (h *SessionHandler) GetPaper(c *gin.Context) {
	paper, err := h.sessionService.Paper(c.Request.Context(), middleware.SubjectID(c), c.Param("id"))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// ApplyAction godoc
// POST /api/v1/student/sessions/:id/actions
func (h *SessionHandler) ApplyAction(c *gin.Context) {
	var req model.ActionRequest
	if !bindJSON(c, &req) {
		return
	}

	snap, err := h.sessionService.Act(middleware.SubjectID(c), c.Param("id"), &req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Navigate godoc
// POST /api/v1/student/sessions/:id/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if !bindJSON(c, &req) {
		return
	}

	snap, err := h.sessionService.Navigate(middleware.SubjectID(c), c.Param("id"), &req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Submit godoc
// POST /api/v1/student/sessions/:id/submit[?wait=true]
// Starts the submission. With wait=true the response carries the outcome;
// otherwise it returns 202 and progress arrives on the stream.
func (h *SessionHandler) Submit(c *gin.Context) {
	wait := c.Query("wait") == "true"

	snap, err := h.sessionService.Submit(c.Request.Context(), middleware.SubjectID(c), c.Param("id"), wait)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	status := http.StatusAccepted
	if snap.Outcome != nil {
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{"session": snap})
}

// Review godoc
// GET /api/v1/student/sessions/:id/review
func (h *SessionHandler) Review(c *gin.Context) {
	report, err := h.sessionService.Review(middleware.SubjectID(c), c.Param("id"))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"review": report})
}

// ExitSession godoc
// DELETE /api/v1/student/sessions/:id
func (h *SessionHandler) ExitSession(c *gin.Context) {
	if err := h.sessionService.Exit(middleware.SubjectID(c), c.Param("id")); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"closed": true})
}
