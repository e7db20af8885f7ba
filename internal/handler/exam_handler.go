package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/render"
	"github.com/apexlabs/ntamock-backend/internal/response"
	"github.com/apexlabs/ntamock-backend/internal/service"
)

// ExamHandler handles exam authoring for admins and the exam list for students.
type ExamHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		log:         log.With().Str("component", "exam_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/v1/admin/exams and GET /api/v1/student/exams
func (h *ExamHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.List(c.Request.Context())
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/admin/exams/:id
// Returns the full exam including answer keys.
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, err := h.examService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *ExamHandler) CreateExam(c *gin.Context) {
	h.save(c, "", http.StatusCreated)
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:id
// Replaces the exam wholesale. Sessions already running keep their copy.
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	h.save(c, c.Param("id"), http.StatusOK)
}

func (h *ExamHandler) save(c *gin.Context, id string, status int) {
	var req model.SaveExamRequest
	if !bindJSON(c, &req) {
		return
	}

	exam, err := h.examService.Save(c.Request.Context(), id, &req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, status, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	if err := h.examService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GenerateExam godoc
// POST /api/v1/admin/exams/generate
// Drafts a paper with the question generator. Nothing is saved.
func (h *ExamHandler) GenerateExam(c *gin.Context) {
	var req model.GenerateExamRequest
	if !bindJSON(c, &req) {
		return
	}

	draft, err := h.examService.Generate(c.Request.Context(), &req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, draft)
}

// RenderPreview godoc
// POST /api/v1/admin/render
// Renders math markup so authors can preview a question.
func (h *ExamHandler) RenderPreview(c *gin.Context) {
	var req model.RenderRequest
	if !bindJSON(c, &req) {
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"html":     render.HTML(req.Text),
		"segments": render.Segments(req.Text),
	})
}
