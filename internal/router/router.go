package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/apexlabs/ntamock-backend/internal/config"
	"github.com/apexlabs/ntamock-backend/internal/handler"
	"github.com/apexlabs/ntamock-backend/internal/metrics"
	"github.com/apexlabs/ntamock-backend/internal/middleware"
	"github.com/apexlabs/ntamock-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Exam        *handler.ExamHandler
	StudentMgmt *handler.StudentManagementHandler
	Session     *handler.SessionHandler
	WS          *handler.WSHandler
	Monitor     *handler.MonitorHandler
	System      *handler.SystemHandler
}

// HealthFunc reports per-dependency status and overall health.
type HealthFunc func(ctx context.Context) (map[string]string, bool)

// SetupRouter configures all Gin route groups with appropriate middlewares.
// Rate limiter eviction runs until ctx is cancelled.
func SetupRouter(
	ctx context.Context,
	tokens middleware.TokenValidator,
	handlers *Handlers,
	health HealthFunc,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// Empty AllowedOrigins means allow all.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	brotliConfig := middleware.DefaultBrotliConfig
	brotliConfig.SkipPrefixes = []string{"/metrics", "/ws/"}
	router.Use(middleware.BrotliWithConfig(brotliConfig))

	router.GET("/health", func(c *gin.Context) {
		hctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status, ok := health(hctx)
		if !ok {
			response.Success(c, http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": status})
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "checks": status})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Per client IP.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	generateLimiter := middleware.NewRateLimiter(3, time.Minute)
	go loginLimiter.Run(ctx)
	go generateLimiter.Run(ctx)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/admin/login", loginLimiter.Middleware(), handlers.Auth.AdminLogin)

		auth.GET("/student/me", middleware.RequireStudentJWT(tokens), handlers.Auth.GetStudentProfile)
		auth.GET("/admin/me", middleware.RequireAdminJWT(tokens), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Student Group ──────────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(tokens))
	{
		studentAPI.GET("/exams", handlers.Exam.ListExams)

		studentAPI.POST("/sessions", handlers.Session.StartSession)
		studentAPI.GET("/sessions/active", handlers.Session.ActiveSession)
		studentAPI.GET("/sessions/:id", handlers.Session.GetSession)
		studentAPI.GET("/sessions/:id/paper", handlers.Session.GetPaper)
		studentAPI.POST("/sessions/:id/actions", handlers.Session.ApplyAction)
		studentAPI.POST("/sessions/:id/navigate", handlers.Session.Navigate)
		studentAPI.POST("/sessions/:id/submit", handlers.Session.Submit)
		studentAPI.GET("/sessions/:id/review", handlers.Session.Review)
		studentAPI.DELETE("/sessions/:id", handlers.Session.ExitSession)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(tokens))
	{
		ws.GET("/student/sessions/:id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Admin Group ────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(tokens))
	{
		adminAPI.GET("/exams", handlers.Exam.ListExams)
		adminAPI.POST("/exams", handlers.Exam.CreateExam)
		adminAPI.POST("/exams/generate", generateLimiter.Middleware(), handlers.Exam.GenerateExam)
		adminAPI.GET("/exams/:id", handlers.Exam.GetExam)
		adminAPI.PUT("/exams/:id", handlers.Exam.UpdateExam)
		adminAPI.DELETE("/exams/:id", handlers.Exam.DeleteExam)
		adminAPI.POST("/render", handlers.Exam.RenderPreview)

		adminAPI.GET("/students", handlers.StudentMgmt.ListStudents)
		adminAPI.POST("/students", handlers.StudentMgmt.CreateStudent)
		adminAPI.DELETE("/students/:id", handlers.StudentMgmt.DeleteStudent)

		adminAPI.GET("/results", handlers.Monitor.ListResults)
		adminAPI.GET("/results/stream", handlers.Monitor.ResultsStream)
		adminAPI.GET("/sessions", handlers.Monitor.ListSessions)

		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}
