package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/config"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
)

type HandlerManager struct {
	authHandler        *AuthHandler
	courseHandler      *CourseHandler
	moduleHandler      *ModuleHandler
	lessonHandler      *LessonHandler
	progressHandler    *ProgressHandler
	quizHandler        *QuizHandler
	certificateHandler *CertificateHandler
	videoHandler       *VideoHandler
	userHandler        *UserHandler
	dashboardHandler   *DashboardHandler
	authMiddleware     *SessionAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	sessionConfig config.SessionConfig,
) *HandlerManager {
	authMiddleware := NewSessionAuthMiddleware(serviceManager.Auth(), sessionConfig)

	return &HandlerManager{
		authHandler:        NewAuthHandler(serviceManager.Auth(), authMiddleware, logger),
		courseHandler:      NewCourseHandler(serviceManager.Course(), logger),
		moduleHandler:      NewModuleHandler(serviceManager.Module(), serviceManager.Lesson(), logger),
		lessonHandler:      NewLessonHandler(serviceManager.Lesson(), logger),
		progressHandler:    NewProgressHandler(serviceManager.Progress(), logger),
		quizHandler:        NewQuizHandler(serviceManager.Quiz(), logger),
		certificateHandler: NewCertificateHandler(serviceManager.Certificate(), logger),
		videoHandler:       NewVideoHandler(serviceManager.Video(), logger),
		userHandler:        NewUserHandler(serviceManager.User(), logger),
		dashboardHandler:   NewDashboardHandler(serviceManager.Dashboard(), serviceManager.Export(), logger),
		authMiddleware:     authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, health func(ctx context.Context) error) {
	router.GET("/health", HealthCheck(health))

	adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

	// Routes reachable without a session
	public := router.Group("/api")
	{
		public.POST("/auth/login", hm.authHandler.Login)
		public.POST("/auth/logout", hm.authHandler.Logout)
		public.GET("/certificates/validate", hm.certificateHandler.ValidateCertificate)
	}

	api := router.Group("/api")
	api.Use(hm.authMiddleware.AuthMiddleware())
	{
		api.GET("/auth/me", hm.authHandler.Me)

		courses := api.Group("/courses")
		{
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/available", hm.courseHandler.ListAvailableCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)

			courses.POST("", adminOnly, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", adminOnly, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", adminOnly, hm.courseHandler.DeleteCourse)
		}

		modules := api.Group("/modules")
		{
			modules.GET("/:id", hm.moduleHandler.GetModule)
			modules.GET("/:id/lessons", hm.moduleHandler.ListLessons)

			modules.POST("", adminOnly, hm.moduleHandler.CreateModule)
			modules.POST("/reorder", adminOnly, hm.moduleHandler.ReorderModules)
			modules.PUT("/:id", adminOnly, hm.moduleHandler.UpdateModule)
			modules.DELETE("/:id", adminOnly, hm.moduleHandler.DeleteModule)
			modules.POST("/:id/lessons", adminOnly, hm.moduleHandler.CreateLesson)
		}

		lessons := api.Group("/lessons")
		{
			lessons.GET("/:id", hm.lessonHandler.GetLesson)

			lessons.PUT("/:id", adminOnly, hm.lessonHandler.UpdateLesson)
			lessons.PATCH("/:id/video", adminOnly, hm.lessonHandler.AttachVideo)
			lessons.DELETE("/:id", adminOnly, hm.lessonHandler.DeleteLesson)
		}

		progress := api.Group("/progress")
		{
			progress.POST("", hm.progressHandler.UpdateProgress)
			progress.GET("", hm.progressHandler.ListProgress)
			progress.GET("/course/:courseId", hm.progressHandler.GetCourseProgress)
			progress.GET("/course/:courseId/completed", hm.progressHandler.GetCourseCompletion)
		}

		quiz := api.Group("/quiz")
		{
			quiz.GET("", hm.quizHandler.GetQuiz)
			quiz.POST("/response", hm.quizHandler.SubmitResponse)
			quiz.GET("/response/user", hm.quizHandler.GetUserResponse)

			quiz.POST("", adminOnly, hm.quizHandler.CreateQuiz)
			quiz.PUT("/:id", adminOnly, hm.quizHandler.UpdateQuiz)
			quiz.GET("/response", adminOnly, hm.quizHandler.ListResults)
		}

		certificates := api.Group("/certificates")
		{
			certificates.POST("", hm.certificateHandler.IssueCertificate)
			certificates.GET("", hm.certificateHandler.GetCertificate)
			certificates.GET("/download", hm.certificateHandler.DownloadCertificate)

			certificates.PATCH("/:id/revoke", adminOnly, hm.certificateHandler.RevokeCertificate)
		}

		videos := api.Group("/videos")
		{
			videos.GET("/:videoId", hm.videoHandler.GetVideo)
			videos.POST("/upload", adminOnly, hm.videoHandler.CreateUpload)
		}

		api.GET("/dashboard", hm.dashboardHandler.GetStudentDashboard)

		// User management - Admins only
		users := api.Group("/users")
		users.Use(adminOnly)
		{
			users.GET("", hm.userHandler.ListUsers)
			users.POST("", hm.userHandler.CreateUser)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.DELETE("/:id", hm.userHandler.DeleteUser)
		}

		admin := api.Group("/admin")
		admin.Use(adminOnly)
		{
			admin.GET("/dashboard", hm.dashboardHandler.GetAdminDashboard)
			admin.GET("/students", hm.dashboardHandler.ListStudents)
			admin.PATCH("/students/:id", hm.userHandler.UpdateStudentStatus)
			admin.GET("/students/:id/progress", hm.dashboardHandler.GetStudentProgress)

			admin.GET("/export/quiz-results.xlsx", hm.dashboardHandler.ExportQuizResults)
			admin.GET("/export/student-progress.xlsx", hm.dashboardHandler.ExportStudentProgress)
		}
	}
}
