package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/config"
	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/services"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

type HandlerManager struct {
	quizHandler        *QuizHandler
	gradingHandler     *GradingHandler
	moduleHandler      *ModuleHandler
	analyticsHandler   *AnalyticsHandler
	progressHandler    *ProgressHandler
	achievementHandler *AchievementHandler
	feedbackHandler    *FeedbackHandler
	questionHandler    *QuestionHandler
	authMiddleware     *CasdoorAuthMiddleware
	serviceManager     services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:        NewQuizHandler(serviceManager.Quiz(), logger),
		gradingHandler:     NewGradingHandler(serviceManager.Grading(), logger),
		moduleHandler:      NewModuleHandler(serviceManager.Module(), logger),
		analyticsHandler:   NewAnalyticsHandler(serviceManager.Analytics(), logger),
		progressHandler:    NewProgressHandler(serviceManager.Progress(), logger),
		achievementHandler: NewAchievementHandler(serviceManager.Achievement(), logger),
		feedbackHandler:    NewFeedbackHandler(serviceManager.Feedback(), logger),
		questionHandler:    NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), logger),
		authMiddleware:     NewCasdoorAuthMiddleware(casdoorConfig, userRepo, logger),
		serviceManager:     serviceManager,
	}
}

// SetupRoutes wires every API route.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	instructorOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleInstructor, models.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Learner-facing quiz flow
		quiz := v1.Group("/quiz")
		{
			quiz.POST("/generate", hm.quizHandler.GenerateQuiz)
			quiz.POST("/submit", hm.gradingHandler.SubmitAssessment)
		}

		// Attempt history and aggregate analytics
		attempts := v1.Group("/attempts")
		{
			attempts.GET("/history", hm.analyticsHandler.GetHistory)
			attempts.GET("/progress", hm.analyticsHandler.GetProgress)
		}

		// Module catalog and module-level progress
		modules := v1.Group("/modules")
		{
			modules.GET("", hm.moduleHandler.ListModules)
			modules.GET("/:id", hm.moduleHandler.GetModule)
			modules.POST("/:id/start", hm.progressHandler.StartModule)
			modules.PUT("/:id/progress", hm.progressHandler.UpdateSectionProgress)
			modules.POST("/:id/complete", hm.progressHandler.CompleteModule)
		}
		v1.GET("/progress", hm.progressHandler.GetUserProgress)

		// Gamification
		v1.GET("/achievements", hm.achievementHandler.GetAchievements)
		v1.GET("/streak", hm.achievementHandler.GetStreak)

		// Feedback
		feedback := v1.Group("/feedback")
		{
			feedback.POST("", hm.feedbackHandler.CreateFeedback)
			feedback.GET("", instructorOnly, hm.feedbackHandler.ListFeedback)
		}

		// Content management - instructors and admins only
		assessments := v1.Group("/assessments")
		{
			assessments.POST("", instructorOnly, hm.questionHandler.CreateAssessment)
			assessments.PUT("/:id", instructorOnly, hm.questionHandler.UpdateAssessment)
			assessments.DELETE("/:id", instructorOnly, hm.questionHandler.DeleteAssessment)

			assessments.GET("/:id/questions", instructorOnly, hm.questionHandler.ListQuestions)
			assessments.POST("/:id/questions", instructorOnly, hm.questionHandler.CreateQuestion)

			assessments.POST("/:id/questions/import", instructorOnly, hm.questionHandler.ImportQuestions)
			assessments.GET("/:id/questions/export", instructorOnly, hm.questionHandler.ExportQuestions)
		}

		questions := v1.Group("/questions")
		{
			questions.GET("/:question_id", instructorOnly, hm.questionHandler.GetQuestion)
			questions.PUT("/:question_id", instructorOnly, hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:question_id", instructorOnly, hm.questionHandler.DeleteQuestion)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "assessment-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
