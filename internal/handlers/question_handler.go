package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cybersafe-edu/assessment-service/internal/services"
	"github.com/cybersafe-edu/assessment-service/internal/utils"
)

// maxImportSize caps uploaded workbook size at 10 MiB.
const maxImportSize = 10 << 20

// QuestionHandler is the instructor-facing content management surface:
// assessments, their question pools, and XLSX import/export.
type QuestionHandler struct {
	BaseHandler
	questionService     services.QuestionService
	importExportService services.ImportExportService
}

func NewQuestionHandler(questionService services.QuestionService, importExportService services.ImportExportService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:         NewBaseHandler(logger),
		questionService:     questionService,
		importExportService: importExportService,
	}
}

// CreateAssessment creates an assessment, optionally with inline questions.
func (h *QuestionHandler) CreateAssessment(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating assessment", "user_id", userID, "module_id", req.ModuleID)

	assessment, err := h.questionService.CreateAssessment(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// UpdateAssessment applies a partial update to an assessment.
func (h *QuestionHandler) UpdateAssessment(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	assessment, err := h.questionService.UpdateAssessment(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// DeleteAssessment soft-deletes an assessment.
func (h *QuestionHandler) DeleteAssessment(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.questionService.DeleteAssessment(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Assessment deleted"})
}

// CreateQuestion adds a question to an assessment's pool.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), assessmentID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetQuestion returns one question with its answers.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "question_id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// ListQuestions returns an assessment's question pool.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	questions, err := h.questionService.GetByAssessment(c.Request.Context(), assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// UpdateQuestion applies a partial update; a non-nil answer list replaces
// the whole answer set.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "question_id")
	if id == 0 {
		return
	}

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes a question from the pool.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "question_id")
	if id == 0 {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}

// ImportQuestions ingests an uploaded XLSX workbook into the assessment's
// question pool.
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read upload",
			Details: err.Error(),
		})
		return
	}
	if len(data) > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: "Workbook exceeds the 10 MiB limit",
		})
		return
	}

	h.LogRequest(c, "Importing questions",
		"user_id", userID,
		"assessment_id", assessmentID,
		"size", len(data))

	result, err := h.importExportService.ImportQuestions(c.Request.Context(), assessmentID, data, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportQuestions downloads the assessment's question pool, answer key
// included, as an XLSX workbook.
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	data, err := h.importExportService.ExportQuestions(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("assessment-%d-questions.xlsx", assessmentID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
