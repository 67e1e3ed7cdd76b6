package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/validator"
)

type questionService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// requireInstructor loads the acting user and checks content-management
// permissions.
func (s *questionService) requireInstructor(ctx context.Context, userID uint, resource string, resourceID uint, action string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, resourceID, resource, action, "insufficient role permissions")
	}
	return user, nil
}

// Create adds a question with its answers to an assessment's pool.
func (s *questionService) Create(ctx context.Context, assessmentID uint, req *CreateQuestionRequest, userID uint) (*QuestionResponse, error) {
	if _, err := s.requireInstructor(ctx, userID, "question", 0, "create"); err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateQuestionCreate(req); errs.HasErrors() {
		return nil, NewValidationError("request", errs.Error(), nil)
	}

	if _, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	question := questionFromRequest(assessmentID, req)

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created",
		"question_id", question.ID,
		"assessment_id", assessmentID,
		"user_id", userID)

	return &QuestionResponse{Question: question}, nil
}

// GetByID returns one question with its answers.
func (s *questionService) GetByID(ctx context.Context, id uint) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &QuestionResponse{Question: question}, nil
}

// GetByAssessment returns an assessment's questions in pool order.
func (s *questionService) GetByAssessment(ctx context.Context, assessmentID uint) ([]*QuestionResponse, error) {
	questions, err := s.repo.Question().GetByAssessment(ctx, nil, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	out := make([]*QuestionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, &QuestionResponse{Question: q})
	}
	return out, nil
}

// Update applies a partial update; a non-nil answer list replaces the whole
// answer set.
func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID uint) (*QuestionResponse, error) {
	if _, err := s.requireInstructor(ctx, userID, "question", id, "update"); err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("request", errs.Error(), nil)
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.OrderIndex != nil {
		question.OrderIndex = *req.OrderIndex
	}
	if req.Answers != nil {
		if errs := s.validator.ValidateQuestionCreate(&CreateQuestionRequest{
			Text:       question.Text,
			Type:       question.Type,
			Difficulty: question.Difficulty,
			Points:     question.Points,
			Answers:    req.Answers,
		}); errs.HasErrors() {
			return nil, NewValidationError("answers", errs.Error(), nil)
		}
		question.Answers = nil
		for i, a := range req.Answers {
			question.Answers = append(question.Answers, models.Answer{
				QuestionID:  question.ID,
				Text:        a.Text,
				IsCorrect:   a.IsCorrect,
				Explanation: a.Explanation,
				OrderIndex:  i,
			})
		}
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Question().Update(ctx, nil, question)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	return &QuestionResponse{Question: question}, nil
}

// Delete removes a question from the pool.
func (s *questionService) Delete(ctx context.Context, id uint, userID uint) error {
	if _, err := s.requireInstructor(ctx, userID, "question", id, "delete"); err != nil {
		return err
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted", "question_id", id, "user_id", userID)
	return nil
}

// CreateAssessment creates an instructor-authored assessment, optionally
// with its full question set in one call.
func (s *questionService) CreateAssessment(ctx context.Context, req *CreateAssessmentRequest, userID uint) (*AssessmentResponse, error) {
	if _, err := s.requireInstructor(ctx, userID, "assessment", 0, "create"); err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateAssessmentCreate(req); errs.HasErrors() {
		return nil, NewValidationError("request", errs.Error(), nil)
	}

	if _, err := s.repo.Module().GetByID(ctx, nil, req.ModuleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	passThreshold := req.PassThreshold
	if passThreshold == 0 {
		passThreshold = defaultPassThreshold
	}

	assessment := &models.Assessment{
		ModuleID:           req.ModuleID,
		Title:              req.Title,
		Description:        req.Description,
		TimeLimit:          req.TimeLimit,
		PassThreshold:      passThreshold,
		IsActive:           true,
		RandomizeQuestions: req.RandomizeQuestions,
		CreatedBy:          &userID,
	}
	for i := range req.Questions {
		q := questionFromRequest(0, &req.Questions[i])
		if q.OrderIndex == 0 {
			q.OrderIndex = i
		}
		assessment.Questions = append(assessment.Questions, *q)
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Assessment().Create(ctx, nil, assessment)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.Info("Assessment created",
		"assessment_id", assessment.ID,
		"module_id", assessment.ModuleID,
		"user_id", userID)

	return &AssessmentResponse{Assessment: assessment, QuestionCount: len(assessment.Questions)}, nil
}

// UpdateAssessment applies a partial update to an assessment's metadata.
func (s *questionService) UpdateAssessment(ctx context.Context, id uint, req *UpdateAssessmentRequest, userID uint) (*AssessmentResponse, error) {
	user, err := s.requireInstructor(ctx, userID, "assessment", id, "update")
	if err != nil {
		return nil, err
	}

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("request", errs.Error(), nil)
	}

	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if !canManageAssessment(user, assessment) {
		return nil, NewPermissionError(userID, id, "assessment", "update", "not owner")
	}

	if req.Title != nil {
		assessment.Title = *req.Title
	}
	if req.Description != nil {
		assessment.Description = req.Description
	}
	if req.TimeLimit != nil {
		assessment.TimeLimit = req.TimeLimit
	}
	if req.PassThreshold != nil {
		assessment.PassThreshold = *req.PassThreshold
	}
	if req.IsActive != nil {
		assessment.IsActive = *req.IsActive
	}
	if req.RandomizeQuestions != nil {
		assessment.RandomizeQuestions = *req.RandomizeQuestions
	}

	if err := s.repo.Assessment().Update(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	return &AssessmentResponse{Assessment: assessment, QuestionCount: len(assessment.Questions)}, nil
}

// DeleteAssessment soft-deletes an assessment and its question pool.
func (s *questionService) DeleteAssessment(ctx context.Context, id uint, userID uint) error {
	user, err := s.requireInstructor(ctx, userID, "assessment", id, "delete")
	if err != nil {
		return err
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}

	if !canManageAssessment(user, assessment) {
		return NewPermissionError(userID, id, "assessment", "delete", "not owner")
	}

	if err := s.repo.Assessment().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	s.logger.Info("Assessment deleted", "assessment_id", id, "user_id", userID)
	return nil
}

// canManageAssessment allows admins everywhere and instructors on their own
// assessments. Synthesized assessments (no creator) are manageable by any
// instructor.
func canManageAssessment(user *models.User, assessment *models.Assessment) bool {
	if user.Role == models.RoleAdmin {
		return true
	}
	if assessment.CreatedBy == nil {
		return true
	}
	return *assessment.CreatedBy == user.ID
}

func questionFromRequest(assessmentID uint, req *CreateQuestionRequest) *models.Question {
	points := req.Points
	if points == 0 {
		points = req.Difficulty.QuestionPoints()
	}

	question := &models.Question{
		AssessmentID: assessmentID,
		Text:         req.Text,
		Type:         req.Type,
		Difficulty:   req.Difficulty,
		Points:       points,
		OrderIndex:   req.OrderIndex,
	}
	for i, a := range req.Answers {
		question.Answers = append(question.Answers, models.Answer{
			Text:        a.Text,
			IsCorrect:   a.IsCorrect,
			Explanation: a.Explanation,
			OrderIndex:  i,
		})
	}
	return question
}
