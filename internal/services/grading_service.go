package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/events"
	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/validator"
)

type gradingService struct {
	db                 *gorm.DB
	repo               repositories.Repository
	logger             *slog.Logger
	validator          *validator.Validator
	achievementService AchievementService
	eventPublisher     events.EventPublisher
}

func NewGradingService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, achievementService AchievementService, eventPublisher events.EventPublisher) GradingService {
	return &gradingService{
		db:                 db,
		repo:               repo,
		logger:             logger,
		validator:          validator,
		achievementService: achievementService,
		eventPublisher:     eventPublisher,
	}
}

// SubmitAssessment grades a submission, persists the attempt with its
// answers, and applies the progress side effect when the attempt passes.
// The attempt row is immutable once written; retakes create new rows.
func (s *gradingService) SubmitAssessment(ctx context.Context, userID uint, req *SubmitAssessmentRequest) (*SubmissionResult, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("request", errs.Error(), nil)
	}

	s.logger.Info("Grading submission",
		"user_id", userID,
		"assessment_id", req.AssessmentID,
		"answer_count", len(req.Answers))

	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, nil, req.AssessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}

	grade := gradeSubmission(assessment, req.Answers)

	isPassed := grade.Score >= float64(assessment.PassThreshold)
	withinTimeLimit := true
	if assessment.TimeLimit != nil {
		withinTimeLimit = float64(req.TimeSpentSeconds)/60.0 <= float64(*assessment.TimeLimit)
	}
	finalPassed := isPassed && withinTimeLimit

	now := time.Now()
	attempt := &models.UserAssessmentAttempt{
		UserID:       userID,
		AssessmentID: assessment.ID,
		StartedAt:    now.Add(-time.Duration(req.TimeSpentSeconds) * time.Second),
		CompletedAt:  now,
		TimeSpent:    req.TimeSpentSeconds,
		Score:        grade.Score,
		Passed:       finalPassed,
		ClientInfo:   req.ClientInfo,
	}

	// Every submitted answer is stored, whether or not it matched one of
	// the assessment's questions.
	for _, a := range req.Answers {
		attempt.Answers = append(attempt.Answers, models.UserAnswer{
			QuestionID: a.QuestionID,
			AnswerID:   a.AnswerID,
			TextAnswer: a.TextAnswer,
		})
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		priorCount, err := txRepo.Attempt().CountByUserAndAssessment(ctx, nil, userID, assessment.ID)
		if err != nil {
			return fmt.Errorf("failed to count prior attempts: %w", err)
		}
		attempt.AttemptNumber = int(priorCount) + 1

		if err := txRepo.Attempt().Create(ctx, nil, attempt); err != nil {
			return fmt.Errorf("failed to persist attempt: %w", err)
		}

		if finalPassed && assessment.ModuleID != 0 {
			if err := s.applyProgress(ctx, txRepo, userID, assessment.ModuleID, grade.EarnedPoints); err != nil {
				return fmt.Errorf("failed to update progress: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Submission graded",
		"user_id", userID,
		"assessment_id", assessment.ID,
		"attempt_id", attempt.ID,
		"attempt_number", attempt.AttemptNumber,
		"score", grade.Score,
		"passed", finalPassed)

	// Gamification and event fan-out happen after the attempt is durable;
	// failures here never fail the submission.
	s.applyPostCommitEffects(ctx, userID, assessment, attempt, grade, finalPassed)

	return &SubmissionResult{
		Attempt: AttemptSummary{
			ID:           attempt.ID,
			Score:        grade.Score,
			IsPassed:     finalPassed,
			PointsEarned: grade.EarnedPoints,
		},
		Feedback: FeedbackSummary{
			TotalQuestions:  len(assessment.Questions),
			CorrectAnswers:  grade.CorrectAnswers,
			TimeSpent:       float64(req.TimeSpentSeconds) / 60.0,
			WithinTimeLimit: withinTimeLimit,
		},
	}, nil
}

// applyProgress upserts the (user, module) progress row inside the grading
// transaction. Last writer wins on concurrent submissions.
func (s *gradingService) applyProgress(ctx context.Context, txRepo repositories.Repository, userID, moduleID uint, earnedPoints float64) error {
	now := time.Now()

	progress, err := txRepo.Progress().GetByUserAndModule(ctx, nil, userID, moduleID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return err
		}
		progress = &models.UserProgress{
			UserID:   userID,
			ModuleID: moduleID,
		}
		progress.Status = models.StatusCompleted
		progress.ProgressPercentage = 100
		progress.PointsEarned = int(earnedPoints)
		progress.LastAccessedAt = now
		progress.CompletedAt = &now
		return txRepo.Progress().Create(ctx, nil, progress)
	}

	progress.Status = models.StatusCompleted
	progress.ProgressPercentage = 100
	progress.PointsEarned += int(earnedPoints)
	progress.LastAccessedAt = now
	if progress.CompletedAt == nil {
		progress.CompletedAt = &now
	}
	return txRepo.Progress().Update(ctx, nil, progress)
}

// applyPostCommitEffects runs streak/badge processing and publishes events.
func (s *gradingService) applyPostCommitEffects(ctx context.Context, userID uint, assessment *models.Assessment, attempt *models.UserAssessmentAttempt, grade gradeOutcome, finalPassed bool) {
	var earned []*models.Achievement
	if s.achievementService != nil {
		var err error
		earned, err = s.achievementService.ProcessAttemptCompletion(ctx, userID, attempt)
		if err != nil {
			s.logger.Error("Failed to process achievements",
				"error", err,
				"user_id", userID,
				"attempt_id", attempt.ID)
		}
	}

	if s.eventPublisher == nil {
		return
	}

	s.publishEvent(ctx, events.TopicAttemptCompleted, events.NewEvent(events.TopicAttemptCompleted, events.AttemptCompletedEvent{
		UserID:       userID,
		AssessmentID: assessment.ID,
		ModuleID:     assessment.ModuleID,
		AttemptID:    attempt.ID,
		Score:        grade.Score,
		Passed:       finalPassed,
	}))

	if finalPassed && assessment.ModuleID != 0 {
		s.publishEvent(ctx, events.TopicModuleCompleted, events.NewEvent(events.TopicModuleCompleted, events.ModuleCompletedEvent{
			UserID:       userID,
			ModuleID:     assessment.ModuleID,
			PointsEarned: int(grade.EarnedPoints),
		}))
	}

	for _, achievement := range earned {
		s.publishEvent(ctx, events.TopicAchievementEarned, events.NewEvent(events.TopicAchievementEarned, events.AchievementEarnedEvent{
			UserID:          userID,
			AchievementCode: string(achievement.Code),
			Points:          achievement.Points,
		}))
	}
}

func (s *gradingService) publishEvent(ctx context.Context, topic string, event events.Event) {
	if err := s.eventPublisher.Publish(ctx, topic, event); err != nil {
		s.logger.Error("Failed to publish event",
			"error", err,
			"topic", topic)
	}
}
