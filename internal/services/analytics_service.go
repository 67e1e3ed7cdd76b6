package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

const recentAttemptLimit = 5

type analyticsService struct {
	db     *gorm.DB
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAnalyticsService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

// GetUserAssessmentHistory returns a page of past attempts, most recent
// first, with standard offset pagination.
func (s *analyticsService) GetUserAssessmentHistory(ctx context.Context, userID uint, page, limit int) (*AttemptHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filters := repositories.AttemptFilters{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	attempts, total, err := s.repo.Attempt().GetByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}

	items := make([]AttemptHistoryItem, 0, len(attempts))
	for _, attempt := range attempts {
		items = append(items, historyItem(attempt))
	}

	pages := int((total + int64(limit) - 1) / int64(limit))

	return &AttemptHistoryResponse{
		Data: items,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: pages,
		},
	}, nil
}

// GetUserAssessmentProgress aggregates every attempt of the user into a
// summary, a per-module breakdown, and the most recent attempts. A user
// with no attempts gets a zero-filled summary.
func (s *analyticsService) GetUserAssessmentProgress(ctx context.Context, userID uint) (*AssessmentProgressResponse, error) {
	attempts, err := s.repo.Attempt().GetAllByUserWithAnswers(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	resp := &AssessmentProgressResponse{
		ByModule:       []ModuleProgressStats{},
		RecentAttempts: []AttemptHistoryItem{},
	}

	if len(attempts) == 0 {
		return resp, nil
	}

	resp.Summary = summarizeAttempts(attempts)

	moduleStats, err := s.repo.Attempt().GetModuleStatsByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load module stats: %w", err)
	}
	for _, ms := range moduleStats {
		passRate := 0.0
		if ms.Attempts > 0 {
			passRate = float64(ms.Passed) / float64(ms.Attempts) * 100
		}
		resp.ByModule = append(resp.ByModule, ModuleProgressStats{
			ModuleID:     ms.ModuleID,
			ModuleTitle:  ms.ModuleTitle,
			Attempts:     ms.Attempts,
			PassRate:     passRate,
			AverageScore: ms.AverageScore,
		})
	}

	recent, _, err := s.repo.Attempt().GetByUser(ctx, nil, userID, repositories.AttemptFilters{Limit: recentAttemptLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent attempts: %w", err)
	}
	for _, attempt := range recent {
		resp.RecentAttempts = append(resp.RecentAttempts, historyItem(attempt))
	}

	return resp, nil
}

// summarizeAttempts reduces all attempts into the aggregate summary. An
// answer counts as correct only when its referenced option row exists and
// is marked correct; free-text and dangling references count as attempted
// but incorrect, which deliberately differs from the grading engine's own
// half-credit rule.
func summarizeAttempts(attempts []*models.UserAssessmentAttempt) ProgressSummary {
	var (
		passed         int
		scoreSum       float64
		totalAnswers   int
		correctAnswers int
		totalTime      int
	)

	for _, attempt := range attempts {
		if attempt.Passed {
			passed++
		}
		scoreSum += attempt.Score
		totalTime += attempt.TimeSpent
		totalAnswers += len(attempt.Answers)
		for _, ua := range attempt.Answers {
			if ua.Answer != nil && ua.Answer.IsCorrect {
				correctAnswers++
			}
		}
	}

	summary := ProgressSummary{
		TotalAttempts: len(attempts),
		PassRate:      float64(passed) / float64(len(attempts)) * 100,
		AverageScore:  scoreSum / float64(len(attempts)),
	}
	if totalAnswers > 0 {
		summary.Accuracy = float64(correctAnswers) / float64(totalAnswers) * 100
		summary.TimePerQuestion = float64(totalTime) / float64(totalAnswers)
	}

	return summary
}

// historyItem flattens a preloaded attempt into one list row.
func historyItem(attempt *models.UserAssessmentAttempt) AttemptHistoryItem {
	return AttemptHistoryItem{
		ID:              attempt.ID,
		AssessmentTitle: attempt.Assessment.Title,
		ModuleTitle:     attempt.Assessment.Module.Title,
		Score:           attempt.Score,
		Passed:          attempt.Passed,
		AttemptNumber:   attempt.AttemptNumber,
		CompletedAt:     attempt.CompletedAt,
		TimeSpent:       attempt.TimeSpent,
	}
}
