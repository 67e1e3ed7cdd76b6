package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
)

const moduleMasterThreshold = 5

type achievementService struct {
	db     *gorm.DB
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAchievementService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger) AchievementService {
	return &achievementService{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

// ProcessAttemptCompletion updates the learner's activity streak and awards
// any badges the attempt newly qualifies them for. Returns the definitions
// of badges earned by this call.
func (s *achievementService) ProcessAttemptCompletion(ctx context.Context, userID uint, attempt *models.UserAssessmentAttempt) ([]*models.Achievement, error) {
	streak, err := s.updateStreak(ctx, userID, attempt.CompletedAt)
	if err != nil {
		return nil, err
	}

	var earned []*models.Achievement

	award := func(code models.AchievementCode) error {
		achievement, err := s.awardOnce(ctx, userID, code)
		if err != nil {
			return err
		}
		if achievement != nil {
			earned = append(earned, achievement)
		}
		return nil
	}

	if attempt.Passed {
		if err := award(models.AchievementFirstPass); err != nil {
			return earned, err
		}
	}
	if attempt.Score >= 100 {
		if err := award(models.AchievementPerfectScore); err != nil {
			return earned, err
		}
	}
	if streak.CurrentStreak >= 7 {
		if err := award(models.AchievementStreak7); err != nil {
			return earned, err
		}
	}
	if streak.CurrentStreak >= 30 {
		if err := award(models.AchievementStreak30); err != nil {
			return earned, err
		}
	}

	if attempt.Passed {
		qualifies, err := s.qualifiesForModuleMaster(ctx, userID)
		if err != nil {
			return earned, err
		}
		if qualifies {
			if err := award(models.AchievementModuleMaster); err != nil {
				return earned, err
			}
		}
	}

	for _, a := range earned {
		s.logger.Info("Achievement earned",
			"user_id", userID,
			"code", a.Code,
			"points", a.Points)
	}

	return earned, nil
}

// updateStreak advances the consecutive-day counter: same-day activity is a
// no-op, next-day activity extends the streak, anything later resets it.
func (s *achievementService) updateStreak(ctx context.Context, userID uint, activeAt time.Time) (*models.StreakRecord, error) {
	streak, err := s.repo.Achievement().GetStreak(ctx, nil, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get streak: %w", err)
		}
		streak = &models.StreakRecord{
			UserID:        userID,
			CurrentStreak: 1,
			LongestStreak: 1,
			LastActiveAt:  activeAt,
		}
		if err := s.repo.Achievement().SaveStreak(ctx, nil, streak); err != nil {
			return nil, fmt.Errorf("failed to save streak: %w", err)
		}
		return streak, nil
	}

	lastDay := dateOf(streak.LastActiveAt)
	today := dateOf(activeAt)

	switch days := int(today.Sub(lastDay).Hours() / 24); {
	case days == 0:
		// already counted today
	case days == 1:
		streak.CurrentStreak++
	default:
		streak.CurrentStreak = 1
	}

	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	streak.LastActiveAt = activeAt

	if err := s.repo.Achievement().SaveStreak(ctx, nil, streak); err != nil {
		return nil, fmt.Errorf("failed to save streak: %w", err)
	}
	return streak, nil
}

// awardOnce grants the badge unless the user already holds it. Returns nil
// when nothing new was awarded.
func (s *achievementService) awardOnce(ctx context.Context, userID uint, code models.AchievementCode) (*models.Achievement, error) {
	has, err := s.repo.Achievement().HasAchievement(ctx, nil, userID, code)
	if err != nil {
		return nil, fmt.Errorf("failed to check achievement: %w", err)
	}
	if has {
		return nil, nil
	}

	definition, err := s.repo.Achievement().GetDefinitionByCode(ctx, nil, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Badge not seeded in this environment; skip quietly.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get achievement definition: %w", err)
	}

	award := &models.UserAchievement{
		UserID:        userID,
		AchievementID: definition.ID,
		EarnedAt:      time.Now(),
	}
	if err := s.repo.Achievement().Award(ctx, nil, award); err != nil {
		return nil, fmt.Errorf("failed to award achievement: %w", err)
	}

	return definition, nil
}

// qualifiesForModuleMaster checks whether passed attempts span enough
// distinct modules.
func (s *achievementService) qualifiesForModuleMaster(ctx context.Context, userID uint) (bool, error) {
	stats, err := s.repo.Attempt().GetModuleStatsByUser(ctx, nil, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get module stats: %w", err)
	}

	passedModules := 0
	for _, ms := range stats {
		if ms.Passed > 0 {
			passedModules++
		}
	}
	return passedModules >= moduleMasterThreshold, nil
}

// GetUserAchievements returns every badge the user has earned.
func (s *achievementService) GetUserAchievements(ctx context.Context, userID uint) ([]*AchievementResponse, error) {
	awards, err := s.repo.Achievement().GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}

	out := make([]*AchievementResponse, 0, len(awards))
	for _, award := range awards {
		earnedAt := award.EarnedAt
		out = append(out, &AchievementResponse{
			Code:        award.Achievement.Code,
			Title:       award.Achievement.Title,
			Description: award.Achievement.Description,
			Points:      award.Achievement.Points,
			IconURL:     award.Achievement.IconURL,
			EarnedAt:    &earnedAt,
		})
	}
	return out, nil
}

// GetUserStreak returns the user's streak, zero-valued before any activity.
func (s *achievementService) GetUserStreak(ctx context.Context, userID uint) (*StreakResponse, error) {
	streak, err := s.repo.Achievement().GetStreak(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &StreakResponse{}, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	return &StreakResponse{
		CurrentStreak: streak.CurrentStreak,
		LongestStreak: streak.LongestStreak,
		LastActiveAt:  streak.LastActiveAt,
	}, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
