package services

import (
	"context"
	"testing"
	"time"

	"github.com/cybersafe-edu/assessment-service/internal/models"
)

func seedAchievementDefs(repo *mockRepository) {
	repo.addAchievementDef(&models.Achievement{Code: models.AchievementFirstPass, Title: "First Pass", Points: 10})
	repo.addAchievementDef(&models.Achievement{Code: models.AchievementPerfectScore, Title: "Perfect Score", Points: 25})
	repo.addAchievementDef(&models.Achievement{Code: models.AchievementStreak7, Title: "Week Streak", Points: 50})
	repo.addAchievementDef(&models.Achievement{Code: models.AchievementStreak30, Title: "Month Streak", Points: 200})
	repo.addAchievementDef(&models.Achievement{Code: models.AchievementModuleMaster, Title: "Module Master", Points: 100})
}

func passedAttempt(score float64, completedAt time.Time) *models.UserAssessmentAttempt {
	return &models.UserAssessmentAttempt{
		Score:       score,
		Passed:      score >= 70,
		CompletedAt: completedAt,
	}
}

func earnedCodes(earned []*models.Achievement) map[models.AchievementCode]bool {
	codes := map[models.AchievementCode]bool{}
	for _, a := range earned {
		codes[a.Code] = true
	}
	return codes
}

func TestProcessAttemptCompletion_FirstPass(t *testing.T) {
	repo := newMockRepository()
	seedAchievementDefs(repo)
	svc := NewAchievementService(nil, repo, testLogger())

	earned, err := svc.ProcessAttemptCompletion(context.Background(), 1, passedAttempt(80, time.Now()))
	if err != nil {
		t.Fatalf("ProcessAttemptCompletion failed: %v", err)
	}

	codes := earnedCodes(earned)
	if !codes[models.AchievementFirstPass] {
		t.Error("first passing attempt should earn first_pass")
	}
	if codes[models.AchievementPerfectScore] {
		t.Error("80 is not a perfect score")
	}
}

func TestProcessAttemptCompletion_BadgesAwardedOnce(t *testing.T) {
	repo := newMockRepository()
	seedAchievementDefs(repo)
	svc := NewAchievementService(nil, repo, testLogger())

	if _, err := svc.ProcessAttemptCompletion(context.Background(), 1, passedAttempt(100, time.Now())); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}
	earned, err := svc.ProcessAttemptCompletion(context.Background(), 1, passedAttempt(100, time.Now()))
	if err != nil {
		t.Fatalf("second completion failed: %v", err)
	}

	if len(earned) != 0 {
		t.Errorf("repeat completion re-earned %d badges", len(earned))
	}
}

func TestProcessAttemptCompletion_FailedAttemptEarnsNoPassBadge(t *testing.T) {
	repo := newMockRepository()
	seedAchievementDefs(repo)
	svc := NewAchievementService(nil, repo, testLogger())

	earned, err := svc.ProcessAttemptCompletion(context.Background(), 1, passedAttempt(40, time.Now()))
	if err != nil {
		t.Fatalf("ProcessAttemptCompletion failed: %v", err)
	}

	codes := earnedCodes(earned)
	if codes[models.AchievementFirstPass] {
		t.Error("failed attempt must not earn first_pass")
	}
}

func TestProcessAttemptCompletion_MissingDefinitionIsSkipped(t *testing.T) {
	repo := newMockRepository() // no definitions seeded
	svc := NewAchievementService(nil, repo, testLogger())

	earned, err := svc.ProcessAttemptCompletion(context.Background(), 1, passedAttempt(100, time.Now()))
	if err != nil {
		t.Fatalf("missing badge definitions must not fail processing: %v", err)
	}
	if len(earned) != 0 {
		t.Errorf("earned %d badges without definitions", len(earned))
	}
}

func TestStreakProgression(t *testing.T) {
	repo := newMockRepository()
	svc := NewAchievementService(nil, repo, testLogger())
	ctx := context.Background()

	day := func(n int) time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	}

	// Day 0: streak starts at 1.
	if _, err := svc.ProcessAttemptCompletion(ctx, 1, passedAttempt(40, day(0))); err != nil {
		t.Fatal(err)
	}
	if got := repo.streaks[1].CurrentStreak; got != 1 {
		t.Errorf("after first activity streak = %d, want 1", got)
	}

	// Same day again: unchanged.
	if _, err := svc.ProcessAttemptCompletion(ctx, 1, passedAttempt(40, day(0).Add(3*time.Hour))); err != nil {
		t.Fatal(err)
	}
	if got := repo.streaks[1].CurrentStreak; got != 1 {
		t.Errorf("same-day activity changed streak to %d", got)
	}

	// Next day: extends.
	if _, err := svc.ProcessAttemptCompletion(ctx, 1, passedAttempt(40, day(1))); err != nil {
		t.Fatal(err)
	}
	if got := repo.streaks[1].CurrentStreak; got != 2 {
		t.Errorf("next-day activity streak = %d, want 2", got)
	}

	// Gap of two days: resets to 1 but longest remembers 2.
	if _, err := svc.ProcessAttemptCompletion(ctx, 1, passedAttempt(40, day(3))); err != nil {
		t.Fatal(err)
	}
	streak := repo.streaks[1]
	if streak.CurrentStreak != 1 {
		t.Errorf("after a gap streak = %d, want 1", streak.CurrentStreak)
	}
	if streak.LongestStreak != 2 {
		t.Errorf("longest streak = %d, want 2", streak.LongestStreak)
	}
}

func TestStreakBadgeAtSevenDays(t *testing.T) {
	repo := newMockRepository()
	seedAchievementDefs(repo)
	svc := NewAchievementService(nil, repo, testLogger())
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var lastEarned []*models.Achievement
	for d := 0; d < 7; d++ {
		var err error
		lastEarned, err = svc.ProcessAttemptCompletion(ctx, 1, passedAttempt(40, start.AddDate(0, 0, d)))
		if err != nil {
			t.Fatal(err)
		}
	}

	if !earnedCodes(lastEarned)[models.AchievementStreak7] {
		t.Error("seventh consecutive day should earn streak_7")
	}
	if earnedCodes(lastEarned)[models.AchievementStreak30] {
		t.Error("streak_30 requires thirty days")
	}
}

func TestModuleMasterAtFivePassedModules(t *testing.T) {
	repo := newMockRepository()
	seedAchievementDefs(repo)
	svc := NewAchievementService(nil, repo, testLogger())
	ctx := context.Background()

	// Pass attempts in five distinct modules.
	for i := 0; i < 5; i++ {
		module := repo.addModule(&models.Module{Title: "M", IsPublished: true})
		assessment := repo.addAssessment(&models.Assessment{ModuleID: module.ID, Title: "A", IsActive: true})
		repo.attempts = append(repo.attempts, &models.UserAssessmentAttempt{
			ID:           repo.id(),
			UserID:       1,
			AssessmentID: assessment.ID,
			Score:        90,
			Passed:       true,
			CompletedAt:  time.Now(),
		})
	}

	earned, err := svc.ProcessAttemptCompletion(ctx, 1, passedAttempt(90, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if !earnedCodes(earned)[models.AchievementModuleMaster] {
		t.Error("five passed modules should earn module_master")
	}
}

func TestGetUserStreak_NoActivity(t *testing.T) {
	repo := newMockRepository()
	svc := NewAchievementService(nil, repo, testLogger())

	streak, err := svc.GetUserStreak(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetUserStreak failed: %v", err)
	}
	if streak.CurrentStreak != 0 || streak.LongestStreak != 0 {
		t.Errorf("expected zero streak, got %+v", streak)
	}
}
