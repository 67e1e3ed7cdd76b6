package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/validator"
)

const (
	defaultQuestionCount  = 10
	maxQuestionCount      = 50
	assembledTimeLimit    = 15 // minutes
	defaultPassThreshold  = 70
	maxSynthesizedMinutes = 30
)

type quizService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator

	// rng is injectable so selection can be made deterministic in tests.
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewQuizService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, rng *rand.Rand) QuizService {
	return &quizService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		rng:       rng,
	}
}

// GenerateQuiz produces a quiz for a module through a three-tier fallback:
// reuse the module's active assessment, assemble a new assessment from the
// module's question pool, or synthesize placeholder questions.
func (s *quizService) GenerateQuiz(ctx context.Context, userID uint, req *GenerateQuizRequest) (*QuizResponse, error) {
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyBeginner
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = defaultQuestionCount
	}

	if req.QuestionCount < 1 || req.QuestionCount > maxQuestionCount {
		return nil, NewValidationError("question_count", fmt.Sprintf("must be between 1 and %d", maxQuestionCount), req.QuestionCount)
	}
	if !req.Difficulty.Valid() {
		return nil, NewValidationError("difficulty", "must be one of BEGINNER, INTERMEDIATE, ADVANCED, EXPERT", req.Difficulty)
	}

	s.logger.Info("Generating quiz",
		"user_id", userID,
		"module_id", req.ModuleID,
		"difficulty", req.Difficulty,
		"question_count", req.QuestionCount)

	module, err := s.repo.Module().GetByID(ctx, nil, req.ModuleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	// Tier 1: reuse the module's active assessment when it already holds
	// enough questions at the requested difficulty.
	if quiz, ok, err := s.reuseActiveAssessment(ctx, req); err != nil {
		return nil, err
	} else if ok {
		s.logger.Info("Quiz generated from existing assessment",
			"user_id", userID,
			"assessment_id", quiz.AssessmentID)
		return quiz, nil
	}

	// Tier 2: assemble a fresh assessment from the module's pool.
	if quiz, ok, err := s.assembleFromPool(ctx, module, req); err != nil {
		return nil, err
	} else if ok {
		s.logger.Info("Quiz assembled from question pool",
			"user_id", userID,
			"assessment_id", quiz.AssessmentID)
		return quiz, nil
	}

	// Tier 3: not enough real content exists anywhere, synthesize.
	quiz, err := s.synthesizeQuiz(ctx, module, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz synthesized with placeholder questions",
		"user_id", userID,
		"assessment_id", quiz.AssessmentID)
	return quiz, nil
}

// reuseActiveAssessment attempts tier 1. The stored assessment is never
// mutated; the response substitutes the selected question subset.
func (s *quizService) reuseActiveAssessment(ctx context.Context, req *GenerateQuizRequest) (*QuizResponse, bool, error) {
	assessment, err := s.repo.Assessment().GetActiveByModule(ctx, nil, req.ModuleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get active assessment: %w", err)
	}

	var candidates []models.Question
	for _, q := range assessment.Questions {
		if q.Difficulty == req.Difficulty {
			candidates = append(candidates, q)
		}
	}

	if len(candidates) < req.QuestionCount {
		return nil, false, nil
	}

	var selected []models.Question
	if assessment.RandomizeQuestions {
		shuffled := make([]models.Question, len(candidates))
		copy(shuffled, candidates)
		s.shuffleQuestions(shuffled)
		selected = shuffled[:req.QuestionCount]
	} else {
		// candidates preserve the stored order-index ordering
		selected = candidates[:req.QuestionCount]
	}

	return buildQuizResponse(assessment, selected), true, nil
}

// assembleFromPool attempts tier 2: deep-copy a random selection of pool
// questions into a brand-new assessment. The whole creation runs in one
// transaction so a failed copy leaves nothing behind.
func (s *quizService) assembleFromPool(ctx context.Context, module *models.Module, req *GenerateQuizRequest) (*QuizResponse, bool, error) {
	pool, err := s.repo.Question().GetByModuleAndDifficulty(ctx, nil, req.ModuleID, req.Difficulty)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query question pool: %w", err)
	}

	if len(pool) < req.QuestionCount {
		return nil, false, nil
	}

	shuffled := make([]*models.Question, len(pool))
	copy(shuffled, pool)
	s.shuffleQuestionPtrs(shuffled)
	picked := shuffled[:req.QuestionCount]

	timeLimit := assembledTimeLimit
	assessment := &models.Assessment{
		ModuleID:           module.ID,
		Title:              fmt.Sprintf("%s Quiz - Module %d", req.Difficulty, module.ID),
		TimeLimit:          &timeLimit,
		PassThreshold:      defaultPassThreshold,
		IsActive:           true,
		RandomizeQuestions: true,
	}

	for i, src := range picked {
		question := models.Question{
			Text:       src.Text,
			Type:       src.Type,
			Difficulty: src.Difficulty,
			Points:     src.Points,
			OrderIndex: i,
		}
		for j, a := range src.Answers {
			question.Answers = append(question.Answers, models.Answer{
				Text:        a.Text,
				IsCorrect:   a.IsCorrect,
				Explanation: a.Explanation,
				OrderIndex:  j,
			})
		}
		assessment.Questions = append(assessment.Questions, question)
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Assessment().Create(ctx, nil, assessment)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create assembled assessment: %w", err)
	}

	return buildQuizResponse(assessment, assessment.Questions), true, nil
}

// synthesizeQuiz is tier 3: fabricate placeholder questions so the learner
// always receives a quiz of the requested size.
func (s *quizService) synthesizeQuiz(ctx context.Context, module *models.Module, req *GenerateQuizRequest) (*QuizResponse, error) {
	timeLimit := req.QuestionCount * 3 / 2
	if timeLimit > maxSynthesizedMinutes {
		timeLimit = maxSynthesizedMinutes
	}
	if timeLimit < 1 {
		timeLimit = 1
	}

	points := req.Difficulty.QuestionPoints()

	assessment := &models.Assessment{
		ModuleID:           module.ID,
		Title:              fmt.Sprintf("%s Practice Quiz - %s", req.Difficulty, module.Title),
		TimeLimit:          &timeLimit,
		PassThreshold:      defaultPassThreshold,
		IsActive:           true,
		RandomizeQuestions: true,
	}

	for i := 0; i < req.QuestionCount; i++ {
		assessment.Questions = append(assessment.Questions, synthesizeQuestion(module.Title, req.Difficulty, points, i))
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Assessment().Create(ctx, nil, assessment)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesized assessment: %w", err)
	}

	return buildQuizResponse(assessment, assessment.Questions), nil
}

// shuffleQuestions performs an in-place Fisher-Yates shuffle.
func (s *quizService) shuffleQuestions(questions []models.Question) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	for i := len(questions) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

func (s *quizService) shuffleQuestionPtrs(questions []*models.Question) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	for i := len(questions) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

// intn draws from the injected source, falling back to the shared one.
// Callers must hold rngMu.
func (s *quizService) intn(n int) int {
	if s.rng != nil {
		return s.rng.Intn(n)
	}
	return rand.Intn(n)
}
