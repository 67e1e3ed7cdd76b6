package services

import (
	"fmt"

	"github.com/cybersafe-edu/assessment-service/internal/models"
)

// buildQuizResponse maps an assessment and its selected questions into the
// learner-facing payload. Answer correctness and explanations are redacted
// so pre-grading responses never leak the key.
func buildQuizResponse(assessment *models.Assessment, questions []models.Question) *QuizResponse {
	resp := &QuizResponse{
		AssessmentID:  assessment.ID,
		ModuleID:      assessment.ModuleID,
		Title:         assessment.Title,
		TimeLimit:     assessment.TimeLimit,
		PassThreshold: assessment.PassThreshold,
		Questions:     make([]QuizQuestion, 0, len(questions)),
	}

	for _, q := range questions {
		question := QuizQuestion{
			ID:      q.ID,
			Text:    q.Text,
			Type:    q.Type,
			Points:  q.Points,
			Answers: make([]QuizAnswer, 0, len(q.Answers)),
		}
		for _, a := range q.Answers {
			question.Answers = append(question.Answers, QuizAnswer{
				ID:   a.ID,
				Text: a.Text,
			})
		}
		resp.Questions = append(resp.Questions, question)
	}

	return resp
}

// synthesizeQuestion fabricates one placeholder multiple choice question
// with one correct and three incorrect options.
func synthesizeQuestion(moduleTitle string, difficulty models.DifficultyLevel, points, index int) models.Question {
	return models.Question{
		Text:       fmt.Sprintf("Question %d: Which statement about %s is correct?", index+1, moduleTitle),
		Type:       models.MultipleChoice,
		Difficulty: difficulty,
		Points:     points,
		OrderIndex: index,
		Answers: []models.Answer{
			{Text: "This is the correct practice for this topic.", IsCorrect: true, OrderIndex: 0},
			{Text: "This approach is outdated and no longer recommended.", IsCorrect: false, OrderIndex: 1},
			{Text: "This only applies to legacy systems.", IsCorrect: false, OrderIndex: 2},
			{Text: "None of the above.", IsCorrect: false, OrderIndex: 3},
		},
	}
}
