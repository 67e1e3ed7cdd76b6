package services

import (
	"strings"

	"github.com/cybersafe-edu/assessment-service/internal/models"
)

// gradeOutcome is the pure result of scoring one submission against one
// assessment snapshot.
type gradeOutcome struct {
	TotalPoints    float64
	EarnedPoints   float64
	CorrectAnswers float64
	Score          float64
}

// gradeSubmission scores submitted answers against the assessment's
// questions. Unanswered questions are excluded from the denominator
// entirely; they are skipped, not counted as wrong. The result depends only
// on the assessment snapshot and the submission, so later edits to the
// assessment never change a stored score.
func gradeSubmission(assessment *models.Assessment, answers []SubmittedAnswer) gradeOutcome {
	submitted := make(map[uint]SubmittedAnswer, len(answers))
	for _, a := range answers {
		submitted[a.QuestionID] = a
	}

	var outcome gradeOutcome

	for _, question := range assessment.Questions {
		answer, ok := submitted[question.ID]
		if !ok {
			continue
		}

		outcome.TotalPoints += float64(question.Points)

		switch question.Type {
		case models.MultipleChoice, models.SingleChoice, models.TrueFalse:
			if answer.AnswerID != nil && isCorrectChoice(question, *answer.AnswerID) {
				outcome.EarnedPoints += float64(question.Points)
				outcome.CorrectAnswers++
			}
		case models.FillBlank:
			// Any non-empty text earns half credit. Actual text matching is
			// a pending product decision; see the repository design notes.
			if answer.TextAnswer != nil && strings.TrimSpace(*answer.TextAnswer) != "" {
				outcome.EarnedPoints += float64(question.Points) / 2
				outcome.CorrectAnswers += 0.5
			}
		}
	}

	if outcome.TotalPoints > 0 {
		outcome.Score = outcome.EarnedPoints / outcome.TotalPoints * 100
	}

	return outcome
}

// isCorrectChoice reports whether answerID names a correct option of the
// question.
func isCorrectChoice(question models.Question, answerID uint) bool {
	for _, a := range question.Answers {
		if a.ID == answerID {
			return a.IsCorrect
		}
	}
	return false
}
