package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/repositories"
	"github.com/cybersafe-edu/assessment-service/internal/validator"
)

const questionSheet = "Questions"

// Workbook layout: one row per question, options A-D in fixed columns,
// correct options named by letter ("A" or "A;C").
var questionHeaders = []string{
	"Question", "Type", "Difficulty", "Points",
	"Option A", "Option B", "Option C", "Option D",
	"Correct Options", "Explanation",
}

type importExportService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ImportQuestions parses an XLSX workbook and adds its valid rows to the
// assessment's pool. Invalid rows are skipped and reported, never imported
// partially.
func (s *importExportService) ImportQuestions(ctx context.Context, assessmentID uint, data []byte, userID uint) (*ImportResult, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, assessmentID, "assessment", "import_questions", "insufficient role permissions")
	}

	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, NewValidationError("file", "not a readable XLSX workbook", nil)
	}
	defer f.Close()

	rows, err := f.GetRows(questionSheet)
	if err != nil {
		return nil, NewValidationError("file", fmt.Sprintf("missing %q sheet", questionSheet), nil)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "workbook contains no question rows", nil)
	}

	result := &ImportResult{}
	nextOrder := len(assessment.Questions)
	var questions []*models.Question

	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after header
		req, err := parseQuestionRow(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		if errs := s.validator.ValidateQuestionCreate(req); errs.HasErrors() {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", rowNum, errs.Error()))
			continue
		}

		question := questionFromRequest(assessmentID, req)
		question.OrderIndex = nextOrder
		nextOrder++
		questions = append(questions, question)
	}

	if len(questions) > 0 {
		err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			return txRepo.Question().CreateBatch(ctx, nil, questions)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to import questions: %w", err)
		}
	}
	result.Imported = len(questions)

	s.logger.Info("Questions imported",
		"assessment_id", assessmentID,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"user_id", userID)

	return result, nil
}

// ExportQuestions renders an assessment's question pool as an XLSX
// workbook, answer key included.
func (s *importExportService) ExportQuestions(ctx context.Context, assessmentID uint, userID uint) ([]byte, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
		return nil, NewPermissionError(userID, assessmentID, "assessment", "export_questions", "insufficient role permissions")
	}

	questions, err := s.repo.Question().GetByAssessment(ctx, nil, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(questionSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range questionHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(questionSheet, cell, header)
	}

	for i, q := range questions {
		row := i + 2
		values := make([]interface{}, len(questionHeaders))
		values[0] = q.Text
		values[1] = string(q.Type)
		values[2] = string(q.Difficulty)
		values[3] = q.Points

		var correct []string
		var explanation string
		for j, a := range q.Answers {
			if j < 4 {
				values[4+j] = a.Text
			}
			if a.IsCorrect && j < 4 {
				correct = append(correct, string(rune('A'+j)))
			}
			if a.Explanation != nil && explanation == "" {
				explanation = *a.Explanation
			}
		}
		values[8] = strings.Join(correct, ";")
		values[9] = explanation

		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(questionSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Questions exported",
		"assessment_id", assessmentID,
		"count", len(questions),
		"user_id", userID)

	return buf.Bytes(), nil
}

// parseQuestionRow maps one worksheet row onto a create request.
func parseQuestionRow(row []string) (*CreateQuestionRequest, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	text := cell(0)
	if text == "" {
		return nil, fmt.Errorf("question text is empty")
	}

	qType := models.QuestionType(strings.ToUpper(cell(1)))
	if !qType.Valid() {
		return nil, fmt.Errorf("unknown question type %q", cell(1))
	}

	difficulty := models.DifficultyLevel(strings.ToUpper(cell(2)))
	if !difficulty.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q", cell(2))
	}

	points := difficulty.QuestionPoints()
	if raw := cell(3); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid points value %q", raw)
		}
		points = parsed
	}

	correctSet := map[int]bool{}
	for _, letter := range strings.Split(cell(8), ";") {
		letter = strings.TrimSpace(strings.ToUpper(letter))
		if letter == "" {
			continue
		}
		idx := int(letter[0] - 'A')
		if len(letter) != 1 || idx < 0 || idx > 3 {
			return nil, fmt.Errorf("invalid correct option %q", letter)
		}
		correctSet[idx] = true
	}

	var explanation *string
	if e := cell(9); e != "" {
		explanation = &e
	}

	req := &CreateQuestionRequest{
		Text:       text,
		Type:       qType,
		Difficulty: difficulty,
		Points:     points,
	}
	for i := 0; i < 4; i++ {
		optionText := cell(4 + i)
		if optionText == "" {
			continue
		}
		answer := validator.AnswerCreateRequest{
			Text:       optionText,
			IsCorrect:  correctSet[i],
			OrderIndex: i,
		}
		if answer.IsCorrect {
			answer.Explanation = explanation
		}
		req.Answers = append(req.Answers, answer)
	}

	if len(req.Answers) == 0 {
		return nil, fmt.Errorf("no answer options provided")
	}

	return req, nil
}
