package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/cybersafe-edu/assessment-service/internal/models"
	"github.com/cybersafe-edu/assessment-service/internal/validator"
)

// buildWorkbook renders rows under the standard header into an XLSX byte
// slice the way an instructor's upload would arrive.
func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(questionSheet)
	if err != nil {
		t.Fatal(err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range questionHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(questionSheet, cell, header)
	}
	for i, row := range rows {
		for col, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(questionSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newImportExportFixture(t *testing.T) (*questionFixture, ImportExportService) {
	t.Helper()
	f := newQuestionFixture(t)
	return f, NewImportExportService(f.repo, nil, testLogger(), validator.New())
}

func TestImportQuestions(t *testing.T) {
	f, svc := newImportExportFixture(t)

	data := buildWorkbook(t, [][]interface{}{
		{"What marks a phishing mail?", "MULTIPLE_CHOICE", "BEGINNER", 5, "Urgency", "Short sentences", "A greeting", "A signature", "A", "Attackers press for haste."},
		{"MFA blocks credential replay.", "TRUE_FALSE", "INTERMEDIATE", nil, "True", "False", nil, nil, "A", nil},
		// invalid: unknown difficulty, must be skipped and reported
		{"Broken row", "MULTIPLE_CHOICE", "IMPOSSIBLE", nil, "X", "Y", nil, nil, "A", nil},
	})

	result, err := svc.ImportQuestions(context.Background(), f.assessment.ID, data, f.instructor.ID)
	if err != nil {
		t.Fatalf("ImportQuestions failed: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("imported = %d, want 2", result.Imported)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "row 4") {
		t.Errorf("errors = %v, want one entry naming row 4", result.Errors)
	}

	if len(f.assessment.Questions) != 2 {
		t.Fatalf("pool size = %d, want 2", len(f.assessment.Questions))
	}

	first := f.assessment.Questions[0]
	if first.Type != models.MultipleChoice || first.Points != 5 {
		t.Errorf("first question = %s/%d points", first.Type, first.Points)
	}
	if len(first.Answers) != 4 || !first.Answers[0].IsCorrect {
		t.Error("first question's answer key mangled on import")
	}
	if first.Answers[0].Explanation == nil {
		t.Error("explanation should attach to the correct option")
	}

	second := f.assessment.Questions[1]
	// Points column empty: defaults from difficulty.
	if second.Points != 10 {
		t.Errorf("INTERMEDIATE default points = %d, want 10", second.Points)
	}
	if len(second.Answers) != 2 {
		t.Errorf("true/false answers = %d, want 2", len(second.Answers))
	}
}

func TestImportQuestions_Permissions(t *testing.T) {
	f, svc := newImportExportFixture(t)
	data := buildWorkbook(t, [][]interface{}{
		{"Q", "TRUE_FALSE", "BEGINNER", nil, "True", "False", nil, nil, "A", nil},
	})

	if _, err := svc.ImportQuestions(context.Background(), f.assessment.ID, data, f.student.ID); !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestImportQuestions_BadFile(t *testing.T) {
	f, svc := newImportExportFixture(t)

	_, err := svc.ImportQuestions(context.Background(), f.assessment.ID, []byte("not a workbook"), f.instructor.ID)
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for garbage input, got %v", err)
	}
}

func TestExportQuestions_RoundTrip(t *testing.T) {
	f, svc := newImportExportFixture(t)
	ctx := context.Background()

	data := buildWorkbook(t, [][]interface{}{
		{"Pick the risky habit.", "SINGLE_CHOICE", "ADVANCED", 15, "Password reuse", "Unique passphrases", "A manager", nil, "A", "Reuse spreads one breach everywhere."},
	})
	if _, err := svc.ImportQuestions(ctx, f.assessment.ID, data, f.instructor.ID); err != nil {
		t.Fatal(err)
	}

	exported, err := svc.ExportQuestions(ctx, f.assessment.ID, f.instructor.ID)
	if err != nil {
		t.Fatalf("ExportQuestions failed: %v", err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(exported))
	if err != nil {
		t.Fatalf("exported bytes are not a workbook: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(questionSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("exported rows = %d, want header plus one question", len(rows))
	}
	got := rows[1]
	if got[0] != "Pick the risky habit." || got[1] != "SINGLE_CHOICE" || got[2] != "ADVANCED" {
		t.Errorf("exported row mismatch: %v", got)
	}
	if got[8] != "A" {
		t.Errorf("correct options column = %q, want A", got[8])
	}
}

func TestExportQuestions_Permissions(t *testing.T) {
	f, svc := newImportExportFixture(t)

	if _, err := svc.ExportQuestions(context.Background(), f.assessment.ID, f.student.ID); !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}
