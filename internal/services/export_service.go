package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

const (
	quizResultsSheet     = "Resultados"
	studentProgressSheet = "Progresso"
	exportDateLayout     = "02/01/2006 15:04"
)

var (
	quizResultsHeader = []interface{}{
		"Aluno", "E-mail", "Curso", "Nota", "Aprovado", "Tentativas até aprovação", "Total de tentativas", "Data",
	}
	studentProgressHeader = []interface{}{
		"Aluno", "E-mail", "Status", "Curso", "Aulas concluídas", "Total de aulas", "Progresso (%)", "Último acesso",
	}
)

type exportService struct {
	quiz      QuizService
	dashboard DashboardService
	logger    *slog.Logger
}

// NewExportService builds the XLSX exporter on top of the quiz and dashboard aggregates
func NewExportService(quiz QuizService, dashboard DashboardService, logger *slog.Logger) ExportService {
	return &exportService{
		quiz:      quiz,
		dashboard: dashboard,
		logger:    logger,
	}
}

func (s *exportService) ExportQuizResults(ctx context.Context, w io.Writer, courseID *uint) error {
	results, err := s.quiz.ListResults(ctx, courseID)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, len(results))
	for i, r := range results {
		rows[i] = []interface{}{
			r.StudentName,
			r.StudentEmail,
			r.CourseTitle,
			r.Score,
			yesNo(r.Passed),
			r.AttemptsBeforePass,
			r.TotalAttempts,
			r.CompletedAt.Format(exportDateLayout),
		}
	}

	s.logger.Info("Exporting quiz results", "rows", len(rows))
	return writeWorkbook(w, quizResultsSheet, quizResultsHeader, rows)
}

// ExportStudentProgress writes one row per (student, course)
func (s *exportService) ExportStudentProgress(ctx context.Context, w io.Writer) error {
	students, err := s.dashboard.ListStudents(ctx)
	if err != nil {
		return err
	}

	var rows [][]interface{}
	for _, student := range students {
		report, err := s.dashboard.StudentProgress(ctx, student.ID)
		if err != nil {
			return err
		}
		for _, c := range report.Courses {
			lastAccess := ""
			if c.LastAccess != nil {
				lastAccess = c.LastAccess.Format(exportDateLayout)
			}
			rows = append(rows, []interface{}{
				student.Name,
				student.Email,
				string(student.Status),
				c.CourseName,
				c.CompletedLessons,
				c.TotalLessons,
				c.PercentComplete,
				lastAccess,
			})
		}
	}

	s.logger.Info("Exporting student progress", "students", len(students), "rows", len(rows))
	return writeWorkbook(w, studentProgressSheet, studentProgressHeader, rows)
}

// writeWorkbook renders a single sheet with a bold, filterable header row
func writeWorkbook(w io.Writer, sheet string, header []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1E3A5F"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if len(rows) > 0 {
		if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1), nil); err != nil {
			return fmt.Errorf("failed to set auto filter: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
