package storage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/venturelens/internal/models"
	"github.com/xuri/excelize/v2"
)

const feedbackSheet = "Feedback"

var feedbackHeaders = []string{
	"Timestamp", "Analysis ID", "Rating", "Comments", "Idea Summary", "Global Score", "Stage",
}

// analysisDigest is the subset of a logged analysis shown in the export.
type analysisDigest struct {
	AnalysisID   string  `json:"analysisId"`
	IdeaSummary  string  `json:"ideaSummary"`
	GlobalScore  float64 `json:"globalScore"`
	StartupStage string  `json:"startupStage"`
}

// WriteFeedbackXLSX writes records as a single-sheet workbook to w.
func WriteFeedbackXLSX(w io.Writer, records []*models.AuditRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), feedbackSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range feedbackHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(feedbackSheet, cell, h)
	}

	for i, rec := range records {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(feedbackSheet, cell, v)
		}
		var digest analysisDigest
		if len(rec.Analysis) > 0 {
			_ = json.Unmarshal(rec.Analysis, &digest)
		}
		write(1, rec.Timestamp.UTC().Format("2006-01-02 15:04:05"))
		id := digest.AnalysisID
		if rec.Feedback != nil {
			id = rec.Feedback.AnalysisID
			write(3, rec.Feedback.Rating)
			write(4, rec.Feedback.Comments)
		}
		write(2, id)
		write(5, digest.IdeaSummary)
		if len(rec.Analysis) > 0 {
			write(6, digest.GlobalScore)
		}
		write(7, digest.StartupStage)
	}

	_ = f.SetColWidth(feedbackSheet, "A", "A", 20)
	_ = f.SetColWidth(feedbackSheet, "B", "B", 38)
	_ = f.SetColWidth(feedbackSheet, "D", "E", 60)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
