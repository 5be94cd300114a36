package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"mcqmark/internal/model"
)

// WriteJSON writes the export as indented JSON with a trailing newline.
func WriteJSON(w io.Writer, ex model.ResultsExport) error {
	data, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

const sheetName = "Results"

// WriteXLSX writes the export as an Excel workbook with one row per result.
func WriteXLSX(w io.Writer, ex model.ResultsExport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"ID", "Graded At", "Score", "Correct", "Total", "Percentage", "Grade", "Per Question"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for row, rec := range ex.Results {
		values := []any{
			rec.ID,
			time.UnixMilli(rec.Timestamp).Format("2006-01-02 15:04:05"),
			rec.Score,
			rec.Correct,
			rec.Total,
			rec.Percentage,
			rec.Grade,
			gradingMarks(rec.Grading),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// gradingMarks renders per-question correctness as a compact mark string,
// e.g. "++-+-" for five questions with two wrong.
func gradingMarks(grading []bool) string {
	var sb strings.Builder
	for _, ok := range grading {
		if ok {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
