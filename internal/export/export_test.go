package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"mcqmark/internal/model"
)

func testExport() model.ResultsExport {
	return model.ResultsExport{
		ExportedAt: 1700000000000,
		Count:      2,
		Results: []model.StoredExamResult{
			{
				GradedResult: model.GradedResult{
					Score: 4, Correct: 4, Total: 5,
					Grading: []bool{true, true, false, true, true},
				},
				ID:         "r1",
				Timestamp:  1700000000000,
				Percentage: 80.0,
				Grade:      "A",
			},
			{
				GradedResult: model.GradedResult{
					Score: 2, Correct: 2, Total: 5,
					Grading: []bool{true, false, false, true, false},
				},
				ID:         "r2",
				Timestamp:  1700000100000,
				Percentage: 40.0,
				Grade:      "E",
			},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testExport()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded model.ResultsExport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Count != 2 || len(decoded.Results) != 2 {
		t.Errorf("unexpected export %+v", decoded)
	}
	if decoded.Results[0].ID != "r1" || decoded.Results[0].Grade != "A" {
		t.Errorf("unexpected first result %+v", decoded.Results[0])
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected trailing newline")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, testExport()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][6] != "Grade" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "r1" || rows[1][6] != "A" {
		t.Errorf("unexpected first row %v", rows[1])
	}
	if rows[2][7] != "+--+-" {
		t.Errorf("unexpected grading marks %q", rows[2][7])
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, model.ResultsExport{}); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}
