package model

// ResultsExport is the top-level JSON structure for result export.
type ResultsExport struct {
	ExportedAt int64              `json:"exported_at"`
	Count      int                `json:"count"`
	Results    []StoredExamResult `json:"results"`
}
