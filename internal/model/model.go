package model

import "os"

// RawImage is an image as acquired from the camera or gallery, before any
// normalization. The file at Path is owned by whoever produced it.
type RawImage struct {
	Path string
}

// NormalizedImage is an image cropped to the canonical 4:3 ratio and resized
// to the working resolution. When Temp is true the file at Path was created by
// the normalizer and the holder must call Release once the image is no longer
// needed.
type NormalizedImage struct {
	Path   string
	Width  int
	Height int
	Temp   bool
}

// Release removes the normalizer's temporary file. It is a no-op when
// normalization fell back to the caller's original image.
func (n NormalizedImage) Release() error {
	if !n.Temp {
		return nil
	}
	return os.Remove(n.Path)
}

// GradedResult is the grading service's verdict for one answer sheet.
// Invariants: Correct equals the number of true entries in Grading, and Total
// equals len(Grading). AnnotatedImage is a self-contained data URL combining
// the returned image bytes with their MIME subtype.
type GradedResult struct {
	Score          int    `json:"score"`
	Correct        int    `json:"correct"`
	Total          int    `json:"total"`
	Grading        []bool `json:"grading"`
	AnnotatedImage string `json:"annotated_image"`
}

// StoredExamResult is a GradedResult as persisted by the result store.
// Percentage and Grade are recomputed at save time, never trusted from
// upstream. Timestamp is unix milliseconds at creation.
type StoredExamResult struct {
	GradedResult
	ID         string  `json:"id"`
	Timestamp  int64   `json:"timestamp"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}

// AnalysisSnapshot is a derived view over the stored result log. It is
// recomputed on demand and never persisted.
type AnalysisSnapshot struct {
	TotalExams        int                `json:"total_exams"`
	AverageScore      float64            `json:"average_score"`
	PassRate          float64            `json:"pass_rate"`
	GradeDistribution map[string]int     `json:"grade_distribution"`
	RecentExams       []StoredExamResult `json:"recent_exams"`
}
