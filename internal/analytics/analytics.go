package analytics

import (
	"sort"

	"mcqmark/internal/model"
)

// PassThreshold is the minimum percentage counted as a pass. It matches the
// lower bound of the E grade band: anything short of it is an F.
const PassThreshold = 40.0

// DefaultRecentWindow bounds the recent-exams list in a snapshot.
const DefaultRecentWindow = 10

// Engine derives aggregate statistics from the stored result log. Snapshots
// are computed on demand from whatever records are passed in; nothing is
// cached or persisted.
type Engine struct {
	RecentWindow int
}

// NewEngine returns an engine with the default recent-exams window.
func NewEngine() *Engine {
	return &Engine{RecentWindow: DefaultRecentWindow}
}

// Analyze computes a snapshot over records. An empty input yields a zeroed
// snapshot with an empty distribution and recent list; it never fails and
// never divides by zero.
func (e *Engine) Analyze(records []model.StoredExamResult) model.AnalysisSnapshot {
	snapshot := model.AnalysisSnapshot{
		GradeDistribution: map[string]int{},
	}
	if len(records) == 0 {
		return snapshot
	}

	for _, g := range []string{"A", "B", "C", "D", "E", "F"} {
		snapshot.GradeDistribution[g] = 0
	}

	var sum float64
	passed := 0
	for _, rec := range records {
		sum += rec.Percentage
		if rec.Percentage >= PassThreshold {
			passed++
		}
		snapshot.GradeDistribution[rec.Grade]++
	}

	total := len(records)
	snapshot.TotalExams = total
	snapshot.AverageScore = sum / float64(total)
	snapshot.PassRate = float64(passed) / float64(total) * 100

	// Most recent first; the stable sort keeps same-timestamp records in
	// their input order so the result is deterministic.
	recent := make([]model.StoredExamResult, len(records))
	copy(recent, records)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp > recent[j].Timestamp
	})

	window := e.RecentWindow
	if window <= 0 {
		window = DefaultRecentWindow
	}
	if len(recent) > window {
		recent = recent[:window]
	}
	snapshot.RecentExams = recent

	return snapshot
}
