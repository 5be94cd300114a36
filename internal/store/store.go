package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mcqmark/internal/model"
)

// Store is the append-only durable log of graded exam results. It is a
// single-process, single-user store; concurrent external modification is
// undefined.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the result log at dbPath. Unreadable prior state is
// treated as an empty log: a database that cannot be opened or migrated is
// moved aside to <path>.corrupt and a fresh one is started in its place.
func New(dbPath string) (*Store, error) {
	db, err := open(dbPath)
	if err == nil {
		return &Store{db: db, path: dbPath}, nil
	}
	if dbPath == ":memory:" {
		return nil, err
	}

	slog.Warn("result log unreadable, starting empty", "path", dbPath, "error", err)
	if renameErr := os.Rename(dbPath, dbPath+".corrupt"); renameErr != nil {
		return nil, fmt.Errorf("set aside corrupt database: %w", renameErr)
	}
	db, err = open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: dbPath}, nil
}

func open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS exam_results (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		score INTEGER NOT NULL,
		correct INTEGER NOT NULL,
		total INTEGER NOT NULL,
		grading TEXT NOT NULL DEFAULT '[]',
		percentage REAL NOT NULL,
		grade TEXT NOT NULL,
		annotated_image TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Save appends a graded result to the log. The percentage and letter grade
// are recomputed here from score and total, never taken from upstream, and
// the record gets a fresh id and creation timestamp.
func (s *Store) Save(result model.GradedResult) (model.StoredExamResult, error) {
	percentage := 0.0
	if result.Total > 0 {
		percentage = float64(result.Score) / float64(result.Total) * 100
	}

	rec := model.StoredExamResult{
		GradedResult: result,
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UnixMilli(),
		Percentage:   percentage,
		Grade:        LetterGrade(percentage),
	}

	grading, err := json.Marshal(result.Grading)
	if err != nil {
		return model.StoredExamResult{}, fmt.Errorf("encode grading: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO exam_results (id, created_at, score, correct, total, grading, percentage, grade, annotated_image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp, rec.Score, rec.Correct, rec.Total, string(grading), rec.Percentage, rec.Grade, rec.AnnotatedImage,
	)
	if err != nil {
		return model.StoredExamResult{}, fmt.Errorf("insert result: %w", err)
	}
	return rec, nil
}

// LoadAll returns every persisted result in append order. A record whose
// grading column cannot be decoded is skipped rather than failing the load.
func (s *Store) LoadAll() ([]model.StoredExamResult, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, score, correct, total, grading, percentage, grade, annotated_image
		 FROM exam_results ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.StoredExamResult
	for rows.Next() {
		var rec model.StoredExamResult
		var grading string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Score, &rec.Correct, &rec.Total, &grading, &rec.Percentage, &rec.Grade, &rec.AnnotatedImage); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(grading), &rec.Grading); err != nil {
			slog.Warn("skipping result with unreadable grading", "id", rec.ID, "error", err)
			continue
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// ClearAll irreversibly erases the entire log. Confirmation is the calling
// layer's responsibility; there is no soft delete.
func (s *Store) ClearAll() error {
	_, err := s.db.Exec(`DELETE FROM exam_results`)
	return err
}

// Count returns the number of persisted results.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exam_results`).Scan(&count)
	return count, err
}

// LetterGrade maps a percentage to its grade band. Boundaries are inclusive
// on the lower bound.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	case percentage >= 40:
		return "E"
	default:
		return "F"
	}
}
