package store

import (
	"fmt"
	"time"

	"mcqmark/internal/model"
)

// ExportAll builds an export-ready view of the full result log.
func (s *Store) ExportAll() (model.ResultsExport, error) {
	results, err := s.LoadAll()
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("load results: %w", err)
	}
	return model.ResultsExport{
		ExportedAt: time.Now().UnixMilli(),
		Count:      len(results),
		Results:    results,
	}, nil
}
