package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/dragonsim/internal/fractal"
)

type ExportData struct {
	RunMetadata
	History []fractal.RoundStat `json:"history"`
}

// ExportJSON writes a run's metadata and round history as one document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	rounds, err := s.LoadRounds(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{RunMetadata: *meta, History: rounds})
}
