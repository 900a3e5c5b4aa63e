package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/dragonsim/internal/config"
	"github.com/san-kum/dragonsim/internal/export"
	"github.com/san-kum/dragonsim/internal/fractal"
)

const (
	metadataFile = "metadata.json"
	roundsFile   = "rounds.csv"
	finalFile    = "final.png"
)

var roundsHeader = []string{"round", "angle", "scale", "pivot_x", "pivot_y", "active"}

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Angle     float64            `json:"angle"`
	AngleStep float64            `json:"angle_step"`
	Steps     int                `json:"steps"`
	Rounds    int                `json:"rounds"`
	Backend   string             `json:"backend"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run directory named after the preset and the current time.
// final may be nil, in which case no final.png is written.
func (s *Store) Save(preset string, cfg *config.Config, backend string, result *fractal.Result, final image.Image) (string, error) {
	now := s.now()
	runID, err := s.reserve(preset, now)
	if err != nil {
		return "", err
	}
	runDir := s.Dir(runID)

	meta := RunMetadata{
		ID:        runID,
		Preset:    preset,
		Timestamp: now,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Angle:     cfg.Angle,
		AngleStep: cfg.AngleStep,
		Steps:     cfg.Steps,
		Rounds:    len(result.Rounds),
		Backend:   backend,
		Metrics:   result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeRounds(filepath.Join(runDir, roundsFile), result.Rounds); err != nil {
		return "", err
	}
	if final != nil {
		if err := export.SavePNG(filepath.Join(runDir, finalFile), final, 1); err != nil {
			return "", err
		}
	}
	return runID, nil
}

// reserve creates the run directory, suffixing the ID when a run with the
// same second already exists.
func (s *Store) reserve(preset string, now time.Time) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	base := fmt.Sprintf("%s_%d", preset, now.Unix())
	runID := base
	for i := 1; ; i++ {
		err := os.Mkdir(s.Dir(runID), 0755)
		if err == nil {
			return runID, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRounds(path string, rounds []fractal.RoundStat) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(roundsHeader); err != nil {
		return err
	}
	for _, r := range rounds {
		row := []string{
			strconv.Itoa(r.Round),
			strconv.FormatFloat(r.Angle, 'f', 6, 64),
			strconv.FormatFloat(r.Scale, 'f', 6, 64),
			strconv.FormatFloat(r.PivotX, 'f', 6, 64),
			strconv.FormatFloat(r.PivotY, 'f', 6, 64),
			strconv.Itoa(r.Active),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadRounds reads rounds.csv back. Malformed rows are skipped.
func (s *Store) LoadRounds(runID string) ([]fractal.RoundStat, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), roundsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []fractal.RoundStat{}, nil
	}

	rounds := make([]fractal.RoundStat, 0, len(records)-1)
	for _, record := range records[1:] {
		stat, ok := parseRound(record)
		if !ok {
			continue
		}
		rounds = append(rounds, stat)
	}
	return rounds, nil
}

func parseRound(record []string) (fractal.RoundStat, bool) {
	if len(record) != len(roundsHeader) {
		return fractal.RoundStat{}, false
	}
	round, err := strconv.Atoi(record[0])
	if err != nil {
		return fractal.RoundStat{}, false
	}
	active, err := strconv.Atoi(record[5])
	if err != nil {
		return fractal.RoundStat{}, false
	}
	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return fractal.RoundStat{}, false
		}
		vals[i] = v
	}
	return fractal.RoundStat{
		Round:  round,
		Angle:  vals[0],
		Scale:  vals[1],
		PivotX: vals[2],
		PivotY: vals[3],
		Active: active,
	}, true
}
