// Package storage exports episode traces for offline inspection. A trace is
// a directory holding metadata.json and telemetry.csv; traces are never read
// back into a session.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/san-kum/leap/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Session    string             `json:"session"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       uint64             `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Controller string             `json:"controller"`
	Params     map[string]float64 `json:"params"`
	Metrics    map[string]float64 `json:"metrics"`
	Steps      int                `json:"steps"`
}

var header = []string{
	"time", "cost", "orientation_error_deg",
	"rotation_count", "best_rotation_count",
	"since_last_rotation", "since_last_reset", "seconds_per_rotation",
	"cube_x", "cube_y", "cube_z",
	"drops", "timeouts", "goal_changes",
	"noise_rx", "noise_ry", "noise_rz", "noise_px", "noise_py", "noise_pz",
}

// Save writes a trace for result and returns its run ID. ID, Timestamp and
// Steps of meta are filled in.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (id string, err error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now()
	meta.Steps = result.StepsTaken
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer func() { err = multierr.Append(err, metaFile.Close()) }()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "telemetry.csv"))
	if err != nil {
		return "", err
	}
	defer func() { err = multierr.Append(err, csvFile.Close()) }()

	w := csv.NewWriter(csvFile)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, f := range result.Frames {
		if err := w.Write(row(f)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func row(f sim.Frame) []string {
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	t := f.Telemetry
	r := []string{
		ff(f.Time), ff(f.Cost), ff(t.OrientationErrorDeg),
		strconv.Itoa(t.RotationCount), strconv.Itoa(t.BestRotationCount),
		ff(t.SinceLastRotation), ff(t.SinceLastReset), ff(t.SecondsPerRotation),
		ff(t.CubePosition[0]), ff(t.CubePosition[1]), ff(t.CubePosition[2]),
		strconv.Itoa(t.Drops), strconv.Itoa(t.Timeouts), strconv.Itoa(t.GoalChanges),
	}
	for _, v := range f.Noise {
		r = append(r, ff(v))
	}
	return r
}

// List returns the metadata of every trace, newest first.
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
	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return runs, nil
}

// Load reads the metadata of one trace.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}
