package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/omnidrive/holotrack/internal/runner"
)

// Store persists tracking runs under a base directory, one subdirectory per
// run holding metadata.json and track.csv.
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
	ID          string             `json:"id"`
	Label       string             `json:"label"`
	Timestamp   time.Time          `json:"timestamp"`
	Period      float64            `json:"period"`
	Duration    float64            `json:"duration"`
	Ticks       int                `json:"ticks"`
	Finished    bool               `json:"finished"`
	Interrupted bool               `json:"interrupted"`
	Metrics     map[string]float64 `json:"metrics"`
}

// TrackRow is one tick of a saved run: desired and actual poses plus the
// per-wheel commands.
type TrackRow struct {
	T       float64
	Desired [3]float64 // x, y, heading
	Actual  [3]float64
	Speeds  []float64
	Angles  []float64
}

func (s *Store) Save(label string, period, duration float64, result *runner.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", label, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Label:       label,
		Timestamp:   time.Now(),
		Period:      period,
		Duration:    duration,
		Ticks:       result.Ticks,
		Finished:    result.Finished,
		Interrupted: result.Interrupted,
		Metrics:     result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "track.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(result.Samples) == 0 {
		return runID, nil
	}

	numWheels := len(result.Samples[0].Wheels)
	header := []string{"time", "des_x", "des_y", "des_heading", "act_x", "act_y", "act_heading"}
	for i := 0; i < numWheels; i++ {
		header = append(header, fmt.Sprintf("speed%d", i), fmt.Sprintf("angle%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, sample := range result.Samples {
		row := []string{
			formatFloat(sample.T),
			formatFloat(sample.Desired.X()),
			formatFloat(sample.Desired.Y()),
			formatFloat(sample.Desired.Heading()),
			formatFloat(sample.Actual.X()),
			formatFloat(sample.Actual.Y()),
			formatFloat(sample.Actual.Heading()),
		}
		for _, wheel := range sample.Wheels {
			row = append(row, formatFloat(wheel.Speed), formatFloat(wheel.Angle.Radians()))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrack(runID string) ([]TrackRow, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "track.csv"))
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
		return []TrackRow{}, nil
	}

	rows := make([]TrackRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 7 {
			continue
		}

		vals := make([]float64, 0, len(record))
		ok := true
		for _, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals = append(vals, v)
		}
		if !ok {
			continue
		}

		row := TrackRow{
			T:       vals[0],
			Desired: [3]float64{vals[1], vals[2], vals[3]},
			Actual:  [3]float64{vals[4], vals[5], vals[6]},
		}
		for i := 7; i+1 < len(vals); i += 2 {
			row.Speeds = append(row.Speeds, vals[i])
			row.Angles = append(row.Angles, vals[i+1])
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
