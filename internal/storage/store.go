// Package storage keeps one directory per simulation run under
// <experiment>/runs: metadata.json describing the inputs and
// realizations.csv holding every per-realization channel row.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/bolocalc/internal/stats"
)

const (
	metadataFile     = "metadata.json"
	realizationsFile = "realizations.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// ForExperiment returns the store at <dir>/runs.
func ForExperiment(dir string) *Store {
	return New(filepath.Join(dir, "runs"))
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// Spread is the percentile interval of one channel's array NET across
// realizations.
type Spread struct {
	Channel string  `json:"channel"`
	Lo      float64 `json:"lo"`
	Hi      float64 `json:"hi"`
}

type RunMetadata struct {
	ID            string     `json:"id"`
	Experiment    string     `json:"experiment"`
	Timestamp     time.Time  `json:"timestamp"`
	Seed          int64      `json:"seed"`
	Realizations  int        `json:"realizations"`
	Observations  int        `json:"observations"`
	Detectors     int        `json:"detectors"`
	ResolutionGHz float64    `json:"resolution_ghz"`
	Foregrounds   bool       `json:"foregrounds"`
	Correlations  bool       `json:"correlations"`
	Parallel      bool       `json:"parallel"`
	Percentiles   [2]float64 `json:"percentiles"`
	NETarrSpread  []Spread   `json:"netarr_percentiles,omitempty"`
}

// Save writes a new run directory "<timestamp>_<uuid>" and returns its ID.
// tables holds one channel table per realization, in realization order.
func (s *Store) Save(meta RunMetadata, tables []*stats.Table) (string, error) {
	now := time.Now().UTC()
	if meta.Timestamp.IsZero() {
		meta.Timestamp = now
	}
	meta.ID = fmt.Sprintf("%s_%s", meta.Timestamp.Format("20060102T150405"), uuid.NewString())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeRealizations(filepath.Join(runDir, realizationsFile), tables); err != nil {
		return "", err
	}
	return meta.ID, nil
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

func writeRealizations(path string, tables []*stats.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"realization", "telescope", "camera", "channel"}
	for c := stats.Column(0); c < stats.NumColumns; c++ {
		header = append(header, c.String(), c.String()+" std")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, t := range tables {
		for _, r := range t.Rows() {
			row := []string{strconv.Itoa(i), r.Key.Telescope, r.Key.Camera, r.Key.Channel}
			for _, v := range r.Values {
				row = append(row,
					strconv.FormatFloat(v.Mean, 'g', -1, 64),
					strconv.FormatFloat(v.Std, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
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
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadRealizations reads realizations.csv back into one table per
// realization.
func (s *Store) LoadRealizations(runID string) ([]*stats.Table, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, realizationsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var tables []*stats.Table
	want := 4 + 2*int(stats.NumColumns)
	for n, rec := range records {
		if n == 0 {
			continue
		}
		if len(rec) != want {
			return nil, fmt.Errorf("%s line %d: %d fields, want %d", realizationsFile, n+1, len(rec), want)
		}
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", realizationsFile, n+1, err)
		}
		for len(tables) <= idx {
			tables = append(tables, stats.NewTable())
		}
		row := stats.Row{Key: stats.Key{Telescope: rec[1], Camera: rec[2], Channel: rec[3]}}
		for c := range row.Values {
			mean, err1 := strconv.ParseFloat(rec[4+2*c], 64)
			std, err2 := strconv.ParseFloat(rec[5+2*c], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("%s line %d: bad value in column %v", realizationsFile, n+1, stats.Column(c))
			}
			row.Values[c] = stats.Estimate{Mean: mean, Std: std}
		}
		tables[idx].Add(row)
	}
	return tables, nil
}
