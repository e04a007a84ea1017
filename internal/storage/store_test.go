package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/bolocalc/internal/stats"
)

func sampleTable(net float64) *stats.Table {
	t := stats.NewTable()
	for _, ch := range []string{"90", "150"} {
		r := stats.Row{Key: stats.Key{Telescope: "Tel", Camera: "Cam", Channel: ch}}
		r.Values[stats.NETarr] = stats.Estimate{Mean: net, Std: net / 10}
		r.Values[stats.Frequency] = stats.Estimate{Mean: 150e9}
		t.Add(r)
	}
	return t
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{Experiment: "Exp", Seed: 42, Realizations: 2,
		NETarrSpread: []Spread{{Channel: "Tel/Cam/90", Lo: 1e-6, Hi: 2e-6}}}
	runID, err := st.Save(meta, []*stats.Table{sampleTable(1e-5), sampleTable(2e-5)})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	got, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Seed != 42 || got.Experiment != "Exp" || got.ID != runID {
		t.Errorf("metadata = %+v", got)
	}
	if len(got.NETarrSpread) != 1 || got.NETarrSpread[0].Hi != 2e-6 {
		t.Errorf("spread = %+v", got.NETarrSpread)
	}

	tables, err := st.LoadRealizations(runID)
	if err != nil {
		t.Fatalf("load realizations failed: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	r, ok := tables[1].Get(stats.Key{Telescope: "Tel", Camera: "Cam", Channel: "150"})
	if !ok {
		t.Fatal("missing row")
	}
	if r.Values[stats.NETarr] != (stats.Estimate{Mean: 2e-5, Std: 2e-6}) {
		t.Errorf("NETarr = %v", r.Values[stats.NETarr])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 2; i >= 0; i-- {
		meta := RunMetadata{Seed: int64(i), Timestamp: base.Add(time.Duration(i) * time.Hour)}
		if _, err := st.Save(meta, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(st.Dir(), "junk"), 0o755); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, r := range runs {
		if r.Seed != int64(i) {
			t.Errorf("runs[%d].Seed = %d, want oldest first", i, r.Seed)
		}
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, sampleTable(3e-6)); err != nil {
		t.Fatal(err)
	}
	var rows []ExportRow
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1].Channel != "150" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Values["Array NET"].Mean != 3e-6 {
		t.Errorf("Array NET = %v", rows[0].Values["Array NET"])
	}
	if !strings.Contains(buf.String(), "  ") {
		t.Error("expected indented output")
	}
}
