package stats

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"talion/internal/model"
)

func sampleArtifacts(runID string) RunArtifacts {
	return RunArtifacts{
		Config: RunConfig{
			RunID:       runID,
			Strategies:  []string{"TitForTat", "Defector"},
			Rounds:      10,
			Repetitions: 2,
			Seed:        42,
		},
		Rankings: []model.RankingEntry{
			{Strategy: "TitForTat", Name: "Tit For Tat", MeanScore: 2.4, CooperationRate: 0.9, MatchesPlayed: 2},
			{Strategy: "Defector", Name: "Defector", MeanScore: 1.8, CooperationRate: 0, MatchesPlayed: 2},
		},
		Scores: map[string]map[string]float64{
			"TitForTat": {"Defector": 0.9},
			"Defector":  {"TitForTat": 1.4},
		},
		Matches: []model.MatchRecord{
			{ID: "m-1", RunID: runID, StrategyA: "TitForTat", StrategyB: "Defector"},
		},
	}
}

func TestWriteRunArtifactsLaysOutRunDir(t *testing.T) {
	baseDir := t.TempDir()

	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-1"))
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	for _, file := range []string{"config.json", "ranking.json", "score_matrix.json", "matches.json", "ranking.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("missing artifact %s: %v", file, err)
		}
	}

	cfg, ok, err := ReadRunConfig(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%v err=%v", ok, err)
	}
	if cfg.Rounds != 10 || len(cfg.Strategies) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	rankings, ok, err := ReadRanking(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("read ranking: ok=%v err=%v", ok, err)
	}
	if len(rankings) != 2 || rankings[0].Strategy != "TitForTat" {
		t.Fatalf("unexpected ranking: %+v", rankings)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatalf("expected error for missing run id")
	}
}

func TestRankingCSVRows(t *testing.T) {
	baseDir := t.TempDir()
	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-1"))
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	file, err := os.Open(filepath.Join(runDir, "ranking.csv"))
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "1" || rows[1][1] != "TitForTat" {
		t.Fatalf("unexpected first rank row: %v", rows[1])
	}
}

func TestRunIndexAppendAndOrdering(t *testing.T) {
	baseDir := t.TempDir()

	entries := []RunIndexEntry{
		{RunID: "run-a", CreatedAtUTC: "2026-08-01T10:00:00Z", Winner: "TitForTat"},
		{RunID: "run-b", CreatedAtUTC: "2026-08-02T10:00:00Z", Winner: "Grudger"},
		{RunID: "run-c", CreatedAtUTC: "2026-08-02T10:00:00Z", Winner: "Defector"},
	}
	for _, entry := range entries {
		if err := AppendRunIndex(baseDir, entry); err != nil {
			t.Fatalf("append %s: %v", entry.RunID, err)
		}
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(index) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(index))
	}
	// Newest first; equal timestamps prefer the later appended entry.
	if index[0].RunID != "run-c" || index[1].RunID != "run-b" || index[2].RunID != "run-a" {
		t.Fatalf("unexpected order: %+v", index)
	}

	// Re-appending an existing run id replaces it in place.
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "run-a", CreatedAtUTC: "2026-08-01T10:00:00Z", Winner: "Alternator"}); err != nil {
		t.Fatalf("re-append: %v", err)
	}
	index, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list again: %v", err)
	}
	if len(index) != 3 || index[2].Winner != "Alternator" {
		t.Fatalf("replacement failed: %+v", index)
	}
}

func TestExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := t.TempDir()
	if _, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-1")); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if err := WriteBenchmarkSummary(filepath.Join(baseDir, "run-1"), BenchmarkSummary{Repetitions: 3}); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	dst, err := ExportRunArtifacts(baseDir, "run-1", outDir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, file := range []string{"config.json", "ranking.json", "score_matrix.json", "matches.json", "ranking.csv", "benchmark_summary.json"} {
		if _, err := os.Stat(filepath.Join(dst, file)); err != nil {
			t.Fatalf("missing exported %s: %v", file, err)
		}
	}

	summary, ok, err := ReadBenchmarkSummary(outDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("read exported summary: ok=%v err=%v", ok, err)
	}
	if summary.Repetitions != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestExportMissingRunFails(t *testing.T) {
	if _, err := ExportRunArtifacts(t.TempDir(), "run-x", t.TempDir()); err == nil {
		t.Fatalf("expected error for missing run")
	}
}

func TestSeriesStats(t *testing.T) {
	mean, std, max, min := SeriesStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Fatalf("mean = %v, want 5", mean)
	}
	if math.Abs(std-2) > 1e-12 {
		t.Fatalf("std = %v, want 2", std)
	}
	if max != 9 || min != 2 {
		t.Fatalf("max/min = %v/%v", max, min)
	}

	mean, std, max, min = SeriesStats(nil)
	if mean != 0 || std != 0 || max != 0 || min != 0 {
		t.Fatalf("empty series should be all zeros")
	}
}
