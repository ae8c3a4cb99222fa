package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"talion/internal/model"
)

const runIndexFile = "run_index.json"

// RunConfig is the persisted configuration of one tournament run.
type RunConfig struct {
	RunID       string   `json:"run_id"`
	Strategies  []string `json:"strategies"`
	Rounds      int      `json:"rounds"`
	Repetitions int      `json:"repetitions"`
	HideLength  bool     `json:"hide_length"`
	SelfPlay    bool     `json:"self_play"`
	Seed        int64    `json:"seed"`
	Workers     int      `json:"workers"`
	StoreKind   string   `json:"store_kind,omitempty"`
}

// RunArtifacts is everything written under a run's directory.
type RunArtifacts struct {
	Config   RunConfig                     `json:"config"`
	Rankings []model.RankingEntry          `json:"rankings"`
	Scores   map[string]map[string]float64 `json:"scores"`
	Matches  []model.MatchRecord           `json:"matches"`
}

// RunIndexEntry is one row of the results directory index.
type RunIndexEntry struct {
	RunID         string  `json:"run_id"`
	CreatedAtUTC  string  `json:"created_at_utc"`
	Strategies    int     `json:"strategies"`
	Rounds        int     `json:"rounds"`
	Repetitions   int     `json:"repetitions"`
	Seed          int64   `json:"seed"`
	Winner        string  `json:"winner"`
	WinnerScore   float64 `json:"winner_score"`
	MatchesPlayed int     `json:"matches_played"`
}

// BenchmarkSummary aggregates repeated tournaments over derived seeds.
type BenchmarkSummary struct {
	Repetitions     int      `json:"repetitions"`
	Rounds          int      `json:"rounds"`
	BaseSeed        int64    `json:"base_seed"`
	Winner          string   `json:"winner"`
	WinnerShare     float64  `json:"winner_share"` // share of repetitions won by the modal winner
	MeanWinnerScore float64  `json:"mean_winner_score"`
	StdWinnerScore  float64  `json:"std_winner_score"`
	MaxWinnerScore  float64  `json:"max_winner_score"`
	MinWinnerScore  float64  `json:"min_winner_score"`
	WinnersBySeed   []string `json:"winners_by_seed"`
}

// WriteRunArtifacts lays a run out as one directory of JSON files plus a
// ranking CSV and returns the run directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "ranking.json"), artifacts.Rankings); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "score_matrix.json"), artifacts.Scores); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "matches.json"), artifacts.Matches); err != nil {
		return "", err
	}
	if err := writeRankingCSV(filepath.Join(runDir, "ranking.csv"), artifacts.Rankings); err != nil {
		return "", err
	}

	return runDir, nil
}

// AppendRunIndex inserts or replaces the entry for its run id.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the index sorted newest first. A missing index file is
// an empty index.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies one run's files into outDir and returns the
// destination directory. Optional files are skipped when absent.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{"config.json", "ranking.json", "score_matrix.json", "matches.json", "ranking.csv"}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	optional := []string{"benchmark_summary.json", "transcript.jsonl"}
	for _, file := range optional {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", err
		}
		if err := copyFile(path, filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadRanking(baseDir, runID string) ([]model.RankingEntry, bool, error) {
	path := filepath.Join(baseDir, runID, "ranking.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rankings []model.RankingEntry
	if err := json.Unmarshal(data, &rankings); err != nil {
		return nil, false, err
	}
	return rankings, true, nil
}

func WriteBenchmarkSummary(runDir string, summary BenchmarkSummary) error {
	return writeJSON(filepath.Join(runDir, "benchmark_summary.json"), summary)
}

func ReadBenchmarkSummary(baseDir, runID string) (BenchmarkSummary, bool, error) {
	path := filepath.Join(baseDir, runID, "benchmark_summary.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BenchmarkSummary{}, false, nil
		}
		return BenchmarkSummary{}, false, err
	}

	var summary BenchmarkSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return BenchmarkSummary{}, false, err
	}
	return summary, true, nil
}

func writeRankingCSV(path string, rankings []model.RankingEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"rank", "strategy", "mean_score", "cooperation_rate", "wins", "matches"}); err != nil {
		return err
	}
	for i, entry := range rankings {
		row := []string{
			strconv.Itoa(i + 1),
			entry.Strategy,
			strconv.FormatFloat(entry.MeanScore, 'f', 4, 64),
			strconv.FormatFloat(entry.CooperationRate, 'f', 4, 64),
			strconv.Itoa(entry.Wins),
			strconv.Itoa(entry.MatchesPlayed),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
