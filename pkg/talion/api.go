package talion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"talion/internal/eventlog"
	"talion/internal/match"
	"talion/internal/model"
	"talion/internal/platform"
	"talion/internal/stats"
	"talion/internal/storage"
	"talion/internal/strategy"
	"talion/internal/tournament"
	"talion/internal/transform"
)

const (
	defaultResultsDir = "results"
	defaultExportsDir = "exports"
	defaultDBPath     = "talion.db"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ResultsDir string
	ExportsDir string
}

// Client is the embedding surface for tournament setup layers: it owns the
// store and the results directory and hides the arena wiring.
type Client struct {
	store      storage.Store
	resultsDir string
	exportsDir string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = defaultResultsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		resultsDir: resultsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Reset(ctx context.Context) error {
	arena := platform.NewArena(platform.Config{Store: c.store})
	return arena.Reset(ctx)
}

// Strategies lists the registered base strategy identifiers.
func (c *Client) Strategies() []string {
	return strategy.List()
}

// Transforms lists the registered transformation names.
func (c *Client) Transforms() []string {
	return transform.List()
}

type MatchRequest struct {
	StrategyA  string
	StrategyB  string
	Rounds     int
	HideLength bool
	Seed       int64
}

type MatchSummary struct {
	StrategyA        string
	StrategyB        string
	Rounds           int
	ScoreA           int
	ScoreB           int
	MeanScoreA       float64
	MeanScoreB       float64
	CooperationRateA float64
	CooperationRateB float64
	Turns            []string
}

// Match plays one match between two strategy specs and persists its record.
func (c *Client) Match(ctx context.Context, req MatchRequest) (MatchSummary, error) {
	if req.Rounds <= 0 {
		req.Rounds = 100
	}
	if req.Seed == 0 {
		req.Seed = 1
	}

	arena := platform.NewArena(platform.Config{Store: c.store})
	if err := arena.Init(ctx); err != nil {
		return MatchSummary{}, err
	}

	result, err := arena.PlayMatch(ctx, req.StrategyA, req.StrategyB, match.Config{
		Rounds:     req.Rounds,
		HideLength: req.HideLength,
		Seed:       req.Seed,
	})
	if err != nil {
		return MatchSummary{}, err
	}

	turns := make([]string, 0, len(result.Turns))
	for _, turn := range result.Turns {
		turns = append(turns, turn.A.String()+turn.B.String())
	}
	return MatchSummary{
		StrategyA:        result.StrategyA,
		StrategyB:        result.StrategyB,
		Rounds:           result.Rounds,
		ScoreA:           result.ScoreA,
		ScoreB:           result.ScoreB,
		MeanScoreA:       result.MeanScoreA(),
		MeanScoreB:       result.MeanScoreB(),
		CooperationRateA: result.CooperationRateA(),
		CooperationRateB: result.CooperationRateB(),
		Turns:            turns,
	}, nil
}

type TournamentRequest struct {
	RunID       string
	Strategies  []string
	Rounds      int
	Repetitions int
	HideLength  bool
	SelfPlay    bool
	Seed        int64
	Workers     int
	Transcript  bool
}

type TournamentSummary struct {
	RunID        string
	ArtifactsDir string
	Winner       string
	WinnerScore  float64
	Rankings     []model.RankingEntry
}

// Tournament runs a round-robin over the requested specs, persists the
// records and writes the run artifacts plus the run index entry.
func (c *Client) Tournament(ctx context.Context, req TournamentRequest) (TournamentSummary, error) {
	applyTournamentDefaults(&req)

	arena := platform.NewArena(platform.Config{Store: c.store})
	if err := arena.Init(ctx); err != nil {
		return TournamentSummary{}, err
	}
	if err := arena.RegisterSpecs(req.Strategies); err != nil {
		return TournamentSummary{}, err
	}

	outcome, err := arena.RunTournament(ctx, platform.TournamentConfig{
		RunID:       req.RunID,
		Rounds:      req.Rounds,
		Repetitions: req.Repetitions,
		HideLength:  req.HideLength,
		SelfPlay:    req.SelfPlay,
		Seed:        req.Seed,
		Workers:     req.Workers,
	})
	if err != nil {
		return TournamentSummary{}, err
	}

	matches, err := c.store.ListMatches(ctx, outcome.RunID)
	if err != nil {
		return TournamentSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.resultsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:       outcome.RunID,
			Strategies:  outcome.Record.Strategies,
			Rounds:      req.Rounds,
			Repetitions: req.Repetitions,
			HideLength:  req.HideLength,
			SelfPlay:    req.SelfPlay,
			Seed:        req.Seed,
			Workers:     req.Workers,
		},
		Rankings: outcome.Record.Rankings,
		Scores:   outcome.Record.Scores,
		Matches:  matches,
	})
	if err != nil {
		return TournamentSummary{}, err
	}

	if req.Transcript {
		if err := writeTranscript(filepath.Join(runDir, "transcript.jsonl"), outcome.RunID, matches); err != nil {
			return TournamentSummary{}, err
		}
	}

	entry := stats.RunIndexEntry{
		RunID:         outcome.RunID,
		CreatedAtUTC:  outcome.Record.CreatedAtUTC,
		Strategies:    len(outcome.Record.Strategies),
		Rounds:        req.Rounds,
		Repetitions:   req.Repetitions,
		Seed:          req.Seed,
		MatchesPlayed: len(matches),
	}
	if len(outcome.Record.Rankings) > 0 {
		entry.Winner = outcome.Record.Rankings[0].Strategy
		entry.WinnerScore = outcome.Record.Rankings[0].MeanScore
	}
	if err := stats.AppendRunIndex(c.resultsDir, entry); err != nil {
		return TournamentSummary{}, err
	}

	summary := TournamentSummary{
		RunID:        outcome.RunID,
		ArtifactsDir: filepath.Clean(runDir),
		Rankings:     outcome.Record.Rankings,
	}
	if len(outcome.Record.Rankings) > 0 {
		summary.Winner = outcome.Record.Rankings[0].Strategy
		summary.WinnerScore = outcome.Record.Rankings[0].MeanScore
	}
	return summary, nil
}

func applyTournamentDefaults(req *TournamentRequest) {
	if req.Rounds <= 0 {
		req.Rounds = 100
	}
	if req.Repetitions <= 0 {
		req.Repetitions = 1
	}
	if req.Seed == 0 {
		req.Seed = 1
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
}

func writeTranscript(path, runID string, matches []model.MatchRecord) error {
	log, err := eventlog.New(path)
	if err != nil {
		return err
	}
	defer log.Close()

	for _, record := range matches {
		if err := log.Emit(eventlog.Event{
			Kind:      "match_start",
			RunID:     runID,
			MatchID:   record.ID,
			StrategyA: record.StrategyA,
			StrategyB: record.StrategyB,
		}); err != nil {
			return err
		}
		for round, turn := range record.Turns {
			if len(turn) != 2 {
				return fmt.Errorf("match %s round %d: malformed turn %q", record.ID, round, turn)
			}
			if err := log.Emit(eventlog.Event{
				Kind:    "turn",
				RunID:   runID,
				MatchID: record.ID,
				Round:   round,
				ActionA: turn[:1],
				ActionB: turn[1:],
			}); err != nil {
				return err
			}
		}
		if err := log.Emit(eventlog.Event{
			Kind:    "match_end",
			RunID:   runID,
			MatchID: record.ID,
			ScoreA:  record.ScoreA,
			ScoreB:  record.ScoreB,
		}); err != nil {
			return err
		}
	}
	return nil
}

type BenchmarkRequest struct {
	Strategies  []string
	Rounds      int
	Repetitions int // repetitions inside each tournament
	Tournaments int // number of tournaments across derived seeds
	SelfPlay    bool
	Seed        int64
	Workers     int
	Concurrency int // concurrently running tournaments
}

type BenchmarkSummary struct {
	RunID   string
	Summary stats.BenchmarkSummary
}

// Benchmark replays the same tournament across derived seeds and aggregates
// the winner's score and how stable the winner is. Tournaments run
// concurrently up to the requested limit; results are deterministic per
// seed regardless of that limit.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (BenchmarkSummary, error) {
	if req.Rounds <= 0 {
		req.Rounds = 100
	}
	if req.Repetitions <= 0 {
		req.Repetitions = 1
	}
	if req.Tournaments <= 0 {
		req.Tournaments = 10
	}
	if req.Seed == 0 {
		req.Seed = 1
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.Concurrency <= 0 {
		req.Concurrency = 2
	}

	roster := make([]strategy.Archetype, 0, len(req.Strategies))
	for _, spec := range req.Strategies {
		arch, err := platform.ResolveSpec(spec)
		if err != nil {
			return BenchmarkSummary{}, err
		}
		roster = append(roster, arch)
	}

	type repOutcome struct {
		winner string
		score  float64
	}
	outcomes := make([]repOutcome, req.Tournaments)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(req.Concurrency)
	for i := 0; i < req.Tournaments; i++ {
		i := i
		group.Go(func() error {
			scheduler, err := tournament.New(tournament.Config{
				Roster:      roster,
				Rounds:      req.Rounds,
				Repetitions: req.Repetitions,
				SelfPlay:    req.SelfPlay,
				Seed:        req.Seed + int64(i)*100_000,
				Workers:     req.Workers,
			})
			if err != nil {
				return err
			}
			result, err := scheduler.Run(groupCtx)
			if err != nil {
				return err
			}
			if len(result.Rankings) == 0 {
				return errors.New("tournament produced no ranking")
			}
			outcomes[i] = repOutcome{
				winner: result.Rankings[0].Strategy,
				score:  result.Rankings[0].MeanScore,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return BenchmarkSummary{}, err
	}

	scores := make([]float64, 0, len(outcomes))
	winners := make([]string, 0, len(outcomes))
	winCounts := make(map[string]int, len(outcomes))
	for _, outcome := range outcomes {
		scores = append(scores, outcome.score)
		winners = append(winners, outcome.winner)
		winCounts[outcome.winner]++
	}
	mean, std, max, min := stats.SeriesStats(scores)

	modalWinner := ""
	modalCount := 0
	names := make([]string, 0, len(winCounts))
	for name := range winCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if winCounts[name] > modalCount {
			modalWinner, modalCount = name, winCounts[name]
		}
	}

	summary := stats.BenchmarkSummary{
		Repetitions:     req.Tournaments,
		Rounds:          req.Rounds,
		BaseSeed:        req.Seed,
		Winner:          modalWinner,
		WinnerShare:     float64(modalCount) / float64(len(outcomes)),
		MeanWinnerScore: mean,
		StdWinnerScore:  std,
		MaxWinnerScore:  max,
		MinWinnerScore:  min,
		WinnersBySeed:   winners,
	}

	runID := fmt.Sprintf("bench-%d-%d", req.Seed, time.Now().UTC().UnixNano())
	runDir, err := stats.WriteRunArtifacts(c.resultsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:       runID,
			Strategies:  req.Strategies,
			Rounds:      req.Rounds,
			Repetitions: req.Repetitions,
			SelfPlay:    req.SelfPlay,
			Seed:        req.Seed,
			Workers:     req.Workers,
		},
	})
	if err != nil {
		return BenchmarkSummary{}, err
	}
	if err := stats.WriteBenchmarkSummary(runDir, summary); err != nil {
		return BenchmarkSummary{}, err
	}
	if err := stats.AppendRunIndex(c.resultsDir, stats.RunIndexEntry{
		RunID:        runID,
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339),
		Strategies:   len(req.Strategies),
		Rounds:       req.Rounds,
		Repetitions:  req.Tournaments,
		Seed:         req.Seed,
		Winner:       modalWinner,
		WinnerScore:  mean,
	}); err != nil {
		return BenchmarkSummary{}, err
	}

	return BenchmarkSummary{RunID: runID, Summary: summary}, nil
}

// Runs lists the newest run index entries, up to limit (default 20).
func (c *Client) Runs(limit int) ([]stats.RunIndexEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	entries, err := stats.ListRunIndex(c.resultsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Ranking returns the stored ranking of a run; an empty runID means the
// latest run.
func (c *Client) Ranking(ctx context.Context, runID string) ([]model.RankingEntry, error) {
	if runID == "" {
		entries, err := stats.ListRunIndex(c.resultsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}

	record, ok, err := c.store.GetTournament(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return record.Rankings, nil
	}

	// Fall back to the artifacts for runs from an earlier process.
	rankings, ok, err := stats.ReadRanking(c.resultsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return rankings, nil
}

// Matches lists the stored match records of a run.
func (c *Client) Matches(ctx context.Context, runID string) ([]model.MatchRecord, error) {
	return c.store.ListMatches(ctx, runID)
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

// Export copies a run's artifacts into the exports directory.
func (c *Client) Export(req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.resultsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.resultsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}
