package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"talion/internal/config"
	"talion/internal/logging"
	"talion/internal/model"
	"talion/internal/storage"
	"talion/pkg/talion"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "strategies":
		return runStrategies(ctx, args[1:])
	case "transforms":
		return runTransforms(ctx, args[1:])
	case "match":
		return runMatch(ctx, args[1:])
	case "tournament":
		return runTournament(ctx, args[1:])
	case "benchmark":
		return runBenchmark(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "ranking":
		return runRanking(ctx, args[1:])
	case "matches":
		return runMatches(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind       *string
	dbPath     *string
	resultsDir *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:       fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:     fs.String("db-path", "talion.db", "sqlite database path"),
		resultsDir: fs.String("results-dir", "results", "run artifacts directory"),
	}
}

func newClient(flags storeFlags) (*talion.Client, error) {
	return talion.New(talion.Options{
		StoreKind:  *flags.kind,
		DBPath:     *flags.dbPath,
		ResultsDir: *flags.resultsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *flags.kind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *flags.kind)
	return nil
}

func runStrategies(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("strategies", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := talion.New(talion.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, id := range client.Strategies() {
		fmt.Println(id)
	}
	return nil
}

func runTransforms(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("transforms", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := talion.New(talion.Options{})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, name := range client.Transforms() {
		fmt.Println(name)
	}
	return nil
}

func runMatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	flags := addStoreFlags(fs)
	strategyA := fs.String("a", "", "side a strategy spec, e.g. TitForTat or flip/Cooperator")
	strategyB := fs.String("b", "", "side b strategy spec")
	rounds := fs.Int("rounds", 100, "rounds per match")
	hideLength := fs.Bool("hide-length", false, "hide the match length from the players")
	seed := fs.Int64("seed", 1, "match seed")
	showTurns := fs.Bool("turns", false, "print the per-round transcript")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *strategyA == "" || *strategyB == "" {
		return usageError("match requires -a and -b strategy specs")
	}

	client, err := newClient(flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Match(ctx, talion.MatchRequest{
		StrategyA:  *strategyA,
		StrategyB:  *strategyB,
		Rounds:     *rounds,
		HideLength: *hideLength,
		Seed:       *seed,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s vs %s over %d rounds (seed=%d)\n", summary.StrategyA, summary.StrategyB, summary.Rounds, *seed)
	fmt.Printf("score: %d - %d (mean %.3f - %.3f)\n", summary.ScoreA, summary.ScoreB, summary.MeanScoreA, summary.MeanScoreB)
	fmt.Printf("cooperation: %.2f - %.2f\n", summary.CooperationRateA, summary.CooperationRateB)
	if *showTurns {
		fmt.Println(strings.Join(summary.Turns, " "))
	}
	return nil
}

func runTournament(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tournament", flag.ContinueOnError)
	configPath := fs.String("config", "", "run config file (yaml or json)")
	strategies := fs.String("strategies", "", "semicolon-separated strategy specs")
	rounds := fs.Int("rounds", 0, "rounds per match")
	repetitions := fs.Int("repetitions", 0, "matches per pairing")
	hideLength := fs.Bool("hide-length", false, "hide the match length from the players")
	selfPlay := fs.Bool("self-play", false, "include self pairings")
	seed := fs.Int64("seed", 0, "tournament seed")
	workers := fs.Int("workers", 0, "worker pool size")
	runID := fs.String("run-id", "", "run identifier (derived from the seed when empty)")
	transcript := fs.Bool("transcript", false, "write a jsonl transcript of every match")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logging.Init(level, "text")

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	// Explicitly passed flags overlay the config file.
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["strategies"] {
		cfg.Strategies = splitSpecs(*strategies)
	}
	if set["rounds"] {
		cfg.Rounds = *rounds
	}
	if set["repetitions"] {
		cfg.Repetitions = *repetitions
	}
	if set["hide-length"] {
		cfg.HideLength = *hideLength
	}
	if set["self-play"] {
		cfg.SelfPlay = *selfPlay
	}
	if set["seed"] {
		cfg.Seed = *seed
	}
	if set["workers"] {
		cfg.Workers = *workers
	}
	if set["transcript"] {
		cfg.Transcript = *transcript
	}
	if set["store"] {
		cfg.StoreKind = *flags.kind
	}
	if set["db-path"] {
		cfg.DBPath = *flags.dbPath
	}
	if set["results-dir"] {
		cfg.ResultsDir = *flags.resultsDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := talion.New(talion.Options{
		StoreKind:  cfg.StoreKind,
		DBPath:     cfg.DBPath,
		ResultsDir: cfg.ResultsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Tournament(ctx, talion.TournamentRequest{
		RunID:       *runID,
		Strategies:  cfg.Strategies,
		Rounds:      cfg.Rounds,
		Repetitions: cfg.Repetitions,
		HideLength:  cfg.HideLength,
		SelfPlay:    cfg.SelfPlay,
		Seed:        cfg.Seed,
		Workers:     cfg.Workers,
		Transcript:  cfg.Transcript,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run %s finished, artifacts in %s\n", summary.RunID, summary.ArtifactsDir)
	printRankings(summary.Rankings)
	return nil
}

func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	strategies := fs.String("strategies", "", "semicolon-separated strategy specs")
	rounds := fs.Int("rounds", 100, "rounds per match")
	repetitions := fs.Int("repetitions", 1, "matches per pairing inside each tournament")
	tournaments := fs.Int("tournaments", 10, "tournaments across derived seeds")
	selfPlay := fs.Bool("self-play", false, "include self pairings")
	seed := fs.Int64("seed", 1, "base seed")
	workers := fs.Int("workers", 4, "worker pool size per tournament")
	concurrency := fs.Int("concurrency", 2, "concurrently running tournaments")
	resultsDir := fs.String("results-dir", "results", "run artifacts directory")
	logLevel := fs.String("log-level", "warn", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *strategies == "" {
		return usageError("benchmark requires -strategies")
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logging.Init(level, "text")

	client, err := talion.New(talion.Options{ResultsDir: *resultsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Benchmark(ctx, talion.BenchmarkRequest{
		Strategies:  splitSpecs(*strategies),
		Rounds:      *rounds,
		Repetitions: *repetitions,
		Tournaments: *tournaments,
		SelfPlay:    *selfPlay,
		Seed:        *seed,
		Workers:     *workers,
		Concurrency: *concurrency,
	})
	if err != nil {
		return err
	}

	s := summary.Summary
	fmt.Printf("benchmark %s: %d tournaments, base seed %d\n", summary.RunID, s.Repetitions, s.BaseSeed)
	fmt.Printf("winner: %s (share %.2f)\n", s.Winner, s.WinnerShare)
	fmt.Printf("winner score: mean=%.4f std=%.4f min=%.4f max=%.4f\n", s.MeanWinnerScore, s.StdWinnerScore, s.MinWinnerScore, s.MaxWinnerScore)
	return nil
}

func runRuns(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum entries to list")
	resultsDir := fs.String("results-dir", "results", "run artifacts directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := talion.New(talion.Options{ResultsDir: *resultsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	entries, err := client.Runs(*limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf("%s  %s  strategies=%d rounds=%d seed=%d winner=%s (%.4f)\n",
			entry.RunID, entry.CreatedAtUTC, entry.Strategies, entry.Rounds, entry.Seed, entry.Winner, entry.WinnerScore)
	}
	return nil
}

func runRanking(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ranking", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run to show (latest when empty)")
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	rankings, err := client.Ranking(ctx, *runID)
	if err != nil {
		return err
	}
	printRankings(rankings)
	return nil
}

func runMatches(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("matches", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run to list matches for (all when empty)")
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	matches, err := client.Matches(ctx, *runID)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("no matches recorded")
		return nil
	}
	for _, record := range matches {
		fmt.Printf("%s  %s vs %s  rounds=%d seed=%d score=%d-%d\n",
			record.ID, record.StrategyA, record.StrategyB, record.Rounds, record.Seed, record.ScoreA, record.ScoreB)
	}
	return nil
}

func runExport(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run to export")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "", "destination directory (defaults to exports)")
	resultsDir := fs.String("results-dir", "results", "run artifacts directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := talion.New(talion.Options{ResultsDir: *resultsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(talion.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", exported.RunID, exported.Directory)
	return nil
}

func printRankings(rankings []model.RankingEntry) {
	if len(rankings) == 0 {
		fmt.Println("no ranking available")
		return
	}
	fmt.Printf("%-4s %-30s %10s %8s %6s %8s\n", "rank", "strategy", "mean", "coop", "wins", "matches")
	for i, entry := range rankings {
		fmt.Printf("%-4d %-30s %10.4f %8.2f %6d %8d\n",
			i+1, entry.Strategy, entry.MeanScore, entry.CooperationRate, entry.Wins, entry.MatchesPlayed)
	}
}

// splitSpecs splits a roster list on semicolons; commas stay available for
// transformation chains inside each spec.
func splitSpecs(value string) []string {
	parts := strings.Split(value, ";")
	specs := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			specs = append(specs, part)
		}
	}
	return specs
}

func usageError(msg string) error {
	return errors.New(msg + usageText)
}

const usageText = `

usage: talionctl <command> [flags]

commands:
  init         initialize the store
  reset        clear the store
  strategies   list registered base strategies
  transforms   list registered transformations
  match        play one match between two strategy specs
  tournament   run a round-robin tournament
  benchmark    replay a tournament across derived seeds
  runs         list recorded runs
  ranking      show a run's final ranking
  matches      list stored match records
  export       copy a run's artifacts for sharing

strategy specs are a base id, optionally behind a transformation chain:
  TitForTat
  flip/Cooperator
  rua,noisy:0.05/TitForTat

roster lists are semicolon-separated, e.g.
  -strategies "TitForTat; flip/Cooperator; rua,noisy:0.05/Defector"
`
