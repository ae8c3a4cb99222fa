package platform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"talion/internal/game"
	"talion/internal/logging"
	"talion/internal/match"
	"talion/internal/model"
	"talion/internal/storage"
	"talion/internal/strategy"
	"talion/internal/tournament"
	"talion/internal/transform"
)

// Config wires an Arena.
type Config struct {
	Store  storage.Store
	Logger *slog.Logger
}

// Arena owns the store and the active strategy roster and runs matches and
// tournaments against them. A derived strategy enters the roster through a
// spec string such as "flip,noisy:0.1/TitForTat".
type Arena struct {
	mu      sync.Mutex
	store   storage.Store
	roster  []strategy.Archetype
	byID    map[string]int
	started bool
	logger  *slog.Logger
}

func NewArena(cfg Config) *Arena {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("arena")
	}
	return &Arena{
		store:  cfg.Store,
		byID:   make(map[string]int),
		logger: logger,
	}
}

func (a *Arena) Init(ctx context.Context) error {
	if a.store == nil {
		return fmt.Errorf("store is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	if err := a.store.Init(ctx); err != nil {
		return err
	}
	a.started = true
	return nil
}

func (a *Arena) Reset(ctx context.Context) error {
	if a.store == nil {
		return fmt.Errorf("store is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if resetter, ok := a.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	if err := a.store.Init(ctx); err != nil {
		return err
	}
	a.roster = nil
	a.byID = make(map[string]int)
	a.started = true
	return nil
}

func (a *Arena) Started() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

func (a *Arena) Store() storage.Store {
	return a.store
}

// RegisterStrategy adds an archetype to the roster. Duplicate identifiers
// are configuration errors.
func (a *Arena) RegisterStrategy(arch strategy.Archetype) error {
	if arch.Builder() == nil {
		return fmt.Errorf("strategy %q is not initialized", arch.ID())
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.byID[arch.ID()]; exists {
		return fmt.Errorf("strategy already in roster: %s", arch.ID())
	}
	a.byID[arch.ID()] = len(a.roster)
	a.roster = append(a.roster, arch)
	return nil
}

// Roster returns the registered archetypes in registration order.
func (a *Arena) Roster() []strategy.Archetype {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]strategy.Archetype(nil), a.roster...)
}

// ResolveSpec turns a strategy spec into an archetype. A spec is either a
// registered base id such as "TitForTat" or a transformation chain and base
// separated by a slash, such as "flip,noisy:0.1/TitForTat". All resolution
// failures surface here, before any match starts.
func ResolveSpec(spec string) (strategy.Archetype, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return strategy.Archetype{}, fmt.Errorf("empty strategy spec")
	}

	chain := ""
	base := spec
	if i := strings.LastIndexByte(spec, '/'); i >= 0 {
		chain, base = spec[:i], spec[i+1:]
	}

	arch, err := strategy.Resolve(base)
	if err != nil {
		return strategy.Archetype{}, err
	}
	if chain == "" {
		return arch, nil
	}
	derived, err := transform.Derive(arch, chain)
	if err != nil {
		return strategy.Archetype{}, fmt.Errorf("spec %q: %w", spec, err)
	}
	return derived, nil
}

// RegisterSpecs resolves and registers every spec in order.
func (a *Arena) RegisterSpecs(specs []string) error {
	for _, spec := range specs {
		arch, err := ResolveSpec(spec)
		if err != nil {
			return err
		}
		if err := a.RegisterStrategy(arch); err != nil {
			return err
		}
	}
	return nil
}

// TournamentConfig describes one arena tournament run.
type TournamentConfig struct {
	RunID       string
	Rounds      int
	Repetitions int
	HideLength  bool
	SelfPlay    bool
	Seed        int64
	Payoff      game.Payoff
	Workers     int
}

// TournamentOutcome bundles the in-memory result with the persisted record.
type TournamentOutcome struct {
	RunID  string
	Result tournament.Result
	Record model.TournamentRecord
}

// RunTournament runs the roster round-robin and persists the tournament
// record, every match record and the per-strategy summaries.
func (a *Arena) RunTournament(ctx context.Context, cfg TournamentConfig) (TournamentOutcome, error) {
	if !a.Started() {
		return TournamentOutcome{}, fmt.Errorf("arena is not initialized")
	}
	roster := a.Roster()

	runID := cfg.RunID
	if runID == "" {
		runID = fmt.Sprintf("run-%d-%d", cfg.Seed, time.Now().UTC().UnixNano())
	}

	scheduler, err := tournament.New(tournament.Config{
		Roster:      roster,
		Rounds:      cfg.Rounds,
		Repetitions: cfg.Repetitions,
		HideLength:  cfg.HideLength,
		SelfPlay:    cfg.SelfPlay,
		Seed:        cfg.Seed,
		Payoff:      cfg.Payoff,
		Workers:     cfg.Workers,
		Logger:      a.logger,
	})
	if err != nil {
		return TournamentOutcome{}, err
	}

	result, err := scheduler.Run(ctx)
	if err != nil {
		return TournamentOutcome{}, err
	}

	record, err := a.persistTournament(ctx, runID, cfg, roster, result)
	if err != nil {
		return TournamentOutcome{}, err
	}
	return TournamentOutcome{RunID: runID, Result: result, Record: record}, nil
}

func (a *Arena) persistTournament(ctx context.Context, runID string, cfg TournamentConfig, roster []strategy.Archetype, result tournament.Result) (model.TournamentRecord, error) {
	ids := make([]string, 0, len(roster))
	for _, arch := range roster {
		ids = append(ids, arch.ID())
	}

	rankings := make([]model.RankingEntry, 0, len(result.Rankings))
	for _, standing := range result.Rankings {
		rankings = append(rankings, model.RankingEntry{
			Strategy:        standing.Strategy,
			Name:            standing.Name,
			MatchesPlayed:   standing.MatchesPlayed,
			TotalScore:      standing.TotalScore,
			MeanScore:       standing.MeanScore,
			CooperationRate: standing.CooperationRate,
			Wins:            standing.Wins,
		})
	}

	record := model.TournamentRecord{
		VersionedRecord: storage.Stamp(),
		RunID:           runID,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
		Strategies:      ids,
		Rounds:          cfg.Rounds,
		Repetitions:     cfg.Repetitions,
		HideLength:      cfg.HideLength,
		SelfPlay:        cfg.SelfPlay,
		Seed:            cfg.Seed,
		Rankings:        rankings,
		Scores:          result.Scores,
	}
	if err := a.store.SaveTournament(ctx, record); err != nil {
		return model.TournamentRecord{}, fmt.Errorf("save tournament %s: %w", runID, err)
	}

	matchIdx := 0
	for _, pairing := range result.Pairings {
		for _, played := range pairing.Matches {
			if err := a.store.SaveMatch(ctx, MatchRecordFrom(played, runID, fmt.Sprintf("%s-m%04d", runID, matchIdx))); err != nil {
				return model.TournamentRecord{}, fmt.Errorf("save match %d of %s: %w", matchIdx, runID, err)
			}
			matchIdx++
		}
	}

	if err := a.updateSummaries(ctx, runID, rankings); err != nil {
		return model.TournamentRecord{}, err
	}
	return record, nil
}

func (a *Arena) updateSummaries(ctx context.Context, runID string, rankings []model.RankingEntry) error {
	for _, entry := range rankings {
		summary, ok, err := a.store.GetStrategySummary(ctx, entry.Strategy)
		if err != nil {
			return fmt.Errorf("load summary %s: %w", entry.Strategy, err)
		}
		if !ok {
			summary = model.StrategySummary{
				VersionedRecord: storage.Stamp(),
				Strategy:        entry.Strategy,
				Name:            entry.Name,
				BestMeanScore:   entry.MeanScore,
				BestRunID:       runID,
			}
		} else if entry.MeanScore > summary.BestMeanScore {
			summary.BestMeanScore = entry.MeanScore
			summary.BestRunID = runID
		}
		summary.Tournaments++
		summary.LastRunID = runID
		if err := a.store.SaveStrategySummary(ctx, summary); err != nil {
			return fmt.Errorf("save summary %s: %w", entry.Strategy, err)
		}
	}
	return nil
}

// PlayMatch resolves both specs, plays one match and persists its record.
func (a *Arena) PlayMatch(ctx context.Context, specA, specB string, cfg match.Config) (match.Result, error) {
	if !a.Started() {
		return match.Result{}, fmt.Errorf("arena is not initialized")
	}
	archA, err := ResolveSpec(specA)
	if err != nil {
		return match.Result{}, err
	}
	archB, err := ResolveSpec(specB)
	if err != nil {
		return match.Result{}, err
	}

	result, err := match.Play(ctx, archA, archB, cfg)
	if err != nil {
		return match.Result{}, err
	}

	id := fmt.Sprintf("match-%s-%s-%d", archA.ID(), archB.ID(), cfg.Seed)
	if err := a.store.SaveMatch(ctx, MatchRecordFrom(result, "", id)); err != nil {
		return match.Result{}, fmt.Errorf("save match: %w", err)
	}
	return result, nil
}

// MatchRecordFrom converts a played match into its persistent form.
func MatchRecordFrom(result match.Result, runID, id string) model.MatchRecord {
	turns := make([]string, 0, len(result.Turns))
	for _, turn := range result.Turns {
		turns = append(turns, turn.A.String()+turn.B.String())
	}
	return model.MatchRecord{
		VersionedRecord: storage.Stamp(),
		ID:              id,
		RunID:           runID,
		StrategyA:       result.StrategyA,
		StrategyB:       result.StrategyB,
		Rounds:          result.Rounds,
		Seed:            result.Seed,
		Turns:           turns,
		ScoreA:          result.ScoreA,
		ScoreB:          result.ScoreB,
	}
}
