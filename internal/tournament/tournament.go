package tournament

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"talion/internal/game"
	"talion/internal/logging"
	"talion/internal/match"
	"talion/internal/strategy"
)

// Config describes a round-robin tournament.
type Config struct {
	Roster      []strategy.Archetype
	Rounds      int
	Repetitions int
	HideLength  bool
	SelfPlay    bool
	Seed        int64
	Payoff      game.Payoff
	Workers     int
	Logger      *slog.Logger
}

// PairingResult groups the repeated matches of one pairing.
type PairingResult struct {
	StrategyA string
	StrategyB string
	Matches   []match.Result
}

// Standing is one row of the final ranking.
type Standing struct {
	Strategy        string  `json:"strategy"`
	Name            string  `json:"name"`
	MatchesPlayed   int     `json:"matches_played"`
	TotalScore      int     `json:"total_score"`
	MeanScore       float64 `json:"mean_score"`
	CooperationRate float64 `json:"cooperation_rate"`
	Wins            int     `json:"wins"`
}

// Result is the tournament outcome. Scores holds the mean per-turn score of
// the row strategy against the column strategy.
type Result struct {
	Pairings []PairingResult
	Rankings []Standing
	Scores   map[string]map[string]float64
}

// Scheduler runs the pairings of one tournament across a bounded worker
// pool. Reruns with equal configs replay exactly: every match seed derives
// from the tournament seed and the pairing order, independent of worker
// scheduling.
type Scheduler struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) (*Scheduler, error) {
	if len(cfg.Roster) < 2 && !(cfg.SelfPlay && len(cfg.Roster) == 1) {
		return nil, fmt.Errorf("at least two strategies are required")
	}
	seen := make(map[string]bool, len(cfg.Roster))
	for i, arch := range cfg.Roster {
		if arch.Builder() == nil {
			return nil, fmt.Errorf("strategy at index %d is not initialized", i)
		}
		if seen[arch.ID()] {
			return nil, fmt.Errorf("duplicate strategy id: %s", arch.ID())
		}
		seen[arch.ID()] = true
	}
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be > 0")
	}
	if cfg.Repetitions <= 0 {
		cfg.Repetitions = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Payoff == (game.Payoff{}) {
		cfg.Payoff = game.DefaultPayoff()
	}
	if !cfg.Payoff.Valid() {
		return nil, fmt.Errorf("payoff matrix is not a prisoner's dilemma: %+v", cfg.Payoff)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("tournament")
	}

	return &Scheduler{cfg: cfg, logger: cfg.Logger}, nil
}

type pairing struct {
	a, b int
}

func (s *Scheduler) pairings() []pairing {
	var pairs []pairing
	for i := 0; i < len(s.cfg.Roster); i++ {
		start := i + 1
		if s.cfg.SelfPlay {
			start = i
		}
		for j := start; j < len(s.cfg.Roster); j++ {
			pairs = append(pairs, pairing{a: i, b: j})
		}
	}
	return pairs
}

func (s *Scheduler) Run(ctx context.Context) (Result, error) {
	type job struct {
		idx  int
		a, b int
		seed int64
	}
	type outcome struct {
		idx    int
		result match.Result
		err    error
	}

	pairs := s.pairings()
	jobsTotal := len(pairs) * s.cfg.Repetitions

	jobs := make(chan job)
	results := make(chan outcome, jobsTotal)

	workerCount := s.cfg.Workers
	if workerCount > jobsTotal {
		workerCount = jobsTotal
	}

	s.logger.Info("tournament started",
		slog.Int("strategies", len(s.cfg.Roster)),
		slog.Int("pairings", len(pairs)),
		slog.Int("repetitions", s.cfg.Repetitions),
		slog.Int("rounds", s.cfg.Rounds),
		slog.Int("workers", workerCount),
	)

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- outcome{idx: j.idx, err: err}
					continue
				}

				played, err := match.Play(ctx, s.cfg.Roster[j.a], s.cfg.Roster[j.b], match.Config{
					Rounds:     s.cfg.Rounds,
					HideLength: s.cfg.HideLength,
					Seed:       j.seed,
					Payoff:     s.cfg.Payoff,
				})
				if err != nil {
					results <- outcome{idx: j.idx, err: err}
					continue
				}
				results <- outcome{idx: j.idx, result: played}
			}
		}()
	}

	idx := 0
	for _, pair := range pairs {
		for rep := 0; rep < s.cfg.Repetitions; rep++ {
			jobs <- job{
				idx:  idx,
				a:    pair.a,
				b:    pair.b,
				seed: s.cfg.Seed + int64(idx+1)*1000,
			}
			idx++
		}
	}
	close(jobs)

	wg.Wait()
	close(results)

	played := make([]match.Result, jobsTotal)
	for out := range results {
		if out.err != nil {
			return Result{}, out.err
		}
		played[out.idx] = out.result
	}

	result := s.aggregate(pairs, played)
	if len(result.Rankings) > 0 {
		s.logger.Info("tournament finished",
			slog.String("winner", result.Rankings[0].Strategy),
			slog.Float64("mean_score", result.Rankings[0].MeanScore),
		)
	}
	return result, nil
}

type tally struct {
	name       string
	matches    int
	score      int
	turns      int
	cooperated int
	wins       int
}

func (s *Scheduler) aggregate(pairs []pairing, played []match.Result) Result {
	result := Result{
		Pairings: make([]PairingResult, 0, len(pairs)),
		Scores:   make(map[string]map[string]float64, len(s.cfg.Roster)),
	}

	tallies := make(map[string]*tally, len(s.cfg.Roster))
	cellSums := make(map[string]map[string]float64, len(s.cfg.Roster))
	cellCounts := make(map[string]map[string]int, len(s.cfg.Roster))
	for _, arch := range s.cfg.Roster {
		tallies[arch.ID()] = &tally{name: arch.Name()}
		cellSums[arch.ID()] = make(map[string]float64, len(s.cfg.Roster))
		cellCounts[arch.ID()] = make(map[string]int, len(s.cfg.Roster))
	}

	for pairIdx, pair := range pairs {
		matches := make([]match.Result, 0, s.cfg.Repetitions)
		for rep := 0; rep < s.cfg.Repetitions; rep++ {
			m := played[pairIdx*s.cfg.Repetitions+rep]
			matches = append(matches, m)

			scoreSide(tallies[m.StrategyA], m.ScoreA, m.ScoreB, m.Turns, func(t match.Turn) game.Action { return t.A })
			scoreSide(tallies[m.StrategyB], m.ScoreB, m.ScoreA, m.Turns, func(t match.Turn) game.Action { return t.B })

			cellSums[m.StrategyA][m.StrategyB] += m.MeanScoreA()
			cellCounts[m.StrategyA][m.StrategyB]++
			cellSums[m.StrategyB][m.StrategyA] += m.MeanScoreB()
			cellCounts[m.StrategyB][m.StrategyA]++
		}
		result.Pairings = append(result.Pairings, PairingResult{
			StrategyA: s.cfg.Roster[pair.a].ID(),
			StrategyB: s.cfg.Roster[pair.b].ID(),
			Matches:   matches,
		})
	}

	for row, cols := range cellSums {
		result.Scores[row] = make(map[string]float64, len(cols))
		for col, sum := range cols {
			result.Scores[row][col] = sum / float64(cellCounts[row][col])
		}
	}

	result.Rankings = make([]Standing, 0, len(tallies))
	for id, t := range tallies {
		standing := Standing{
			Strategy:      id,
			Name:          t.name,
			MatchesPlayed: t.matches,
			TotalScore:    t.score,
			Wins:          t.wins,
		}
		if t.turns > 0 {
			standing.MeanScore = float64(t.score) / float64(t.turns)
			standing.CooperationRate = float64(t.cooperated) / float64(t.turns)
		}
		result.Rankings = append(result.Rankings, standing)
	}
	sort.SliceStable(result.Rankings, func(i, j int) bool {
		if result.Rankings[i].MeanScore != result.Rankings[j].MeanScore {
			return result.Rankings[i].MeanScore > result.Rankings[j].MeanScore
		}
		return result.Rankings[i].Strategy < result.Rankings[j].Strategy
	})
	return result
}

func scoreSide(t *tally, own, other int, turns []match.Turn, side func(match.Turn) game.Action) {
	t.matches++
	t.score += own
	t.turns += len(turns)
	for _, turn := range turns {
		if side(turn) == game.Cooperate {
			t.cooperated++
		}
	}
	if own > other {
		t.wins++
	}
}
