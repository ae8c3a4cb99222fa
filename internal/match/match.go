package match

import (
	"context"
	"fmt"
	"math/rand"

	"talion/internal/game"
	"talion/internal/strategy"
)

// Config describes one match.
type Config struct {
	Rounds     int
	HideLength bool
	Seed       int64
	Payoff     game.Payoff
}

// Turn is one simultaneous round.
type Turn struct {
	A game.Action `json:"a"`
	B game.Action `json:"b"`
}

// Result summarizes a finished match.
type Result struct {
	StrategyA string
	StrategyB string
	Rounds    int
	Seed      int64
	Turns     []Turn
	ScoreA    int
	ScoreB    int
}

// Play runs one match between fresh instances of the two archetypes. Both
// sides decide against the pre-round histories before either action is
// recorded; the runner is the only history writer. The two instances draw
// from sources derived from the match seed, so a rerun with the same config
// replays exactly.
func Play(ctx context.Context, a, b strategy.Archetype, cfg Config) (Result, error) {
	if cfg.Rounds <= 0 {
		return Result{}, fmt.Errorf("rounds must be > 0")
	}
	payoff := cfg.Payoff
	if payoff == (game.Payoff{}) {
		payoff = game.DefaultPayoff()
	}
	if !payoff.Valid() {
		return Result{}, fmt.Errorf("payoff matrix is not a prisoner's dilemma: %+v", payoff)
	}

	info := strategy.MatchInfo{Length: cfg.Rounds}
	if cfg.HideLength {
		info.Length = strategy.UnknownLength
	}

	playerA, err := a.NewPlayer(rand.New(rand.NewSource(cfg.Seed+1)), info)
	if err != nil {
		return Result{}, fmt.Errorf("side a: %w", err)
	}
	playerB, err := b.NewPlayer(rand.New(rand.NewSource(cfg.Seed+2)), info)
	if err != nil {
		return Result{}, fmt.Errorf("side b: %w", err)
	}

	result := Result{
		StrategyA: a.ID(),
		StrategyB: b.ID(),
		Rounds:    cfg.Rounds,
		Seed:      cfg.Seed,
		Turns:     make([]Turn, 0, cfg.Rounds),
	}
	for round := 0; round < cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		actionA := playerA.Decide(playerB)
		actionB := playerB.Decide(playerA)
		playerA.History().Append(actionA)
		playerB.History().Append(actionB)

		scoreA, scoreB := payoff.Score(actionA, actionB)
		result.ScoreA += scoreA
		result.ScoreB += scoreB
		result.Turns = append(result.Turns, Turn{A: actionA, B: actionB})
	}
	return result, nil
}

// MeanScoreA is side A's score averaged over the played rounds.
func (r Result) MeanScoreA() float64 {
	return meanScore(r.ScoreA, len(r.Turns))
}

func (r Result) MeanScoreB() float64 {
	return meanScore(r.ScoreB, len(r.Turns))
}

func meanScore(total, rounds int) float64 {
	if rounds == 0 {
		return 0
	}
	return float64(total) / float64(rounds)
}

// CooperationRateA is the share of played rounds side A cooperated.
func (r Result) CooperationRateA() float64 {
	return cooperationRate(r.Turns, func(turn Turn) game.Action { return turn.A })
}

func (r Result) CooperationRateB() float64 {
	return cooperationRate(r.Turns, func(turn Turn) game.Action { return turn.B })
}

func cooperationRate(turns []Turn, side func(Turn) game.Action) float64 {
	if len(turns) == 0 {
		return 0
	}
	cooperations := 0
	for _, turn := range turns {
		if side(turn) == game.Cooperate {
			cooperations++
		}
	}
	return float64(cooperations) / float64(len(turns))
}
