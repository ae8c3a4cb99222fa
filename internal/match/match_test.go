package match

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"talion/internal/game"
	"talion/internal/strategy"
	"talion/internal/transform"
)

func TestPlayValidatesConfig(t *testing.T) {
	ctx := context.Background()

	if _, err := Play(ctx, strategy.Cooperator(), strategy.Defector(), Config{Rounds: 0}); err == nil {
		t.Fatalf("expected error for zero rounds")
	}
	if _, err := Play(ctx, strategy.Archetype{}, strategy.Defector(), Config{Rounds: 3}); err == nil {
		t.Fatalf("expected error for uninitialized side a")
	}
	badPayoff := game.Payoff{R: 1, S: 2, T: 3, P: 4}
	if _, err := Play(ctx, strategy.Cooperator(), strategy.Defector(), Config{Rounds: 3, Payoff: badPayoff}); err == nil {
		t.Fatalf("expected error for degenerate payoff matrix")
	}
}

func TestPlayScoresWithDefaultPayoff(t *testing.T) {
	result, err := Play(context.Background(), strategy.Cooperator(), strategy.Defector(), Config{Rounds: 4, Seed: 9})
	if err != nil {
		t.Fatalf("play: %v", err)
	}

	if result.StrategyA != "Cooperator" || result.StrategyB != "Defector" {
		t.Fatalf("identities=%q/%q", result.StrategyA, result.StrategyB)
	}
	if result.ScoreA != 0 || result.ScoreB != 20 {
		t.Fatalf("scores=%d/%d want 0/20", result.ScoreA, result.ScoreB)
	}
	if got := result.MeanScoreB(); got != 5 {
		t.Fatalf("mean score b=%v", got)
	}
	if got := result.CooperationRateA(); got != 1 {
		t.Fatalf("cooperation rate a=%v", got)
	}
	if got := result.CooperationRateB(); got != 0 {
		t.Fatalf("cooperation rate b=%v", got)
	}

	want := []Turn{
		{A: game.Cooperate, B: game.Defect},
		{A: game.Cooperate, B: game.Defect},
		{A: game.Cooperate, B: game.Defect},
		{A: game.Cooperate, B: game.Defect},
	}
	if diff := cmp.Diff(want, result.Turns); diff != "" {
		t.Fatalf("turns mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayUsesSimultaneousDecisions(t *testing.T) {
	// Tit for tat against an alternator: decisions must read the pre-round
	// history, so tit for tat lags the alternator by exactly one round.
	result, err := Play(context.Background(), strategy.TitForTat(), strategy.Alternator(), Config{Rounds: 5, Seed: 3})
	if err != nil {
		t.Fatalf("play: %v", err)
	}

	want := []Turn{
		{A: game.Cooperate, B: game.Cooperate},
		{A: game.Cooperate, B: game.Defect},
		{A: game.Defect, B: game.Cooperate},
		{A: game.Cooperate, B: game.Defect},
		{A: game.Defect, B: game.Cooperate},
	}
	if diff := cmp.Diff(want, result.Turns); diff != "" {
		t.Fatalf("turns mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayIsSeedDeterministic(t *testing.T) {
	noisy, err := transform.Noisy(0.5)
	if err != nil {
		t.Fatalf("noisy: %v", err)
	}
	arch, err := noisy.Apply(strategy.TitForTat())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	cfg := Config{Rounds: 30, Seed: 1234}
	first, err := Play(context.Background(), arch, strategy.Random(0.5), cfg)
	if err != nil {
		t.Fatalf("first play: %v", err)
	}
	second, err := Play(context.Background(), arch, strategy.Random(0.5), cfg)
	if err != nil {
		t.Fatalf("second play: %v", err)
	}

	if diff := cmp.Diff(first.Turns, second.Turns); diff != "" {
		t.Fatalf("equal seeds must replay exactly (-first +second):\n%s", diff)
	}

	cfg.Seed = 1235
	third, err := Play(context.Background(), arch, strategy.Random(0.5), cfg)
	if err != nil {
		t.Fatalf("third play: %v", err)
	}
	if cmp.Equal(first.Turns, third.Turns) {
		t.Fatalf("different seeds produced identical noisy matches")
	}
}

func TestPlayHideLength(t *testing.T) {
	closing, err := transform.FinalSequence([]game.Action{game.Defect})
	if err != nil {
		t.Fatalf("final sequence: %v", err)
	}
	arch, err := closing.Apply(strategy.Cooperator())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	visible, err := Play(context.Background(), arch, strategy.Cooperator(), Config{Rounds: 5, Seed: 1})
	if err != nil {
		t.Fatalf("play with known length: %v", err)
	}
	if visible.Turns[4].A != game.Defect {
		t.Fatalf("known length: final round should defect, got %v", visible.Turns[4].A)
	}

	hidden, err := Play(context.Background(), arch, strategy.Cooperator(), Config{Rounds: 5, Seed: 1, HideLength: true})
	if err != nil {
		t.Fatalf("play with hidden length: %v", err)
	}
	for round, turn := range hidden.Turns {
		if turn.A != game.Cooperate {
			t.Fatalf("hidden length: round %d should cooperate, got %v", round, turn.A)
		}
	}
}

func TestPlayHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Play(ctx, strategy.Cooperator(), strategy.Defector(), Config{Rounds: 10, Seed: 1}); err == nil {
		t.Fatalf("expected context error")
	}
}
