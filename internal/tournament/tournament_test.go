package tournament

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"talion/internal/game"
	"talion/internal/strategy"
	"talion/internal/transform"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Rounds: 10}); err == nil {
		t.Fatalf("expected error for empty roster")
	}
	if _, err := New(Config{Roster: []strategy.Archetype{strategy.Cooperator()}, Rounds: 10}); err == nil {
		t.Fatalf("expected error for single strategy without self play")
	}
	if _, err := New(Config{
		Roster: []strategy.Archetype{strategy.Cooperator(), strategy.Cooperator()},
		Rounds: 10,
	}); err == nil {
		t.Fatalf("expected error for duplicate ids")
	}
	if _, err := New(Config{
		Roster: []strategy.Archetype{strategy.Cooperator(), strategy.Archetype{}},
		Rounds: 10,
	}); err == nil {
		t.Fatalf("expected error for uninitialized strategy")
	}
	if _, err := New(Config{
		Roster: []strategy.Archetype{strategy.Cooperator(), strategy.Defector()},
	}); err == nil {
		t.Fatalf("expected error for zero rounds")
	}
	if _, err := New(Config{
		Roster: []strategy.Archetype{strategy.Cooperator(), strategy.Defector()},
		Rounds: 10,
		Payoff: game.Payoff{R: 1, S: 2, T: 3, P: 4},
	}); err == nil {
		t.Fatalf("expected error for degenerate payoff")
	}
}

func TestRunRoundRobinDeterministicRanking(t *testing.T) {
	scheduler, err := New(Config{
		Roster:      []strategy.Archetype{strategy.Cooperator(), strategy.Defector(), strategy.TitForTat()},
		Rounds:      10,
		Repetitions: 2,
		Seed:        42,
		Workers:     3,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	result, err := scheduler.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Pairings) != 3 {
		t.Fatalf("pairings=%d want=3", len(result.Pairings))
	}
	for _, pairing := range result.Pairings {
		if len(pairing.Matches) != 2 {
			t.Fatalf("pairing %s/%s matches=%d want=2", pairing.StrategyA, pairing.StrategyB, len(pairing.Matches))
		}
	}

	want := []Standing{
		{Strategy: "Defector", Name: "Defector", MatchesPlayed: 4, TotalScore: 128, MeanScore: 3.2, CooperationRate: 0, Wins: 4},
		{Strategy: "TitForTat", Name: "Tit For Tat", MatchesPlayed: 4, TotalScore: 78, MeanScore: 1.95, CooperationRate: 0.55, Wins: 0},
		{Strategy: "Cooperator", Name: "Cooperator", MatchesPlayed: 4, TotalScore: 60, MeanScore: 1.5, CooperationRate: 1, Wins: 0},
	}
	if diff := cmp.Diff(want, result.Rankings); diff != "" {
		t.Fatalf("rankings mismatch (-want +got):\n%s", diff)
	}

	cells := []struct {
		row, col string
		want     float64
	}{
		{"Cooperator", "Defector", 0},
		{"Defector", "Cooperator", 5},
		{"Cooperator", "TitForTat", 3},
		{"TitForTat", "Cooperator", 3},
		{"Defector", "TitForTat", 1.4},
		{"TitForTat", "Defector", 0.9},
	}
	for _, cell := range cells {
		if got := result.Scores[cell.row][cell.col]; got != cell.want {
			t.Fatalf("score[%s][%s]=%v want=%v", cell.row, cell.col, got, cell.want)
		}
	}
}

func TestRunReproducibleAcrossWorkerCounts(t *testing.T) {
	noisy, err := transform.Noisy(0.3)
	if err != nil {
		t.Fatalf("noisy: %v", err)
	}
	jittery, err := noisy.Apply(strategy.TitForTat())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	roster := []strategy.Archetype{jittery, strategy.Random(0.5), strategy.Defector()}

	run := func(workers int) Result {
		scheduler, err := New(Config{
			Roster:      roster,
			Rounds:      20,
			Repetitions: 2,
			Seed:        7,
			Workers:     workers,
		})
		if err != nil {
			t.Fatalf("new scheduler: %v", err)
		}
		result, err := scheduler.Run(context.Background())
		if err != nil {
			t.Fatalf("run with %d workers: %v", workers, err)
		}
		return result
	}

	serial := run(1)
	parallel := run(8)

	if diff := cmp.Diff(serial.Rankings, parallel.Rankings); diff != "" {
		t.Fatalf("worker count changed rankings (-serial +parallel):\n%s", diff)
	}
	if diff := cmp.Diff(serial.Scores, parallel.Scores); diff != "" {
		t.Fatalf("worker count changed score matrix (-serial +parallel):\n%s", diff)
	}
}

func TestRunSelfPlay(t *testing.T) {
	scheduler, err := New(Config{
		Roster:   []strategy.Archetype{strategy.TitForTat()},
		Rounds:   10,
		SelfPlay: true,
		Seed:     1,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	result, err := scheduler.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(result.Pairings) != 1 || len(result.Pairings[0].Matches) != 1 {
		t.Fatalf("unexpected pairings: %+v", result.Pairings)
	}
	standing := result.Rankings[0]
	if standing.MatchesPlayed != 2 || standing.TotalScore != 60 || standing.MeanScore != 3 {
		t.Fatalf("self play standing=%+v", standing)
	}
	if got := result.Scores["TitForTat"]["TitForTat"]; got != 3 {
		t.Fatalf("self play score=%v", got)
	}
}

func TestRunKeepsConcurrentWrapperStateIsolated(t *testing.T) {
	// The derived defector retaliates forever once provoked. Against the
	// cooperator it must stay calm and collect the temptation payoff every
	// round, even while sibling instances face the defector in parallel.
	rua, err := transform.RetaliateUntilApology().Apply(strategy.Defector())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	scheduler, err := New(Config{
		Roster:      []strategy.Archetype{rua, strategy.Cooperator(), strategy.Defector()},
		Rounds:      50,
		Repetitions: 3,
		Seed:        99,
		Workers:     6,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	result, err := scheduler.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := result.Scores["RUADefector"]["Cooperator"]; got != 5 {
		t.Fatalf("retaliation state leaked across instances: score=%v want=5", got)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	scheduler, err := New(Config{
		Roster:  []strategy.Archetype{strategy.Cooperator(), strategy.Defector()},
		Rounds:  10,
		Seed:    1,
		Workers: 2,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := scheduler.Run(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}
