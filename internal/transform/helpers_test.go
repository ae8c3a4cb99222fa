package transform

import (
	"math/rand"
	"testing"

	"talion/internal/game"
	"talion/internal/strategy"
)

func mustPlayer(t *testing.T, arch strategy.Archetype, seed int64, length int) *strategy.Player {
	t.Helper()
	player, err := arch.NewPlayer(rand.New(rand.NewSource(seed)), strategy.MatchInfo{Length: length})
	if err != nil {
		t.Fatalf("new player for %s: %v", arch.ID(), err)
	}
	return player
}

// playRound advances both players one simultaneous round, appending exactly
// what each Decide returned.
func playRound(a, b *strategy.Player) (game.Action, game.Action) {
	actionA := a.Decide(b)
	actionB := b.Decide(a)
	a.History().Append(actionA)
	b.History().Append(actionB)
	return actionA, actionB
}

// scriptedArchetype plays a fixed sequence regardless of the opponent, then
// repeats its last action.
func scriptedArchetype(id string, sequence ...game.Action) strategy.Archetype {
	arch, err := strategy.NewArchetype(id, id, func() strategy.Decider {
		return strategy.DeciderFunc(func(self, opponent *strategy.Player) game.Action {
			round := self.History().Len()
			if round < len(sequence) {
				return sequence[round]
			}
			return sequence[len(sequence)-1]
		})
	})
	if err != nil {
		panic(err)
	}
	return arch
}

// ownActions runs rounds simultaneous rounds of arch against opponent and
// returns the sequence arch's player produced.
func ownActions(t *testing.T, arch, opponent strategy.Archetype, rounds, length int) []game.Action {
	t.Helper()
	player := mustPlayer(t, arch, 11, length)
	other := mustPlayer(t, opponent, 22, length)
	for i := 0; i < rounds; i++ {
		playRound(player, other)
	}
	return player.History().Actions()
}
