package strategy

import (
	"fmt"

	"talion/internal/game"
)

func mustArchetype(id, name string, build BuildFunc) Archetype {
	arch, err := NewArchetype(id, name, build)
	if err != nil {
		panic(err)
	}
	return arch
}

// Cooperator plays Cooperate on every round.
func Cooperator() Archetype {
	return mustArchetype("Cooperator", "Cooperator", func() Decider {
		return DeciderFunc(func(self, opponent *Player) game.Action {
			return game.Cooperate
		})
	})
}

// Defector plays Defect on every round.
func Defector() Archetype {
	return mustArchetype("Defector", "Defector", func() Decider {
		return DeciderFunc(func(self, opponent *Player) game.Action {
			return game.Defect
		})
	})
}

// Alternator opens with Cooperate and then flips its own previous action.
func Alternator() Archetype {
	return mustArchetype("Alternator", "Alternator", func() Decider {
		return DeciderFunc(func(self, opponent *Player) game.Action {
			last, ok := self.History().Last()
			if !ok {
				return game.Cooperate
			}
			return last.Flip()
		})
	})
}

// TitForTat opens with Cooperate and then mirrors the opponent's previous
// action.
func TitForTat() Archetype {
	return mustArchetype("TitForTat", "Tit For Tat", func() Decider {
		return DeciderFunc(func(self, opponent *Player) game.Action {
			last, ok := opponent.History().Last()
			if !ok {
				return game.Cooperate
			}
			return last
		})
	})
}

// Grudger cooperates until the opponent's first defection and defects for
// the rest of the match afterwards.
func Grudger() Archetype {
	return mustArchetype("Grudger", "Grudger", func() Decider {
		return DeciderFunc(func(self, opponent *Player) game.Action {
			if opponent.History().Defections() > 0 {
				return game.Defect
			}
			return game.Cooperate
		})
	})
}

// Random cooperates with probability p on every round, drawing from the
// player's own source. p = 0.5 keeps the plain "Random" identity used by the
// registry; other probabilities are part of the identity so distinct
// parameterizations stay distinguishable in results.
func Random(p float64) Archetype {
	id, name := "Random", "Random"
	if p != 0.5 {
		id = fmt.Sprintf("Random%g", p)
		name = fmt.Sprintf("Random %g", p)
	}
	return mustArchetype(id, name, func() Decider {
		return DeciderFunc(func(self, opponent *Player) game.Action {
			return game.ChooseWithProb(self.Rand(), p)
		})
	})
}
