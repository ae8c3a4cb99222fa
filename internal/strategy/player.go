package strategy

import (
	"math/rand"

	"talion/internal/game"
)

// UnknownLength marks a match whose total round count is hidden from the
// players.
const UnknownLength = -1

// MatchInfo carries the per-match attributes visible to a strategy.
type MatchInfo struct {
	Length int
}

// Decider chooses the next action for self. Implementations read both
// players' state and must not mutate either history.
type Decider interface {
	Decide(self, opponent *Player) game.Action
}

// DeciderFunc adapts a plain function to the Decider interface.
type DeciderFunc func(self, opponent *Player) game.Action

func (f DeciderFunc) Decide(self, opponent *Player) game.Action {
	return f(self, opponent)
}

// Player is one live strategy instance inside a match. Each player owns its
// random source, its history and its decider state; nothing is shared
// between instances.
type Player struct {
	id      string
	name    string
	info    MatchInfo
	rng     *rand.Rand
	history History
	decider Decider
}

func (p *Player) ID() string {
	return p.id
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) Info() MatchInfo {
	return p.info
}

// Rand is the player's private random source. Every probabilistic decision
// draws from here so matches replay exactly from their seeds.
func (p *Player) Rand() *rand.Rand {
	return p.rng
}

func (p *Player) History() *History {
	return &p.history
}

// Decider exposes the decision chain for instrumentation lookups.
func (p *Player) Decider() Decider {
	return p.decider
}

// Decide asks the player's decider for the next action.
func (p *Player) Decide(opponent *Player) game.Action {
	return p.decider.Decide(p, opponent)
}
