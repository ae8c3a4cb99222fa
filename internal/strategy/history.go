package strategy

import "talion/internal/game"

// History is the append-only record of one player's own actions. The match
// runner is the only writer; deciders and wrappers read.
type History struct {
	actions []game.Action
}

func (h *History) Append(action game.Action) {
	h.actions = append(h.actions, action)
}

func (h *History) Len() int {
	return len(h.actions)
}

// At returns the action played in round i, 0-based.
func (h *History) At(i int) game.Action {
	return h.actions[i]
}

// Last returns the most recent action; ok is false while no round was played.
func (h *History) Last() (game.Action, bool) {
	if len(h.actions) == 0 {
		return 0, false
	}
	return h.actions[len(h.actions)-1], true
}

// Actions returns a copy of the recorded sequence.
func (h *History) Actions() []game.Action {
	return append([]game.Action(nil), h.actions...)
}

func (h *History) Cooperations() int {
	count := 0
	for _, action := range h.actions {
		if action == game.Cooperate {
			count++
		}
	}
	return count
}

func (h *History) Defections() int {
	return len(h.actions) - h.Cooperations()
}
