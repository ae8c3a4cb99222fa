package transform

import (
	"fmt"

	"talion/internal/game"
	"talion/internal/strategy"
)

// DefaultSequence is the opening and closing override used when no explicit
// sequence is given: three defections.
func DefaultSequence() []game.Action {
	return []game.Action{game.Defect, game.Defect, game.Defect}
}

// Flip always inverts the baseline decision.
func Flip() *Transformation {
	return mustNew(Config{
		Prefix: "Flipped",
		NewWrapper: func() Wrapper {
			return WrapperFunc(func(self, opponent *strategy.Player, proposed game.Action) game.Action {
				return proposed.Flip()
			})
		},
	})
}

// Noisy flips the baseline decision with probability noise, drawing once per
// round from the player's own source. noise = 0 never flips and noise = 1
// always flips.
func Noisy(noise float64) (*Transformation, error) {
	if noise < 0 || noise > 1 {
		return nil, fmt.Errorf("noise must be in [0, 1], got %v", noise)
	}
	return New(Config{
		Prefix: "Noisy",
		NewWrapper: func() Wrapper {
			return WrapperFunc(func(self, opponent *strategy.Player, proposed game.Action) game.Action {
				if self.Rand().Float64() < noise {
					return proposed.Flip()
				}
				return proposed
			})
		},
	})
}

// Forgiver replaces a proposed Defect with Cooperate with probability p.
// Proposed cooperations pass through untouched.
func Forgiver(p float64) (*Transformation, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("forgiveness probability must be in [0, 1], got %v", p)
	}
	return New(Config{
		Prefix: "Forgiving",
		NewWrapper: func() Wrapper {
			return WrapperFunc(func(self, opponent *strategy.Player, proposed game.Action) game.Action {
				if proposed == game.Defect {
					return game.ChooseWithProb(self.Rand(), p)
				}
				return proposed
			})
		},
	})
}

// InitialSequence overrides the first len(seq) rounds with seq, indexed by
// the player's own round count, then plays the baseline for the rest of the
// match. A nil seq means DefaultSequence. No identity prefix.
func InitialSequence(seq []game.Action) (*Transformation, error) {
	if seq == nil {
		seq = DefaultSequence()
	}
	if err := validSequence(seq); err != nil {
		return nil, fmt.Errorf("initial sequence: %w", err)
	}
	bound := append([]game.Action(nil), seq...)
	return New(Config{
		NewWrapper: func() Wrapper {
			return WrapperFunc(func(self, opponent *strategy.Player, proposed game.Action) game.Action {
				index := self.History().Len()
				if index < len(bound) {
					return bound[index]
				}
				return proposed
			})
		},
	})
}

// FinalSequence overrides the last len(seq) rounds of a match whose length is
// known, aligning the last element of seq with the last round. With an
// unknown length it never overrides. A nil seq means DefaultSequence. No
// identity prefix.
func FinalSequence(seq []game.Action) (*Transformation, error) {
	if seq == nil {
		seq = DefaultSequence()
	}
	if err := validSequence(seq); err != nil {
		return nil, fmt.Errorf("final sequence: %w", err)
	}
	bound := append([]game.Action(nil), seq...)
	return New(Config{
		NewWrapper: func() Wrapper {
			return WrapperFunc(func(self, opponent *strategy.Player, proposed game.Action) game.Action {
				length := self.Info().Length
				if length < 0 {
					return proposed
				}
				// remaining counts this round: the last round has remaining 1.
				remaining := length - self.History().Len()
				if remaining >= 1 && remaining <= len(bound) {
					return bound[len(bound)-remaining]
				}
				return proposed
			})
		},
	})
}

func validSequence(seq []game.Action) error {
	for i, action := range seq {
		if !action.Valid() {
			return fmt.Errorf("action %d is out of range", i)
		}
	}
	return nil
}

// RetaliateUntilApology answers an opponent defection with defections until
// the opponent cooperates again.
func RetaliateUntilApology() *Transformation {
	return mustNew(Config{
		Prefix:     "RUA",
		NewWrapper: func() Wrapper { return &retaliator{} },
	})
}

// retaliator is a two-state machine private to one player instance. The zero
// value starts calm.
type retaliator struct {
	retaliating bool
}

func (r *retaliator) Intercept(self, opponent *strategy.Player, proposed game.Action) game.Action {
	if self.History().Len() == 0 {
		return proposed
	}
	last, ok := opponent.History().Last()
	if !ok {
		return proposed
	}
	if r.retaliating {
		if last == game.Cooperate {
			r.retaliating = false
			return game.Cooperate
		}
		return game.Defect
	}
	if last == game.Defect {
		r.retaliating = true
		return game.Defect
	}
	return proposed
}

// TrackHistory records every action that passes through it without altering
// the decision. Apply it last to observe the externally visible sequence.
func TrackHistory() *Transformation {
	return mustNew(Config{
		Prefix:     "HistoryTracking",
		NewWrapper: func() Wrapper { return &historyTracker{} },
	})
}

// historyTracker appends to a lazily allocated per-instance log.
type historyTracker struct {
	log []game.Action
}

func (h *historyTracker) Intercept(self, opponent *strategy.Player, proposed game.Action) game.Action {
	h.log = append(h.log, proposed)
	return proposed
}

func (h *historyTracker) recordedActions() []game.Action {
	return append([]game.Action(nil), h.log...)
}
