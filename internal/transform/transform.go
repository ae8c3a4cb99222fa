package transform

import (
	"fmt"

	"talion/internal/game"
	"talion/internal/strategy"
)

// Wrapper intercepts the action a decider proposed and returns the action the
// player actually plays. Wrappers read both players' visible state and may
// draw from self's random source; they never mutate histories.
type Wrapper interface {
	Intercept(self, opponent *strategy.Player, proposed game.Action) game.Action
}

// WrapperFunc adapts a stateless function to the Wrapper interface.
type WrapperFunc func(self, opponent *strategy.Player, proposed game.Action) game.Action

func (f WrapperFunc) Intercept(self, opponent *strategy.Player, proposed game.Action) game.Action {
	return f(self, opponent, proposed)
}

// Config describes a transformation: an identity prefix plus a wrapper
// template. NewWrapper is invoked once per derived player instance, so
// wrapper state is never shared between instances or between derived types.
type Config struct {
	Prefix     string
	NewWrapper func() Wrapper
}

// Transformation derives new archetypes from existing ones. A Transformation
// is reusable: applying it to several bases, or instantiating one derived
// archetype several times, yields fully independent wrapper state.
type Transformation struct {
	prefix     string
	newWrapper func() Wrapper
}

func New(cfg Config) (*Transformation, error) {
	if cfg.NewWrapper == nil {
		return nil, fmt.Errorf("wrapper constructor is required")
	}
	return &Transformation{prefix: cfg.Prefix, newWrapper: cfg.NewWrapper}, nil
}

func mustNew(cfg Config) *Transformation {
	transformation, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return transformation
}

// Prefix is the identity prefix the transformation stamps onto derived
// archetypes. It may be empty.
func (t *Transformation) Prefix() string {
	return t.prefix
}

// Apply derives an archetype whose decisions are the base decision filtered
// through the wrapper. The identifier gets the prefix concatenated directly
// and the display name gets the prefix plus a space; an empty prefix leaves
// both untouched. An uninitialized base is a configuration error reported
// here, never at decision time.
func (t *Transformation) Apply(base strategy.Archetype) (strategy.Archetype, error) {
	baseBuild := base.Builder()
	if baseBuild == nil {
		return strategy.Archetype{}, fmt.Errorf("base strategy %q has no decider builder", base.ID())
	}

	id := t.prefix + base.ID()
	name := base.Name()
	if t.prefix != "" {
		name = t.prefix + " " + name
	}

	newWrapper := t.newWrapper
	build := func() strategy.Decider {
		return &decorated{base: baseBuild(), wrapper: newWrapper()}
	}
	return strategy.NewArchetype(id, name, build)
}

// decorated is one layer of a derived player's decision chain. Each player
// instance gets its own decorated value and therefore its own wrapper state.
type decorated struct {
	base    strategy.Decider
	wrapper Wrapper
}

func (d *decorated) Decide(self, opponent *strategy.Player) game.Action {
	return d.wrapper.Intercept(self, opponent, d.base.Decide(self, opponent))
}

// Unwrap exposes the next layer inward for instrumentation lookups.
func (d *decorated) Unwrap() strategy.Decider {
	return d.base
}

type unwrapper interface {
	Unwrap() strategy.Decider
}

// RecordedHistory returns a copy of the log kept by the outermost
// history-tracking layer of the player's decision chain. ok is false when the
// chain carries no tracking layer. What the log contains depends on where the
// tracking transformation sits in the composition: applied last it records
// the externally visible action sequence.
func RecordedHistory(player *strategy.Player) ([]game.Action, bool) {
	decider := player.Decider()
	for decider != nil {
		if layer, ok := decider.(*decorated); ok {
			if tracker, ok := layer.wrapper.(*historyTracker); ok {
				return tracker.recordedActions(), true
			}
		}
		wrapped, ok := decider.(unwrapper)
		if !ok {
			break
		}
		decider = wrapped.Unwrap()
	}
	return nil, false
}
