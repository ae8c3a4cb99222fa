package strategy

import (
	"fmt"
	"math/rand"
)

// BuildFunc constructs a fresh decider. Every call must return a decider
// sharing no state with any previous call.
type BuildFunc func() Decider

// Archetype describes a strategy as identity plus a decider builder. It is a
// description, not an instance; NewPlayer stamps out independent instances.
// The zero value is invalid, use NewArchetype.
type Archetype struct {
	id    string
	name  string
	build BuildFunc
}

func NewArchetype(id, name string, build BuildFunc) (Archetype, error) {
	if id == "" {
		return Archetype{}, fmt.Errorf("strategy id is required")
	}
	if build == nil {
		return Archetype{}, fmt.Errorf("strategy %s: decider builder is required", id)
	}
	if name == "" {
		name = id
	}
	return Archetype{id: id, name: name, build: build}, nil
}

// ID is the programmatic identifier, a single token such as "TitForTat".
func (a Archetype) ID() string {
	return a.id
}

// Name is the display name, such as "Tit For Tat".
func (a Archetype) Name() string {
	return a.name
}

// Builder exposes the decider builder so transformations can wrap it. It is
// nil for the zero Archetype.
func (a Archetype) Builder() BuildFunc {
	return a.build
}

// NewPlayer builds a live instance with its own random source and fresh
// decider state.
func (a Archetype) NewPlayer(rng *rand.Rand, info MatchInfo) (*Player, error) {
	if a.build == nil {
		return nil, fmt.Errorf("strategy %q has no decider builder", a.id)
	}
	if rng == nil {
		return nil, fmt.Errorf("strategy %s: random source is required", a.id)
	}
	return &Player{
		id:      a.id,
		name:    a.name,
		info:    info,
		rng:     rng,
		decider: a.build(),
	}, nil
}
