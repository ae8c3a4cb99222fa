package transform

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"talion/internal/game"
	"talion/internal/strategy"
)

var (
	ErrTransformExists   = errors.New("transformation already registered")
	ErrTransformNotFound = errors.New("transformation not found")
)

// BuilderFunc constructs a transformation from an optional textual parameter.
// arg is empty when the spec carries none.
type BuilderFunc func(arg string) (*Transformation, error)

var transformRegistry = struct {
	mu sync.RWMutex
	m  map[string]BuilderFunc
}{
	m: make(map[string]BuilderFunc),
}

func init() {
	initializeBuiltInTransforms()
}

func initializeBuiltInTransforms() {
	MustRegister("flip", func(arg string) (*Transformation, error) {
		if arg != "" {
			return nil, fmt.Errorf("flip takes no parameter")
		}
		return Flip(), nil
	})
	MustRegister("noisy", func(arg string) (*Transformation, error) {
		noise, err := parseProbability(arg)
		if err != nil {
			return nil, err
		}
		return Noisy(noise)
	})
	MustRegister("forgiver", func(arg string) (*Transformation, error) {
		p, err := parseProbability(arg)
		if err != nil {
			return nil, err
		}
		return Forgiver(p)
	})
	MustRegister("initial", func(arg string) (*Transformation, error) {
		seq, err := parseOptionalSequence(arg)
		if err != nil {
			return nil, err
		}
		return InitialSequence(seq)
	})
	MustRegister("final", func(arg string) (*Transformation, error) {
		seq, err := parseOptionalSequence(arg)
		if err != nil {
			return nil, err
		}
		return FinalSequence(seq)
	})
	MustRegister("rua", func(arg string) (*Transformation, error) {
		if arg != "" {
			return nil, fmt.Errorf("rua takes no parameter")
		}
		return RetaliateUntilApology(), nil
	})
	MustRegister("track", func(arg string) (*Transformation, error) {
		if arg != "" {
			return nil, fmt.Errorf("track takes no parameter")
		}
		return TrackHistory(), nil
	})
}

func parseProbability(arg string) (float64, error) {
	if arg == "" {
		return 0, fmt.Errorf("a probability parameter is required")
	}
	p, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid probability %q", arg)
	}
	return p, nil
}

func parseOptionalSequence(arg string) ([]game.Action, error) {
	if arg == "" {
		return nil, nil
	}
	return game.ParseSequence(arg)
}

// Register adds a named builder for Resolve and Parse.
func Register(name string, builder BuilderFunc) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return errors.New("transformation name is required")
	}
	if builder == nil {
		return errors.New("transformation builder is required")
	}

	transformRegistry.mu.Lock()
	defer transformRegistry.mu.Unlock()

	if _, exists := transformRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrTransformExists, name)
	}
	transformRegistry.m[name] = builder
	return nil
}

func MustRegister(name string, builder BuilderFunc) {
	if err := Register(name, builder); err != nil {
		panic(err)
	}
}

// Resolve builds a transformation from a single spec such as "flip" or
// "noisy:0.1".
func Resolve(spec string) (*Transformation, error) {
	name, arg := spec, ""
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		name, arg = spec[:i], spec[i+1:]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)
	if name == "" {
		return nil, errors.New("empty transformation spec")
	}

	transformRegistry.mu.RLock()
	builder, ok := transformRegistry.m[name]
	transformRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransformNotFound, name)
	}

	transformation, err := builder(arg)
	if err != nil {
		return nil, fmt.Errorf("transformation %s: %w", name, err)
	}
	return transformation, nil
}

// Parse resolves a comma-separated chain such as "track,noisy:0.1" into its
// transformations in listed order.
func Parse(chain string) ([]*Transformation, error) {
	parts := strings.Split(chain, ",")
	transformations := make([]*Transformation, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		transformation, err := Resolve(part)
		if err != nil {
			return nil, err
		}
		transformations = append(transformations, transformation)
	}
	if len(transformations) == 0 {
		return nil, errors.New("empty transformation chain")
	}
	return transformations, nil
}

// Derive applies a parsed chain to base so that the first listed
// transformation becomes the outermost layer, mirroring the nested reading
// of "flip,noisy:0.1" as flip applied to the noisy strategy.
func Derive(base strategy.Archetype, chain string) (strategy.Archetype, error) {
	transformations, err := Parse(chain)
	if err != nil {
		return strategy.Archetype{}, err
	}
	derived := base
	for i := len(transformations) - 1; i >= 0; i-- {
		derived, err = transformations[i].Apply(derived)
		if err != nil {
			return strategy.Archetype{}, err
		}
	}
	return derived, nil
}

// List returns the registered transformation names in sorted order.
func List() []string {
	transformRegistry.mu.RLock()
	defer transformRegistry.mu.RUnlock()

	names := make([]string, 0, len(transformRegistry.m))
	for name := range transformRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetTransformRegistryForTests() {
	transformRegistry.mu.Lock()
	transformRegistry.m = make(map[string]BuilderFunc)
	transformRegistry.mu.Unlock()
	initializeBuiltInTransforms()
}
