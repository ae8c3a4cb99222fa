package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrStrategyExists   = errors.New("strategy already registered")
	ErrStrategyNotFound = errors.New("strategy not found")
)

var strategyRegistry = struct {
	mu sync.RWMutex
	m  map[string]Archetype
}{
	m: make(map[string]Archetype),
}

func init() {
	initializeBuiltInStrategies()
}

func initializeBuiltInStrategies() {
	MustRegister(Cooperator())
	MustRegister(Defector())
	MustRegister(Alternator())
	MustRegister(TitForTat())
	MustRegister(Grudger())
	MustRegister(Random(0.5))
}

// Register adds an archetype under its own id.
func Register(arch Archetype) error {
	if arch.ID() == "" || arch.Builder() == nil {
		return errors.New("strategy archetype is not initialized")
	}

	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()

	if _, exists := strategyRegistry.m[arch.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrStrategyExists, arch.ID())
	}
	strategyRegistry.m[arch.ID()] = arch
	return nil
}

func MustRegister(arch Archetype) {
	if err := Register(arch); err != nil {
		panic(err)
	}
}

// Resolve looks an archetype up by id, exact first, then case-insensitive so
// command-line spellings like "titfortat" work.
func Resolve(id string) (Archetype, error) {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()

	if arch, ok := strategyRegistry.m[id]; ok {
		return arch, nil
	}
	for key, arch := range strategyRegistry.m {
		if strings.EqualFold(key, id) {
			return arch, nil
		}
	}
	return Archetype{}, fmt.Errorf("%w: %s", ErrStrategyNotFound, id)
}

// List returns the registered ids in sorted order.
func List() []string {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()

	ids := make([]string, 0, len(strategyRegistry.m))
	for id := range strategyRegistry.m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func resetStrategyRegistryForTests() {
	strategyRegistry.mu.Lock()
	strategyRegistry.m = make(map[string]Archetype)
	strategyRegistry.mu.Unlock()
	initializeBuiltInStrategies()
}
