package transform

import (
	"errors"
	"testing"

	"talion/internal/game"
	"talion/internal/strategy"
)

func TestListIncludesBuiltIns(t *testing.T) {
	resetTransformRegistryForTests()

	want := []string{"final", "flip", "forgiver", "initial", "noisy", "rua", "track"}
	got := List()
	if len(got) != len(want) {
		t.Fatalf("names=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names=%v want=%v", got, want)
		}
	}
}

func TestResolveSpecs(t *testing.T) {
	resetTransformRegistryForTests()

	cases := []struct {
		spec   string
		prefix string
	}{
		{"flip", "Flipped"},
		{"FLIP", "Flipped"},
		{"noisy:0.25", "Noisy"},
		{"forgiver:1", "Forgiving"},
		{"initial", ""},
		{"initial:DDC", ""},
		{"final:DC", ""},
		{"rua", "RUA"},
		{"track", "HistoryTracking"},
	}
	for _, tc := range cases {
		transformation, err := Resolve(tc.spec)
		if err != nil {
			t.Fatalf("resolve %q: %v", tc.spec, err)
		}
		if transformation.Prefix() != tc.prefix {
			t.Fatalf("resolve %q: prefix=%q want=%q", tc.spec, transformation.Prefix(), tc.prefix)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	resetTransformRegistryForTests()

	for _, spec := range []string{
		"",
		"unknown",
		"noisy",
		"noisy:abc",
		"noisy:1.5",
		"forgiver:-1",
		"flip:1",
		"rua:x",
		"initial:DXC",
	} {
		if _, err := Resolve(spec); err == nil {
			t.Fatalf("resolve %q: expected error", spec)
		}
	}

	if _, err := Resolve("unknown"); !errors.Is(err, ErrTransformNotFound) {
		t.Fatalf("expected ErrTransformNotFound, got %v", err)
	}
}

func TestDeriveAppliesChainLeftOutermost(t *testing.T) {
	resetTransformRegistryForTests()

	derived, err := Derive(strategy.TitForTat(), "flip,noisy:0")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if derived.ID() != "FlippedNoisyTitForTat" {
		t.Fatalf("id=%q", derived.ID())
	}
	if derived.Name() != "Flipped Noisy Tit For Tat" {
		t.Fatalf("name=%q", derived.Name())
	}

	// Inert noise leaves a flipped tit for tat: it opens with Defect.
	got := ownActions(t, derived, strategy.Cooperator(), 1, strategy.UnknownLength)
	if got[0] != game.Defect {
		t.Fatalf("round 0: got %v", got[0])
	}
}

func TestDeriveRejectsEmptyChain(t *testing.T) {
	resetTransformRegistryForTests()

	if _, err := Derive(strategy.TitForTat(), ""); err == nil {
		t.Fatalf("expected error for empty chain")
	}
	if _, err := Derive(strategy.TitForTat(), " , "); err == nil {
		t.Fatalf("expected error for blank chain")
	}
}

func TestRegisterValidation(t *testing.T) {
	resetTransformRegistryForTests()

	if err := Register("", func(string) (*Transformation, error) { return Flip(), nil }); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := Register("custom", nil); err == nil {
		t.Fatalf("expected error for nil builder")
	}
	if err := Register("flip", func(string) (*Transformation, error) { return Flip(), nil }); !errors.Is(err, ErrTransformExists) {
		t.Fatalf("expected ErrTransformExists, got %v", err)
	}

	if err := Register("double", func(arg string) (*Transformation, error) {
		if arg != "" {
			return nil, errors.New("double takes no parameter")
		}
		return New(Config{
			Prefix: "Doubled",
			NewWrapper: func() Wrapper {
				return WrapperFunc(func(self, opponent *strategy.Player, proposed game.Action) game.Action {
					return proposed
				})
			},
		})
	}); err != nil {
		t.Fatalf("register custom: %v", err)
	}

	transformation, err := Resolve("double")
	if err != nil {
		t.Fatalf("resolve custom: %v", err)
	}
	derived, err := transformation.Apply(strategy.Cooperator())
	if err != nil {
		t.Fatalf("apply custom: %v", err)
	}
	if derived.ID() != "DoubledCooperator" {
		t.Fatalf("custom id=%q", derived.ID())
	}
}
