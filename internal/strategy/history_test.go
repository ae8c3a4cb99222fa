package strategy

import (
	"testing"

	"talion/internal/game"
)

func TestHistoryAccessors(t *testing.T) {
	var history History
	if history.Len() != 0 {
		t.Fatalf("new history length=%d", history.Len())
	}
	if _, ok := history.Last(); ok {
		t.Fatalf("empty history should have no last action")
	}

	history.Append(game.Cooperate)
	history.Append(game.Defect)
	history.Append(game.Defect)

	if history.Len() != 3 {
		t.Fatalf("length=%d want=3", history.Len())
	}
	if history.At(0) != game.Cooperate || history.At(2) != game.Defect {
		t.Fatalf("unexpected actions: %v", history.Actions())
	}
	last, ok := history.Last()
	if !ok || last != game.Defect {
		t.Fatalf("last=%v ok=%v", last, ok)
	}
	if history.Cooperations() != 1 || history.Defections() != 2 {
		t.Fatalf("cooperations=%d defections=%d", history.Cooperations(), history.Defections())
	}
}

func TestHistoryActionsReturnsCopy(t *testing.T) {
	var history History
	history.Append(game.Cooperate)

	snapshot := history.Actions()
	snapshot[0] = game.Defect

	if history.At(0) != game.Cooperate {
		t.Fatalf("mutating the snapshot leaked into the history")
	}
}
