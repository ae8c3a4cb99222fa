package game

import (
	"encoding/json"
	"testing"
)

func TestFlipIsInvolutive(t *testing.T) {
	for _, action := range []Action{Cooperate, Defect} {
		if got := action.Flip().Flip(); got != action {
			t.Fatalf("flip(flip(%v))=%v want=%v", action, got, action)
		}
	}
	if Cooperate.Flip() != Defect || Defect.Flip() != Cooperate {
		t.Fatalf("flip does not swap the two actions")
	}
}

func TestParseAction(t *testing.T) {
	cases := map[string]Action{
		"C":   Cooperate,
		"D":   Defect,
		"c":   Cooperate,
		" d ": Defect,
	}
	for in, want := range cases {
		got, err := ParseAction(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse(%q)=%v want=%v", in, got, want)
		}
	}

	if _, err := ParseAction("X"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
	if _, err := ParseAction(""); err == nil {
		t.Fatalf("expected error for empty action")
	}
}

func TestParseSequence(t *testing.T) {
	sequence, err := ParseSequence("DDC")
	if err != nil {
		t.Fatalf("parse sequence: %v", err)
	}
	want := []Action{Defect, Defect, Cooperate}
	if len(sequence) != len(want) {
		t.Fatalf("sequence length=%d want=%d", len(sequence), len(want))
	}
	for i := range want {
		if sequence[i] != want[i] {
			t.Fatalf("sequence[%d]=%v want=%v", i, sequence[i], want[i])
		}
	}
	if got := FormatSequence(sequence); got != "DDC" {
		t.Fatalf("format=%q want=%q", got, "DDC")
	}

	if _, err := ParseSequence(""); err == nil {
		t.Fatalf("expected error for empty sequence")
	}
	if _, err := ParseSequence("DXC"); err == nil {
		t.Fatalf("expected error for bad symbol")
	}
}

func TestActionJSONRoundTrip(t *testing.T) {
	encoded, err := json.Marshal([]Action{Cooperate, Defect})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `["C","D"]` {
		t.Fatalf("encoded=%s", encoded)
	}

	var decoded []Action
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != Cooperate || decoded[1] != Defect {
		t.Fatalf("decoded=%v", decoded)
	}

	if err := json.Unmarshal([]byte(`"Z"`), new(Action)); err == nil {
		t.Fatalf("expected error for unknown encoded action")
	}
	if _, err := json.Marshal(Action(7)); err == nil {
		t.Fatalf("expected error for out of range action")
	}
}
