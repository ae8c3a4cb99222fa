package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is one move in an iterated prisoner's dilemma round.
type Action int8

const (
	Cooperate Action = iota
	Defect
)

// Flip returns the opposite action.
func (a Action) Flip() Action {
	if a == Cooperate {
		return Defect
	}
	return Cooperate
}

// Valid reports whether a is one of the two defined actions.
func (a Action) Valid() bool {
	return a == Cooperate || a == Defect
}

func (a Action) String() string {
	switch a {
	case Cooperate:
		return "C"
	case Defect:
		return "D"
	default:
		return fmt.Sprintf("Action(%d)", int8(a))
	}
}

// ParseAction accepts the single-letter forms produced by String.
func ParseAction(value string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "C":
		return Cooperate, nil
	case "D":
		return Defect, nil
	default:
		return 0, fmt.Errorf("unknown action %q", value)
	}
}

// ParseSequence decodes a compact action string such as "DDC".
func ParseSequence(value string) ([]Action, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("empty action sequence")
	}
	sequence := make([]Action, 0, len(trimmed))
	for _, r := range trimmed {
		action, err := ParseAction(string(r))
		if err != nil {
			return nil, fmt.Errorf("action sequence %q: %w", value, err)
		}
		sequence = append(sequence, action)
	}
	return sequence, nil
}

// FormatSequence is the inverse of ParseSequence.
func FormatSequence(sequence []Action) string {
	var builder strings.Builder
	for _, action := range sequence {
		builder.WriteString(action.String())
	}
	return builder.String()
}

func (a Action) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("cannot encode action %d", int8(a))
	}
	return json.Marshal(a.String())
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode action: %w", err)
	}
	parsed, err := ParseAction(value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
