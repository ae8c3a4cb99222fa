package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event is one line of a match transcript.
type Event struct {
	Kind      string `json:"kind"` // "match_start", "turn", "match_end"
	RunID     string `json:"run_id,omitempty"`
	MatchID   string `json:"match_id,omitempty"`
	StrategyA string `json:"strategy_a,omitempty"`
	StrategyB string `json:"strategy_b,omitempty"`
	Round     int    `json:"round,omitempty"`
	ActionA   string `json:"action_a,omitempty"`
	ActionB   string `json:"action_b,omitempty"`
	ScoreA    int    `json:"score_a,omitempty"`
	ScoreB    int    `json:"score_b,omitempty"`
}

// EventLog appends JSONL transcript lines to one file. Safe for concurrent
// use by the tournament workers.
type EventLog struct {
	mu   sync.Mutex
	file *os.File
}

func New(path string) (*EventLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	return &EventLog{file: file}, nil
}

func (l *EventLog) Emit(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	payload := struct {
		TS string `json:"ts"`
		Event
	}{
		TS:    time.Now().UTC().Format(time.RFC3339),
		Event: event,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return err
	}

	return nil
}

func (l *EventLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
