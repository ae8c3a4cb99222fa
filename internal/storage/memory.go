package storage

import (
	"context"
	"sort"
	"sync"

	"talion/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	matches     map[string]model.MatchRecord
	tournaments map[string]model.TournamentRecord
	summaries   map[string]model.StrategySummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.matches = make(map[string]model.MatchRecord)
	s.tournaments = make(map[string]model.TournamentRecord)
	s.summaries = make(map[string]model.StrategySummary)
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.matches = make(map[string]model.MatchRecord)
	s.tournaments = make(map[string]model.TournamentRecord)
	s.summaries = make(map[string]model.StrategySummary)
	return nil
}

func (s *MemoryStore) SaveMatch(_ context.Context, record model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches[record.ID] = copyMatch(record)
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (model.MatchRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.matches[id]
	if !ok {
		return model.MatchRecord{}, false, nil
	}
	return copyMatch(record), true, nil
}

func (s *MemoryStore) ListMatches(_ context.Context, runID string) ([]model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.MatchRecord, 0, len(s.matches))
	for _, record := range s.matches {
		if runID != "" && record.RunID != runID {
			continue
		}
		records = append(records, copyMatch(record))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *MemoryStore) SaveTournament(_ context.Context, record model.TournamentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tournaments[record.RunID] = copyTournament(record)
	return nil
}

func (s *MemoryStore) GetTournament(_ context.Context, runID string) (model.TournamentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.tournaments[runID]
	if !ok {
		return model.TournamentRecord{}, false, nil
	}
	return copyTournament(record), true, nil
}

func (s *MemoryStore) ListTournaments(_ context.Context) ([]model.TournamentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.TournamentRecord, 0, len(s.tournaments))
	for _, record := range s.tournaments {
		records = append(records, copyTournament(record))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAtUTC == records[j].CreatedAtUTC {
			return records[i].RunID < records[j].RunID
		}
		return records[i].CreatedAtUTC > records[j].CreatedAtUTC
	})
	return records, nil
}

func (s *MemoryStore) SaveStrategySummary(_ context.Context, summary model.StrategySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[summary.Strategy] = summary
	return nil
}

func (s *MemoryStore) GetStrategySummary(_ context.Context, strategy string) (model.StrategySummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[strategy]
	return summary, ok, nil
}

func (s *MemoryStore) ListStrategySummaries(_ context.Context) ([]model.StrategySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]model.StrategySummary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].BestMeanScore == summaries[j].BestMeanScore {
			return summaries[i].Strategy < summaries[j].Strategy
		}
		return summaries[i].BestMeanScore > summaries[j].BestMeanScore
	})
	return summaries, nil
}

func copyMatch(record model.MatchRecord) model.MatchRecord {
	record.Turns = append([]string(nil), record.Turns...)
	return record
}

func copyTournament(record model.TournamentRecord) model.TournamentRecord {
	record.Strategies = append([]string(nil), record.Strategies...)
	record.Rankings = append([]model.RankingEntry(nil), record.Rankings...)
	if record.Scores != nil {
		scores := make(map[string]map[string]float64, len(record.Scores))
		for row, cols := range record.Scores {
			inner := make(map[string]float64, len(cols))
			for col, value := range cols {
				inner[col] = value
			}
			scores[row] = inner
		}
		record.Scores = scores
	}
	return record
}
