package storage

import (
	"context"

	"talion/internal/model"
)

// Store defines the persistence operations the arena needs. Getters return
// ok=false for missing records rather than an error.
type Store interface {
	Init(ctx context.Context) error
	SaveMatch(ctx context.Context, record model.MatchRecord) error
	GetMatch(ctx context.Context, id string) (model.MatchRecord, bool, error)
	ListMatches(ctx context.Context, runID string) ([]model.MatchRecord, error)
	SaveTournament(ctx context.Context, record model.TournamentRecord) error
	GetTournament(ctx context.Context, runID string) (model.TournamentRecord, bool, error)
	ListTournaments(ctx context.Context) ([]model.TournamentRecord, error)
	SaveStrategySummary(ctx context.Context, summary model.StrategySummary) error
	GetStrategySummary(ctx context.Context, strategy string) (model.StrategySummary, bool, error)
	ListStrategySummaries(ctx context.Context) ([]model.StrategySummary, error)
}

// Resetter is implemented by stores that can drop their contents.
type Resetter interface {
	Reset(ctx context.Context) error
}

// DefaultStoreKind is the backend used when no explicit choice is made.
func DefaultStoreKind() string {
	return "memory"
}
