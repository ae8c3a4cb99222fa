//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"talion/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		DELETE FROM matches;
		DELETE FROM tournaments;
		DELETE FROM strategy_summaries;
	`)
	return err
}

func (s *SQLiteStore) SaveMatch(ctx context.Context, record model.MatchRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeMatch(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO matches (id, run_id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, record.ID, record.RunID, record.SchemaVersion, record.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetMatch(ctx context.Context, id string) (model.MatchRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.MatchRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM matches WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MatchRecord{}, false, nil
		}
		return model.MatchRecord{}, false, err
	}

	record, err := DecodeMatch(payload)
	if err != nil {
		return model.MatchRecord{}, false, fmt.Errorf("decode match %s: %w", id, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) ListMatches(ctx context.Context, runID string) ([]model.MatchRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT payload FROM matches ORDER BY id`
	args := []any{}
	if runID != "" {
		query = `SELECT payload FROM matches WHERE run_id = ? ORDER BY id`
		args = append(args, runID)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.MatchRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		record, err := DecodeMatch(payload)
		if err != nil {
			return nil, fmt.Errorf("decode match: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) SaveTournament(ctx context.Context, record model.TournamentRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeTournament(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO tournaments (run_id, created_at_utc, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			created_at_utc = excluded.created_at_utc,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, record.RunID, record.CreatedAtUTC, record.SchemaVersion, record.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetTournament(ctx context.Context, runID string) (model.TournamentRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.TournamentRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM tournaments WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TournamentRecord{}, false, nil
		}
		return model.TournamentRecord{}, false, err
	}

	record, err := DecodeTournament(payload)
	if err != nil {
		return model.TournamentRecord{}, false, fmt.Errorf("decode tournament %s: %w", runID, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) ListTournaments(ctx context.Context) ([]model.TournamentRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM tournaments ORDER BY created_at_utc DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.TournamentRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		record, err := DecodeTournament(payload)
		if err != nil {
			return nil, fmt.Errorf("decode tournament: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) SaveStrategySummary(ctx context.Context, summary model.StrategySummary) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeStrategySummary(summary)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO strategy_summaries (strategy, best_mean_score, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(strategy) DO UPDATE SET
			best_mean_score = excluded.best_mean_score,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, summary.Strategy, summary.BestMeanScore, summary.SchemaVersion, summary.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetStrategySummary(ctx context.Context, strategy string) (model.StrategySummary, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.StrategySummary{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM strategy_summaries WHERE strategy = ?`, strategy).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.StrategySummary{}, false, nil
		}
		return model.StrategySummary{}, false, err
	}

	summary, err := DecodeStrategySummary(payload)
	if err != nil {
		return model.StrategySummary{}, false, fmt.Errorf("decode strategy summary %s: %w", strategy, err)
	}
	return summary, true, nil
}

func (s *SQLiteStore) ListStrategySummaries(ctx context.Context) ([]model.StrategySummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM strategy_summaries ORDER BY best_mean_score DESC, strategy`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.StrategySummary
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		summary, err := DecodeStrategySummary(payload)
		if err != nil {
			return nil, fmt.Errorf("decode strategy summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL DEFAULT '',
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tournaments (
			run_id TEXT PRIMARY KEY,
			created_at_utc TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS strategy_summaries (
			strategy TEXT PRIMARY KEY,
			best_mean_score REAL NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
