package storage

import (
	"encoding/json"
	"errors"

	"talion/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp fills in the current schema and codec versions.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

func EncodeMatch(m model.MatchRecord) ([]byte, error) {
	return json.Marshal(m)
}

func DecodeMatch(data []byte) (model.MatchRecord, error) {
	var record model.MatchRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.MatchRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.MatchRecord{}, err
	}
	return record, nil
}

func EncodeTournament(t model.TournamentRecord) ([]byte, error) {
	return json.Marshal(t)
}

func DecodeTournament(data []byte) (model.TournamentRecord, error) {
	var record model.TournamentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.TournamentRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.TournamentRecord{}, err
	}
	return record, nil
}

func EncodeStrategySummary(s model.StrategySummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeStrategySummary(data []byte) (model.StrategySummary, error) {
	var summary model.StrategySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.StrategySummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.StrategySummary{}, err
	}
	return summary, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
