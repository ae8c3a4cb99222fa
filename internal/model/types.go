package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// MatchRecord is one persisted match: the pairing, the per-round transcript
// and the final scores.
type MatchRecord struct {
	VersionedRecord
	ID        string   `json:"id"`
	RunID     string   `json:"run_id,omitempty"`
	StrategyA string   `json:"strategy_a"`
	StrategyB string   `json:"strategy_b"`
	Rounds    int      `json:"rounds"`
	Seed      int64    `json:"seed"`
	Turns     []string `json:"turns"` // one two-letter pair per round such as "CD", side A first
	ScoreA    int      `json:"score_a"`
	ScoreB    int      `json:"score_b"`
}

// RankingEntry is one row of a tournament's final standing.
type RankingEntry struct {
	Strategy        string  `json:"strategy"`
	Name            string  `json:"name"`
	MatchesPlayed   int     `json:"matches_played"`
	TotalScore      int     `json:"total_score"`
	MeanScore       float64 `json:"mean_score"`
	CooperationRate float64 `json:"cooperation_rate"`
	Wins            int     `json:"wins"`
}

// TournamentRecord is one persisted tournament run.
type TournamentRecord struct {
	VersionedRecord
	RunID        string                        `json:"run_id"`
	CreatedAtUTC string                        `json:"created_at_utc"`
	Strategies   []string                      `json:"strategies"`
	Rounds       int                           `json:"rounds"`
	Repetitions  int                           `json:"repetitions"`
	HideLength   bool                          `json:"hide_length"`
	SelfPlay     bool                          `json:"self_play"`
	Seed         int64                         `json:"seed"`
	Rankings     []RankingEntry                `json:"rankings"`
	Scores       map[string]map[string]float64 `json:"scores"`
}

// StrategySummary tracks the best observed result for one strategy across
// every tournament stored so far.
type StrategySummary struct {
	VersionedRecord
	Strategy      string  `json:"strategy"`
	Name          string  `json:"name"`
	Tournaments   int     `json:"tournaments"`
	BestMeanScore float64 `json:"best_mean_score"`
	BestRunID     string  `json:"best_run_id"`
	LastRunID     string  `json:"last_run_id"`
}
