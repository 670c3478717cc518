package main

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS interpretations (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at DATETIME NOT NULL,
		operator_id TEXT DEFAULT 'N/A',
		run_id      TEXT DEFAULT 'N/A',
		sample_id   TEXT NOT NULL,
		nil_value   REAL NOT NULL,
		tb1_value   REAL NOT NULL,
		tb2_value   REAL NOT NULL,
		mit_value   REAL NOT NULL,
		result      TEXT NOT NULL,
		reason      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interpretations_sample_id ON interpretations(sample_id);
	CREATE INDEX IF NOT EXISTS idx_interpretations_recorded_at ON interpretations(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_interpretations_run_id ON interpretations(run_id);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	// Migration: add reason_tag column for databases written before the
	// structured sub-reason existed. Old rows keep an empty tag and fall
	// back to reason-text matching during aggregation.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('interpretations') WHERE name = 'reason_tag'`).Scan(&colCount)
	if colCount == 0 {
		_, _ = db.Exec(`ALTER TABLE interpretations ADD COLUMN reason_tag TEXT DEFAULT ''`)
	}

	return db, nil
}

// Store is the history persistence collaborator. The mutex makes the
// delta-check's read-latest-then-append a single critical section, so two
// concurrent submissions for the same sample cannot both see the same
// "previous" record.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes one history record. Rows are append-only.
func (s *Store) Append(rec HistoryRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(rec)
}

func (s *Store) append(rec HistoryRecord) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO interpretations (recorded_at, operator_id, run_id, sample_id, nil_value, tb1_value, tb2_value, mit_value, result, reason, reason_tag)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RecordedAt, rec.OperatorID, rec.RunID, rec.SampleID,
		rec.Nil, rec.TB1, rec.TB2, rec.Mitogen,
		rec.Result, rec.Reason, rec.ReasonTag,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AppendWithDeltaCheck runs the delta check against the sample's latest
// prior record and appends the new one, atomically with respect to other
// writers on this Store.
func (s *Store) AppendWithDeltaCheck(rec *HistoryRecord) (DeltaCheckResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.latestBySampleID(rec.SampleID)
	if err != nil {
		return DeltaCheckResult{}, err
	}
	delta := CheckDelta(prev, rec.Result)

	id, err := s.append(*rec)
	if err != nil {
		return DeltaCheckResult{}, err
	}
	rec.ID = id
	return delta, nil
}

const recordColumns = `id, recorded_at, operator_id, run_id, sample_id, nil_value, tb1_value, tb2_value, mit_value, result, reason, reason_tag`

func scanRecord(row interface{ Scan(...any) error }) (HistoryRecord, error) {
	var rec HistoryRecord
	err := row.Scan(
		&rec.ID, &rec.RecordedAt, &rec.OperatorID, &rec.RunID, &rec.SampleID,
		&rec.Nil, &rec.TB1, &rec.TB2, &rec.Mitogen,
		&rec.Result, &rec.Reason, &rec.ReasonTag,
	)
	return rec, err
}

// LatestBySampleID returns the most recent record for a sample, or nil when
// the sample has no history. Timestamp ties break by insertion order, so the
// last-written row wins.
func (s *Store) LatestBySampleID(sampleID string) (*HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestBySampleID(sampleID)
}

func (s *Store) latestBySampleID(sampleID string) (*HistoryRecord, error) {
	rec, err := scanRecord(s.db.QueryRow(
		`SELECT `+recordColumns+` FROM interpretations
		 WHERE sample_id = ? ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		sampleID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// QueryByDateRange returns records with recorded_at inside [from, to],
// inclusive, in ascending timestamp order.
func (s *Store) QueryByDateRange(from, to time.Time) ([]HistoryRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+recordColumns+` FROM interpretations
		 WHERE recorded_at >= ? AND recorded_at <= ? ORDER BY recorded_at ASC, id ASC`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// HistoryBySampleID returns up to limit records for one sample, most recent
// first.
func (s *Store) HistoryBySampleID(sampleID string, limit int) ([]HistoryRecord, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+recordColumns+` FROM interpretations
		 WHERE sample_id = ? ORDER BY recorded_at DESC, id DESC LIMIT ?`,
		sampleID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
