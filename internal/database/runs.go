package database

import (
	"database/sql"
	"fmt"
)

// InsertIngestRun records a finished ingest run.
func (db *DB) InsertIngestRun(r IngestRun) error {
	_, err := db.conn.Exec(
		`INSERT INTO ingest_runs
		(id, started_at, finished_at, collected, skipped, stored, positive, negative, neutral, triggered_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.StartedAt), formatTime(r.FinishedAt),
		r.Collected, r.Skipped, r.Stored, r.Positive, r.Negative, r.Neutral, r.Trigger,
	)
	if err != nil {
		return fmt.Errorf("inserting ingest run: %w", err)
	}
	return nil
}

// GetLastIngestRun returns the most recent run, or nil if there is none.
func (db *DB) GetLastIngestRun() (*IngestRun, error) {
	row := db.conn.QueryRow(
		`SELECT id, started_at, finished_at, collected, skipped, stored, positive, negative, neutral, triggered_by
		FROM ingest_runs ORDER BY started_at DESC LIMIT 1`,
	)
	var r IngestRun
	var started, finished string
	if err := row.Scan(&r.ID, &started, &finished, &r.Collected, &r.Skipped, &r.Stored,
		&r.Positive, &r.Negative, &r.Neutral, &r.Trigger); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM tweets", &s.Tweets},
		{"SELECT COUNT(*) FROM feedback", &s.Feedback},
		{"SELECT COUNT(*) FROM users", &s.Users},
		{"SELECT COUNT(*) FROM ingest_runs", &s.IngestRuns},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	counts, err := db.GetSentimentCounts()
	if err != nil {
		return nil, err
	}
	s.Sentiment = counts

	if s.LastRun, err = db.GetLastIngestRun(); err != nil {
		return nil, err
	}
	return s, nil
}
