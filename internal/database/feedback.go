package database

import (
	"database/sql"
	"fmt"
)

// InsertFeedback stores a feedback message and returns its ID.
func (db *DB) InsertFeedback(name, phone, content string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO feedback (name, phone, content) VALUES (?, ?, ?)`,
		name, phone, content,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting feedback: %w", err)
	}
	return result.LastInsertId()
}

// GetFeedbackPage returns one page of feedback, newest first.
func (db *DB) GetFeedbackPage(page, perPage int) ([]Feedback, Pagination, error) {
	var total int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM feedback").Scan(&total); err != nil {
		return nil, Pagination{}, err
	}
	p := NewPagination(page, perPage, total)

	rows, err := db.conn.Query(
		`SELECT id, name, phone, content, created_on FROM feedback
		ORDER BY created_on DESC, id DESC LIMIT ? OFFSET ?`, p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, p, err
	}
	defer rows.Close()

	var items []Feedback
	for rows.Next() {
		var f Feedback
		var created sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &f.Phone, &f.Content, &created); err != nil {
			return nil, p, err
		}
		if created.Valid {
			ts, err := parseTime(created.String)
			if err != nil {
				return nil, p, err
			}
			f.CreatedOn = ts
		}
		items = append(items, f)
	}
	return items, p, rows.Err()
}
