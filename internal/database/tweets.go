package database

import (
	"database/sql"
	"fmt"
)

const tweetColumns = `id, tweet, name, username, tweet_created_at, sentiment, source, created_on`

// ReplaceTweets deletes all stored tweets and inserts the given ones in a
// single transaction. Readers see either the old set or the new set.
func (db *DB) ReplaceTweets(tweets []NewTweet) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec("DELETE FROM tweets"); err != nil {
		return 0, fmt.Errorf("clearing tweets: %w", err)
	}
	n, err := insertTweets(tx, tweets)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return n, nil
}

// InsertTweets appends tweets without touching existing rows.
func (db *DB) InsertTweets(tweets []NewTweet) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	n, err := insertTweets(tx, tweets)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return n, nil
}

func insertTweets(tx *sql.Tx, tweets []NewTweet) (int, error) {
	stmt, err := tx.Prepare(
		`INSERT INTO tweets (tweet, name, username, tweet_created_at, sentiment, source)
		VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tweets {
		source := t.Source
		if source == "" {
			source = "csv"
		}
		if _, err := stmt.Exec(t.Text, t.Name, t.Username, formatTime(t.CreatedAt), t.Sentiment, source); err != nil {
			return 0, fmt.Errorf("inserting tweet %d: %w", i, err)
		}
	}
	return len(tweets), nil
}

// CountTweets returns the number of stored tweets.
func (db *DB) CountTweets() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM tweets").Scan(&n)
	return n, err
}

// GetSentimentCounts returns the number of tweets per label.
func (db *DB) GetSentimentCounts() (SentimentCounts, error) {
	var c SentimentCounts
	err := db.conn.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN sentiment = 'positive' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sentiment = 'negative' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sentiment = 'neutral' THEN 1 ELSE 0 END), 0),
			COUNT(*)
		FROM tweets`).Scan(&c.Positive, &c.Negative, &c.Neutral, &c.All)
	return c, err
}

// GetLatestTweets returns the n most recent tweets by tweet time.
func (db *DB) GetLatestTweets(n int) ([]Tweet, error) {
	rows, err := db.conn.Query(
		`SELECT `+tweetColumns+` FROM tweets
		ORDER BY tweet_created_at DESC, id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTweets(rows)
}

// GetTweetsPage returns one page of tweets, newest first, with the
// pagination state for the whole table.
func (db *DB) GetTweetsPage(page, perPage int) ([]Tweet, Pagination, error) {
	total, err := db.CountTweets()
	if err != nil {
		return nil, Pagination{}, err
	}
	p := NewPagination(page, perPage, total)

	rows, err := db.conn.Query(
		`SELECT `+tweetColumns+` FROM tweets
		ORDER BY tweet_created_at DESC, id DESC LIMIT ? OFFSET ?`, p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, p, err
	}
	defer rows.Close()
	tweets, err := scanTweets(rows)
	return tweets, p, err
}

func scanTweets(rows *sql.Rows) ([]Tweet, error) {
	var tweets []Tweet
	for rows.Next() {
		var t Tweet
		var created string
		if err := rows.Scan(&t.ID, &t.Text, &t.Name, &t.Username, &created,
			&t.Sentiment, &t.Source, &t.CreatedOn); err != nil {
			return nil, err
		}
		ts, err := parseTime(created)
		if err != nil {
			return nil, err
		}
		t.CreatedAt = ts
		tweets = append(tweets, t)
	}
	return tweets, rows.Err()
}
