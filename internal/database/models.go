package database

import "time"

// Tweet is a classified post as stored.
type Tweet struct {
	ID        int64
	Text      string
	Name      string
	Username  string
	CreatedAt time.Time // UTC
	Sentiment string
	Source    string
	CreatedOn *string
}

// NewTweet is the input to InsertTweets and ReplaceTweets.
type NewTweet struct {
	Text      string
	Name      string
	Username  string
	CreatedAt time.Time
	Sentiment string
	Source    string
}

// Feedback is a message left through the dashboard feedback form.
type Feedback struct {
	ID        int64
	Name      string
	Phone     string
	Content   string
	CreatedOn time.Time
}

// User is a dashboard account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedOn    *string
}

// SentimentCounts holds tweet totals per sentiment label.
type SentimentCounts struct {
	Positive int
	Negative int
	Neutral  int
	All      int
}

// Percent returns n as a percentage of All, or 0 when there are no tweets.
func (c SentimentCounts) Percent(n int) float64 {
	if c.All == 0 {
		return 0
	}
	return float64(n) * 100 / float64(c.All)
}

// IngestRun records the outcome of one ingest pipeline run.
type IngestRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Collected  int
	Skipped    int
	Stored     int
	Positive   int
	Negative   int
	Neutral    int
	Trigger    string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Tweets     int
	Feedback   int
	Users      int
	IngestRuns int
	Sentiment  SentimentCounts
	LastRun    *IngestRun
}
