// Package collect gathers posts to classify from the tweet dataset and from
// configured RSS/Atom feeds.
package collect

import (
	"context"
	"log/slog"
	"time"

	"github.com/TobiSchelling/TweetPulse/internal/config"
)

// Post is a single short text with its author and time, ready to classify.
type Post struct {
	Text      string
	Name      string
	Username  string
	CreatedAt time.Time // UTC
	Source    string    // "csv" or the feed name
}

// Result holds the results of a collection run.
type Result struct {
	Posts   []Post
	Skipped int
	Sources map[string]int
}

// Total returns the number of collected posts.
func (r *Result) Total() int {
	return len(r.Posts)
}

// Collector orchestrates collection from the dataset and feeds.
type Collector struct {
	dataset    *DatasetReader
	feedParser *FeedParser
}

// NewCollector creates a collector for the configured sources. A source that
// is not configured is skipped.
func NewCollector(cfg *config.Config) *Collector {
	c := &Collector{}

	if cfg.Dataset.Path != "" {
		c.dataset = NewDatasetReader(cfg.Dataset.Path, cfg.Dataset.Limit)
	}

	if len(cfg.Sources.Feeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Sources.Feeds))
		for i, f := range cfg.Sources.Feeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		c.feedParser = NewFeedParser(feeds)
	}

	return c
}

// Collect reads every configured source. A dataset that cannot be read fails
// the run; a feed that cannot be fetched is logged and skipped.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	r := &Result{Sources: make(map[string]int)}

	if c.dataset != nil {
		slog.InfoContext(ctx, "reading tweet dataset", "path", c.dataset.Path())
		posts, skipped, err := c.dataset.Read(ctx)
		if err != nil {
			return nil, err
		}
		r.Posts = append(r.Posts, posts...)
		r.Skipped += skipped
		r.Sources[SourceCSV] += len(posts)
	}

	if c.feedParser != nil {
		slog.InfoContext(ctx, "collecting from feeds")
		for _, p := range c.feedParser.ParseAll(ctx) {
			r.Posts = append(r.Posts, p)
			r.Sources[p.Source]++
		}
	}

	slog.InfoContext(ctx, "collection complete", "posts", len(r.Posts), "skipped", r.Skipped)
	return r, nil
}
