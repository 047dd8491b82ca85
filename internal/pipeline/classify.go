package pipeline

import (
	"fmt"
	"time"

	"github.com/TobiSchelling/TweetPulse/internal/collect"
	"github.com/TobiSchelling/TweetPulse/internal/database"
	"github.com/TobiSchelling/TweetPulse/internal/metrics"
	"github.com/TobiSchelling/TweetPulse/internal/sentiment"
)

// Distribution counts classified posts per label.
type Distribution struct {
	Counts map[sentiment.Label]int
	Total  int
}

// Percent returns the share of label l in percent, or 0 for an empty run.
func (d Distribution) Percent(l sentiment.Label) float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Counts[l]) * 100 / float64(d.Total)
}

func (p *Pipeline) runClassify(posts []collect.Post) ([]database.NewTweet, Distribution, StepResult) {
	dist := Distribution{Counts: make(map[sentiment.Label]int, len(sentiment.Labels))}
	tweets := make([]database.NewTweet, 0, len(posts))

	for i, post := range posts {
		start := time.Now()
		label, err := p.classifier.Classify(post.Text)
		if err != nil {
			return nil, dist, StepResult{Name: "Classify", Err: fmt.Errorf("post %d: %w", i, err)}
		}
		metrics.ClassificationDuration.Observe(time.Since(start).Seconds())
		metrics.ClassificationsTotal.WithLabelValues(label.String()).Inc()

		dist.Counts[label]++
		dist.Total++
		tweets = append(tweets, database.NewTweet{
			Text:      post.Text,
			Name:      post.Name,
			Username:  post.Username,
			CreatedAt: post.CreatedAt,
			Sentiment: label.String(),
			Source:    post.Source,
		})
	}

	return tweets, dist, StepResult{
		Name: "Classify",
		Summary: fmt.Sprintf("Classified %d posts: %d positive, %d negative, %d neutral",
			dist.Total, dist.Counts[sentiment.Positive], dist.Counts[sentiment.Negative], dist.Counts[sentiment.Neutral]),
	}
}
