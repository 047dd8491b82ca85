package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/TweetPulse/internal/collect"
	"github.com/TobiSchelling/TweetPulse/internal/database"
	"github.com/TobiSchelling/TweetPulse/internal/metrics"
	"github.com/TobiSchelling/TweetPulse/internal/sentiment"
)

// Triggers recorded with each run.
const (
	TriggerCLI  = "cli"
	TriggerWeb  = "web"
	TriggerCron = "cron"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("an ingest run is already in progress")

// Source yields the posts to classify.
type Source interface {
	Collect(ctx context.Context) (*collect.Result, error)
}

// Classifier labels a single text.
type Classifier interface {
	Classify(text string) (sentiment.Label, error)
}

// Store persists classified tweets and run records.
type Store interface {
	ReplaceTweets(tweets []database.NewTweet) (int, error)
	InsertIngestRun(run database.IngestRun) error
}

// Refresher re-runs ingestion on demand. The web /refresh action and the
// cron scheduler depend on this.
type Refresher interface {
	Refresh(ctx context.Context, trigger string) (*Result, error)
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID        string
	DryRun       bool
	Steps        []StepResult
	Collected    int
	Skipped      int
	Stored       int
	Distribution Distribution
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// Pipeline runs Collect -> Classify -> Store.
type Pipeline struct {
	source     Source
	classifier Classifier
	store      Store
	now        func() time.Time

	mu sync.Mutex
}

// New creates a new pipeline.
func New(source Source, classifier Classifier, store Store) *Pipeline {
	return &Pipeline{
		source:     source,
		classifier: classifier,
		store:      store,
		now:        time.Now,
	}
}

// Run executes the full pipeline. The stored tweet set is only replaced when
// collection and classification both succeed.
func (p *Pipeline) Run(ctx context.Context, trigger string) *Result {
	return p.run(ctx, trigger, false)
}

// DryRun collects and classifies without writing anything.
func (p *Pipeline) DryRun(ctx context.Context) *Result {
	return p.run(ctx, TriggerCLI, true)
}

// Refresh runs the pipeline unless a run is already active.
func (p *Pipeline) Refresh(ctx context.Context, trigger string) (*Result, error) {
	if !p.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.mu.Unlock()

	r := p.Run(ctx, trigger)
	return r, r.Err()
}

func (p *Pipeline) run(ctx context.Context, trigger string, dryRun bool) *Result {
	started := p.now()
	r := &Result{RunID: uuid.NewString(), DryRun: dryRun}
	log := slog.With("run_id", r.RunID, "trigger", trigger)
	if dryRun {
		log = log.With("dry_run", true)
	}

	defer func() {
		if dryRun {
			return
		}
		outcome := "success"
		if r.Err() != nil {
			outcome = "error"
		}
		metrics.IngestRunsTotal.WithLabelValues(trigger, outcome).Inc()
		metrics.IngestDuration.Observe(p.now().Sub(started).Seconds())
	}()

	// Step 1: Collect
	log.InfoContext(ctx, "step 1/3: collecting posts")
	collected, step := p.runCollect(ctx)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.Collected = collected.Total()
	r.Skipped = collected.Skipped

	// Step 2: Classify
	log.InfoContext(ctx, "step 2/3: classifying posts", "posts", r.Collected)
	tweets, dist, step := p.runClassify(collected.Posts)
	r.Steps = append(r.Steps, step)
	r.Distribution = dist
	if step.Err != nil {
		return r
	}

	// Step 3: Store
	if dryRun {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Store",
			Summary: fmt.Sprintf("[dry-run] would replace stored tweets with %d new ones", len(tweets)),
		})
		return r
	}
	log.InfoContext(ctx, "step 3/3: storing tweets")
	step = p.runStore(tweets)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}
	r.Stored = len(tweets)

	if len(tweets) > 0 {
		run := database.IngestRun{
			ID:         r.RunID,
			StartedAt:  started,
			FinishedAt: p.now(),
			Collected:  r.Collected,
			Skipped:    r.Skipped,
			Stored:     r.Stored,
			Positive:   dist.Counts[sentiment.Positive],
			Negative:   dist.Counts[sentiment.Negative],
			Neutral:    dist.Counts[sentiment.Neutral],
			Trigger:    trigger,
		}
		if err := p.store.InsertIngestRun(run); err != nil {
			log.WarnContext(ctx, "failed to record ingest run", "error", err)
		}
		for _, l := range sentiment.Labels {
			metrics.StoredTweets.WithLabelValues(l.String()).Set(float64(dist.Counts[l]))
		}
	}

	log.InfoContext(ctx, "ingest complete",
		"stored", r.Stored,
		"positive_pct", dist.Percent(sentiment.Positive),
		"negative_pct", dist.Percent(sentiment.Negative),
		"neutral_pct", dist.Percent(sentiment.Neutral),
	)
	return r
}

func (p *Pipeline) runCollect(ctx context.Context) (*collect.Result, StepResult) {
	result, err := p.source.Collect(ctx)
	if err != nil {
		return nil, StepResult{Name: "Collect", Err: err}
	}
	metrics.IngestSkippedRows.Add(float64(result.Skipped))
	return result, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Collected %d posts (%d rows skipped)", result.Total(), result.Skipped),
	}
}

func (p *Pipeline) runStore(tweets []database.NewTweet) StepResult {
	if len(tweets) == 0 {
		return StepResult{Name: "Store", Summary: "Nothing collected; kept existing tweets"}
	}
	n, err := p.store.ReplaceTweets(tweets)
	if err != nil {
		return StepResult{Name: "Store", Err: err}
	}
	return StepResult{Name: "Store", Summary: fmt.Sprintf("Replaced stored tweets with %d new ones", n)}
}
