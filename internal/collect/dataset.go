package collect

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// SourceCSV tags posts read from the tweet dataset.
const SourceCSV = "csv"

// timeLayouts are tried in order when parsing the created_at column.
// Zone abbreviations Go does not know parse with a zero offset.
var timeLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// DatasetReader reads posts from a CSV with the columns
// tweet, name, username, created_at. The path may be a local file or an
// http(s) URL.
type DatasetReader struct {
	path   string
	limit  int
	client *http.Client
}

// NewDatasetReader creates a reader for the first limit data rows of path.
// limit <= 0 reads everything.
func NewDatasetReader(path string, limit int) *DatasetReader {
	return &DatasetReader{
		path:   path,
		limit:  limit,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Path returns the dataset location.
func (d *DatasetReader) Path() string {
	return d.path
}

// Read returns the parsed posts and the number of rows skipped because the
// text was empty or the time could not be parsed.
func (d *DatasetReader) Read(ctx context.Context) ([]Post, int, error) {
	rc, err := d.open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()
	return ParseDataset(rc, d.limit)
}

func (d *DatasetReader) open(ctx context.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(d.path, "http://") && !strings.HasPrefix(d.path, "https://") {
		f, err := os.Open(d.path)
		if err != nil {
			return nil, fmt.Errorf("opening dataset: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.path, nil)
	if err != nil {
		return nil, fmt.Errorf("building dataset request: %w", err)
	}
	req.Header.Set("User-Agent", "TweetPulse/1.0")
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching dataset: %w", err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching dataset: %s", resp.Status)
	}
	return resp.Body, nil
}

// ParseDataset parses CSV data with a header row. Only the first limit data
// rows are considered (all when limit <= 0), skipped ones included.
func ParseDataset(r io.Reader, limit int) ([]Post, int, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("dataset is empty")
		}
		return nil, 0, fmt.Errorf("reading dataset header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"tweet", "created_at"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("dataset is missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var posts []Post
	skipped := 0
	for line := 2; limit <= 0 || line-2 < limit; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("parsing dataset line %d: %w", line, err)
		}

		text := field(record, "tweet")
		createdAt, ok := parseTimestamp(field(record, "created_at"))
		if text == "" || !ok {
			skipped++
			continue
		}

		posts = append(posts, Post{
			Text:      text,
			Name:      field(record, "name"),
			Username:  field(record, "username"),
			CreatedAt: createdAt,
			Source:    SourceCSV,
		})
	}

	return posts, skipped, nil
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
