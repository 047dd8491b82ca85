package collect

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

const maxPerFeed = 50

// Item HTML at least this long is treated as a full article and run through
// readability; shorter snippets are stripped directly.
const readabilityMinHTML = 500

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedParser turns RSS/Atom feed items into posts.
type FeedParser struct {
	feeds  []FeedConfig
	parser *gofeed.Parser
	now    func() time.Time
}

// NewFeedParser creates a new FeedParser.
func NewFeedParser(feeds []FeedConfig) *FeedParser {
	return &FeedParser{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		now:    time.Now,
	}
}

// ParseAll parses all configured feeds. Feeds that fail are logged and skipped.
func (fp *FeedParser) ParseAll(ctx context.Context) []Post {
	var all []Post

	for _, fc := range fp.feeds {
		name := fc.Name
		if name == "" {
			name = extractSourceName(fc.URL)
		}

		feed, err := fp.parser.ParseURLWithContext(fc.URL, ctx)
		if err != nil {
			slog.WarnContext(ctx, "failed to parse feed", "url", fc.URL, "error", err)
			continue
		}
		posts := fp.postsFromFeed(feed, name)
		all = append(all, posts...)
		slog.InfoContext(ctx, "parsed feed", "source", name, "posts", len(posts))
	}

	return all
}

func (fp *FeedParser) postsFromFeed(feed *gofeed.Feed, source string) []Post {
	var posts []Post
	for _, item := range feed.Items {
		if len(posts) >= maxPerFeed {
			break
		}
		if p, ok := fp.parseItem(item, source); ok {
			posts = append(posts, p)
		}
	}
	return posts
}

func (fp *FeedParser) parseItem(item *gofeed.Item, source string) (Post, bool) {
	text := itemText(item)
	if text == "" {
		return Post{}, false
	}

	created := fp.now()
	if item.PublishedParsed != nil {
		created = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		created = *item.UpdatedParsed
	}

	name, username := source, ""
	if author := itemAuthor(item); author != "" {
		name = author
		if strings.HasPrefix(author, "@") {
			username = strings.TrimPrefix(author, "@")
		}
	}

	return Post{
		Text:      text,
		Name:      name,
		Username:  username,
		CreatedAt: created.UTC(),
		Source:    source,
	}, true
}

// itemAuthor returns the first non-empty author of item. gofeed leaves
// Author.Name empty for a dc:creator such as "@jane", so the Dublin Core
// creators are checked as well.
func itemAuthor(item *gofeed.Item) string {
	people := item.Authors
	if item.Author != nil {
		people = append([]*gofeed.Person{item.Author}, people...)
	}
	for _, p := range people {
		if p == nil {
			continue
		}
		if name := strings.TrimSpace(p.Name); name != "" {
			return name
		}
		if email := strings.TrimSpace(p.Email); email != "" {
			return email
		}
	}
	if dc := item.DublinCoreExt; dc != nil {
		for _, c := range dc.Creator {
			if c = strings.TrimSpace(c); c != "" {
				return c
			}
		}
	}
	return ""
}

// itemText picks the best plain-text body for an item: content, then
// description, then title.
func itemText(item *gofeed.Item) string {
	for _, html := range []string{item.Content, item.Description} {
		if strings.TrimSpace(html) == "" {
			continue
		}
		if text := htmlToText(html, item.Link); text != "" {
			return text
		}
	}
	return strings.TrimSpace(item.Title)
}

func htmlToText(html, link string) string {
	if len(html) >= readabilityMinHTML {
		pageURL, err := url.Parse(link)
		if err != nil {
			pageURL = &url.URL{}
		}
		article, err := readability.FromReader(strings.NewReader(html), pageURL)
		if err == nil {
			if text := strings.Join(strings.Fields(article.TextContent), " "); text != "" {
				return text
			}
		}
	}
	return stripHTML(html)
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	).Replace(s)

	return strings.Join(strings.Fields(s), " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.FieldsFunc(host, func(r rune) bool { return r == '.' })
	switch {
	case len(parts) == 0:
		return feedURL
	case len(parts) >= 2:
		host = parts[len(parts)-2]
	default:
		host = parts[0]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
