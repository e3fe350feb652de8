package rss

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/toranews/internal/news"
	"github.com/deusflow/toranews/internal/scraper"
)

// FeedSource lists headlines from an RSS/Atom feed instead of the HTML timeline.
type FeedSource struct {
	fetcher *scraper.Fetcher
	url     string
	parser  *gofeed.Parser
}

// NewFeedSource creates a feed-backed listing source.
func NewFeedSource(f *scraper.Fetcher, feedURL string) *FeedSource {
	return &FeedSource{fetcher: f, url: feedURL, parser: gofeed.NewParser()}
}

// List downloads and parses the feed. Any item without title, credit or link fails the list.
func (s *FeedSource) List(ctx context.Context) ([]news.Item, error) {
	resp, err := s.fetcher.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %d from %s", scraper.ErrListingStatus, resp.StatusCode, s.url)
	}

	feed, err := s.parser.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.url, err)
	}

	items := make([]news.Item, 0, len(feed.Items))
	for i, it := range feed.Items {
		title := strings.TrimSpace(it.Title)
		credit := credit(feed, it)
		if title == "" || credit == "" || strings.TrimSpace(it.Link) == "" {
			return nil, fmt.Errorf("feed item %d: %w", i, scraper.ErrIncompleteItem)
		}

		link, err := scraper.CanonicalURL(resp.URL, it.Link)
		if err != nil {
			return nil, fmt.Errorf("feed item %d: %w", i, err)
		}
		items = append(items, news.Item{Title: title, Credit: credit, URL: link})
	}
	return items, nil
}

// credit prefers the item author, then its dublin-core creator, then the feed author.
func credit(feed *gofeed.Feed, it *gofeed.Item) string {
	for _, p := range it.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return strings.TrimSpace(p.Name)
		}
	}
	if it.DublinCoreExt != nil {
		for _, c := range it.DublinCoreExt.Creator {
			if strings.TrimSpace(c) != "" {
				return strings.TrimSpace(c)
			}
		}
	}
	for _, p := range feed.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return strings.TrimSpace(p.Name)
		}
	}
	return ""
}
