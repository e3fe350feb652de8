package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/toranews/internal/news"
)

// DefaultListingURL is the Hanshin Tigers NPB news timeline.
const DefaultListingURL = "https://sports.yahoo.co.jp/list/news/npb?genre=npb&team=5"

var (
	// ErrListingStatus is returned when the listing page answers with a non-OK status.
	ErrListingStatus = errors.New("unexpected listing status")
	// ErrIncompleteItem is returned when a listing block lacks a title, credit or link.
	ErrIncompleteItem = errors.New("news item is missing title, credit or url")
)

// ListingSelectors locate the headline blocks and their fields.
type ListingSelectors struct {
	Item   string `yaml:"item"`
	Title  string `yaml:"title"`
	Credit string `yaml:"credit"`
	Link   string `yaml:"link"`
}

// DefaultListingSelectors match the sports.yahoo.co.jp timeline markup.
var DefaultListingSelectors = ListingSelectors{
	Item:   ".cm-timeLine__item",
	Title:  ".cm-timeLine__itemTitle",
	Credit: ".cm-timeLine__itemCredit",
	Link:   "a.cm-timeLine__itemArticleLink",
}

// ListingSource scrapes headlines from an HTML listing page.
type ListingSource struct {
	fetcher   *Fetcher
	url       string
	selectors ListingSelectors
}

// NewListingSource creates a listing source for listingURL.
func NewListingSource(f *Fetcher, listingURL string, sel ListingSelectors) *ListingSource {
	if listingURL == "" {
		listingURL = DefaultListingURL
	}
	return &ListingSource{fetcher: f, url: listingURL, selectors: sel}
}

// List fetches the listing page and extracts every headline block.
func (s *ListingSource) List(ctx context.Context) ([]news.Item, error) {
	resp, err := s.fetcher.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %d from %s", ErrListingStatus, resp.StatusCode, s.url)
	}
	return ParseListing(resp.Body, resp.URL, s.selectors)
}

// ParseListing extracts items from listing HTML. Any incomplete block fails the whole page.
func ParseListing(body []byte, baseURL string, sel ListingSelectors) ([]news.Item, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing HTML: %w", err)
	}

	var (
		items    []news.Item
		blockErr error
	)
	doc.Find(sel.Item).EachWithBreak(func(i int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find(sel.Title).First().Text())
		credit := strings.TrimSpace(s.Find(sel.Credit).First().Text())
		href, _ := s.Find(sel.Link).First().Attr("href")
		if title == "" || credit == "" || strings.TrimSpace(href) == "" {
			blockErr = fmt.Errorf("block %d: %w", i, ErrIncompleteItem)
			return false
		}

		link, err := CanonicalURL(baseURL, href)
		if err != nil {
			blockErr = fmt.Errorf("block %d: %w", i, err)
			return false
		}

		items = append(items, news.Item{Title: title, Credit: credit, URL: link})
		return true
	})
	if blockErr != nil {
		return nil, blockErr
	}
	return items, nil
}
