package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/toranews/internal/message"
	"github.com/deusflow/toranews/internal/news"
)

// DefaultMaxPages bounds how many pages of one article are fetched.
const DefaultMaxPages = 5

const headerSeparator = " \n\n\n"

// pageFooter matches the "N/Mページ" pagination marker inside the body.
var pageFooter = regexp.MustCompile(`\d+/\d+ページ`)

// Layout names the selectors for one article page profile.
type Layout struct {
	Name   string `yaml:"name"`
	Header string `yaml:"header"`
	Body   string `yaml:"body"`
}

var (
	NormalLayout = Layout{
		Name:   "normal",
		Header: "article#uamods > header > h1",
		Body:   "article#uamods > div > div > p",
	}
	ExpertLayout = Layout{
		Name:   "expert",
		Header: "article#uamods-article > div > header > h1",
		Body:   "article#uamods-article > div > section > div > *",
	}
)

// LayoutFor picks the expert layout for expert-column URLs.
func LayoutFor(articleURL string) Layout {
	if strings.Contains(articleURL, "expert") {
		return ExpertLayout
	}
	return NormalLayout
}

// Assembler fetches every page of an article and joins them into one document.
type Assembler struct {
	fetcher  *Fetcher
	maxPages int
	log      *slog.Logger
}

// NewAssembler creates an Assembler. maxPages <= 0 means DefaultMaxPages.
func NewAssembler(f *Fetcher, maxPages int, log *slog.Logger) *Assembler {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{fetcher: f, maxPages: maxPages, log: log}
}

// Assemble returns the article text of item followed by a citation line.
// Pagination stops at the first page that yields nothing.
func (a *Assembler) Assemble(ctx context.Context, item news.Item) (string, error) {
	layout := LayoutFor(item.URL)

	var doc strings.Builder
	for page := 1; page <= a.maxPages; page++ {
		content, err := a.Page(ctx, PageURL(item.URL, page), layout, page == 1)
		if err != nil {
			return "", fmt.Errorf("page %d of %s: %w", page, item.URL, err)
		}
		if content == "" {
			a.log.Debug("pagination ended", "url", item.URL, "page", page)
			break
		}
		doc.WriteString(content)
	}

	doc.WriteString("\n<" + item.URL + ">")
	return doc.String(), nil
}

// Page fetches one page and extracts its text. A non-OK status yields "" and no error.
func (a *Assembler) Page(ctx context.Context, pageURL string, layout Layout, first bool) (string, error) {
	resp, err := a.fetcher.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		a.log.Debug("article page not available", "url", pageURL, "status", resp.StatusCode)
		return "", nil
	}
	return ExtractPage(resp.Body, layout, first)
}

// ExtractPage pulls the header (first page only) and body text out of page HTML.
func ExtractPage(html []byte, layout Layout, first bool) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse article HTML: %w", err)
	}

	var out strings.Builder
	if first {
		header := doc.Find(layout.Header).First().Text()
		if strings.TrimSpace(header) != "" {
			out.WriteString(header + headerSeparator)
		}
	}

	var body strings.Builder
	doc.Find(layout.Body).Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if pageFooter.MatchString(text) {
			return
		}
		body.WriteString(text)
		body.WriteByte('\n')
	})
	out.WriteString(message.Normalize(body.String()))

	return out.String(), nil
}
