package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/toranews/internal/news"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFetcher() *Fetcher {
	return NewFetcher(FetcherOptions{UserAgent: "toranews-test", Logger: quietLogger()})
}

func normalPage(header string, paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><article id="uamods"><header><h1>` + header + `</h1></header><div><div>`)
	for _, p := range paragraphs {
		b.WriteString("<p>" + p + "</p>")
	}
	b.WriteString(`</div></div></article></body></html>`)
	return b.String()
}

// articleServer serves pages[n-1] for ?page=n and 404 beyond. It records every page requested.
type articleServer struct {
	mu        sync.Mutex
	requested []string
	pages     []string
}

func (s *articleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	s.mu.Lock()
	s.requested = append(s.requested, page)
	s.mu.Unlock()

	var n int
	fmt.Sscanf(page, "%d", &n)
	if n < 1 || n > len(s.pages) || s.pages[n-1] == "" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, s.pages[n-1])
}

func TestAssembleJoinsPagesAndCites(t *testing.T) {
	as := &articleServer{pages: []string{
		normalPage("見出し", "一段落目", "1/2ページ"),
		normalPage("二ページ目の見出し", "二段落目"),
	}}
	srv := httptest.NewServer(as)
	defer srv.Close()

	item := news.Item{Title: "t", Credit: "c", URL: srv.URL + "/articles/1"}
	doc, err := NewAssembler(testFetcher(), 0, quietLogger()).Assemble(context.Background(), item)
	require.NoError(t, err)

	want := "見出し \n\n\n" + "一段落目\n" + "二段落目\n" + "\n<" + item.URL + ">"
	assert.Equal(t, want, doc)
	assert.Equal(t, []string{"1", "2", "3"}, as.requested)
}

func TestAssembleStopsAtFirstMissingPage(t *testing.T) {
	as := &articleServer{pages: []string{
		normalPage("見出し", "本文"),
		"",
		normalPage("", "届かないはずの本文"),
	}}
	srv := httptest.NewServer(as)
	defer srv.Close()

	item := news.Item{URL: srv.URL + "/a"}
	doc, err := NewAssembler(testFetcher(), 5, quietLogger()).Assemble(context.Background(), item)
	require.NoError(t, err)

	assert.NotContains(t, doc, "届かないはずの本文")
	assert.Equal(t, []string{"1", "2"}, as.requested)
}

func TestAssembleRespectsMaxPages(t *testing.T) {
	pages := make([]string, 8)
	for i := range pages {
		pages[i] = normalPage("h", fmt.Sprintf("p%d", i+1))
	}
	as := &articleServer{pages: pages}
	srv := httptest.NewServer(as)
	defer srv.Close()

	doc, err := NewAssembler(testFetcher(), 0, quietLogger()).Assemble(context.Background(), news.Item{URL: srv.URL + "/a"})
	require.NoError(t, err)

	assert.Len(t, as.requested, DefaultMaxPages)
	assert.Contains(t, doc, "p5\n")
	assert.NotContains(t, doc, "p6")
}

func TestAssembleFirstPageMissing(t *testing.T) {
	srv := httptest.NewServer(&articleServer{})
	defer srv.Close()

	item := news.Item{URL: srv.URL + "/gone"}
	doc, err := NewAssembler(testFetcher(), 5, quietLogger()).Assemble(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "\n<"+item.URL+">", doc)
}

func TestAssembleTransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(&articleServer{})
	url := srv.URL + "/a"
	srv.Close()

	_, err := NewAssembler(testFetcher(), 5, quietLogger()).Assemble(context.Background(), news.Item{URL: url})
	require.Error(t, err)
}

func TestExtractPage(t *testing.T) {
	t.Run("header only on first page", func(t *testing.T) {
		html := []byte(normalPage("見出し", "本文"))

		first, err := ExtractPage(html, NormalLayout, true)
		require.NoError(t, err)
		assert.Equal(t, "見出し \n\n\n本文\n", first)

		later, err := ExtractPage(html, NormalLayout, false)
		require.NoError(t, err)
		assert.Equal(t, "本文\n", later)
	})

	t.Run("footer paragraphs are dropped", func(t *testing.T) {
		got, err := ExtractPage([]byte(normalPage("", "本文", "2/3ページ")), NormalLayout, false)
		require.NoError(t, err)
		assert.Equal(t, "本文\n", got)
	})

	t.Run("blank runs are collapsed", func(t *testing.T) {
		got, err := ExtractPage([]byte(normalPage("", "a\n\n\n\n", "b")), NormalLayout, false)
		require.NoError(t, err)
		assert.Equal(t, "a\n\nb\n", got)
	})

	t.Run("nothing matched", func(t *testing.T) {
		got, err := ExtractPage([]byte("<html><body><p>other</p></body></html>"), NormalLayout, true)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("expert layout", func(t *testing.T) {
		html := `<article id="uamods-article"><div><header><h1>コラム</h1></header>` +
			`<section><div><h2>小見出し</h2><p>本文</p></div></section></div></article>`
		got, err := ExtractPage([]byte(html), ExpertLayout, true)
		require.NoError(t, err)
		assert.Equal(t, "コラム \n\n\n小見出し\n本文\n", got)
	})
}

func TestLayoutFor(t *testing.T) {
	assert.Equal(t, ExpertLayout, LayoutFor("https://sports.yahoo.co.jp/column/expert/1"))
	assert.Equal(t, NormalLayout, LayoutFor("https://news.yahoo.co.jp/articles/abc"))
}
