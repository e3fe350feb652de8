package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/toranews/internal/news"
)

func listingBlock(title, credit, href string) string {
	return `<li class="cm-timeLine__item">` +
		`<a class="cm-timeLine__itemArticleLink" href="` + href + `">` +
		`<p class="cm-timeLine__itemTitle">` + title + `</p>` +
		`<p class="cm-timeLine__itemCredit">` + credit + `</p>` +
		`</a></li>`
}

func TestParseListing(t *testing.T) {
	html := "<ul>" +
		listingBlock(" 阪神・近本が猛打賞 ", "サンケイスポーツ", "https://news.yahoo.co.jp/articles/aaa?source=sports&pos=1") +
		listingBlock("阪神・村上が完封", "デイリースポーツ", "/articles/bbb#comments") +
		"</ul>"

	items, err := ParseListing([]byte(html), "https://sports.yahoo.co.jp/list/news/npb?team=5", DefaultListingSelectors)
	require.NoError(t, err)

	assert.Equal(t, []news.Item{
		{Title: "阪神・近本が猛打賞", Credit: "サンケイスポーツ", URL: "https://news.yahoo.co.jp/articles/aaa"},
		{Title: "阪神・村上が完封", Credit: "デイリースポーツ", URL: "https://sports.yahoo.co.jp/articles/bbb"},
	}, items)
}

func TestParseListingIncompleteBlock(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{"missing credit", listingBlock("阪神が勝利", "", "https://x/1")},
		{"missing title", listingBlock("", "日刊スポーツ", "https://x/1")},
		{"missing link", listingBlock("阪神が勝利", "日刊スポーツ", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := "<ul>" + listingBlock("阪神・森下が2ラン", "日刊スポーツ", "https://x/0") + tt.block + "</ul>"
			items, err := ParseListing([]byte(html), "https://x/", DefaultListingSelectors)
			require.ErrorIs(t, err, ErrIncompleteItem)
			assert.Nil(t, items)
		})
	}
}

func TestParseListingEmptyPage(t *testing.T) {
	items, err := ParseListing([]byte("<html><body></body></html>"), "https://x/", DefaultListingSelectors)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListingSourceList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "toranews-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, "<ul>"+listingBlock("阪神が首位", "スポニチアネックス", "/articles/1?x=y")+"</ul>")
	}))
	defer srv.Close()

	items, err := NewListingSource(testFetcher(), srv.URL+"/list", DefaultListingSelectors).List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, srv.URL+"/articles/1", items[0].URL)
}

func TestListingSourceNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewListingSource(testFetcher(), srv.URL, DefaultListingSelectors).List(context.Background())
	require.ErrorIs(t, err, ErrListingStatus)
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		base, raw, want string
	}{
		{"", "https://a.example/x?y=1#z", "https://a.example/x"},
		{"https://a.example/list?team=5", "/articles/1", "https://a.example/articles/1"},
		{"https://a.example/list", "https://b.example/p?", "https://b.example/p"},
	}
	for _, tt := range tests {
		got, err := CanonicalURL(tt.base, tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := CanonicalURL("", "  ")
	assert.Error(t, err)
}
