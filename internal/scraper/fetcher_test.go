package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherReturnsNonOKWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "toranews-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "nope")
	}))
	defer srv.Close()

	resp, err := testFetcher().Get(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.Equal(t, "nope", string(resp.Body))
}

func TestFetcherRobots(t *testing.T) {
	var robotsHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{UserAgent: "toranews-test", RespectRobots: true, Logger: quietLogger()})

	_, err := f.Get(context.Background(), srv.URL+"/private/page")
	require.ErrorIs(t, err, ErrDisallowed)

	resp, err := f.Get(context.Background(), srv.URL+"/public")
	require.NoError(t, err)
	assert.True(t, resp.OK())

	assert.Equal(t, int32(1), robotsHits.Load(), "robots.txt is cached per host")
}

func TestFetcherIgnoresRobotsByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	resp, err := testFetcher().Get(context.Background(), srv.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestFetcherCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(FetcherOptions{RequestsPerSecond: 1, Logger: quietLogger()})
	_, err := f.Get(ctx, srv.URL)
	require.Error(t, err)
}
