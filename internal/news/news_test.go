package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const feedBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>results</title>
    <item>
      <title>NVIDIA tops estimates - Yahoo Finance</title>
      <link>https://example.com/nvda</link>
      <pubDate>Fri, 05 Jan 2024 13:00:00 GMT</pubDate>
    </item>
    <item>
      <title>second item</title>
      <link>https://example.com/other</link>
    </item>
  </channel>
</rss>`

func TestFetchTop_ParsesFirstItemAndCleansTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "en-US", r.URL.Query().Get("hl"))
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	it, err := f.FetchTop(context.Background(), "NVIDIA stock news")
	require.NoError(t, err)
	require.Equal(t, "NVIDIA tops estimates", it.Title)
	require.Equal(t, "https://example.com/nvda", it.Link)
	require.Equal(t, "Fri, 05 Jan 2024 13:00:00 GMT", it.Date)
}

func TestFetchTop_ChineseQueryUsesChineseEdition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "zh-CN", r.URL.Query().Get("hl"))
		require.Equal(t, "CN:zh-Hans", r.URL.Query().Get("ceid"))
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	_, err := f.FetchTop(context.Background(), "工业富联 新闻")
	require.NoError(t, err)
}

func TestFetchTop_EmptyFeedIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<rss version="2.0"><channel></channel></rss>`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	_, err := f.FetchTop(context.Background(), "whatever")
	require.Error(t, err)
}

func TestFetchTop_BadStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	_, err := f.FetchTop(context.Background(), "whatever")
	require.Error(t, err)
}

func TestCleanTitle(t *testing.T) {
	require.Equal(t, "headline", cleanTitle("headline - Reuters"))
	require.Equal(t, "plain headline", cleanTitle("plain headline"))
	// only the first separator cuts
	require.Equal(t, "a", cleanTitle("a - b - c"))
}

func TestCache_GetPut(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("NVDA")
	require.False(t, ok)

	c.Put("NVDA", Item{Title: "t", Link: "l"})
	it, ok := c.Get("NVDA")
	require.True(t, ok)
	require.Equal(t, "t", it.Title)
	require.Equal(t, 1, c.Len())

	hl, ok := c.Headline("NVDA")
	require.True(t, ok)
	require.Equal(t, it, hl)
}

type recordingPersister struct {
	saved []string
}

func (p *recordingPersister) SaveHeadline(id, title, link, pubDate string) error {
	p.saved = append(p.saved, id)
	return nil
}

func TestPoller_StopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	cache := NewCache()
	persister := &recordingPersister{}
	p := NewPoller(
		NewFetcher(srv.URL, time.Second), cache, persister,
		[]Target{{ID: "NVDA", Query: "NVIDIA stock news"}},
		10*time.Millisecond, 20*time.Millisecond,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	require.NotEmpty(t, persister.saved)
}
