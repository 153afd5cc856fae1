package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestYahooFetchBars_DecodesChart(t *testing.T) {
	// 2024-01-02 and 2024-01-03 UTC, third day has a null close.
	body := `{"chart":{"result":[{"timestamp":[1704184200,1704270600,1704357000],
		"indicators":{"quote":[{"close":[593.0,null,589.5],"open":[590.0,591.0,null]}]}}]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2330.TW", r.URL.Path)
		require.Equal(t, "5d", r.URL.Query().Get("range"))
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, time.Second)
	bars, err := c.FetchBars(context.Background(), "2330.TW", "5d")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	require.Equal(t, "2024-01-02", bars[0].Date)
	require.Equal(t, 593.0, bars[0].Close)
	require.Equal(t, 590.0, bars[0].Open)
	require.Equal(t, 589.5, bars[1].Close)
	require.Equal(t, 0.0, bars[1].Open)
}

func TestYahooFetchBars_EmptyResultIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[]}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, time.Second)
	_, err := c.FetchBars(context.Background(), "2330.TW", "")
	require.Error(t, err)
}

func TestYahooFetchBars_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL, time.Second)
	_, err := c.FetchBars(context.Background(), "2330.TW", "5d")
	require.Error(t, err)
}
