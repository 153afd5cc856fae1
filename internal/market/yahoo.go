package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultYahooURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooClient is the secondary-market adapter, serving instruments without
// a primary routing key. The same bar fetch backs both live (short span)
// and historical (long span) resolution.
type YahooClient struct {
	baseURL string
	client  *http.Client
}

func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	if baseURL == "" {
		baseURL = defaultYahooURL
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &YahooClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
					Open  []*float64 `json:"open"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// FetchBars returns daily bars ascending by date for one symbol. Days with
// a null close (partial sessions, suspensions) are dropped.
func (c *YahooClient) FetchBars(ctx context.Context, symbol, span string) ([]Bar, error) {
	if span == "" {
		span = "1mo"
	}
	u := fmt.Sprintf("%s/%s?range=%s&interval=1d", c.baseURL, symbol, span)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	// the default Go user agent gets rejected here.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request yahoo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo status %d for %s", resp.StatusCode, symbol)
	}

	var payload yahooChart
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode yahoo: %w", err)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty yahoo result for %s", symbol)
	}
	res := payload.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote block for %s", symbol)
	}
	quote := res.Indicators.Quote[0]

	bars := make([]Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		var open float64
		if i < len(quote.Open) && quote.Open[i] != nil {
			open = *quote.Open[i]
		}
		bars = append(bars, Bar{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *quote.Close[i],
			Open:  open,
		})
	}
	return bars, nil
}
