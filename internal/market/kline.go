package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stock-radar/internal/registry"
)

const (
	defaultKlineCNURL = "https://quotes.sina.cn/cn/api/json_v2.php/CN_MarketDataService.getKLineData"
	defaultKlineUSURL = "https://quotes.sina.cn/us/api/json_v2.php/US_MinKService.getDailyK"
	defaultKlineHKURL = "https://quotes.sina.cn/hk/api/json_v2.php/HK_MinKService.getDailyK"
)

// KlineClient is the per-instrument series adapter. One logical adapter,
// three endpoint flavors; the flavor is picked from the instrument's class,
// which the registry fixed at load time.
type KlineClient struct {
	cnURL        string
	usURL        string
	hkURL        string
	client       *http.Client
	lookbackDays int
}

func NewKlineClient(cnURL, usURL, hkURL string, timeout time.Duration, lookbackDays int) *KlineClient {
	if cnURL == "" {
		cnURL = defaultKlineCNURL
	}
	if usURL == "" {
		usURL = defaultKlineUSURL
	}
	if hkURL == "" {
		hkURL = defaultKlineHKURL
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &KlineClient{
		cnURL:        cnURL,
		usURL:        usURL,
		hkURL:        hkURL,
		client:       &http.Client{Timeout: timeout},
		lookbackDays: lookbackDays,
	}
}

// FetchSeries returns daily bars ascending by date. The payload is repaired
// before parsing; anything unusable comes back as an empty slice error-free
// at this layer only when the HTTP exchange itself succeeded.
func (c *KlineClient) FetchSeries(ctx context.Context, inst registry.Instrument, asOf time.Time) ([]Bar, error) {
	endpoint, symbol, err := c.route(inst)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid kline url: %w", err)
	}
	q := u.Query()
	q.Set("symbol", symbol)
	q.Set("scale", "240")
	q.Set("ma", "no")
	q.Set("datalen", strconv.Itoa(c.lookbackDays))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Referer", "https://finance.sina.com.cn")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request kline: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kline status %d for %s", resp.StatusCode, symbol)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read kline: %w", err)
	}

	bars := ParseBars(string(body))
	cutoff := asOf.Format("2006-01-02")
	// drop bars past the window end; the series is already ascending.
	for len(bars) > 0 && bars[len(bars)-1].Date > cutoff {
		bars = bars[:len(bars)-1]
	}
	return bars, nil
}

func (c *KlineClient) route(inst registry.Instrument) (endpoint, symbol string, err error) {
	switch inst.Class {
	case registry.ClassCN:
		return c.cnURL, inst.SinaCode, nil
	case registry.ClassUS:
		return c.usURL, strings.TrimPrefix(inst.SinaCode, "gb_"), nil
	case registry.ClassHK:
		return c.hkURL, strings.TrimPrefix(inst.SinaCode, "rt_hk"), nil
	default:
		return "", "", fmt.Errorf("instrument %s is not series-routed", inst.ID)
	}
}
