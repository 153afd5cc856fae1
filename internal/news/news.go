package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Item is one cached headline for an instrument.
type Item struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Date  string `json:"date,omitempty"`
}

const defaultBaseURL = "https://news.google.com/rss/search"

type Fetcher struct {
	baseURL string
	client  *http.Client
}

func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// FetchTop returns the first headline for a search query. The feed language
// follows the query script: queries containing Han characters go through the
// zh-CN edition, everything else through en-US.
func (f *Fetcher) FetchTop(ctx context.Context, query string) (Item, error) {
	q := url.Values{}
	q.Set("q", query)
	if containsHan(query) {
		q.Set("hl", "zh-CN")
		q.Set("gl", "CN")
		q.Set("ceid", "CN:zh-Hans")
	} else {
		q.Set("hl", "en-US")
		q.Set("gl", "US")
		q.Set("ceid", "US:en")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Item{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Item{}, fmt.Errorf("request news rss: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Item{}, fmt.Errorf("news rss status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Item{}, fmt.Errorf("read news rss: %w", err)
	}

	var feed rssFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return Item{}, fmt.Errorf("parse news rss: %w", err)
	}
	if len(feed.Channel.Items) == 0 {
		return Item{}, fmt.Errorf("empty news feed")
	}
	first := feed.Channel.Items[0]
	return Item{
		Title: cleanTitle(first.Title),
		Link:  first.Link,
		Date:  first.PubDate,
	}, nil
}

// cleanTitle drops the trailing " - Source" suffix Google appends.
func cleanTitle(title string) string {
	if i := strings.Index(title, " - "); i > 0 {
		return title[:i]
	}
	return title
}

func containsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// Cache holds the latest headline per instrument id. It is written only by
// the poller loop; everything else reads.
type Cache struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewCache() *Cache {
	return &Cache{items: make(map[string]Item)}
}

func (c *Cache) Get(id string) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[id]
	return it, ok
}

func (c *Cache) Put(id string, it Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[id] = it
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Headline implements the resolver's headline lookup.
func (c *Cache) Headline(id string) (Item, bool) {
	return c.Get(id)
}
