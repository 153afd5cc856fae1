package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const defaultSinaURL = "https://hq.sinajs.cn/list="

// SinaClient is the batched snapshot adapter: one request covers every
// primary-routed instrument. The upstream answers GBK-encoded script lines,
// one per code.
type SinaClient struct {
	baseURL string
	client  *http.Client
}

func NewSinaClient(baseURL string, timeout time.Duration) *SinaClient {
	if baseURL == "" {
		baseURL = defaultSinaURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SinaClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchLive fetches one snapshot per code. Lines that fail to parse are
// skipped; the batch only errors when nothing usable came back.
func (c *SinaClient) FetchLive(ctx context.Context, codes []string) (map[string]Snapshot, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("codes is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+strings.Join(codes, ","), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Referer", "https://finance.sina.com.cn")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request sina: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sina status %d", resp.StatusCode)
	}

	// body is GBK; stock names would come out garbled without decoding.
	data, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("read sina: %w", err)
	}

	out := make(map[string]Snapshot, len(codes))
	for _, line := range strings.Split(string(data), "\n") {
		snap, ok := parseSnapshotLine(line)
		if ok {
			out[snap.Code] = snap
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty sina response")
	}
	return out, nil
}

// parseSnapshotLine splits one `var hq_str_<code>="f0,f1,...";` line. The
// code keeps its routing prefix so results key directly by SinaCode.
func parseSnapshotLine(line string) (Snapshot, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Snapshot{}, false
	}
	head, payload, ok := strings.Cut(line, "=")
	if !ok {
		return Snapshot{}, false
	}
	idx := strings.Index(head, "_str_")
	if idx < 0 {
		return Snapshot{}, false
	}
	code := strings.TrimSpace(head[idx+len("_str_"):])
	payload = strings.Trim(strings.TrimSpace(payload), ";")
	payload = strings.Trim(payload, "\"")
	fields := strings.Split(payload, ",")
	if code == "" || len(fields) < 5 {
		return Snapshot{}, false
	}
	return Snapshot{Code: code, Fields: fields}, true
}
