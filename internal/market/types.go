package market

import (
	"context"
	"encoding/json"
	"time"

	"stock-radar/internal/news"
	"stock-radar/internal/registry"
)

// Bar is one trading day as returned by a series source. Open is 0 when the
// source does not report it.
type Bar struct {
	Date  string // YYYY-MM-DD
	Close float64
	Open  float64
}

// Snapshot is one raw quote line from the batched snapshot source, split
// into its comma fields. Field meaning depends on the instrument class.
type Snapshot struct {
	Code   string
	Fields []string
}

// Price marshals as a number, or as the "-" sentinel when no valid quote
// exists. The sentinel is deliberately not a zero price.
type Price struct {
	Value float64
	Valid bool
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte(`"-"`), nil
	}
	return json.Marshal(p.Value)
}

// QuoteResult is the uniform per-instrument output record. Exactly one is
// produced per registry entry per resolution call.
type QuoteResult struct {
	InstrumentID  string     `json:"id"`
	Name          string     `json:"name"`
	Market        string     `json:"market"`
	Sector        string     `json:"sector"`
	SubSector     string     `json:"subSector"`
	Price         Price      `json:"currentPrice"`
	ChangePercent float64    `json:"changePercent"`
	ChangeAmount  float64    `json:"changeAmount"`
	Note          string     `json:"note,omitempty"`
	OK            bool       `json:"ok"`
	News          *news.Item `json:"news,omitempty"`
}

// SnapshotSource is the batched live-quote upstream for primary-routed
// instruments. A failed call returns an error; the resolver degrades it to
// an empty result set for the affected instruments.
type SnapshotSource interface {
	FetchLive(ctx context.Context, codes []string) (map[string]Snapshot, error)
}

// SeriesSource fetches daily bars for one primary-routed instrument,
// ascending by date, ending at or near asOf.
type SeriesSource interface {
	FetchSeries(ctx context.Context, inst registry.Instrument, asOf time.Time) ([]Bar, error)
}

// SecondarySource serves instruments without a primary routing key, for both
// live (short span) and historical (long span) bar fetches.
type SecondarySource interface {
	FetchBars(ctx context.Context, symbol, span string) ([]Bar, error)
}

// HeadlineSource is the news sidecar's read-only cache lookup.
type HeadlineSource interface {
	Headline(id string) (news.Item, bool)
}
