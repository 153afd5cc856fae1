package market

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"stock-radar/internal/news"
	"stock-radar/internal/registry"
)

const (
	liveSpan       = "5d"
	historicalSpan = "3mo"
)

var pendingHeadline = news.Item{Title: "正在获取最新资讯...", Link: "#"}

// Resolver fans requests out to the source adapters and joins everything
// into one registry-ordered result set. Upstream failures degrade to
// per-instrument placeholders; a resolution call never fails as a whole.
type Resolver struct {
	reg           *registry.Registry
	snapshots     SnapshotSource
	series        SeriesSource
	secondary     SecondarySource
	headlines     HeadlineSource
	maxConcurrent int
}

func NewResolver(reg *registry.Registry, snapshots SnapshotSource, series SeriesSource, secondary SecondarySource, headlines HeadlineSource, maxConcurrent int) *Resolver {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Resolver{
		reg:           reg,
		snapshots:     snapshots,
		series:        series,
		secondary:     secondary,
		headlines:     headlines,
		maxConcurrent: maxConcurrent,
	}
}

// ResolveLive produces one live quote per registry instrument: one batched
// snapshot call for primary-routed instruments, one secondary pass for the
// rest, both in parallel, then a registry-ordered merge with cached
// headlines attached.
func (r *Resolver) ResolveLive(ctx context.Context) []QuoteResult {
	primary := r.reg.PrimaryRouted()
	secondary := r.reg.SecondaryRouted()

	var snapMap map[string]Snapshot
	secBars := make(map[string][]Bar, len(secondary))

	var g errgroup.Group
	if len(primary) > 0 {
		codes := make([]string, 0, len(primary))
		for _, inst := range primary {
			codes = append(codes, inst.SinaCode)
		}
		g.Go(func() error {
			m, err := r.snapshots.FetchLive(ctx, codes)
			if err != nil {
				log.Printf("snapshot batch failed: %v", err)
				return nil
			}
			snapMap = m
			return nil
		})
	}
	if len(secondary) > 0 {
		g.Go(func() error {
			for _, inst := range secondary {
				bars, err := r.secondary.FetchBars(ctx, inst.Ticker, liveSpan)
				if err != nil {
					log.Printf("secondary fetch failed (%s): %v", inst.ID, err)
					continue
				}
				secBars[inst.Ticker] = bars
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]QuoteResult, 0, r.reg.Len())
	for _, inst := range r.reg.All() {
		qr := r.liveResult(inst, snapMap, secBars)
		qr.News = r.headline(inst.ID)
		out = append(out, qr)
	}
	return out
}

func (r *Resolver) liveResult(inst registry.Instrument, snapMap map[string]Snapshot, secBars map[string][]Bar) QuoteResult {
	if inst.Class != registry.ClassSecondary {
		snap, ok := snapMap[inst.SinaCode]
		if !ok {
			return Unavailable(inst)
		}
		qr, ok := FromSnapshot(inst, snap)
		if !ok {
			return Unavailable(inst)
		}
		return qr
	}

	bars := secBars[inst.Ticker]
	if len(bars) == 0 {
		return Unavailable(inst)
	}
	al := Alignment{Selected: bars[len(bars)-1], Exact: true}
	if len(bars) > 1 {
		al.Previous = &bars[len(bars)-2]
	}
	return FromAlignment(inst, al, "")
}

// ResolveHistorical produces one quote per registry instrument as of the
// target date, fetching each instrument's series concurrently under a
// bounded fan-out. Headlines are not attached in this mode.
func (r *Resolver) ResolveHistorical(ctx context.Context, target time.Time) []QuoteResult {
	all := r.reg.All()
	targetDate := target.Format("2006-01-02")
	out := make([]QuoteResult, len(all))

	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)
	for i, inst := range all {
		i, inst := i, inst
		g.Go(func() error {
			// each worker owns exactly one slot; no lock needed.
			out[i] = r.historicalResult(ctx, inst, target, targetDate)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Resolver) historicalResult(ctx context.Context, inst registry.Instrument, target time.Time, targetDate string) QuoteResult {
	var bars []Bar
	var err error
	if inst.Class == registry.ClassSecondary {
		bars, err = r.secondary.FetchBars(ctx, inst.Ticker, historicalSpan)
	} else {
		bars, err = r.series.FetchSeries(ctx, inst, target)
	}
	if err != nil {
		log.Printf("series fetch failed (%s): %v", inst.ID, err)
		return Unavailable(inst)
	}
	al, ok := AlignBars(bars, targetDate)
	if !ok {
		return Unavailable(inst)
	}
	return FromAlignment(inst, al, targetDate)
}

func (r *Resolver) headline(id string) *news.Item {
	if r.headlines == nil {
		it := pendingHeadline
		return &it
	}
	if it, ok := r.headlines.Headline(id); ok {
		return &it
	}
	it := pendingHeadline
	return &it
}
