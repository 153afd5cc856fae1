package news

import (
	"context"
	"log"
	"time"
)

// Target is one instrument the poller keeps a headline for.
type Target struct {
	ID    string
	Query string
}

// Persister saves headlines so the cache is warm after a restart.
type Persister interface {
	SaveHeadline(id, title, link, pubDate string) error
}

// Poller refreshes the headline cache in the background. One fetch per
// instrument with a fixed politeness delay between fetches, then a long
// sleep between full cycles.
type Poller struct {
	fetcher   *Fetcher
	cache     *Cache
	persister Persister
	targets   []Target
	stepDelay time.Duration
	cycleGap  time.Duration
}

func NewPoller(fetcher *Fetcher, cache *Cache, persister Persister, targets []Target, stepDelay, cycleGap time.Duration) *Poller {
	if stepDelay <= 0 {
		stepDelay = 2 * time.Second
	}
	if cycleGap <= 0 {
		cycleGap = 15 * time.Minute
	}
	return &Poller{
		fetcher:   fetcher,
		cache:     cache,
		persister: persister,
		targets:   targets,
		stepDelay: stepDelay,
		cycleGap:  cycleGap,
	}
}

// Run loops until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("news poller started: %d instruments", len(p.targets))
	for {
		for _, t := range p.targets {
			if t.Query == "" {
				continue
			}
			it, err := p.fetcher.FetchTop(ctx, t.Query)
			if err != nil {
				log.Printf("news fetch error (%s): %v", t.ID, err)
			} else {
				p.cache.Put(t.ID, it)
				if p.persister != nil {
					if err := p.persister.SaveHeadline(t.ID, it.Title, it.Link, it.Date); err != nil {
						log.Printf("news persist error (%s): %v", t.ID, err)
					}
				}
			}
			if !sleep(ctx, p.stepDelay) {
				log.Printf("news poller stopped")
				return
			}
		}
		log.Printf("news cycle done, cached=%d, sleeping %s", p.cache.Len(), p.cycleGap)
		if !sleep(ctx, p.cycleGap) {
			log.Printf("news poller stopped")
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
