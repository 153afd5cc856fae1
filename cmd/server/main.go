package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"stock-radar/internal/api"
	"stock-radar/internal/config"
	"stock-radar/internal/market"
	"stock-radar/internal/news"
	"stock-radar/internal/registry"
	"stock-radar/internal/store"

	"github.com/cloudwego/hertz/pkg/app/server"
)

func main() {
	cfg, err := config.Load("configs/app.yaml")
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	seeds := make([]registry.Seed, 0, len(cfg.Instruments))
	for _, it := range cfg.Instruments {
		seeds = append(seeds, registry.Seed{
			ID:        it.ID,
			Name:      it.Name,
			Market:    it.Market,
			Sector:    it.Sector,
			SubSector: it.SubSector,
			SinaCode:  it.SinaCode,
			Ticker:    it.Ticker,
			Query:     it.Query,
		})
	}
	reg, err := registry.Load(seeds)
	if err != nil {
		log.Fatalf("registry error: %v", err)
	}

	st, err := store.Open(cfg.Store.Sqlite.Path)
	if err != nil {
		log.Fatalf("store error: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("store close error: %v", err)
		}
	}()

	cache := news.NewCache()
	if recs, err := st.LoadHeadlines(); err != nil {
		log.Printf("headline warmup error: %v", err)
	} else {
		for _, rec := range recs {
			cache.Put(rec.InstrumentID, news.Item{Title: rec.Title, Link: rec.Link, Date: rec.PubDate})
		}
		log.Printf("headline cache warmed: %d entries", len(recs))
	}

	pollCtx, cancelPoll := context.WithCancel(context.Background())
	defer cancelPoll()
	if cfg.News.Enabled {
		fetcher := news.NewFetcher("", time.Duration(cfg.News.TimeoutMs)*time.Millisecond)
		targets := make([]news.Target, 0, reg.Len())
		for _, inst := range reg.All() {
			targets = append(targets, news.Target{ID: inst.ID, Query: inst.Query})
		}
		poller := news.NewPoller(
			fetcher, cache, st, targets,
			time.Duration(cfg.News.StepDelayMs)*time.Millisecond,
			time.Duration(cfg.News.CycleSleepSec)*time.Second,
		)
		go poller.Run(pollCtx)
	}

	timeout := time.Duration(cfg.Upstream.TimeoutMs) * time.Millisecond
	resolver := market.NewResolver(
		reg,
		market.NewSinaClient(cfg.Upstream.SinaURL, timeout),
		market.NewKlineClient(cfg.Upstream.KlineCNURL, cfg.Upstream.KlineUSURL, cfg.Upstream.KlineHKURL, timeout, cfg.Upstream.LookbackDays),
		market.NewYahooClient(cfg.Upstream.YahooURL, timeout),
		cache,
		cfg.Resolver.MaxConcurrent,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	h := server.Default(server.WithHostPorts(addr))
	h.OnShutdown = append(h.OnShutdown, func(_ context.Context) {
		cancelPoll()
	})

	api.RegisterRoutes(h, resolver, reg)

	log.Printf("server starting on %s (log.level=%s): %d instruments (%d primary, %d secondary)",
		addr, cfg.Log.Level, reg.Len(), len(reg.PrimaryRouted()), len(reg.SecondaryRouted()))
	if err := h.Run(); err != nil {
		log.Fatalf("server run error: %v", err)
	}
}
