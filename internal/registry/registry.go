package registry

import (
	"fmt"
	"strings"
)

type Market string

const (
	MarketUS Market = "US"
	MarketCN Market = "CN"
	MarketHK Market = "HK"
	MarketTW Market = "TW"
)

// Class is the upstream routing class of an instrument. It is decided once
// at load time from the routing key, so nothing downstream has to re-inspect
// code prefixes per call.
type Class int

const (
	// ClassSecondary marks instruments without a primary routing key; they
	// are served entirely by the secondary-market adapter.
	ClassSecondary Class = iota
	ClassUS
	ClassHK
	ClassCN
)

func (c Class) String() string {
	switch c {
	case ClassUS:
		return "us"
	case ClassHK:
		return "hk"
	case ClassCN:
		return "cn"
	default:
		return "secondary"
	}
}

// Seed is one instrument entry as configured, before classification.
type Seed struct {
	ID        string
	Name      string
	Market    string
	Sector    string
	SubSector string
	SinaCode  string
	Ticker    string
	Query     string
}

type Instrument struct {
	ID        string
	Name      string
	Market    Market
	Sector    string
	SubSector string
	SinaCode  string
	Ticker    string
	Query     string
	Class     Class
}

// Registry is the immutable instrument list. Output ordering of every
// resolution call follows the order instruments were loaded in.
type Registry struct {
	instruments []Instrument
}

func Load(seeds []Seed) (*Registry, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("empty instrument list")
	}
	seen := make(map[string]bool, len(seeds))
	out := make([]Instrument, 0, len(seeds))
	for i, s := range seeds {
		if s.ID == "" {
			return nil, fmt.Errorf("instrument %d: empty id", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate instrument id: %s", s.ID)
		}
		seen[s.ID] = true
		m := Market(strings.ToUpper(strings.TrimSpace(s.Market)))
		switch m {
		case MarketUS, MarketCN, MarketHK, MarketTW:
		default:
			return nil, fmt.Errorf("instrument %s: unknown market %q", s.ID, s.Market)
		}
		if s.Ticker == "" {
			return nil, fmt.Errorf("instrument %s: empty ticker", s.ID)
		}
		out = append(out, Instrument{
			ID:        s.ID,
			Name:      s.Name,
			Market:    m,
			Sector:    s.Sector,
			SubSector: s.SubSector,
			SinaCode:  s.SinaCode,
			Ticker:    s.Ticker,
			Query:     s.Query,
			Class:     classify(s.SinaCode),
		})
	}
	return &Registry{instruments: out}, nil
}

// classify branches on routing key presence and prefix only, never on the
// market tag: an instrument of any market without a key routes secondary.
func classify(sinaCode string) Class {
	switch {
	case sinaCode == "":
		return ClassSecondary
	case strings.HasPrefix(sinaCode, "gb_"):
		return ClassUS
	case strings.HasPrefix(sinaCode, "rt_hk"):
		return ClassHK
	default:
		return ClassCN
	}
}

func (r *Registry) All() []Instrument {
	return r.instruments
}

func (r *Registry) Len() int {
	return len(r.instruments)
}

// PrimaryRouted returns instruments served by the batched snapshot source.
func (r *Registry) PrimaryRouted() []Instrument {
	out := make([]Instrument, 0, len(r.instruments))
	for _, inst := range r.instruments {
		if inst.Class != ClassSecondary {
			out = append(out, inst)
		}
	}
	return out
}

// SecondaryRouted returns instruments without a primary routing key.
func (r *Registry) SecondaryRouted() []Instrument {
	out := make([]Instrument, 0, 4)
	for _, inst := range r.instruments {
		if inst.Class == ClassSecondary {
			out = append(out, inst)
		}
	}
	return out
}
