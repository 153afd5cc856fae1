package market

import (
	"fmt"
	"math"
	"strconv"

	"stock-radar/internal/registry"
)

// snapshotLayout describes where a class's quote fields sit inside a raw
// snapshot line and how its change figures are obtained. pctIdx/amtIdx are
// -1 when the upstream does not supply them and they must be computed from
// the previous close.
type snapshotLayout struct {
	minFields int
	priceIdx  int
	pctIdx    int
	amtIdx    int
	prevIdx   int
}

var snapshotLayouts = map[registry.Class]snapshotLayout{
	registry.ClassUS: {minFields: 5, priceIdx: 1, pctIdx: 2, amtIdx: 4, prevIdx: -1},
	registry.ClassHK: {minFields: 9, priceIdx: 6, pctIdx: 8, amtIdx: 7, prevIdx: -1},
	registry.ClassCN: {minFields: 5, priceIdx: 3, pctIdx: -1, amtIdx: -1, prevIdx: 2},
}

// FromSnapshot converts one raw snapshot line into a QuoteResult using the
// instrument's class layout. The second return is false when the line does
// not carry a usable price.
func FromSnapshot(inst registry.Instrument, snap Snapshot) (QuoteResult, bool) {
	layout, ok := snapshotLayouts[inst.Class]
	if !ok || len(snap.Fields) < layout.minFields {
		return QuoteResult{}, false
	}
	price := fieldFloat(snap.Fields, layout.priceIdx)
	if price <= 0 {
		return QuoteResult{}, false
	}

	var pct, amt float64
	if layout.pctIdx >= 0 {
		pct = fieldFloat(snap.Fields, layout.pctIdx)
		amt = fieldFloat(snap.Fields, layout.amtIdx)
	} else {
		prev := fieldFloat(snap.Fields, layout.prevIdx)
		amt = price - prev
		if prev > 0 {
			pct = amt / prev * 100
		} else {
			pct = 0
			amt = 0
		}
	}

	qr := baseResult(inst)
	qr.Price = Price{Value: Round2(price), Valid: true}
	qr.ChangePercent = Round2(pct)
	qr.ChangeAmount = Round2(amt)
	qr.OK = true
	return qr, true
}

// FromAlignment converts an aligned bar pair into a QuoteResult. The change
// baseline is the previous bar's close, else the selected bar's own open,
// else no change at all. A non-exact alignment is annotated with the
// effective trading date actually used.
func FromAlignment(inst registry.Instrument, al Alignment, target string) QuoteResult {
	price := al.Selected.Close

	baseline := 0.0
	if al.Previous != nil {
		baseline = al.Previous.Close
	} else if al.Selected.Open > 0 {
		baseline = al.Selected.Open
	}

	var pct, amt float64
	if baseline > 0 {
		amt = price - baseline
		pct = amt / baseline * 100
	}

	qr := baseResult(inst)
	qr.Price = Price{Value: Round2(price), Valid: true}
	qr.ChangePercent = Round2(pct)
	qr.ChangeAmount = Round2(amt)
	qr.OK = true
	if !al.Exact && target != "" {
		qr.Note = fmt.Sprintf("%s 休市，使用 %s 收盘价", target, al.Selected.Date)
	}
	return qr
}

// Unavailable is the error-tagged placeholder: sentinel price, zero change.
func Unavailable(inst registry.Instrument) QuoteResult {
	return baseResult(inst)
}

func baseResult(inst registry.Instrument) QuoteResult {
	return QuoteResult{
		InstrumentID: inst.ID,
		Name:         inst.Name,
		Market:       string(inst.Market),
		Sector:       inst.Sector,
		SubSector:    inst.SubSector,
		Price:        Price{Valid: false},
	}
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func fieldFloat(fields []string, idx int) float64 {
	if idx < 0 || idx >= len(fields) {
		return 0
	}
	v, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0
	}
	return v
}
