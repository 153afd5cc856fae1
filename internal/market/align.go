package market

// Alignment is the outcome of matching a target calendar date against a
// daily-bar sequence: the effective trading-day bar, its predecessor in the
// sequence, and whether the target itself was a trading day.
type Alignment struct {
	Selected Bar
	Previous *Bar
	Exact    bool
}

// AlignBars selects the last bar dated at or before target from an
// ascending sequence. Gaps between bars (weekends, holidays) are normal;
// the scan stops at the first bar past the target. The second return is
// false when no bar falls on or before the target.
//
// Dates are YYYY-MM-DD strings, so ordering is plain string comparison.
func AlignBars(bars []Bar, target string) (Alignment, bool) {
	var selected, previous *Bar
	for i := range bars {
		if bars[i].Date > target {
			break
		}
		if selected != nil {
			previous = selected
		}
		selected = &bars[i]
	}
	if selected == nil {
		return Alignment{}, false
	}
	return Alignment{
		Selected: *selected,
		Previous: previous,
		Exact:    selected.Date == target,
	}, true
}
