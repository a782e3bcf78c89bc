package engine

import (
	"sort"
)

// MatchResult holds the outcome of FIFO round-trip matching.
type MatchResult struct {
	RoundTrips []*RoundTrip
	// Open holds the still-open position slices left after matching, one per
	// unconsumed lot, with charges prorated to the remaining quantity.
	Open []TradeLeg
}

// OpenQuantity returns the total unmatched quantity across all symbols.
func (m *MatchResult) OpenQuantity() int64 {
	var total int64
	for _, leg := range m.Open {
		total += leg.Quantity
	}
	return total
}

// openLot is an entry in a symbol's FIFO queue: the original leg plus how much
// of it has not yet been offset. Proration always runs against the original
// leg's charges and full quantity, so consuming a lot in several slices
// conserves its total charges.
type openLot struct {
	leg       TradeLeg
	remaining int64
}

// Match pairs opposing-direction legs per symbol using FIFO and returns the
// closed round trips in exit order plus any leftover open position.
//
// Legs are processed globally by (date, time) ascending; same-timestamp legs
// keep their input order. Invalid legs are dropped before matching. Quantity
// is conserved: per symbol, matched quantity plus open quantity equals the
// summed input quantity of usable legs.
func Match(legs []TradeLeg) *MatchResult {
	ordered := make([]TradeLeg, 0, len(legs))
	for _, leg := range legs {
		if !leg.Valid() {
			continue
		}
		if leg.FullQuantity <= 0 {
			leg.FullQuantity = leg.Quantity
		}
		ordered = append(ordered, leg)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExecutedAt.Before(ordered[j].ExecutedAt)
	})

	result := &MatchResult{}
	queues := make(map[string][]openLot)
	symbols := make([]string, 0)

	for _, leg := range ordered {
		queue := queues[leg.Symbol]
		if _, seen := queues[leg.Symbol]; !seen {
			symbols = append(symbols, leg.Symbol)
		}

		if len(queue) == 0 || queue[0].leg.Direction == leg.Direction {
			queues[leg.Symbol] = append(queue, openLot{leg: leg, remaining: leg.Quantity})
			continue
		}

		// Opposite direction: close against the queue head-first.
		remaining := leg.Quantity
		for remaining > 0 && len(queue) > 0 {
			head := &queue[0]
			slice := remaining
			if head.remaining < slice {
				slice = head.remaining
			}

			result.RoundTrips = append(result.RoundTrips, newRoundTrip(head.leg, leg, slice))

			head.remaining -= slice
			remaining -= slice
			if head.remaining == 0 {
				queue = queue[1:]
			}
		}
		if remaining > 0 {
			// Unconsumed quantity starts a new position in the leg's own direction.
			queue = append(queue, openLot{leg: leg, remaining: remaining})
		}
		queues[leg.Symbol] = queue
	}

	for _, symbol := range symbols {
		for _, lot := range queues[symbol] {
			result.Open = append(result.Open, sliceLeg(lot.leg, lot.remaining))
		}
	}

	return result
}

// newRoundTrip closes a slice of quantity qty between an open entry leg and an
// incoming exit leg. Each side's charges are prorated by qty over that leg's
// original full quantity, and the gross PnL is signed by which side was the
// original buy.
func newRoundTrip(entry, exit TradeLeg, qty int64) *RoundTrip {
	entrySlice := sliceLeg(entry, qty)
	exitSlice := sliceLeg(exit, qty)

	gross := (exit.Price - entry.Price) * float64(qty)
	if entry.Direction == DirectionSell {
		gross = -gross
	}
	pnl := gross - entrySlice.Charges - exitSlice.Charges

	return &RoundTrip{
		Symbol:         entry.Symbol,
		Entry:          entrySlice,
		Exit:           exitSlice,
		Quantity:       qty,
		PnL:            pnl,
		HoldingMinutes: exit.ExecutedAt.Sub(entry.ExecutedAt).Minutes(),
	}
}

// sliceLeg derives a leg of quantity qty from the original, carrying the
// proportional share of the original charges. FullQuantity is preserved so
// further slicing keeps prorating against the original lot.
func sliceLeg(orig TradeLeg, qty int64) TradeLeg {
	leg := orig
	leg.Quantity = qty
	leg.Charges = orig.Charges * float64(qty) / float64(orig.FullQuantity)
	return leg
}
