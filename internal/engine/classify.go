package engine

import "sort"

// Classify applies the fixed demon and good-practice rule tables to each round
// trip, in chronological order of exit, and sets the bad/good flags. Tags are
// appended exactly once per trade; calling Classify on already-classified
// trades resets their tags first.
//
// The batch-wide average win and loss are computed once up front over the
// whole batch. The classifier also tracks the previous losing trade (for
// revenge detection) and a per-exit-day ordinal (for overtrading).
func Classify(roundTrips []*RoundTrip, capitalBase float64) {
	if len(roundTrips) == 0 {
		return
	}
	if capitalBase <= 0 {
		capitalBase = DefaultCapitalBase
	}

	ordered := make([]*RoundTrip, len(roundTrips))
	copy(ordered, roundTrips)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Exit.ExecutedAt.Before(ordered[j].Exit.ExecutedAt)
	})

	avgWin, avgLoss := batchAverages(ordered)

	ctx := &ruleContext{
		AvgWin:      avgWin,
		AvgLoss:     avgLoss,
		CapitalBase: capitalBase,
	}

	dayOrdinals := make(map[string]int)

	for _, rt := range ordered {
		day := rt.ExitDate()
		dayOrdinals[day]++
		ctx.DayOrdinal = dayOrdinals[day]

		rt.DemonTags = nil
		rt.GoodTags = nil

		for _, r := range demonRules {
			if r.When(rt, ctx) {
				rt.DemonTags = append(rt.DemonTags, r.Tag)
			}
		}
		for _, r := range goodRules {
			if r.When(rt, ctx) {
				rt.GoodTags = append(rt.GoodTags, r.Tag)
			}
		}
		if len(rt.GoodTags) >= 2 && len(rt.DemonTags) == 0 {
			rt.GoodTags = append(rt.GoodTags, GoodDisciplined)
		}

		rt.IsBadTrade = len(rt.DemonTags) >= 1 && rt.PnL < 0
		rt.IsGoodTrade = len(rt.GoodTags) >= 2 && len(rt.DemonTags) == 0 &&
			(rt.PnL > 0 || rt.HasGood(GoodStopRespected))

		if rt.PnL < 0 {
			ctx.PrevLoss = &prevLoss{exit: rt.Exit, direction: rt.Entry.Direction}
		}
	}
}

// batchAverages returns the average winning PnL and the average loss
// magnitude over the whole batch. Either is zero when no such trades exist.
func batchAverages(roundTrips []*RoundTrip) (avgWin, avgLoss float64) {
	var winSum, lossSum float64
	var wins, losses int
	for _, rt := range roundTrips {
		if rt.PnL > 0 {
			winSum += rt.PnL
			wins++
		} else if rt.PnL < 0 {
			lossSum += -rt.PnL
			losses++
		}
	}
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	if losses > 0 {
		avgLoss = lossSum / float64(losses)
	}
	return avgWin, avgLoss
}
