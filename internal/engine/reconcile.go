package engine

import "math"

// reconcileEpsilon is the discrepancy, in currency units, below which the
// matched PnL is left untouched.
const reconcileEpsilon = 0.01

// Baseline computes the broker-implied net PnL directly from the raw unsplit
// legs: sell turnover minus buy turnover minus all charges. It is only
// meaningful while no position remains open.
func Baseline(legs []TradeLeg) float64 {
	var buy, sell, charges float64
	for _, leg := range legs {
		if !leg.Valid() {
			continue
		}
		notional := leg.Price * float64(leg.Quantity)
		if leg.Direction == DirectionBuy {
			buy += notional
		} else {
			sell += notional
		}
		charges += leg.Charges
	}
	return sell - buy - charges
}

// Reconcile nudges the matched round trips' PnL so their sum equals the
// broker-implied baseline, distributing the discrepancy proportionally to
// each trade's PnL magnitude. The last round trip absorbs whatever remainder
// rounding leaves so the total is exact to the cent.
//
// Reconciliation is skipped entirely while any position remains open: the
// baseline includes the open legs' turnover and is unreliable until they are
// closed. This must run before classification, which depends on final PnL.
func Reconcile(res *MatchResult, raw []TradeLeg) {
	if len(res.RoundTrips) == 0 || len(res.Open) > 0 {
		return
	}

	var matched float64
	for _, rt := range res.RoundTrips {
		matched += rt.PnL
	}

	baseline := Baseline(raw)
	delta := baseline - matched
	if math.Abs(delta) < reconcileEpsilon {
		return
	}

	var totalAbs float64
	for _, rt := range res.RoundTrips {
		totalAbs += math.Abs(rt.PnL)
	}

	n := len(res.RoundTrips)
	var distributed float64
	for i, rt := range res.RoundTrips {
		if i == n-1 {
			rt.PnL = round2(baseline - distributed)
			break
		}
		weight := 1 / float64(n)
		if totalAbs > 0 {
			weight = math.Abs(rt.PnL) / totalAbs
		}
		rt.PnL = round2(rt.PnL + delta*weight)
		distributed += rt.PnL
	}
}
