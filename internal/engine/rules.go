package engine

import "math"

// Demon tags: behavioral mistakes.
const (
	DemonPoorRiskReward  = "POOR_RISK_REWARD"
	DemonHeldLossTooLong = "HELD_LOSS_TOO_LONG"
	DemonPrematureExit   = "PREMATURE_EXIT"
	DemonMissedStopLoss  = "MISSED_STOP_LOSS"
	DemonChasedEntry     = "CHASED_ENTRY"
	DemonWrongSize       = "WRONG_POSITION_SIZE"
	DemonOvertrading     = "OVERTRADING"
	DemonRevengeTrading  = "REVENGE_TRADING"
)

// Good-practice tags: the positive mirror of several demon checks.
const (
	GoodRiskReward    = "GOOD_RISK_REWARD"
	GoodProperEntry   = "PROPER_ENTRY"
	GoodProperExit    = "PROPER_EXIT"
	GoodStopRespected = "STOP_RESPECTED"
	GoodHeldForTarget = "HELD_FOR_TARGET"
	GoodDisciplined   = "DISCIPLINED"
)

// Fixed classifier thresholds. The vocabulary is closed; changing behavior
// means editing this table, not the driver.
const (
	// DefaultCapitalBase is the nominal capital used for position-size checks
	// when the caller does not supply one.
	DefaultCapitalBase = 100000.0

	minRiskRewardRatio    = 1.5  // winners below this gain/risk ratio are poor R:R
	goodRiskRewardRatio   = 2.0  // winners at or above this ratio earn the good tag
	heldLossMinutes       = 45.0 // losers held longer than this were held too long
	prematureExitMinutes  = 5.0  // winners closed faster than this are premature
	prematureWinFraction  = 0.5  // ...when the gain is also below this share of the avg win
	missedStopTolerance   = 1.5  // losses beyond avgLoss times this missed their stop
	stopSlippageTolerance = 1.1  // losses within planned risk times this respected the stop
	maxRiskCapitalPct     = 0.02 // planned risk above this share of capital is oversized
	oversizeLossMultiple  = 3.0  // losses beyond avgLoss times this are oversized
	entryCutoffHour       = 9    // entries before 09:20 chased the open
	entryCutoffMinute     = 20
	dailyTradeCap         = 5    // trades past this ordinal in one day are overtrading
	revengeWindowMinutes  = 15.0 // entries this soon after a same-direction loss are revenge
)

// ruleContext carries the batch-wide aggregates a rule may consult in addition
// to the trade's own fields. AvgWin and AvgLoss are magnitudes computed once
// over the whole batch, not updated trade-by-trade.
type ruleContext struct {
	AvgWin      float64
	AvgLoss     float64
	CapitalBase float64
	// DayOrdinal is the 1-based position of the trade within its exit day.
	DayOrdinal int
	// PrevLoss describes the previous losing trade seen in exit order, if any.
	PrevLoss *prevLoss
}

type prevLoss struct {
	exit      TradeLeg
	direction Direction
}

// rule maps a predicate over (trade, batch aggregates) to a single tag.
// Rules are evaluated independently and in order; more than one may fire.
type rule struct {
	Tag  string
	When func(rt *RoundTrip, ctx *ruleContext) bool
}

var demonRules = []rule{
	{DemonPoorRiskReward, func(rt *RoundTrip, ctx *ruleContext) bool {
		risk, ok := rt.StopRisk()
		return ok && risk > 0 && rt.PnL > 0 && rt.PnL/risk < minRiskRewardRatio
	}},
	{DemonHeldLossTooLong, func(rt *RoundTrip, ctx *ruleContext) bool {
		return rt.PnL < 0 && rt.HoldingMinutes > heldLossMinutes
	}},
	{DemonPrematureExit, func(rt *RoundTrip, ctx *ruleContext) bool {
		return rt.PnL > 0 && ctx.AvgWin > 0 &&
			rt.HoldingMinutes < prematureExitMinutes &&
			rt.PnL < prematureWinFraction*ctx.AvgWin
	}},
	{DemonMissedStopLoss, func(rt *RoundTrip, ctx *ruleContext) bool {
		return rt.PnL < 0 && ctx.AvgLoss > 0 && -rt.PnL > missedStopTolerance*ctx.AvgLoss
	}},
	{DemonChasedEntry, func(rt *RoundTrip, ctx *ruleContext) bool {
		return beforeCutoff(rt.Entry)
	}},
	{DemonWrongSize, func(rt *RoundTrip, ctx *ruleContext) bool {
		if risk, ok := rt.StopRisk(); ok && risk > maxRiskCapitalPct*ctx.CapitalBase {
			return true
		}
		return rt.PnL < 0 && ctx.AvgLoss > 0 && -rt.PnL > oversizeLossMultiple*ctx.AvgLoss
	}},
	{DemonOvertrading, func(rt *RoundTrip, ctx *ruleContext) bool {
		return ctx.DayOrdinal > dailyTradeCap
	}},
	{DemonRevengeTrading, func(rt *RoundTrip, ctx *ruleContext) bool {
		if ctx.PrevLoss == nil || ctx.PrevLoss.direction != rt.Entry.Direction {
			return false
		}
		since := rt.Entry.ExecutedAt.Sub(ctx.PrevLoss.exit.ExecutedAt).Minutes()
		return since >= 0 && since <= revengeWindowMinutes
	}},
}

var goodRules = []rule{
	{GoodRiskReward, func(rt *RoundTrip, ctx *ruleContext) bool {
		risk, ok := rt.StopRisk()
		return ok && risk > 0 && rt.PnL > 0 && rt.PnL/risk >= goodRiskRewardRatio
	}},
	{GoodProperEntry, func(rt *RoundTrip, ctx *ruleContext) bool {
		return !beforeCutoff(rt.Entry)
	}},
	{GoodProperExit, func(rt *RoundTrip, ctx *ruleContext) bool {
		return rt.PnL > 0 && rt.HoldingMinutes >= prematureExitMinutes
	}},
	{GoodStopRespected, func(rt *RoundTrip, ctx *ruleContext) bool {
		risk, ok := rt.StopRisk()
		return ok && rt.PnL < 0 && -rt.PnL <= risk*stopSlippageTolerance
	}},
	{GoodHeldForTarget, func(rt *RoundTrip, ctx *ruleContext) bool {
		return rt.PnL > 0 && ctx.AvgWin > 0 && rt.PnL >= ctx.AvgWin
	}},
}

func beforeCutoff(entry TradeLeg) bool {
	h, m, _ := entry.ExecutedAt.Clock()
	if h == 0 && m == 0 {
		// Start-of-day timestamps mean the source carried no time component;
		// entry timing cannot be judged.
		return false
	}
	return h < entryCutoffHour || (h == entryCutoffHour && m < entryCutoffMinute)
}

// remediations maps each demon tag to one human-readable fix. Top-issue
// reporting reads from this table only.
var remediations = map[string]string{
	DemonPoorRiskReward:  "Plan trades with at least a 1:1.5 risk-to-reward before entering.",
	DemonHeldLossTooLong: "Cut losing trades quickly instead of waiting for them to recover.",
	DemonPrematureExit:   "Let winners run to your target instead of booking tiny profits.",
	DemonMissedStopLoss:  "Place a hard stop loss with every entry and never widen it.",
	DemonChasedEntry:     "Wait for the opening range to settle before taking a position.",
	DemonWrongSize:       "Size positions so a single stop-out risks a fixed small fraction of capital.",
	DemonOvertrading:     "Set a daily trade limit and stop trading once it is reached.",
	DemonRevengeTrading:  "After a loss, step away for a cooling-off period before re-entering.",
}

// Remediation returns the fix sentence for a demon tag.
func Remediation(tag string) (string, bool) {
	msg, ok := remediations[tag]
	return msg, ok
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
