package engine

import (
	"encoding/json"
	"math"
	"sort"
)

// Composite score blend: a constant baseline plus weighted trade and day win
// rates, clamped into [0,100].
const (
	scoreBaseline       = 25.0
	scoreTradeWinWeight = 0.45
	scoreDayWinWeight   = 0.30
	maxTopIssues        = 3
)

// TagBreakdown is the per-tag count and monetary total across a batch.
type TagBreakdown struct {
	Tag      string  `json:"tag"`
	Count    int     `json:"count"`
	TotalPnL float64 `json:"total_pnl"`
}

// ScripSummaryRow is the per-symbol rollup. Charges are back-solved as
// (gross sell - gross buy) - netRealized so that summing every row's
// NetRealized reproduces the reconciled header PnL exactly.
type ScripSummaryRow struct {
	Symbol        string  `json:"symbol"`
	TotalQuantity int64   `json:"total_quantity"`
	AvgBuyPrice   float64 `json:"avg_buy_price"`
	AvgSellPrice  float64 `json:"avg_sell_price"`
	Charges       float64 `json:"charges"`
	NetRealized   float64 `json:"net_realized"`
}

// Stats is the read-only projection computed for one upload. It is returned
// to the caller and cached, never persisted; only day snapshots survive.
type Stats struct {
	NetPnL          float64 `json:"net_pnl"`
	GrossProfit     float64 `json:"gross_profit"`
	GrossLoss       float64 `json:"gross_loss"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	TradeWinPercent float64 `json:"trade_win_percent"`
	DayWinPercent   float64 `json:"day_win_percent"`
	// ProfitFactor is +Inf when profits exist with zero gross loss; JSON
	// serialization renders that as the string "Infinity".
	ProfitFactor    float64 `json:"-"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	Score           float64 `json:"score"`
	EarlyEntryCount int     `json:"early_entry_count"`

	RoundTrips   []*RoundTrip      `json:"round_trips"`
	TradeDates   []string          `json:"trade_dates"`
	Demons       []TagBreakdown    `json:"demons"`
	Goods        []TagBreakdown    `json:"goods"`
	TopIssues    []string          `json:"top_issues"`
	ScripSummary []ScripSummaryRow `json:"scrip_summary"`
}

// MarshalJSON renders ProfitFactor explicitly so the non-finite case survives
// serialization; callers must special-case the "Infinity" string.
func (s *Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	out := struct {
		*alias
		ProfitFactor interface{} `json:"profit_factor"`
	}{alias: (*alias)(s)}
	if math.IsInf(s.ProfitFactor, 1) {
		out.ProfitFactor = "Infinity"
	} else {
		out.ProfitFactor = s.ProfitFactor
	}
	return json.Marshal(out)
}

// Aggregate reduces classified round trips into a Stats projection. It is a
// pure computation: no I/O, no mutation of its input.
func Aggregate(roundTrips []*RoundTrip) *Stats {
	stats := &Stats{RoundTrips: roundTrips}

	dayNet := make(map[string]float64)
	dayOrder := make([]string, 0)
	demonAgg := newTagAggregator()
	goodAgg := newTagAggregator()

	for _, rt := range roundTrips {
		stats.NetPnL += rt.PnL
		if rt.PnL > 0 {
			stats.GrossProfit += rt.PnL
			stats.Wins++
		} else if rt.PnL < 0 {
			stats.GrossLoss += -rt.PnL
			stats.Losses++
		}

		day := rt.ExitDate()
		if _, seen := dayNet[day]; !seen {
			dayOrder = append(dayOrder, day)
		}
		dayNet[day] += rt.PnL

		for _, tag := range rt.DemonTags {
			demonAgg.add(tag, rt.PnL)
		}
		for _, tag := range rt.GoodTags {
			goodAgg.add(tag, rt.PnL)
		}
		if rt.HasDemon(DemonChasedEntry) {
			stats.EarlyEntryCount++
		}
	}

	if n := len(roundTrips); n > 0 {
		stats.TradeWinPercent = float64(stats.Wins) / float64(n) * 100
	}
	winDays := 0
	for _, net := range dayNet {
		if net > 0 {
			winDays++
		}
	}
	if len(dayNet) > 0 {
		stats.DayWinPercent = float64(winDays) / float64(len(dayNet)) * 100
	}
	if stats.Wins > 0 {
		stats.AvgWin = stats.GrossProfit / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLoss = stats.GrossLoss / float64(stats.Losses)
	}

	stats.ProfitFactor = ProfitFactor(stats.GrossProfit, stats.GrossLoss)
	stats.Score = clamp(
		scoreBaseline+
			scoreTradeWinWeight*stats.TradeWinPercent+
			scoreDayWinWeight*stats.DayWinPercent,
		0, 100)

	sort.Strings(dayOrder)
	stats.TradeDates = dayOrder
	stats.Demons = demonAgg.breakdown()
	stats.Goods = goodAgg.breakdown()
	stats.TopIssues = topIssues(stats.Demons)
	stats.ScripSummary = scripSummary(roundTrips, stats.NetPnL)

	return stats
}

// ProfitFactor is gross profit over gross loss: 0 with nothing on either
// side, +Inf when profits exist against zero losses.
func ProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss > 0 {
		return grossProfit / grossLoss
	}
	if grossProfit > 0 {
		return math.Inf(1)
	}
	return 0
}

// tagAggregator keeps per-tag counts and PnL totals in first-seen order.
type tagAggregator struct {
	order  []string
	counts map[string]*TagBreakdown
}

func newTagAggregator() *tagAggregator {
	return &tagAggregator{counts: make(map[string]*TagBreakdown)}
}

func (a *tagAggregator) add(tag string, pnl float64) {
	entry, ok := a.counts[tag]
	if !ok {
		entry = &TagBreakdown{Tag: tag}
		a.counts[tag] = entry
		a.order = append(a.order, tag)
	}
	entry.Count++
	entry.TotalPnL += pnl
}

func (a *tagAggregator) breakdown() []TagBreakdown {
	out := make([]TagBreakdown, 0, len(a.order))
	for _, tag := range a.order {
		out = append(out, *a.counts[tag])
	}
	return out
}

// topIssues maps the highest-count demon tags through the remediation table,
// deduplicated and capped. Ties keep first-seen order.
func topIssues(demons []TagBreakdown) []string {
	ranked := make([]TagBreakdown, len(demons))
	copy(ranked, demons)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	seen := make(map[string]bool)
	issues := make([]string, 0, maxTopIssues)
	for _, d := range ranked {
		if len(issues) == maxTopIssues {
			break
		}
		msg, ok := Remediation(d.Tag)
		if !ok || seen[msg] {
			continue
		}
		seen[msg] = true
		issues = append(issues, msg)
	}
	return issues
}

// scripSummary builds the direction-aware per-symbol rollup from the closed
// round trips, back-solving charges against the reconciled net.
func scripSummary(roundTrips []*RoundTrip, netPnL float64) []ScripSummaryRow {
	type acc struct {
		qty       int64
		buyQty    int64
		sellQty   int64
		grossBuy  float64
		grossSell float64
		net       float64
	}
	accs := make(map[string]*acc)
	order := make([]string, 0)

	for _, rt := range roundTrips {
		a, ok := accs[rt.Symbol]
		if !ok {
			a = &acc{}
			accs[rt.Symbol] = a
			order = append(order, rt.Symbol)
		}
		a.qty += rt.Quantity
		a.net += rt.PnL

		for _, leg := range []TradeLeg{rt.Entry, rt.Exit} {
			notional := leg.Price * float64(leg.Quantity)
			if leg.Direction == DirectionBuy {
				a.grossBuy += notional
				a.buyQty += leg.Quantity
			} else {
				a.grossSell += notional
				a.sellQty += leg.Quantity
			}
		}
	}

	rows := make([]ScripSummaryRow, 0, len(order))
	for _, symbol := range order {
		a := accs[symbol]
		row := ScripSummaryRow{
			Symbol:        symbol,
			TotalQuantity: a.qty,
			Charges:       (a.grossSell - a.grossBuy) - a.net,
			NetRealized:   a.net,
		}
		if a.buyQty > 0 {
			row.AvgBuyPrice = a.grossBuy / float64(a.buyQty)
		}
		if a.sellQty > 0 {
			row.AvgSellPrice = a.grossSell / float64(a.sellQty)
		}
		rows = append(rows, row)
	}
	return rows
}
