package engine

import "sort"

// DaySnapshot is the computed aggregate for one trading day, before
// persistence. Round trips are grouped by exit date: a position opened one
// day and closed the next is attributed entirely to the exit day.
type DaySnapshot struct {
	TradingDate   string  `json:"trading_date"`
	TradeCount    int     `json:"trade_count"`
	NetPnL        float64 `json:"net_pnl"`
	GrossProfit   float64 `json:"gross_profit"`
	GrossLoss     float64 `json:"gross_loss"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	BestTradePnL  float64 `json:"best_trade_pnl"`
	WorstTradePnL float64 `json:"worst_trade_pnl"`
	SymbolCount   int     `json:"symbol_count"`
	LongCount     int     `json:"long_count"`
	ShortCount    int     `json:"short_count"`
}

// FreezeDays groups round trips by exit date and reduces each group to one
// DaySnapshot, returned in date order.
func FreezeDays(roundTrips []*RoundTrip) []DaySnapshot {
	byDay := make(map[string][]*RoundTrip)
	days := make([]string, 0)
	for _, rt := range roundTrips {
		day := rt.ExitDate()
		if _, seen := byDay[day]; !seen {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], rt)
	}
	sort.Strings(days)

	snapshots := make([]DaySnapshot, 0, len(days))
	for _, day := range days {
		snapshots = append(snapshots, freezeDay(day, byDay[day]))
	}
	return snapshots
}

func freezeDay(day string, roundTrips []*RoundTrip) DaySnapshot {
	snap := DaySnapshot{
		TradingDate: day,
		TradeCount:  len(roundTrips),
	}

	symbols := make(map[string]bool)
	for i, rt := range roundTrips {
		snap.NetPnL += rt.PnL
		if rt.PnL > 0 {
			snap.GrossProfit += rt.PnL
			snap.Wins++
		} else if rt.PnL < 0 {
			snap.GrossLoss += -rt.PnL
			snap.Losses++
		}
		if i == 0 || rt.PnL > snap.BestTradePnL {
			snap.BestTradePnL = rt.PnL
		}
		if i == 0 || rt.PnL < snap.WorstTradePnL {
			snap.WorstTradePnL = rt.PnL
		}
		symbols[rt.Symbol] = true
		if rt.IsLong() {
			snap.LongCount++
		} else {
			snap.ShortCount++
		}
	}

	snap.SymbolCount = len(symbols)
	if snap.TradeCount > 0 {
		snap.WinRate = float64(snap.Wins) / float64(snap.TradeCount) * 100
	}
	snap.ProfitFactor = ProfitFactor(snap.GrossProfit, snap.GrossLoss)
	return snap
}
