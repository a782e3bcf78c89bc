package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateBasicCounts(t *testing.T) {
	rts := []*RoundTrip{
		trip("SBIN", DirectionBuy, 10, 600, 610, "2024-01-15 10:00", "2024-01-15 11:00"),
		trip("SBIN", DirectionBuy, 10, 600, 595, "2024-01-15 12:00", "2024-01-15 13:00"),
		trip("INFY", DirectionSell, 10, 1500, 1490, "2024-01-16 10:00", "2024-01-16 11:00"),
	}
	Classify(rts, 0)
	stats := Aggregate(rts)

	assert.InDelta(t, 150.0, stats.NetPnL, 1e-9)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 200.0, stats.GrossProfit, 1e-9)
	assert.InDelta(t, 50.0, stats.GrossLoss, 1e-9)
	assert.InDelta(t, 100.0*2/3, stats.TradeWinPercent, 1e-9)
	assert.InDelta(t, 100.0, stats.DayWinPercent, 1e-9)
	assert.InDelta(t, 4.0, stats.ProfitFactor, 1e-9)
	assert.Equal(t, []string{"2024-01-15", "2024-01-16"}, stats.TradeDates)
}

func TestProfitFactorCases(t *testing.T) {
	assert.Zero(t, ProfitFactor(0, 0))
	assert.True(t, math.IsInf(ProfitFactor(100, 0), 1))
	assert.InDelta(t, 2.0, ProfitFactor(200, 100), 1e-9)

	empty := Aggregate(nil)
	assert.Zero(t, empty.ProfitFactor)
	assert.Zero(t, empty.TradeWinPercent)
	assert.Zero(t, empty.DayWinPercent)
}

func TestStatsJSONRendersInfinity(t *testing.T) {
	rts := []*RoundTrip{
		trip("SBIN", DirectionBuy, 10, 600, 610, "2024-01-15 10:00", "2024-01-15 11:00"),
	}
	Classify(rts, 0)
	stats := Aggregate(rts)
	require.True(t, math.IsInf(stats.ProfitFactor, 1))

	data, err := json.Marshal(stats)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Infinity", decoded["profit_factor"])
}

func TestStatsJSONFiniteProfitFactor(t *testing.T) {
	rts := []*RoundTrip{
		trip("SBIN", DirectionBuy, 10, 600, 610, "2024-01-15 10:00", "2024-01-15 11:00"),
		trip("SBIN", DirectionBuy, 10, 600, 595, "2024-01-15 12:00", "2024-01-15 13:00"),
	}
	Classify(rts, 0)
	stats := Aggregate(rts)

	data, err := json.Marshal(stats)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.InDelta(t, 2.0, decoded["profit_factor"].(float64), 1e-9)
}

func TestScoreBounded(t *testing.T) {
	allWins := []*RoundTrip{
		trip("SBIN", DirectionBuy, 10, 600, 610, "2024-01-15 10:00", "2024-01-15 11:00"),
		trip("SBIN", DirectionBuy, 10, 600, 612, "2024-01-16 10:00", "2024-01-16 11:00"),
	}
	Classify(allWins, 0)
	stats := Aggregate(allWins)
	assert.LessOrEqual(t, stats.Score, 100.0)
	assert.InDelta(t, 100.0, stats.Score, 1e-9)

	allLosses := []*RoundTrip{
		trip("SBIN", DirectionBuy, 10, 600, 590, "2024-01-15 10:00", "2024-01-15 11:00"),
	}
	Classify(allLosses, 0)
	stats = Aggregate(allLosses)
	assert.InDelta(t, scoreBaseline, stats.Score, 1e-9)
}

func TestScripSummaryConsistency(t *testing.T) {
	legs := []TradeLeg{
		leg("RELIANCE", DirectionBuy, 100, 100, 10, "2024-01-15 09:30"),
		leg("RELIANCE", DirectionSell, 60, 110, 6, "2024-01-15 10:15"),
		leg("RELIANCE", DirectionSell, 40, 105, 4, "2024-01-15 11:00"),
		leg("TCS", DirectionSell, 20, 3500, 5, "2024-01-15 10:00"),
		leg("TCS", DirectionBuy, 20, 3480, 5, "2024-01-15 12:00"),
	}
	res := Match(legs)
	Reconcile(res, legs)
	Classify(res.RoundTrips, 0)
	stats := Aggregate(res.RoundTrips)

	var rowSum float64
	for _, row := range stats.ScripSummary {
		rowSum += row.NetRealized
	}
	assert.InDelta(t, stats.NetPnL, rowSum, 1e-6)

	require.Len(t, stats.ScripSummary, 2)
	rel := stats.ScripSummary[0]
	assert.Equal(t, "RELIANCE", rel.Symbol)
	assert.Equal(t, int64(100), rel.TotalQuantity)
	assert.InDelta(t, 100.0, rel.AvgBuyPrice, 1e-9)
	// 60@110 + 40@105 over 100 shares.
	assert.InDelta(t, 108.0, rel.AvgSellPrice, 1e-9)
	// Back-solved charges reproduce the matcher's prorated total.
	assert.InDelta(t, 20.0, rel.Charges, 1e-6)
}

func TestTopIssuesRankedAndCapped(t *testing.T) {
	demons := []TagBreakdown{
		{Tag: DemonChasedEntry, Count: 1},
		{Tag: DemonOvertrading, Count: 5},
		{Tag: DemonRevengeTrading, Count: 3},
		{Tag: DemonHeldLossTooLong, Count: 4},
	}
	issues := topIssues(demons)
	require.Len(t, issues, 3)

	overtrading, _ := Remediation(DemonOvertrading)
	heldLoss, _ := Remediation(DemonHeldLossTooLong)
	revenge, _ := Remediation(DemonRevengeTrading)
	assert.Equal(t, []string{overtrading, heldLoss, revenge}, issues)
}

func TestTagBreakdownTotals(t *testing.T) {
	rts := []*RoundTrip{
		trip("SBIN", DirectionBuy, 10, 600, 590, "2024-01-15 10:00", "2024-01-15 11:00"),
		trip("SBIN", DirectionBuy, 10, 600, 585, "2024-01-15 11:30", "2024-01-15 13:00"),
	}
	Classify(rts, 0)
	stats := Aggregate(rts)

	var heldLoss *TagBreakdown
	for i := range stats.Demons {
		if stats.Demons[i].Tag == DemonHeldLossTooLong {
			heldLoss = &stats.Demons[i]
		}
	}
	require.NotNil(t, heldLoss)
	assert.Equal(t, 2, heldLoss.Count)
	assert.InDelta(t, -250.0, heldLoss.TotalPnL, 1e-9)
}
