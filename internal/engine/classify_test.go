package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trip builds a classified-input round trip directly, bypassing the matcher.
func trip(symbol string, dir Direction, qty int64, entryPrice, exitPrice float64, entryAt, exitAt string) *RoundTrip {
	entry := leg(symbol, dir, qty, entryPrice, 0, entryAt)
	exitDir := DirectionSell
	if dir == DirectionSell {
		exitDir = DirectionBuy
	}
	exit := leg(symbol, exitDir, qty, exitPrice, 0, exitAt)

	gross := (exitPrice - entryPrice) * float64(qty)
	if dir == DirectionSell {
		gross = -gross
	}
	return &RoundTrip{
		Symbol:         symbol,
		Entry:          entry,
		Exit:           exit,
		Quantity:       qty,
		PnL:            gross,
		HoldingMinutes: exit.ExecutedAt.Sub(entry.ExecutedAt).Minutes(),
	}
}

func withStop(rt *RoundTrip, stop float64) *RoundTrip {
	rt.Entry.StopPrice = &stop
	return rt
}

func TestClassifyHeldLossTooLong(t *testing.T) {
	rts := []*RoundTrip{
		trip("SBIN", DirectionBuy, 10, 600, 590, "2024-01-15 10:00", "2024-01-15 11:30"),
		trip("SBIN", DirectionBuy, 10, 600, 610, "2024-01-15 12:00", "2024-01-15 12:30"),
	}
	Classify(rts, 0)

	assert.True(t, rts[0].HasDemon(DemonHeldLossTooLong))
	assert.True(t, rts[0].IsBadTrade)
	assert.False(t, rts[1].HasDemon(DemonHeldLossTooLong))
}

func TestClassifyPrematureExit(t *testing.T) {
	rts := []*RoundTrip{
		// Big winner sets the batch average well above the quick scalp.
		trip("INFY", DirectionBuy, 100, 1500, 1520, "2024-01-15 10:00", "2024-01-15 11:00"),
		trip("INFY", DirectionBuy, 10, 1500, 1502, "2024-01-15 12:00", "2024-01-15 12:02"),
	}
	Classify(rts, 0)

	assert.False(t, rts[0].HasDemon(DemonPrematureExit))
	assert.True(t, rts[1].HasDemon(DemonPrematureExit))
	// A winning trade with a demon tag is not a bad trade.
	assert.False(t, rts[1].IsBadTrade)
}

func TestClassifyMissedStopLoss(t *testing.T) {
	rts := []*RoundTrip{
		trip("TCS", DirectionBuy, 10, 3500, 3490, "2024-01-15 10:00", "2024-01-15 10:20"),
		trip("TCS", DirectionBuy, 10, 3500, 3460, "2024-01-15 11:00", "2024-01-15 11:20"),
	}
	Classify(rts, 0)

	// avg loss 250; the 400 loss exceeds 1.5x.
	assert.False(t, rts[0].HasDemon(DemonMissedStopLoss))
	assert.True(t, rts[1].HasDemon(DemonMissedStopLoss))
}

func TestClassifyChasedEntryAndEarlyCounter(t *testing.T) {
	rts := []*RoundTrip{
		trip("SBIN", DirectionBuy, 10, 600, 605, "2024-01-15 09:16", "2024-01-15 10:00"),
		trip("SBIN", DirectionBuy, 10, 600, 605, "2024-01-15 09:45", "2024-01-15 10:30"),
	}
	Classify(rts, 0)

	assert.True(t, rts[0].HasDemon(DemonChasedEntry))
	assert.False(t, rts[0].HasGood(GoodProperEntry))
	assert.False(t, rts[1].HasDemon(DemonChasedEntry))
	assert.True(t, rts[1].HasGood(GoodProperEntry))

	stats := Aggregate(rts)
	assert.Equal(t, 1, stats.EarlyEntryCount)
}

func TestClassifyMidnightTimestampNotChased(t *testing.T) {
	rt := trip("SBIN", DirectionBuy, 10, 600, 605, "2024-01-15 00:00", "2024-01-15 00:00")
	Classify([]*RoundTrip{rt}, 0)
	assert.False(t, rt.HasDemon(DemonChasedEntry))
}

func TestClassifyWrongPositionSize(t *testing.T) {
	oversized := withStop(
		trip("RELIANCE", DirectionBuy, 1000, 100, 105, "2024-01-15 10:00", "2024-01-15 11:00"),
		95, // 5 points of stop distance on 1000 shares = 5000 risk vs 2000 allowed
	)
	fine := withStop(
		trip("RELIANCE", DirectionBuy, 100, 100, 105, "2024-01-15 12:00", "2024-01-15 13:00"),
		99,
	)
	Classify([]*RoundTrip{oversized, fine}, 100000)

	assert.True(t, oversized.HasDemon(DemonWrongSize))
	assert.False(t, fine.HasDemon(DemonWrongSize))
}

func TestClassifyOvertrading(t *testing.T) {
	rts := make([]*RoundTrip, 0, 7)
	for i := 0; i < 7; i++ {
		entry := time.Date(2024, 1, 15, 10, i*10, 0, 0, time.UTC)
		rt := trip("SBIN", DirectionBuy, 10, 600, 601,
			entry.Format("2006-01-02 15:04"),
			entry.Add(5*time.Minute).Format("2006-01-02 15:04"))
		rts = append(rts, rt)
	}
	Classify(rts, 0)

	for i, rt := range rts {
		if i < 5 {
			assert.False(t, rt.HasDemon(DemonOvertrading), "trade %d", i+1)
		} else {
			assert.True(t, rt.HasDemon(DemonOvertrading), "trade %d", i+1)
		}
	}
}

func TestClassifyRevengeTrading(t *testing.T) {
	rts := []*RoundTrip{
		trip("SBIN", DirectionBuy, 10, 600, 590, "2024-01-15 10:00", "2024-01-15 10:30"),
		// Re-entered long 10 minutes after the loss.
		trip("SBIN", DirectionBuy, 10, 588, 595, "2024-01-15 10:40", "2024-01-15 11:10"),
		// Opposite direction within the window does not count.
		trip("SBIN", DirectionSell, 10, 595, 600, "2024-01-15 11:15", "2024-01-15 11:45"),
	}
	Classify(rts, 0)

	assert.False(t, rts[0].HasDemon(DemonRevengeTrading))
	assert.True(t, rts[1].HasDemon(DemonRevengeTrading))
	assert.False(t, rts[2].HasDemon(DemonRevengeTrading))
}

func TestClassifyRiskRewardTags(t *testing.T) {
	poor := withStop(
		trip("INFY", DirectionBuy, 10, 1500, 1505, "2024-01-15 10:00", "2024-01-15 11:00"),
		1490, // risk 100, gain 50
	)
	good := withStop(
		trip("INFY", DirectionBuy, 10, 1500, 1525, "2024-01-15 12:00", "2024-01-15 13:00"),
		1490, // risk 100, gain 250
	)
	Classify([]*RoundTrip{poor, good}, 0)

	assert.True(t, poor.HasDemon(DemonPoorRiskReward))
	assert.False(t, poor.HasGood(GoodRiskReward))
	assert.True(t, good.HasGood(GoodRiskReward))
	assert.False(t, good.HasDemon(DemonPoorRiskReward))
}

func TestClassifyStopRespectedMakesLoserGood(t *testing.T) {
	rt := withStop(
		trip("TCS", DirectionBuy, 10, 3500, 3490, "2024-01-15 10:00", "2024-01-15 10:20"),
		3489, // planned risk 110, actual loss 100
	)
	Classify([]*RoundTrip{rt}, 0)

	require.True(t, rt.HasGood(GoodStopRespected))
	assert.True(t, rt.HasGood(GoodProperEntry))
	assert.GreaterOrEqual(t, len(rt.GoodTags), 2)
	assert.Empty(t, rt.DemonTags)
	assert.True(t, rt.IsGoodTrade, "a contained loss with clean habits is still a good trade")
}

func TestClassifyDisciplinedCatchAll(t *testing.T) {
	clean := trip("SBIN", DirectionBuy, 10, 600, 615, "2024-01-15 10:00", "2024-01-15 11:00")
	Classify([]*RoundTrip{clean}, 0)

	assert.True(t, clean.HasGood(GoodProperEntry))
	assert.True(t, clean.HasGood(GoodProperExit))
	assert.True(t, clean.HasGood(GoodDisciplined))
	assert.True(t, clean.IsGoodTrade)
	assert.False(t, clean.IsBadTrade)
}
