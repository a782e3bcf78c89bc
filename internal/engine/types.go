package engine

import (
	"math"
	"time"
)

// Direction represents which side of the market a leg was executed on
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// TradeLeg represents one executed order leg as normalized from a broker export.
// A leg is immutable once parsed; the matcher derives slice copies from it when
// a fill is only partially offset.
type TradeLeg struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Quantity  int64     `json:"quantity"`
	Price     float64   `json:"price"`
	Charges   float64   `json:"charges"`
	// FullQuantity is the original lot size before any splitting and is the
	// denominator used when prorating Charges across slices.
	FullQuantity int64 `json:"full_quantity"`
	// ExecutedAt combines the trade date with the execution time. Legs whose
	// source row carried no time component sit at start-of-day.
	ExecutedAt time.Time `json:"executed_at"`
	// StopPrice is an optional journal annotation; it is never present in raw
	// broker exports but survives slicing so risk-based rules can use it.
	StopPrice *float64 `json:"stop_price,omitempty"`
}

// TradingDate returns the leg's calendar day formatted as YYYY-MM-DD.
func (l TradeLeg) TradingDate() string {
	return l.ExecutedAt.Format("2006-01-02")
}

// Valid reports whether the leg carries enough data to take part in matching.
func (l TradeLeg) Valid() bool {
	if l.Symbol == "" || l.Quantity <= 0 || l.Price < 0 {
		return false
	}
	return l.Direction == DirectionBuy || l.Direction == DirectionSell
}

// RoundTrip is one closed position: an entry slice paired against an
// opposite-direction exit slice of equal quantity. Created by the matcher,
// its PnL may be overwritten once by reconciliation, and the classifier
// appends tags exactly once; it is never mutated after that.
type RoundTrip struct {
	Symbol   string   `json:"symbol"`
	Entry    TradeLeg `json:"entry"`
	Exit     TradeLeg `json:"exit"`
	Quantity int64    `json:"quantity"`
	// PnL is gross price difference minus the prorated charges of both legs.
	PnL            float64 `json:"pnl"`
	HoldingMinutes float64 `json:"holding_minutes"`

	DemonTags   []string `json:"demon_tags"`
	GoodTags    []string `json:"good_tags"`
	IsBadTrade  bool     `json:"is_bad_trade"`
	IsGoodTrade bool     `json:"is_good_trade"`
}

// IsLong reports whether the position was opened with a buy.
func (rt *RoundTrip) IsLong() bool {
	return rt.Entry.Direction == DirectionBuy
}

// ExitDate returns the calendar day the position was closed on. Multi-day
// positions are attributed entirely to this day.
func (rt *RoundTrip) ExitDate() string {
	return rt.Exit.TradingDate()
}

// StopRisk returns the planned risk amount (stop distance times quantity) and
// whether a stop annotation exists on the entry leg.
func (rt *RoundTrip) StopRisk() (float64, bool) {
	if rt.Entry.StopPrice == nil {
		return 0, false
	}
	return math.Abs(rt.Entry.Price-*rt.Entry.StopPrice) * float64(rt.Quantity), true
}

// HasDemon reports whether the given demon tag was applied.
func (rt *RoundTrip) HasDemon(tag string) bool {
	return containsTag(rt.DemonTags, tag)
}

// HasGood reports whether the given good-practice tag was applied.
func (rt *RoundTrip) HasGood(tag string) bool {
	return containsTag(rt.GoodTags, tag)
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// round2 rounds to two decimal places (cents).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
