package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradejournal/internal/engine"
)

// DaySnapshot is the persisted, versioned statistics document for one
// (user, trading day). At most one document per pair is active
// (is_superseded = false) at any time, enforced by a partial unique index
// created alongside the auto-migration. Superseded documents are kept
// forever; there is no delete transition.
type DaySnapshot struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index:idx_day_stats_user_date,priority:1" json:"user_id"`
	TradingDate string `gorm:"size:10;not null;index:idx_day_stats_user_date,priority:2" json:"trading_date"`
	// SourceID references the orderbook upload this snapshot was frozen from.
	SourceID     string `gorm:"size:36;index" json:"source_id"`
	Version      int    `gorm:"not null;default:1" json:"version"`
	IsSuperseded bool   `gorm:"not null;default:false" json:"is_superseded"`

	TradeCount    int             `gorm:"not null" json:"trade_count"`
	NetPnL        decimal.Decimal `gorm:"type:decimal(20,4)" json:"net_pnl"`
	GrossProfit   decimal.Decimal `gorm:"type:decimal(20,4)" json:"gross_profit"`
	GrossLoss     decimal.Decimal `gorm:"type:decimal(20,4)" json:"gross_loss"`
	Wins          int             `json:"wins"`
	Losses        int             `json:"losses"`
	WinRate       decimal.Decimal `gorm:"type:decimal(8,4)" json:"win_rate"`
	ProfitFactor  decimal.Decimal `gorm:"type:decimal(12,4)" json:"profit_factor"`
	BestTradePnL  decimal.Decimal `gorm:"type:decimal(20,4)" json:"best_trade_pnl"`
	WorstTradePnL decimal.Decimal `gorm:"type:decimal(20,4)" json:"worst_trade_pnl"`
	SymbolCount   int             `json:"symbol_count"`
	LongCount     int             `json:"long_count"`
	ShortCount    int             `json:"short_count"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for DaySnapshot model
func (DaySnapshot) TableName() string {
	return "journal_day_stats"
}

// NewDaySnapshot converts a computed day aggregate into a persistable
// document. Money figures are fixed to four decimal places. A non-finite
// profit factor (wins against zero losses) is stored as zero since the
// column cannot hold infinity; readers that need the real value recompute
// it from the gross columns.
func NewDaySnapshot(userID uint, sourceID string, day engine.DaySnapshot) *DaySnapshot {
	return &DaySnapshot{
		UserID:        userID,
		TradingDate:   day.TradingDate,
		SourceID:      sourceID,
		TradeCount:    day.TradeCount,
		NetPnL:        money(day.NetPnL),
		GrossProfit:   money(day.GrossProfit),
		GrossLoss:     money(day.GrossLoss),
		Wins:          day.Wins,
		Losses:        day.Losses,
		WinRate:       money(day.WinRate),
		ProfitFactor:  money(finiteOrZero(day.ProfitFactor)),
		BestTradePnL:  money(day.BestTradePnL),
		WorstTradePnL: money(day.WorstTradePnL),
		SymbolCount:   day.SymbolCount,
		LongCount:     day.LongCount,
		ShortCount:    day.ShortCount,
	}
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(4)
}

func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
