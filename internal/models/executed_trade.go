package models

import (
	"time"

	"github.com/tradejournal/internal/engine"
)

// ExecutedTrade is one raw broker execution leg recorded for a user. Rows are
// upserted idempotently on the identity composite so re-uploading an
// orderbook never records a leg twice.
type ExecutedTrade struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;uniqueIndex:idx_executed_trades_identity,priority:1" json:"user_id"`
	TradingDate string           `gorm:"size:10;not null;index;uniqueIndex:idx_executed_trades_identity,priority:2" json:"trading_date"`
	Symbol      string           `gorm:"size:30;not null;index;uniqueIndex:idx_executed_trades_identity,priority:3" json:"symbol"`
	Direction   engine.Direction `gorm:"size:4;not null;uniqueIndex:idx_executed_trades_identity,priority:4" json:"direction"`
	Price       float64          `gorm:"type:decimal(20,4);not null;uniqueIndex:idx_executed_trades_identity,priority:5" json:"price"`
	Quantity    int64            `gorm:"not null;uniqueIndex:idx_executed_trades_identity,priority:6" json:"quantity"`
	Charges     float64          `gorm:"type:decimal(20,4)" json:"charges"`
	ExecutedAt  time.Time        `gorm:"index" json:"executed_at"`
	SourceID    string           `gorm:"size:36;index" json:"source_id"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TableName specifies the table name for ExecutedTrade model
func (ExecutedTrade) TableName() string {
	return "executed_trades"
}

// NewExecutedTrade records one normalized leg from the given upload.
func NewExecutedTrade(userID uint, sourceID string, leg engine.TradeLeg) ExecutedTrade {
	return ExecutedTrade{
		UserID:      userID,
		TradingDate: leg.TradingDate(),
		Symbol:      leg.Symbol,
		Direction:   leg.Direction,
		Price:       leg.Price,
		Quantity:    leg.Quantity,
		Charges:     leg.Charges,
		ExecutedAt:  leg.ExecutedAt,
		SourceID:    sourceID,
	}
}
