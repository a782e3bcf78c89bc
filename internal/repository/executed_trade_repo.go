package repository

import (
	"github.com/tradejournal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExecutedTradeRepository handles raw execution leg data access
type ExecutedTradeRepository struct {
	db *gorm.DB
}

// NewExecutedTradeRepository creates a new ExecutedTradeRepository
func NewExecutedTradeRepository(db *gorm.DB) *ExecutedTradeRepository {
	return &ExecutedTradeRepository{db: db}
}

// UpsertBatch inserts legs idempotently: a leg whose identity composite
// (user, date, symbol, direction, price, quantity) already exists is left
// untouched, so re-uploading a file never duplicates executions.
func (r *ExecutedTradeRepository) UpsertBatch(trades []models.ExecutedTrade) error {
	if len(trades) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "trading_date"},
			{Name: "symbol"},
			{Name: "direction"},
			{Name: "price"},
			{Name: "quantity"},
		},
		DoNothing: true,
	}).Create(&trades).Error
}

// GetByUserAndDate retrieves all legs a user executed on one trading day
func (r *ExecutedTradeRepository) GetByUserAndDate(userID uint, tradingDate string) ([]models.ExecutedTrade, error) {
	var trades []models.ExecutedTrade
	result := r.db.Where("user_id = ? AND trading_date = ?", userID, tradingDate).
		Order("executed_at ASC").
		Find(&trades)
	return trades, result.Error
}
