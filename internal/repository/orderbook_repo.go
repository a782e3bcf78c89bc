package repository

import (
	"errors"

	"github.com/tradejournal/internal/models"
	"gorm.io/gorm"
)

// OrderbookRepository handles uploaded-orderbook metadata access
type OrderbookRepository struct {
	db *gorm.DB
}

// NewOrderbookRepository creates a new OrderbookRepository
func NewOrderbookRepository(db *gorm.DB) *OrderbookRepository {
	return &OrderbookRepository{db: db}
}

// FindOrCreate records the upload unless the same (user, file hash) pair was
// seen before, in which case meta is overwritten with the existing record so
// the caller reuses its SourceID. Returns whether a new record was created.
func (r *OrderbookRepository) FindOrCreate(meta *models.Orderbook) (bool, error) {
	var existing models.Orderbook
	err := r.db.Where("user_id = ? AND file_hash = ?", meta.UserID, meta.FileHash).
		First(&existing).Error
	if err == nil {
		*meta = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := r.db.Create(meta).Error; err != nil {
		// A concurrent upload of the same file may have won the race on the
		// unique index; fall back to reading its record.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if lookupErr := r.db.Where("user_id = ? AND file_hash = ?", meta.UserID, meta.FileHash).
				First(&existing).Error; lookupErr == nil {
				*meta = existing
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

// GetByUserID retrieves all upload records for a user
func (r *OrderbookRepository) GetByUserID(userID uint) ([]models.Orderbook, error) {
	var metas []models.Orderbook
	result := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&metas)
	return metas, result.Error
}
