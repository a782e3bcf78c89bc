package repository

import (
	"errors"

	"github.com/tradejournal/internal/models"
	"gorm.io/gorm"
)

// SnapshotRepository errors
var (
	ErrSnapshotNotFound = errors.New("day snapshot not found")
	ErrSnapshotConflict = errors.New("concurrent snapshot write for the same day")
)

// SnapshotRepository handles frozen day statistics data access
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// ReplaceForDay supersedes the active snapshot for the trading day, if any,
// and inserts the new one with the next version number. Both steps run in a
// single transaction; the partial unique index on (user_id, trading_date)
// WHERE is_superseded = false turns a concurrent writer into a duplicate-key
// error, surfaced as ErrSnapshotConflict so callers can retry.
func (r *SnapshotRepository) ReplaceForDay(snapshot *models.DaySnapshot) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&models.DaySnapshot{}).
			Where("user_id = ? AND trading_date = ?", snapshot.UserID, snapshot.TradingDate).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.DaySnapshot{}).
			Where("user_id = ? AND trading_date = ? AND is_superseded = ?", snapshot.UserID, snapshot.TradingDate, false).
			Update("is_superseded", true).Error; err != nil {
			return err
		}

		snapshot.Version = maxVersion + 1
		snapshot.IsSuperseded = false
		return tx.Create(snapshot).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSnapshotConflict
	}
	return err
}

// GetActiveByUserAndDate retrieves the current (non-superseded) snapshot for a day
func (r *SnapshotRepository) GetActiveByUserAndDate(userID uint, tradingDate string) (*models.DaySnapshot, error) {
	var snapshot models.DaySnapshot
	result := r.db.Where("user_id = ? AND trading_date = ? AND is_superseded = ?", userID, tradingDate, false).
		First(&snapshot)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, result.Error
	}
	return &snapshot, nil
}

// ListActiveByUserAndRange retrieves current snapshots within an inclusive
// date range, ordered by trading day
func (r *SnapshotRepository) ListActiveByUserAndRange(userID uint, from, to string) ([]models.DaySnapshot, error) {
	var snapshots []models.DaySnapshot
	result := r.db.Where("user_id = ? AND trading_date >= ? AND trading_date <= ? AND is_superseded = ?", userID, from, to, false).
		Order("trading_date ASC").
		Find(&snapshots)
	return snapshots, result.Error
}

// ListVersionsByUserAndDate retrieves every snapshot version recorded for a
// day, newest first
func (r *SnapshotRepository) ListVersionsByUserAndDate(userID uint, tradingDate string) ([]models.DaySnapshot, error) {
	var snapshots []models.DaySnapshot
	result := r.db.Where("user_id = ? AND trading_date = ?", userID, tradingDate).
		Order("version DESC").
		Find(&snapshots)
	return snapshots, result.Error
}
