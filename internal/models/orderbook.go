package models

import "time"

// Orderbook records one uploaded source file per user, identified by the
// sha256 of its content. Created on first sight of a hash for that user;
// never mutated, never deleted. A repeated upload of the same bytes reuses
// the existing record's SourceID instead of creating a new one.
type Orderbook struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	SourceID string `gorm:"size:36;uniqueIndex;not null" json:"source_id"`
	UserID   uint   `gorm:"not null;uniqueIndex:idx_orderbooks_user_hash,priority:1" json:"user_id"`
	FileHash string `gorm:"size:64;not null;uniqueIndex:idx_orderbooks_user_hash,priority:2" json:"file_hash"`
	FileName string `gorm:"size:255" json:"file_name"`
	Format   string `gorm:"size:30" json:"format"`
	RowCount int    `json:"row_count"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Orderbook model
func (Orderbook) TableName() string {
	return "orderbooks"
}
