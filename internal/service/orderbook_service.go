package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradejournal/internal/engine"
	"github.com/tradejournal/internal/models"
	"github.com/tradejournal/internal/parser"
)

// OrderbookService errors
var (
	ErrUnrecognizedOrderbook = errors.New("orderbook file format not recognized")
	ErrNoUsableTrades        = errors.New("orderbook contains no usable trade rows")
)

// OrderbookStore records upload metadata
type OrderbookStore interface {
	FindOrCreate(meta *models.Orderbook) (bool, error)
	GetByUserID(userID uint) ([]models.Orderbook, error)
}

// ExecutedTradeStore records normalized execution legs
type ExecutedTradeStore interface {
	UpsertBatch(trades []models.ExecutedTrade) error
}

// SnapshotStore persists frozen day statistics
type SnapshotStore interface {
	ReplaceForDay(snapshot *models.DaySnapshot) error
}

// StatsSink caches the latest computed stats per user
type StatsSink interface {
	Put(ctx context.Context, userID uint, stats *engine.Stats) error
}

// OrderbookService runs the full processing pipeline for an uploaded
// orderbook file: parse, dedupe, match, reconcile, classify, aggregate,
// then persist legs and day snapshots and cache the result.
type OrderbookService struct {
	orderbooks  OrderbookStore
	trades      ExecutedTradeStore
	snapshots   SnapshotStore
	statsCache  StatsSink
	capitalBase float64
	logger      *zap.Logger
}

// NewOrderbookService creates a new OrderbookService
func NewOrderbookService(
	orderbooks OrderbookStore,
	trades ExecutedTradeStore,
	snapshots SnapshotStore,
	statsCache StatsSink,
	capitalBase float64,
	logger *zap.Logger,
) *OrderbookService {
	if capitalBase <= 0 {
		capitalBase = engine.DefaultCapitalBase
	}
	return &OrderbookService{
		orderbooks:  orderbooks,
		trades:      trades,
		snapshots:   snapshots,
		statsCache:  statsCache,
		capitalBase: capitalBase,
		logger:      logger,
	}
}

// ProcessResult summarizes one processed upload
type ProcessResult struct {
	SourceID   string        `json:"source_id"`
	Format     string        `json:"format"`
	Reuploaded bool          `json:"reuploaded"`
	RowCount   int           `json:"row_count"`
	OpenLegs   int64         `json:"open_legs"`
	Stats      *engine.Stats `json:"stats"`
}

// Process ingests one uploaded orderbook file for the user. A byte-identical
// re-upload reuses the original SourceID but still recomputes and refreezes,
// so rule changes propagate. Format and empty-file failures are user errors;
// everything else is infrastructure.
func (s *OrderbookService) Process(ctx context.Context, userID uint, fileName string, data []byte) (*ProcessResult, error) {
	legs, format, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, parser.ErrUnrecognizedFormat) {
			return nil, ErrUnrecognizedOrderbook
		}
		if errors.Is(err, parser.ErrNoUsableRows) {
			return nil, ErrNoUsableTrades
		}
		return nil, err
	}

	hash := sha256.Sum256(data)
	meta := &models.Orderbook{
		SourceID: uuid.New().String(),
		UserID:   userID,
		FileHash: hex.EncodeToString(hash[:]),
		FileName: fileName,
		Format:   format,
		RowCount: len(legs),
	}
	created, err := s.orderbooks.FindOrCreate(meta)
	if err != nil {
		return nil, err
	}
	if !created {
		s.logger.Info("orderbook re-upload, reusing source",
			zap.Uint("user_id", userID),
			zap.String("source_id", meta.SourceID))
	}

	res := engine.Match(legs)
	engine.Reconcile(res, legs)
	engine.Classify(res.RoundTrips, s.capitalBase)
	stats := engine.Aggregate(res.RoundTrips)

	trades := make([]models.ExecutedTrade, 0, len(legs))
	for _, leg := range legs {
		trades = append(trades, models.NewExecutedTrade(userID, meta.SourceID, leg))
	}
	if err := s.trades.UpsertBatch(trades); err != nil {
		return nil, err
	}

	for _, day := range engine.FreezeDays(res.RoundTrips) {
		if err := s.snapshots.ReplaceForDay(models.NewDaySnapshot(userID, meta.SourceID, day)); err != nil {
			return nil, err
		}
	}

	if err := s.statsCache.Put(ctx, userID, stats); err != nil {
		// Cached stats are a convenience copy; the snapshots already hold
		// the durable result.
		s.logger.Warn("failed to cache stats",
			zap.Uint("user_id", userID),
			zap.Error(err))
	}

	s.logger.Info("orderbook processed",
		zap.Uint("user_id", userID),
		zap.String("source_id", meta.SourceID),
		zap.String("format", format),
		zap.Int("legs", len(legs)),
		zap.Int("round_trips", len(res.RoundTrips)),
		zap.Int64("open_quantity", res.OpenQuantity()))

	return &ProcessResult{
		SourceID:   meta.SourceID,
		Format:     format,
		Reuploaded: !created,
		RowCount:   len(legs),
		OpenLegs:   res.OpenQuantity(),
		Stats:      stats,
	}, nil
}

// ListUploads returns the user's recorded uploads, newest first
func (s *OrderbookService) ListUploads(userID uint) ([]models.Orderbook, error) {
	return s.orderbooks.GetByUserID(userID)
}
