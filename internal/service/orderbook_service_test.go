package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradejournal/internal/engine"
	"github.com/tradejournal/internal/models"
	"github.com/tradejournal/internal/repository"
)

const sampleOrderbook = `symbol,trade_date,trade_type,quantity,price,order_execution_time,charges
RELIANCE,2024-01-15,buy,100,2500.00,09:31:00,10.00
RELIANCE,2024-01-15,sell,100,2510.00,10:05:00,10.00
TCS,2024-01-16,sell,20,3500.00,09:45:00,5.00
TCS,2024-01-16,buy,20,3480.00,11:30:00,5.00
`

type stubOrderbookStore struct {
	existing *models.Orderbook
	saved    *models.Orderbook
}

func (s *stubOrderbookStore) FindOrCreate(meta *models.Orderbook) (bool, error) {
	if s.existing != nil {
		*meta = *s.existing
		return false, nil
	}
	s.saved = meta
	return true, nil
}

func (s *stubOrderbookStore) GetByUserID(uint) ([]models.Orderbook, error) {
	if s.saved == nil {
		return nil, nil
	}
	return []models.Orderbook{*s.saved}, nil
}

type stubTradeStore struct {
	trades []models.ExecutedTrade
	err    error
}

func (s *stubTradeStore) UpsertBatch(trades []models.ExecutedTrade) error {
	if s.err != nil {
		return s.err
	}
	s.trades = append(s.trades, trades...)
	return nil
}

type stubSnapshotStore struct {
	snapshots []*models.DaySnapshot
	err       error
}

func (s *stubSnapshotStore) ReplaceForDay(snapshot *models.DaySnapshot) error {
	if s.err != nil {
		return s.err
	}
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

type stubStatsSink struct {
	stats map[uint]*engine.Stats
}

func (s *stubStatsSink) Put(_ context.Context, userID uint, stats *engine.Stats) error {
	if s.stats == nil {
		s.stats = make(map[uint]*engine.Stats)
	}
	s.stats[userID] = stats
	return nil
}

func newTestService(obs *stubOrderbookStore, ts *stubTradeStore, ss *stubSnapshotStore, sink *stubStatsSink) *OrderbookService {
	return NewOrderbookService(obs, ts, ss, sink, engine.DefaultCapitalBase, zap.NewNop())
}

func TestProcessFullPipeline(t *testing.T) {
	obs := &stubOrderbookStore{}
	ts := &stubTradeStore{}
	ss := &stubSnapshotStore{}
	sink := &stubStatsSink{}
	svc := newTestService(obs, ts, ss, sink)

	result, err := svc.Process(context.Background(), 7, "orderbook.csv", []byte(sampleOrderbook))
	require.NoError(t, err)

	assert.Equal(t, "retail", result.Format)
	assert.False(t, result.Reuploaded)
	assert.Equal(t, 4, result.RowCount)
	assert.Zero(t, result.OpenLegs)
	assert.NotEmpty(t, result.SourceID)

	// All four legs recorded, tagged with the upload's source id.
	require.Len(t, ts.trades, 4)
	for _, trade := range ts.trades {
		assert.Equal(t, uint(7), trade.UserID)
		assert.Equal(t, result.SourceID, trade.SourceID)
	}

	// Two exit days, two snapshots.
	require.Len(t, ss.snapshots, 2)
	assert.Equal(t, "2024-01-15", ss.snapshots[0].TradingDate)
	assert.Equal(t, "2024-01-16", ss.snapshots[1].TradingDate)

	// Net pnl: long +1000-20, short +400-10.
	require.NotNil(t, sink.stats[7])
	assert.InDelta(t, 1370.0, sink.stats[7].NetPnL, 0.01)
}

func TestProcessReuploadReusesSourceID(t *testing.T) {
	existing := &models.Orderbook{
		SourceID: "11111111-2222-3333-4444-555555555555",
		UserID:   7,
		FileHash: "abc",
	}
	obs := &stubOrderbookStore{existing: existing}
	ts := &stubTradeStore{}
	ss := &stubSnapshotStore{}
	sink := &stubStatsSink{}
	svc := newTestService(obs, ts, ss, sink)

	result, err := svc.Process(context.Background(), 7, "orderbook.csv", []byte(sampleOrderbook))
	require.NoError(t, err)

	assert.True(t, result.Reuploaded)
	assert.Equal(t, existing.SourceID, result.SourceID)

	// Recomputation still happens all the way through.
	assert.Len(t, ss.snapshots, 2)
	for _, trade := range ts.trades {
		assert.Equal(t, existing.SourceID, trade.SourceID)
	}
}

func TestProcessUnrecognizedFormat(t *testing.T) {
	svc := newTestService(&stubOrderbookStore{}, &stubTradeStore{}, &stubSnapshotStore{}, &stubStatsSink{})

	_, err := svc.Process(context.Background(), 7, "notes.csv", []byte("a,b,c\n1,2,3\n"))
	assert.ErrorIs(t, err, ErrUnrecognizedOrderbook)
}

func TestProcessNoUsableRows(t *testing.T) {
	svc := newTestService(&stubOrderbookStore{}, &stubTradeStore{}, &stubSnapshotStore{}, &stubStatsSink{})

	onlyHeader := "symbol,trade_date,trade_type,quantity,price,order_execution_time,charges\n"
	_, err := svc.Process(context.Background(), 7, "empty.csv", []byte(onlyHeader))
	assert.ErrorIs(t, err, ErrNoUsableTrades)
}

func TestListUploads(t *testing.T) {
	obs := &stubOrderbookStore{}
	svc := newTestService(obs, &stubTradeStore{}, &stubSnapshotStore{}, &stubStatsSink{})

	uploads, err := svc.ListUploads(7)
	require.NoError(t, err)
	assert.Empty(t, uploads)

	_, err = svc.Process(context.Background(), 7, "orderbook.csv", []byte(sampleOrderbook))
	require.NoError(t, err)

	uploads, err = svc.ListUploads(7)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "orderbook.csv", uploads[0].FileName)
}

func TestProcessSnapshotConflictPropagates(t *testing.T) {
	ss := &stubSnapshotStore{err: repository.ErrSnapshotConflict}
	svc := newTestService(&stubOrderbookStore{}, &stubTradeStore{}, ss, &stubStatsSink{})

	_, err := svc.Process(context.Background(), 7, "orderbook.csv", []byte(sampleOrderbook))
	assert.ErrorIs(t, err, repository.ErrSnapshotConflict)
}
