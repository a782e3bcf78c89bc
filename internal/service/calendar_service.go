package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/tradejournal/internal/models"
	"github.com/tradejournal/internal/repository"
)

// CalendarService errors
var (
	ErrNoSnapshotForDay = errors.New("no frozen statistics for that trading day")
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
	ErrInvalidDate      = errors.New("date must be formatted as YYYY-MM-DD")
)

// SnapshotReader reads frozen day statistics
type SnapshotReader interface {
	GetActiveByUserAndDate(userID uint, tradingDate string) (*models.DaySnapshot, error)
	ListActiveByUserAndRange(userID uint, from, to string) ([]models.DaySnapshot, error)
	ListVersionsByUserAndDate(userID uint, tradingDate string) ([]models.DaySnapshot, error)
}

// TradeReader reads recorded execution legs
type TradeReader interface {
	GetByUserAndDate(userID uint, tradingDate string) ([]models.ExecutedTrade, error)
}

// CalendarService serves the journal's read side: month grids and single-day
// drill-downs built from active snapshots
type CalendarService struct {
	snapshots SnapshotReader
	trades    TradeReader
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(snapshots SnapshotReader, trades TradeReader) *CalendarService {
	return &CalendarService{snapshots: snapshots, trades: trades}
}

// MonthView is one calendar month of frozen day statistics
type MonthView struct {
	Year  int                  `json:"year"`
	Month int                  `json:"month"`
	Days  []models.DaySnapshot `json:"days"`
}

// DayView is the drill-down for one trading day
type DayView struct {
	Snapshot *models.DaySnapshot    `json:"snapshot"`
	Trades   []models.ExecutedTrade `json:"trades"`
}

// GetMonth returns the active snapshots for every trading day in the month,
// ordered by date. Days without a snapshot are simply absent.
func (s *CalendarService) GetMonth(userID uint, year, month int) (*MonthView, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	days, err := s.snapshots.ListActiveByUserAndRange(userID,
		first.Format("2006-01-02"), last.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return &MonthView{Year: year, Month: month, Days: days}, nil
}

// GetDay returns the active snapshot and the recorded legs for one day
func (s *CalendarService) GetDay(userID uint, date string) (*DayView, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	snapshot, err := s.snapshots.GetActiveByUserAndDate(userID, date)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return nil, ErrNoSnapshotForDay
		}
		return nil, err
	}

	trades, err := s.trades.GetByUserAndDate(userID, date)
	if err != nil {
		return nil, err
	}
	return &DayView{Snapshot: snapshot, Trades: trades}, nil
}

// GetDayHistory returns every snapshot version recorded for the day, newest
// first, superseded versions included
func (s *CalendarService) GetDayHistory(userID uint, date string) ([]models.DaySnapshot, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	versions, err := s.snapshots.ListVersionsByUserAndDate(userID, date)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNoSnapshotForDay
	}
	return versions, nil
}
