package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradejournal/internal/middleware"
	"github.com/tradejournal/internal/repository"
	"github.com/tradejournal/internal/service"
	"github.com/tradejournal/pkg/response"
)

// OrderbookHandler handles orderbook upload and stats API requests
type OrderbookHandler struct {
	orderbookService *service.OrderbookService
	statsCache       *service.StatsCache
	maxUploadBytes   int64
}

// NewOrderbookHandler creates a new OrderbookHandler
func NewOrderbookHandler(orderbookService *service.OrderbookService, statsCache *service.StatsCache, maxUploadMB int64) *OrderbookHandler {
	return &OrderbookHandler{
		orderbookService: orderbookService,
		statsCache:       statsCache,
		maxUploadBytes:   maxUploadMB << 20,
	}
}

// Upload handles an orderbook CSV upload
// POST /api/v1/orderbooks
func (h *OrderbookHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing orderbook file field 'file'")
		return
	}
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, "failed to open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(c, "failed to read uploaded file")
		return
	}

	result, err := h.orderbookService.Process(c.Request.Context(), middleware.GetUserID(c), fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnrecognizedOrderbook):
			response.BadRequest(c, "could not recognize the orderbook format; upload the CSV exactly as exported by your broker")
		case errors.Is(err, service.ErrNoUsableTrades):
			response.BadRequest(c, "no usable trade rows found in the file")
		case errors.Is(err, repository.ErrSnapshotConflict):
			response.Conflict(c, "another upload is updating the same trading day, retry the request")
		default:
			response.InternalError(c, "failed to process orderbook")
		}
		return
	}

	response.Created(c, result)
}

// ListUploads returns the user's recorded uploads
// GET /api/v1/orderbooks
func (h *OrderbookHandler) ListUploads(c *gin.Context) {
	uploads, err := h.orderbookService.ListUploads(middleware.GetUserID(c))
	if err != nil {
		response.InternalError(c, "failed to list uploads")
		return
	}

	response.Success(c, uploads)
}

// LatestStats returns the most recently computed stats for the user
// GET /api/v1/stats/latest
func (h *OrderbookHandler) LatestStats(c *gin.Context) {
	payload, err := h.statsCache.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrStatsNotCached) {
			response.NotFound(c, "no stats computed yet; upload an orderbook first")
			return
		}
		response.InternalError(c, "failed to load stats")
		return
	}

	c.Data(http.StatusOK, "application/json", payload)
}

// RegisterRoutes registers orderbook routes
func (h *OrderbookHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware, uploadLimit gin.HandlerFunc) {
	rg.POST("/orderbooks", authMiddleware, uploadLimit, h.Upload)
	rg.GET("/orderbooks", authMiddleware, h.ListUploads)
	rg.GET("/stats/latest", authMiddleware, h.LatestStats)
}
