package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradejournal/internal/engine"
	"github.com/tradejournal/internal/models"
	"github.com/tradejournal/internal/repository"
	"github.com/tradejournal/internal/service"
)

const uploadCSV = `symbol,trade_date,trade_type,quantity,price,order_execution_time,charges
RELIANCE,2024-01-15,buy,100,2500.00,09:31:00,10.00
RELIANCE,2024-01-15,sell,100,2510.00,10:05:00,10.00
`

type memOrderbookStore struct{}

func (memOrderbookStore) FindOrCreate(*models.Orderbook) (bool, error) { return true, nil }

func (memOrderbookStore) GetByUserID(uint) ([]models.Orderbook, error) {
	return []models.Orderbook{{FileName: "orderbook.csv", Format: "retail"}}, nil
}

type memTradeStore struct{}

func (memTradeStore) UpsertBatch([]models.ExecutedTrade) error { return nil }

type memSnapshotStore struct {
	err error
}

func (s memSnapshotStore) ReplaceForDay(*models.DaySnapshot) error { return s.err }

type memStatsSink struct{}

func (memStatsSink) Put(context.Context, uint, *engine.Stats) error { return nil }

func newUploadRouter(snapErr error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewOrderbookService(
		memOrderbookStore{},
		memTradeStore{},
		memSnapshotStore{err: snapErr},
		memStatsSink{},
		engine.DefaultCapitalBase,
		zap.NewNop(),
	)
	h := NewOrderbookHandler(svc, nil, 8)
	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"), fakeAuth(7), func(c *gin.Context) { c.Next() })
	return router
}

func multipartUpload(t *testing.T, body string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", "orderbook.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	router := newUploadRouter(nil)
	buf, contentType := multipartUpload(t, uploadCSV)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orderbooks", buf)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"format":"retail"`)
}

func TestUploadRejectsUnrecognizedFile(t *testing.T) {
	router := newUploadRouter(nil)
	buf, contentType := multipartUpload(t, "a,b,c\n1,2,3\n")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orderbooks", buf)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "orderbook format")
}

func TestUploadRequiresFileField(t *testing.T) {
	router := newUploadRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orderbooks", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListUploadsEndpoint(t *testing.T) {
	router := newUploadRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orderbooks", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"file_name":"orderbook.csv"`)
}

func TestUploadSnapshotConflictIs409(t *testing.T) {
	router := newUploadRouter(repository.ErrSnapshotConflict)
	buf, contentType := multipartUpload(t, uploadCSV)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orderbooks", buf)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "retry")
}
