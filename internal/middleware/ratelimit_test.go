package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

func newLimitedRouter(perMinute int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	limit := UploadRateLimit(perMinute)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.POST("/alice", setUser(1), limit, ok)
	router.POST("/bob", setUser(2), limit, ok)
	return router
}

func post(router *gin.Engine, path string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	router.ServeHTTP(w, req)
	return w.Code
}

func TestUploadRateLimitBlocksAfterBurst(t *testing.T) {
	router := newLimitedRouter(2)

	assert.Equal(t, http.StatusOK, post(router, "/alice"))
	assert.Equal(t, http.StatusOK, post(router, "/alice"))
	assert.Equal(t, http.StatusTooManyRequests, post(router, "/alice"))
}

func TestUploadRateLimitIsPerUser(t *testing.T) {
	router := newLimitedRouter(1)

	assert.Equal(t, http.StatusOK, post(router, "/alice"))
	assert.Equal(t, http.StatusTooManyRequests, post(router, "/alice"))

	// The other user has their own bucket.
	assert.Equal(t, http.StatusOK, post(router, "/bob"))
}

func TestUploadRateLimitRequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/upload", UploadRateLimit(5), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, post(router, "/upload"))
}
