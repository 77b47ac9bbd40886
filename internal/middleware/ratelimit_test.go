package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(perSec float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(perSec, burst).Handler())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	router := newLimitedRouter(1, 3)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code, "request %d within burst", i)
	}
}

func TestRateLimiterRejectsBeyondBurst(t *testing.T) {
	router := newLimitedRouter(0.001, 1)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiterTracksClientsIndependently(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)

	assert.True(t, limiter.limiterFor("10.0.0.1").Allow())
	assert.False(t, limiter.limiterFor("10.0.0.1").Allow())
	assert.True(t, limiter.limiterFor("10.0.0.2").Allow(), "a second client has its own bucket")
}
