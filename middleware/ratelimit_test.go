package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/nathasitm/portfolio-backend/config"
)

func rateLimitedRouter(limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimiter(RateLimitConfig{Limit: limit, Window: 15 * time.Minute}))
	r.POST("/contact", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return r
}

func TestRateLimiterFailsOpenWithoutRedis(t *testing.T) {
	config.SetRedisClientForTesting(nil)
	defer config.SetRedisClientForTesting(nil)

	r := rateLimitedRouter(5)

	// Without Redis every request is allowed.
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	config.SetRedisClientForTesting(rdb)
	defer config.SetRedisClientForTesting(nil)

	key := "ratelimit:/contact:192.168.1.1"
	window := 15 * time.Minute

	mock.ExpectIncr(key).SetVal(5)
	mock.ExpectExpire(key, window).SetVal(true)
	mock.ExpectIncr(key).SetVal(6)
	mock.ExpectExpire(key, window).SetVal(true)

	r := rateLimitedRouter(5)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("request at the limit: status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("request over the limit: status = %d, want 400", w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("redis expectations: %v", err)
	}
}

func TestRateLimiterFailsOpenOnRedisError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	config.SetRedisClientForTesting(rdb)
	defer config.SetRedisClientForTesting(nil)

	key := "ratelimit:/contact:192.168.1.1"
	mock.ExpectIncr(key).SetErr(http.ErrServerClosed)

	r := rateLimitedRouter(5)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("redis failure must not block the request: status = %d", w.Code)
	}
}
