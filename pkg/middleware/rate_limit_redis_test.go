package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimitMiddleware_Basic(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	r := gin.New()
	r.Use(RedisRateLimitMiddleware(client, 1, 0, 1*time.Second)) // 1 req/sec, no burst
	r.GET("/siret/:id", func(c *gin.Context) { c.JSON(200, gin.H{"siret": c.Param("id")}) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest("GET", "/siret/1", nil))
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/siret/1", nil))
	if w2.Code == http.StatusOK {
		// the two requests straddled a window boundary; the next one cannot
		w2 = httptest.NewRecorder()
		r.ServeHTTP(w2, httptest.NewRequest("GET", "/siret/1", nil))
	}
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, "1", w2.Header().Get("Retry-After"))
}

func TestRedisRateLimitMiddleware_RedisDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	m.Close()

	r := gin.New()
	r.Use(RedisRateLimitMiddleware(client, 1, 0, time.Second))
	r.GET("/siret", func(c *gin.Context) { c.JSON(200, []string{}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/siret", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRedisRateLimitMiddleware_NilClientFallsBack(t *testing.T) {
	r := gin.New()
	r.Use(RedisRateLimitMiddleware(nil, 0.5, 1, time.Second))
	r.GET("/siret", func(c *gin.Context) { c.JSON(200, []string{}) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest("GET", "/siret", nil))
	require.Equal(t, http.StatusOK, w1.Code)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/siret", nil))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
}
