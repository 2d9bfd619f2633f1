package ocpi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/ocpi/internal/commandlog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractAccessToken(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{
			name:  "no credentials",
			setup: func(r *http.Request) {},
			want:  "",
		},
		{
			name:  "token scheme",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Token abc-123") },
			want:  "abc-123",
		},
		{
			name:  "token scheme is case-insensitive",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "TOKEN abc-123") },
			want:  "abc-123",
		},
		{
			name:  "basic auth username",
			setup: func(r *http.Request) { r.SetBasicAuth("abc-123", "ignored") },
			want:  "abc-123",
		},
		{
			name:  "bearer is not accepted",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc-123") },
			want:  "",
		},
		{
			name:  "empty token",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Token ") },
			want:  "",
		},
		{
			name:  "token scheme without value",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Token") },
			want:  "",
		},
		{
			name:  "token scheme with only whitespace",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Token    ") },
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/versions", nil)
			tt.setup(req)
			assert.Equal(t, tt.want, ExtractAccessToken(req))
		})
	}
}

type blockList map[string]bool

func (b blockList) IsBlocked(token string) bool { return b[token] }

func TestAccessTokenMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	router := gin.New()
	router.GET("/versions", AccessTokenMiddleware(blockList{"bad": true}, discardLogger()), func(c *gin.Context) {
		seen, _ = GetAccessToken(c.Request.Context())
		Success(c, []string{}, MessageHelloWorld)
	})

	t.Run("allowed token is stored", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/versions", nil)
		req.Header.Set("Authorization", "Token good")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "good", seen)
	})

	t.Run("blocked token is rejected in the body", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/versions", nil)
		req.Header.Set("Authorization", "Token bad")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, StatusClientError, body.StatusCode)
		assert.Equal(t, MessageBlockedToken, body.StatusMessage)
	})
}

func TestHeadersMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var ctx context.Context
	router := gin.New()
	router.Use(HeadersMiddleware(discardLogger()))
	router.GET("/", func(c *gin.Context) {
		ctx = c.Request.Context()
		c.Status(http.StatusOK)
	})

	t.Run("echoes correlation id and records routing headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderCorrelationID, "corr-1")
		req.Header.Set(HeaderToCountryCode, "DE")
		req.Header.Set(HeaderToPartyID, "GEF")
		req.Header.Set(HeaderFromCountryCode, "NL")
		req.Header.Set(HeaderFromPartyID, "ABC")
		router.ServeHTTP(w, req)

		assert.Equal(t, "corr-1", w.Header().Get(HeaderCorrelationID))
		assert.Equal(t, "Accept", w.Header().Get("Vary"))
		assert.Equal(t, "corr-1", commandlog.EventTrackingID(ctx))

		routing, ok := GetRoutingHeaders(ctx)
		require.True(t, ok)
		assert.Equal(t, RoutingHeaders{
			ToCountryCode:   "DE",
			ToPartyID:       "GEF",
			FromCountryCode: "NL",
			FromPartyID:     "ABC",
		}, routing)
	})

	t.Run("generates correlation id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		router.ServeHTTP(w, req)

		id, err := uuid.Parse(w.Header().Get(HeaderCorrelationID))
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())

		_, ok := GetRoutingHeaders(ctx)
		assert.False(t, ok)
	})
}

func TestError_ServerErrorsUseHTTP500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := Now
	Now = func() time.Time { return fixed }
	t.Cleanup(func() { Now = orig })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, StatusServerError, "boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status_code":3000,"status_message":"boom","timestamp":"2025-01-01T00:00:00Z"}`, w.Body.String())
}

func TestStatusCodeFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := StatusCodeFromContext(c)
	assert.False(t, ok)

	Error(c, StatusClientError, MessageBlockedToken)
	code, ok := StatusCodeFromContext(c)
	require.True(t, ok)
	assert.Equal(t, StatusClientError, code)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	Success(c, []string{"2.2.1"}, MessageHelloWorld)
	code, ok = StatusCodeFromContext(c)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, code)
}
