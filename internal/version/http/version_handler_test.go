package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/ocpi/internal/ocpi"
	"github.com/allisson/ocpi/internal/version/domain"
	versionUseCase "github.com/allisson/ocpi/internal/version/usecase"
)

type envelope struct {
	Data          []domain.VersionInformation `json:"data"`
	StatusCode    int                         `json:"status_code"`
	StatusMessage string                      `json:"status_message"`
	Timestamp     string                      `json:"timestamp"`
}

type blockList map[string]bool

func (b blockList) IsBlocked(token string) bool { return b[token] }

func setupRouter(t *testing.T, blocked blockList) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	directory, err := versionUseCase.NewDirectory(
		domain.VersionInformation{ID: "2.2.1", URL: "https://ocpi.example.com/versions/2.2.1"},
		domain.VersionInformation{ID: "2.1.1", URL: "https://ocpi.example.com/versions/2.1.1"},
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewVersionHandler(directory, logger)

	router := gin.New()
	versions := router.Group("/versions", ocpi.AccessTokenMiddleware(blocked, logger))
	versions.GET("", handler.ListHandler)
	versions.OPTIONS("", handler.OptionsHandler)
	return router
}

func TestVersionHandler_ListHandler(t *testing.T) {
	router := setupRouter(t, blockList{"bad": true})

	t.Run("anonymous request lists versions sorted", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/versions", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1000, body.StatusCode)
		assert.Equal(t, "Hello world!", body.StatusMessage)
		assert.NotEmpty(t, body.Timestamp)
		require.Len(t, body.Data, 2)
		assert.Equal(t, "2.1.1", body.Data[0].ID)
		assert.Equal(t, "2.2.1", body.Data[1].ID)
	})

	t.Run("unknown token is allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/versions", nil)
		req.Header.Set("Authorization", "Token T1")
		router.ServeHTTP(w, req)

		var body envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1000, body.StatusCode)
	})

	t.Run("blocked token yields 2000 over HTTP 200", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/versions", nil)
		req.Header.Set("Authorization", "token bad")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 2000, body.StatusCode)
		assert.Equal(t, "Invalid or blocked access token!", body.StatusMessage)
		assert.Empty(t, body.Data)
	})

	t.Run("blocked basic auth username", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/versions", nil)
		req.SetBasicAuth("bad", "")
		router.ServeHTTP(w, req)

		var body envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 2000, body.StatusCode)
	})
}

func TestVersionHandler_OptionsHandler(t *testing.T) {
	router := setupRouter(t, blockList{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/versions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OPTIONS, GET", w.Header().Get("Allow"))
}
