package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soumiSpace/internal/auth"
	"soumiSpace/internal/logging"
)

func TestCorrelationIDAndLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(CorrelationIDMiddleware(), SlogLoggerMiddleware(logger))
	router.GET("/x", func(c *gin.Context) {
		LoggerFromContext(c).Info("inside")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
	var first map[string]any
	require.NoError(t, json.NewDecoder(&buf).Decode(&first))
	assert.Equal(t, "abc-123", first["correlation_id"])
	assert.Equal(t, "/x", first["path"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Correlation-ID", "bad id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "bad id", w.Header().Get("X-Correlation-ID"))
	assert.Len(t, w.Header().Get("X-Correlation-ID"), 36)
}

func TestCorrelationIDReachesRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CorrelationIDMiddleware())
	var seen string
	router.GET("/x", func(c *gin.Context) {
		seen = logging.CorrelationID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Correlation-ID", "save-7")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "save-7", seen)
}

func TestAuthMiddlewareAndPasswordGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, err := auth.NewTestService(time.Minute, time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", AuthMiddleware(svc), RequirePasswordChangeCompletedMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString(UsernameKey)})
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Basic abc").Code)

	pair, err := svc.GenerateTokenPair(1, "ada", false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+pair.RefreshToken).Code)
	w := call("Bearer " + pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada")

	pending, err := svc.GenerateTokenPair(2, "new", true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call("Bearer "+pending.AccessToken).Code)
}

func TestSlogLoggerMiddleware_LevelsAndQuietPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(CorrelationIDMiddleware(), SlogLoggerMiddleware(logger))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, buf.Len())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))
	var entry map[string]any
	require.NoError(t, json.NewDecoder(&buf).Decode(&entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, float64(http.StatusInternalServerError), entry["status"])
}
