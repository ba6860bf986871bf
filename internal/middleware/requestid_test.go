package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithID(t *testing.T, rid string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if rid != "" {
		req.Header.Set(HeaderXRequestID, rid)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w.Header().Get(HeaderXRequestID)
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	rid := requestWithID(t, "")
	_, err := uuid.Parse(rid)
	require.NoError(t, err)
}

func TestRequestIDHonorsCaller(t *testing.T) {
	assert.Equal(t, "trace-42", requestWithID(t, "trace-42"))
}

func TestRequestIDReplacesOversized(t *testing.T) {
	oversized := strings.Repeat("x", 200)
	rid := requestWithID(t, oversized)
	_, err := uuid.Parse(rid)
	require.NoError(t, err)
}
