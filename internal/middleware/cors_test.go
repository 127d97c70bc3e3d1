package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRouter(allowedOrigins string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(allowedOrigins))
	r.GET("/events", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func corsRequest(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/events", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	t.Run("wildcard allows any origin", func(t *testing.T) {
		w := corsRequest(corsRouter("*"), http.MethodGet, "https://example.org")
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allowlisted origin is echoed with Vary", func(t *testing.T) {
		r := corsRouter("https://app.example.org, https://admin.example.org")
		w := corsRequest(r, http.MethodGet, "https://admin.example.org")
		require.Equal(t, "https://admin.example.org", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "Origin", w.Header().Get("Vary"))
	})

	t.Run("unlisted origin gets no CORS headers", func(t *testing.T) {
		r := corsRouter("https://app.example.org")
		w := corsRequest(r, http.MethodGet, "https://evil.example.org")
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("preflight short-circuits with 204", func(t *testing.T) {
		w := corsRequest(corsRouter("*"), http.MethodOptions, "https://example.org")
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("empty config falls back to wildcard", func(t *testing.T) {
		w := corsRequest(corsRouter(""), http.MethodGet, "https://example.org")
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
