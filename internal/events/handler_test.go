package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/marea-events/backend/pkg/response"
)

// Requests rejected at the validation boundary never reach the repository, so
// these tests run the real handler with no database behind it.
func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, "2025-03-09-v1", nil)
	r := gin.New()
	r.POST("/admin/events", h.Create)
	r.PATCH("/admin/events/:id", h.Patch)
	r.GET("/events/:id", h.GetPublic)
	return r
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Body) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var parsed response.Body
	_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	return w, parsed
}

func TestCreateValidation(t *testing.T) {
	r := testRouter()

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"short title", `{"title":"ab","description":"a long enough description","location":"Playa Norte","starts_at":"2026-09-12T08:00:00Z","ends_at":"2026-09-12T12:00:00Z","capacity":10}`},
		{"end before start", `{"title":"Beach Cleanup","description":"a long enough description","location":"Playa Norte","starts_at":"2026-09-12T08:00:00Z","ends_at":"2026-09-12T07:00:00Z","capacity":10}`},
		{"zero capacity", `{"title":"Beach Cleanup","description":"a long enough description","location":"Playa Norte","starts_at":"2026-09-12T08:00:00Z","ends_at":"2026-09-12T12:00:00Z","capacity":0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := do(r, http.MethodPost, "/admin/events", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.False(t, body.Success)
			require.Equal(t, response.KindValidation, body.Kind)
		})
	}
}

func TestPatchValidation(t *testing.T) {
	r := testRouter()

	t.Run("bad id", func(t *testing.T) {
		w, body := do(r, http.MethodPatch, "/admin/events/not-a-uuid", `{"title":"New Title"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, response.KindValidation, body.Kind)
	})

	t.Run("unknown status", func(t *testing.T) {
		w, body := do(r, http.MethodPatch, "/admin/events/7f6c1c1e-46f2-4d52-9a53-5db20ac2720e", `{"status":"archived"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, response.KindValidation, body.Kind)
	})
}

func TestGetPublicBadID(t *testing.T) {
	r := testRouter()
	w, body := do(r, http.MethodGet, "/events/nope", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, response.KindValidation, body.Kind)
}
