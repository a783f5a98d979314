package httpgin

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/okravets/eventbooker/internal/repository"
	"github.com/okravets/eventbooker/internal/service/booking"
	"github.com/okravets/eventbooker/internal/service/catalog"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("generates an id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)

		require.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("echoes the provided id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "req-42")
		r.ServeHTTP(w, req)

		require.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	})
}

func TestWriteJSONWithCacheETag(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/thing", func(c *gin.Context) {
		writeJSONWithCache(c, http.StatusOK, gin.H{"name": "thing"}, "public, max-age=60", true)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/thing", nil))

	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	require.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))

	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req)

	require.Equal(t, http.StatusNotModified, w2.Code)
	require.Empty(t, w2.Body.String())
}

func TestRespondErrMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", fmt.Errorf("op:%w: bad input", booking.ErrValidation), http.StatusBadRequest},
		{"event not found", fmt.Errorf("op:%w", booking.ErrEventNotFound), http.StatusNotFound},
		{"reservation not found", fmt.Errorf("op:%w", booking.ErrReservationNotFound), http.StatusNotFound},
		{"capacity exceeded", fmt.Errorf("op:%w", booking.CapacityExceededError{EventID: 1, Requested: 5, Available: 2}), http.StatusConflict},
		{"invalid transition", fmt.Errorf("op:%w", booking.ErrInvalidTransition), http.StatusConflict},
		{"no settled payment", fmt.Errorf("op:%w", booking.ErrNoSettledPayment), http.StatusConflict},
		{"settlement failed", fmt.Errorf("op:%w", booking.ErrSettlementFailed), http.StatusPaymentRequired},
		{"busy", fmt.Errorf("op:%w", booking.ErrBusy), http.StatusServiceUnavailable},
		{"event in use", fmt.Errorf("op:%w", catalog.ErrEventInUse), http.StatusConflict},
		{"store unavailable", fmt.Errorf("op:%w", repository.ErrUnavailable), http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondErr(c, tc.err)
			require.Equal(t, tc.wantStatus, w.Code)

			if tc.wantStatus == http.StatusServiceUnavailable && tc.name == "busy" {
				require.Equal(t, "1", w.Header().Get("Retry-After"))
			}
		})
	}
}
