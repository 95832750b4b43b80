package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stocklane/stocklane/internal/http/handlers"
)

func TestReadyz(t *testing.T) {
	tests := []struct {
		name string
		ping func() error
		want int
	}{
		{name: "store_reachable", ping: func() error { return nil }, want: http.StatusOK},
		{name: "store_down", ping: func() error { return errors.New("dial refused") }, want: http.StatusServiceUnavailable},
		{name: "no_ping_configured", ping: nil, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			h := handlers.NewHealthHandler(tt.ping)
			r.GET("/readyz", h.Readyz)

			req := httptest.NewRequest("GET", "/readyz", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("got status %d, want %d", w.Code, tt.want)
			}
		})
	}
}
