package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (c *stubChecker) Healthy(_ context.Context) error { return c.err }

func TestHealth_AlwaysOK(t *testing.T) {
	h := NewHealthHandler(&stubChecker{err: errors.New("down")})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		h := NewHealthHandler(&stubChecker{})
		w := httptest.NewRecorder()
		h.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("store unavailable", func(t *testing.T) {
		h := NewHealthHandler(&stubChecker{err: errors.New("ping failed")})
		w := httptest.NewRecorder()
		h.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
