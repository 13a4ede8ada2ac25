// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/z5labs/kafkamqp/health"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type monitorFunc func(context.Context) (bool, error)

func (f monitorFunc) Healthy(ctx context.Context) (bool, error) {
	return f(ctx)
}

func TestServer_Healthz(t *testing.T) {
	t.Run("returns 200 when the liveness monitor reports healthy", func(t *testing.T) {
		live := monitorFunc(func(context.Context) (bool, error) { return true, nil })
		ready := monitorFunc(func(context.Context) (bool, error) { return true, nil })

		s := NewServer(live, ready, nil)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("returns 503 when the liveness monitor reports unhealthy", func(t *testing.T) {
		live := monitorFunc(func(context.Context) (bool, error) { return false, nil })
		ready := monitorFunc(func(context.Context) (bool, error) { return true, nil })

		s := NewServer(live, ready, nil)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("returns 503 when the monitor itself errors", func(t *testing.T) {
		live := monitorFunc(func(context.Context) (bool, error) { return true, errors.New("boom") })
		ready := monitorFunc(func(context.Context) (bool, error) { return true, nil })

		s := NewServer(live, ready, nil)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestServer_Readyz(t *testing.T) {
	live := monitorFunc(func(context.Context) (bool, error) { return true, nil })
	ready := monitorFunc(func(context.Context) (bool, error) { return false, nil })

	s := NewServer(live, ready, nil)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_LagEndpointDisabledWithoutAdminClient(t *testing.T) {
	var live, ready health.Binary
	live.MarkHealthy()
	ready.MarkHealthy()

	s := NewServer(&live, &ready, nil)

	req := httptest.NewRequest(http.MethodGet, "/debug/groups/g1/lag", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
