// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package admin exposes the operational HTTP surface for a running
// bridge process: liveness/readiness probes and consumer group lag, none
// of which carry AMQP or Kafka record traffic (see SPEC_FULL.md §7).
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/z5labs/kafkamqp/health"

	"github.com/go-chi/chi/v5"
	"github.com/twmb/franz-go/pkg/kadm"
)

const defaultLagTimeout = 5 * time.Second

// Server serves /healthz, /readyz, and /debug/groups/{group}/lag.
type Server struct {
	router chi.Router
}

// NewServer constructs an admin [Server]. live reports process liveness;
// ready reports whether the bridge is accepting new link attaches. admin
// is optional (nil disables the lag endpoint) and is typically backed by
// a kadm.Client wrapping the same Kafka client the sink consumer uses.
func NewServer(live, ready health.Monitor, admin *kadm.Client) *Server {
	r := chi.NewRouter()

	r.Get("/healthz", monitorHandler(live))
	r.Get("/readyz", monitorHandler(ready))

	if admin != nil {
		r.Get("/debug/groups/{group}/lag", lagHandler(admin))
	}

	return &Server{router: r}
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func monitorHandler(m health.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy, err := m.Healthy(r.Context())
		if err != nil || !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// lagHandler reports the consumer group's current lag, grouped the way
// kadm.Client.Lag already groups it; the bridge only ever asks about the
// single group the attached link is bound to.
func lagHandler(admin *kadm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group := chi.URLParam(r, "group")

		ctx, cancel := r.Context(), func() {}
		if _, ok := r.Context().Deadline(); !ok {
			ctx, cancel = context.WithTimeout(r.Context(), defaultLagTimeout)
		}
		defer cancel()

		lag, err := admin.Lag(ctx, group)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(lag[group])
	}
}
