// Package metrics exposes harvest counters in the Prometheus text format.
// A nil *Recorder accepts every call and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Key outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeEmpty     = "empty"
	OutcomeSkipped   = "skipped"
)

// Recorder holds the harvester's counters on a private registry.
type Recorder struct {
	registry    *prometheus.Registry
	apiRequests *prometheus.CounterVec
	keys        *prometheus.CounterVec
	placeCache  *prometheus.CounterVec
	emailsFound prometheus.Counter
}

// New creates a Recorder with all counters registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gmaps_api_requests_total",
			Help: "Google web-service requests by endpoint and API status.",
		}, []string{"endpoint", "status"}),
		keys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gmaps_keys_total",
			Help: "Work keys processed by outcome.",
		}, []string{"outcome"}),
		placeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gmaps_place_cache_total",
			Help: "Place details cache lookups by result.",
		}, []string{"result"}),
		emailsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gmaps_emails_found_total",
			Help: "Email addresses found on establishment websites.",
		}),
	}
	r.registry.MustRegister(r.apiRequests, r.keys, r.placeCache, r.emailsFound)
	return r
}

// APIRequest counts one request. Its signature matches google.WithObserver.
func (r *Recorder) APIRequest(endpoint, status string) {
	if r == nil {
		return
	}
	r.apiRequests.WithLabelValues(endpoint, status).Inc()
}

// Key counts one processed work key.
func (r *Recorder) Key(outcome string) {
	if r == nil {
		return
	}
	r.keys.WithLabelValues(outcome).Inc()
}

// PlaceCache counts a cache lookup.
func (r *Recorder) PlaceCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.placeCache.WithLabelValues(result).Inc()
}

// EmailsFound adds n found addresses.
func (r *Recorder) EmailsFound(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.emailsFound.Add(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrapf(err, "metrics: listen on %s", addr)
	}
	return nil
}
