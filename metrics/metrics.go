// Package metrics exposes run statistics in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-finder/utils"
)

const namespace = "parking_finder"

// Cycle outcomes.
const (
	ResultOK          = "ok"
	ResultFailed      = "failed"
	ResultInterrupted = "interrupted"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	SpotsListed  prometheus.Gauge
	SpotsAdded   prometheus.Counter
	SpotsRemoved prometheus.Counter
	Cycles       *prometheus.CounterVec
	ChunksSent   *prometheus.CounterVec
	SendFailures *prometheus.CounterVec
}

// NewRegistry creates the metrics on a private registry.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		SpotsListed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spots_listed",
			Help:      "Parking spaces listed by the last successful scrape",
		}),
		SpotsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spots_added_total",
			Help:      "Parking spaces that appeared since the previous run",
		}),
		SpotsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spots_removed_total",
			Help:      "Parking spaces that disappeared since the previous run",
		}),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Monitoring cycles by outcome",
		}, []string{"result"}),
		ChunksSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "chunks_sent_total",
			Help:      "Message chunks delivered per channel",
		}, []string{"channel"}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "send_failures_total",
			Help:      "Message chunks that could not be delivered per channel",
		}, []string{"channel"}),
	}

	r.registry.MustRegister(
		r.SpotsListed,
		r.SpotsAdded,
		r.SpotsRemoved,
		r.Cycles,
		r.ChunksSent,
		r.SendFailures,
		collectors.NewGoCollector(),
	)
	return r
}

// ObserveCycle counts one finished cycle.
func (r *Registry) ObserveCycle(result string) {
	r.Cycles.WithLabelValues(result).Inc()
}

// ObserveSnapshot records the size of the current snapshot and its change
// against the previous one.
func (r *Registry) ObserveSnapshot(listed, added, removed int) {
	r.SpotsListed.Set(float64(listed))
	r.SpotsAdded.Add(float64(added))
	r.SpotsRemoved.Add(float64(removed))
}

// ObserveDelivery counts the outcome of sending chunks to one channel.
func (r *Registry) ObserveDelivery(channel string, sent, failed int) {
	r.ChunksSent.WithLabelValues(channel).Add(float64(sent))
	r.SendFailures.WithLabelValues(channel).Add(float64(failed))
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Registry) Serve(ctx context.Context, addr string, logger *utils.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[metrics] listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
