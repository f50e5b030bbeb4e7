package motor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "motor"

// StatsCollector adapts a Tracker's GetStats() snapshot to the
// prometheus.Collector interface, the same pull-based export shape the
// pack's prometheus exporter wires up with promhttp.Handler, trimmed to a
// single custom Collector instead of an OTel bridge since a Tracker's
// stats are already a flat map, not instrumented counters.
type StatsCollector struct {
	tracker *Tracker
}

// NewStatsCollector wraps tracker for Prometheus export. Call AttachStats
// on tracker before scraping, otherwise only argset/case counters collected
// mid-run are exposed.
func NewStatsCollector(tracker *Tracker) *StatsCollector {
	return &StatsCollector{tracker: tracker}
}

// Describe satisfies prometheus.Collector. Stat names are dynamic (one per
// driver class plus formulas), so descriptions are emitted lazily from
// Collect rather than declared up front.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {}

// Collect satisfies prometheus.Collector, exporting every numeric entry
// from the tracker's stats snapshot as a gauge.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	for name, raw := range c.tracker.GetStats() {
		val, ok := toFloat(raw)
		if !ok {
			continue
		}
		desc := prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", sanitizeMetricName(name)),
			fmt.Sprintf("motor stat %q", name),
			nil, nil,
		)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, val)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func sanitizeMetricName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// ServeMetrics starts an HTTP server exposing tracker's stats at /metrics
// on a registry of its own (rather than the global default registry, so
// multiple Motor runs in one process don't collide), blocking until ctx is
// canceled.
func ServeMetrics(ctx context.Context, addr string, tracker *Tracker) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewStatsCollector(tracker)); err != nil {
		return wrap(err, "register stats collector")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
