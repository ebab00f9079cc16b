// Package observability builds the console's logger and Prometheus metrics.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bawdo/dbconsole/console"
)

// Metrics records console activity. It satisfies console.Recorder.
type Metrics struct {
	registry        *prometheus.Registry
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	inputRejections *prometheus.CounterVec
	rowsReturned    prometheus.Counter
}

var _ console.Recorder = (*Metrics)(nil)

// NewMetrics registers the console collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbconsole_commands_total",
				Help: "Commands run from the menu, by outcome.",
			},
			[]string{"command", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbconsole_command_duration_seconds",
				Help:    "Time from choosing a command to its result, including input.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		inputRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbconsole_input_rejections_total",
				Help: "Operator inputs rejected as malformed, by expected type.",
			},
			[]string{"type"},
		),
		rowsReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dbconsole_rows_returned_total",
			Help: "Rows printed by query commands.",
		}),
	}
	m.registry.MustRegister(m.commandsTotal, m.commandDuration, m.inputRejections, m.rowsReturned)
	return m
}

func (m *Metrics) CommandCompleted(command string, outcome console.Outcome, elapsed time.Duration) {
	m.commandsTotal.WithLabelValues(command, string(outcome)).Inc()
	m.commandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

func (m *Metrics) InputRejected(fieldType string) {
	m.inputRejections.WithLabelValues(fieldType).Inc()
}

func (m *Metrics) RowsReturned(n int) {
	m.rowsReturned.Add(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on ln until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", slog.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
