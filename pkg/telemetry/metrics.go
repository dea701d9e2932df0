// Package telemetry reports what the link does: prometheus metrics and
// events published over MQTT.
package telemetry

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/uartlink/pkg/l0/comm"
)

const namespace = "uartlink"

// Metrics observes the dispatcher or reader and counts link errors.
type Metrics struct {
	Responses  *prometheus.CounterVec
	Statuses   *prometheus.CounterVec
	Frames     *prometheus.CounterVec
	Errors     prometheus.Counter
	Received   prometheus.Counter
	Unfinished prometheus.Gauge
	Handled    *prometheus.CounterVec
}

// NewMetrics creates metrics labelled with the device id.
func NewMetrics(device string) *Metrics {
	labels := prometheus.Labels{"device": device}
	return &Metrics{
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "link",
			Name:        "responses_total",
			Help:        "Responses sent to the host by code.",
			ConstLabels: labels,
		}, []string{"code"}),
		Statuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "parser",
			Name:        "results_total",
			Help:        "Parser results by frame status.",
			ConstLabels: labels,
		}, []string{"status"}),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "link",
			Name:        "frames_total",
			Help:        "Verified frames by command.",
			ConstLabels: labels,
		}, []string{"cmd"}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "link",
			Name:        "errors_total",
			Help:        "Transport and protocol errors.",
			ConstLabels: labels,
		}),
		Received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "link",
			Name:        "received_bytes_total",
			Help:        "Bytes handed to the parser.",
			ConstLabels: labels,
		}),
		Unfinished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "parser",
			Name:        "unfinished_polls",
			Help:        "Consecutive polls ending with an unfinished frame.",
			ConstLabels: labels,
		}),
		Handled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "device",
			Name:        "commands_total",
			Help:        "Commands handled by the device.",
			ConstLabels: labels,
		}, []string{"cmd", "success"}),
	}
}

// MustRegister registers all collectors.
func (m *Metrics) MustRegister(reg prometheus.Registerer) *Metrics {
	reg.MustRegister(m.Responses, m.Statuses, m.Frames, m.Errors, m.Received, m.Unfinished, m.Handled)
	return m
}

// Observe implements comm.Observer.
func (m *Metrics) Observe(r comm.PollResult) {
	if r.Responded {
		m.Responses.WithLabelValues(r.Response.String()).Inc()
	}
	if r.Status == 0 {
		return
	}
	m.Received.Add(float64(r.Available.Count))
	m.Statuses.WithLabelValues(r.Status.String()).Inc()
	if r.Status == comm.StatusUnfinished && !r.Responded {
		m.Unfinished.Inc()
	} else {
		m.Unfinished.Set(0)
	}
	if r.Frame != nil {
		m.Frames.WithLabelValues(strconv.Itoa(int(r.Frame.Cmd))).Inc()
	}
}

// CommandHandled records the outcome of handling a command.
func (m *Metrics) CommandHandled(cmd string, err error) {
	success := "true"
	if err != nil {
		success = "false"
	}
	m.Handled.WithLabelValues(cmd, success).Inc()
}

// Handler serves the metrics of the gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Server serves /metrics until the context is done.
type Server struct {
	Addr     string
	Gatherer prometheus.Gatherer
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "metrics"
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(s.Gatherer))
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		srv.Close()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
