package metrics

import (
	"net/http"

	"github.com/itohio/voltlog/pkg/sample"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts pipeline events. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	samples      prometheus.Counter
	parseErrors  prometheus.Counter
	lookupErrors prometheus.Counter
	sinkErrors   *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	lastValue    prometheus.Gauge
	lastTime     prometheus.Gauge
}

// New creates the metrics on their own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voltlog_samples_total",
			Help: "Accepted samples.",
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voltlog_parse_errors_total",
			Help: "Lines dropped because they did not hold a number.",
		}),
		lookupErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voltlog_waveform_lookup_errors_total",
			Help: "Waveform lookups that fell back to 0.",
		}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voltlog_sink_errors_total",
			Help: "Failed sink writes and refreshes.",
		}, []string{"sink"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voltlog_dropped_samples_total",
			Help: "Samples dropped by asynchronous sinks.",
		}, []string{"sink"}),
		lastValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voltlog_last_voltage_volts",
			Help: "Value of the last accepted sample.",
		}),
		lastTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voltlog_last_sample_seconds",
			Help: "Time of the last accepted sample since acquisition start.",
		}),
	}

	m.registry.MustRegister(
		m.samples,
		m.parseErrors,
		m.lookupErrors,
		m.sinkErrors,
		m.dropped,
		m.lastValue,
		m.lastTime,
	)

	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SampleAccepted(s sample.Sample) {
	if m == nil {
		return
	}
	m.samples.Inc()
	m.lastValue.Set(s.Value)
	m.lastTime.Set(s.Time)
}

func (m *Metrics) ParseError() {
	if m == nil {
		return
	}
	m.parseErrors.Inc()
}

func (m *Metrics) LookupError() {
	if m == nil {
		return
	}
	m.lookupErrors.Inc()
}

func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}

func (m *Metrics) Dropped(sink string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(sink).Inc()
}
