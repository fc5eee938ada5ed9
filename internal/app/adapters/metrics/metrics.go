package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tmiclient/internal/app/ports"
)

var states = []string{"disconnected", "connecting", "awaiting_welcome", "ready", "reconnecting"}

var (
	// ConnectionState - 1 for the current connection state, 0 for the rest.
	ConnectionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tmi_connection_state",
			Help: "Current connection state of the chat client",
		},
		[]string{"state"},
	)

	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tmi_reconnects_total",
		Help: "Total number of scheduled reconnects",
	})

	// LinesReceived - dispatched lines by IRC command.
	LinesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmi_lines_received_total",
			Help: "Total number of lines received per IRC command",
		},
		[]string{"command"},
	)

	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tmi_parse_failures_total",
		Help: "Total number of malformed lines dropped",
	})

	// CommandDuration - time from send to settle, by command kind and outcome.
	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmi_command_duration_seconds",
			Help:    "Time until a pending command settles",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"kind", "outcome"},
	)

	Latency = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tmi_latency_seconds",
		Help: "Last measured PING/PONG round trip",
	})

	JoinedChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tmi_joined_channels",
		Help: "Number of channels currently joined",
	})
)

// Metrics exports client activity through the package collectors.
type Metrics struct{}

var _ ports.MetricsPort = Metrics{}

func New() Metrics {
	return Metrics{}
}

func (Metrics) SetState(state string) {
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		ConnectionState.WithLabelValues(s).Set(v)
	}
}

func (Metrics) IncReconnect() {
	Reconnects.Inc()
}

func (Metrics) IncLine(command string) {
	LinesReceived.WithLabelValues(command).Inc()
}

func (Metrics) IncParseFailure() {
	ParseFailures.Inc()
}

func (Metrics) ObserveCommand(kind, outcome string, d time.Duration) {
	CommandDuration.WithLabelValues(kind, outcome).Observe(d.Seconds())
}

func (Metrics) ObserveLatency(d time.Duration) {
	Latency.Set(d.Seconds())
}

func (Metrics) SetChannels(n int) {
	JoinedChannels.Set(float64(n))
}
