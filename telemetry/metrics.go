// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesRelayed *prometheus.CounterVec // by direction
	MessagesDropped *prometheus.CounterVec // by reason
	NoticesRelayed  *prometheus.CounterVec // by event kind
	RawCommands     prometheus.Counter

	// Gauges
	IRCConnectedGauge   prometheus.Gauge // 1=registered, 0=not
	SlackConnectedGauge prometheus.Gauge // 1=open, 0=not
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_messages_relayed_total",
			Help: "Messages relayed between the two networks",
		}, []string{"direction"})
		MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_messages_dropped_total",
			Help: "Messages dropped instead of relayed",
		}, []string{"reason"})
		NoticesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_notices_total",
			Help: "IRC protocol events surfaced as Slack notices",
		}, []string{"event"})
		RawCommands = promauto.NewCounter(prometheus.CounterOpts{
			Name: "bridge_raw_commands_total",
			Help: "Raw IRC commands passed through from Slack",
		})
		IRCConnectedGauge = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_irc_connected",
			Help: "IRC registration state (1=registered)",
		})
		SlackConnectedGauge = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_slack_connected",
			Help: "Slack RTM connection state (1=open)",
		})
	})
}

// CountRelayed increments the relayed counter for a direction if metrics are
// initialized.
func CountRelayed(direction string) {
	if MessagesRelayed != nil {
		MessagesRelayed.WithLabelValues(direction).Inc()
	}
}

// CountDropped increments the dropped counter for a reason.
func CountDropped(reason string) {
	if MessagesDropped != nil {
		MessagesDropped.WithLabelValues(reason).Inc()
	}
}

// CountNotice increments the notice counter for an event kind.
func CountNotice(event string) {
	if NoticesRelayed != nil {
		NoticesRelayed.WithLabelValues(event).Inc()
	}
}

// CountRawCommand increments the raw command pass-through counter.
func CountRawCommand() {
	if RawCommands != nil {
		RawCommands.Inc()
	}
}

// SetIRCConnected sets the IRC gauge to 1 if connected else 0.
func SetIRCConnected(connected bool) {
	if IRCConnectedGauge != nil {
		if connected {
			IRCConnectedGauge.Set(1)
		} else {
			IRCConnectedGauge.Set(0)
		}
	}
}

// SetSlackConnected sets the Slack gauge to 1 if connected else 0.
func SetSlackConnected(connected bool) {
	if SlackConnectedGauge != nil {
		if connected {
			SlackConnectedGauge.Set(1)
		} else {
			SlackConnectedGauge.Set(0)
		}
	}
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
