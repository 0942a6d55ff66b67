package dispatch

import (
	"errors"

	"github.com/PixPMusic/pedal-editor/internal/midi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dispatcher's Prometheus collectors
type Metrics struct {
	messagesSent *prometheus.CounterVec // Messages handed to the gateway (by type)
	sendErrors   *prometheus.CounterVec // Failed sends (by type and reason)
	outputs      prometheus.Gauge       // Output ports seen on the last refresh
}

// NewMetrics registers the dispatcher collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		messagesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pedal_editor_midi_messages_sent_total",
				Help: "MIDI messages sent to the selected output",
			},
			[]string{"type"},
		),
		sendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pedal_editor_midi_send_errors_total",
				Help: "MIDI messages that could not be sent",
			},
			[]string{"type", "reason"},
		),
		outputs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pedal_editor_midi_outputs",
				Help: "MIDI output ports currently available",
			},
		),
	}
}

func (m *Metrics) sent(msgType string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(msgType).Inc()
}

func (m *Metrics) failed(msgType string, err error) {
	if m == nil {
		return
	}
	m.sendErrors.WithLabelValues(msgType, reason(err)).Inc()
}

func (m *Metrics) setOutputs(n int) {
	if m == nil {
		return
	}
	m.outputs.Set(float64(n))
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrNoOutput):
		return "no_output"
	case errors.Is(err, midi.ErrInvalidChannel), errors.Is(err, midi.ErrOutOfRange):
		return "invalid"
	default:
		return "transport"
	}
}
