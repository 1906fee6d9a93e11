package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/ibus.go/pkg/ibus"
)

// NewRegistry creates a Registry with Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves metrics of reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// StatsSource provides decoder counters and signal state, e.g. *ibus.Receiver.
type StatsSource interface {
	Stats() ibus.Stats
	Signal() ibus.SignalState
}

// Receiver is the set of metrics exported for a receiver.
type Receiver struct {
	Channels      *prometheus.GaugeVec   // labels: channel
	PublishErrors *prometheus.CounterVec // labels: sink
}

// NewReceiver registers metrics reading counters from src.
func NewReceiver(reg prometheus.Registerer, src StatsSource) *Receiver {
	m := &Receiver{
		Channels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ibus_channel_value",
			Help: "Latest value of a channel.",
		}, []string{"channel"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ibus_publish_errors_total",
			Help: "Events failed to publish by sink.",
		}, []string{"sink"}),
	}
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "ibus_frames_total",
			Help: "Frames decoded with valid checksum.",
		}, func() float64 { return float64(src.Stats().Frames) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "ibus_frames_dropped_total",
			Help: "Frames dropped for checksum mismatch.",
		}, func() float64 { return float64(src.Stats().Dropped) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "ibus_bytes_discarded_total",
			Help: "Bytes discarded while seeking the sync byte.",
		}, func() float64 { return float64(src.Stats().Discarded) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ibus_signal_active",
			Help: "1 if valid frames are being received.",
		}, func() float64 {
			if src.Signal().IsActive() {
				return 1
			}
			return 0
		}),
		m.Channels,
		m.PublishErrors,
	)
	return m
}

// ObserveMessage records channel values.
func (m *Receiver) ObserveMessage(msg ibus.Message) {
	for n, v := range msg.Channels {
		m.Channels.WithLabelValues(strconv.Itoa(n)).Set(float64(v))
	}
}

// PublishFailed counts a failed publish to sink.
func (m *Receiver) PublishFailed(sink string) {
	m.PublishErrors.WithLabelValues(sink).Inc()
}
