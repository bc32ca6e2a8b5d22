package metrics

import "github.com/prometheus/client_golang/prometheus"

// QueueMetrics exposes counters for booking intake and queue commands.
type QueueMetrics struct {
	bookingsTotal *prometheus.CounterVec
	commandsTotal *prometheus.CounterVec
}

func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	m := &QueueMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cliniccore",
			Subsystem: "bookings",
			Name:      "submitted_total",
			Help:      "Total booking submissions",
		}, []string{"status"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cliniccore",
			Subsystem: "queue",
			Name:      "commands_total",
			Help:      "Total queue commands applied",
		}, []string{"command", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.commandsTotal)
	return m
}

func (m *QueueMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *QueueMetrics) ObserveCommand(command, status string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, status).Inc()
}

// AIMetrics exposes counters/histograms for assistant generation and the
// WhatsApp relay.
type AIMetrics struct {
	inboundTotal    *prometheus.CounterVec
	generateLatency *prometheus.HistogramVec
}

func NewAIMetrics(reg prometheus.Registerer) *AIMetrics {
	m := &AIMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cliniccore",
			Subsystem: "whatsapp",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound WhatsApp webhooks",
		}, []string{"message_type", "status"}),
		generateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cliniccore",
			Subsystem: "ai",
			Name:      "generate_latency_seconds",
			Help:      "Latency of assistant text generation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"purpose"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.generateLatency)
	return m
}

func (m *AIMetrics) ObserveInbound(messageType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(messageType, status).Inc()
}

func (m *AIMetrics) ObserveGenerateLatency(purpose string, seconds float64) {
	if m == nil {
		return
	}
	m.generateLatency.WithLabelValues(purpose).Observe(seconds)
}
