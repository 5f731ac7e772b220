package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the pipeline's Prometheus collectors. Constructor-built and
// injected, never package-level state, so tests get isolated registries.
type Metrics struct {
	registry *prometheus.Registry

	MessagesProcessed prometheus.Counter
	VerdictsTotal     *prometheus.CounterVec
	SendsTotal        *prometheus.CounterVec
	SendFailures      *prometheus.CounterVec
	DigestFlushes     *prometheus.CounterVec
}

// New creates a new metrics set on its own registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		MessagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scam_sentinel_messages_processed_total",
			Help: "Messages fetched from the mailbox and run through the pipeline",
		}),
		VerdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scam_sentinel_verdicts_total",
			Help: "Verdicts produced, by label",
		}, []string{"label"}),
		SendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scam_sentinel_alert_sends_total",
			Help: "Immediate alert sends, by channel",
		}, []string{"channel"}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scam_sentinel_alert_send_failures_total",
			Help: "Failed alert sends, by channel",
		}, []string{"channel"}),
		DigestFlushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scam_sentinel_digest_flushes_total",
			Help: "Digest summaries sent, by channel",
		}, []string{"channel"}),
	}

	registry.MustRegister(
		m.MessagesProcessed,
		m.VerdictsTotal,
		m.SendsTotal,
		m.SendFailures,
		m.DigestFlushes,
	)

	return m
}

// Serve exposes the registry on /metrics. Blocks until the server exits.
func (m *Metrics) Serve(addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	logger.Info("Serving metrics", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}
