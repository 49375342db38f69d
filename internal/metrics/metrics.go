// Package metrics exposes Prometheus counters for predictions and chat.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors on their own registry so tests can
// build as many as they like.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	warnings    *prometheus.CounterVec
	chatReplies *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medirisk",
			Name:      "predictions_total",
			Help:      "Predictions served, by domain and outcome.",
		}, []string{"domain", "outcome"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medirisk",
			Name:      "prediction_input_warnings_total",
			Help:      "Inputs that did not match the model declaration, by domain and kind.",
		}, []string{"domain", "kind"}),
		chatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medirisk",
			Name:      "chat_replies_total",
			Help:      "Chat replies, by source (bot or offline).",
		}, []string{"source"}),
	}
	reg.MustRegister(
		m.predictions,
		m.warnings,
		m.chatReplies,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObservePrediction(domain string, positive bool) {
	outcome := "negative"
	if positive {
		outcome = "positive"
	}
	m.predictions.WithLabelValues(domain, outcome).Inc()
}

func (m *Metrics) ObserveWarning(domain, kind string) {
	m.warnings.WithLabelValues(domain, kind).Inc()
}

func (m *Metrics) ObserveChatReply(offline bool) {
	source := "bot"
	if offline {
		source = "offline"
	}
	m.chatReplies.WithLabelValues(source).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
