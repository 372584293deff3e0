// Package observability provides logging setup and Prometheus metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Wallet session metrics
	ConnectAttempts  *prometheus.CounterVec
	Disconnects      *prometheus.CounterVec
	AccountChanges   prometheus.Counter
	BalanceFailures  prometheus.Counter
	TransactionsSent *prometheus.CounterVec

	// Metadata metrics
	MetadataDecodes *prometheus.CounterVec
	GatewayFetches  *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokendapp"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ConnectAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "connect_attempts_total",
			Help:      "Wallet connect attempts by adapter and result.",
		}, []string{"adapter", "result"}),
		Disconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "disconnects_total",
			Help:      "Session disconnects by reason (manual or external).",
		}, []string{"reason"}),
		AccountChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "account_changes_total",
			Help:      "Active account changes observed from the wallet.",
		}),
		BalanceFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "balance_refresh_failures_total",
			Help:      "Balance refreshes that failed and were reset to zero.",
		}),
		TransactionsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "transactions_total",
			Help:      "Transactions sent or signed through the session, by operation and result.",
		}, []string{"op", "result"}),
		MetadataDecodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "decodes_total",
			Help:      "Metadata account decodes by layout and result.",
		}, []string{"result"}),
		GatewayFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "gateway_fetches_total",
			Help:      "Content gateway fetches by result.",
		}, []string{"result"}),
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveConnect records a connect attempt.
func (m *Metrics) ObserveConnect(adapter, result string) {
	if m == nil {
		return
	}
	m.ConnectAttempts.WithLabelValues(adapter, result).Inc()
}

// ObserveDisconnect records a session teardown.
func (m *Metrics) ObserveDisconnect(reason string) {
	if m == nil {
		return
	}
	m.Disconnects.WithLabelValues(reason).Inc()
}

// ObserveAccountChange records an account switch.
func (m *Metrics) ObserveAccountChange() {
	if m == nil {
		return
	}
	m.AccountChanges.Inc()
}

// ObserveBalanceFailure records a failed balance refresh.
func (m *Metrics) ObserveBalanceFailure() {
	if m == nil {
		return
	}
	m.BalanceFailures.Inc()
}

// ObserveTransaction records a send/sign call.
func (m *Metrics) ObserveTransaction(op, result string) {
	if m == nil {
		return
	}
	m.TransactionsSent.WithLabelValues(op, result).Inc()
}

// ObserveDecode records a metadata decode outcome.
func (m *Metrics) ObserveDecode(result string) {
	if m == nil {
		return
	}
	m.MetadataDecodes.WithLabelValues(result).Inc()
}

// ObserveGateway records a gateway fetch outcome.
func (m *Metrics) ObserveGateway(result string) {
	if m == nil {
		return
	}
	m.GatewayFetches.WithLabelValues(result).Inc()
}
