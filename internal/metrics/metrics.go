// Package metrics exposes Prometheus instrumentation for the card ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Outcome labels shared by the authorization and payment counters.
const (
	OutcomeGranted       = "granted"
	OutcomeDenied        = "denied"
	OutcomeCompleted     = "completed"
	OutcomeNotAuthorized = "not_authorized"
	OutcomeConflict      = "conflict"
	OutcomeError         = "error"
)

// Metrics provides observability for the ledger services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Authorizations *prometheus.CounterVec
	Payments       *prometheus.CounterVec
	CardsIssued    prometheus.Counter
	CardUpdates    prometheus.Counter
	CurrentFee     prometheus.Gauge
}

// New registers the ledger metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Authorizations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rapidpay_authorizations_total",
			Help: "Authorization attempts by outcome",
		}, []string{"outcome"}),
		Payments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rapidpay_payments_total",
			Help: "Payment attempts by outcome",
		}, []string{"outcome"}),
		CardsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapidpay_cards_issued_total",
			Help: "Total number of cards issued",
		}),
		CardUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "rapidpay_card_updates_total",
			Help: "Card updates that changed at least one field",
		}),
		CurrentFee: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rapidpay_current_fee",
			Help: "Fee charged per payment at the last fee step",
		}),
	}
}

// RecordAuthorization counts an authorization attempt.
func (m *Metrics) RecordAuthorization(granted bool) {
	if m == nil {
		return
	}
	outcome := OutcomeDenied
	if granted {
		outcome = OutcomeGranted
	}
	m.Authorizations.WithLabelValues(outcome).Inc()
}

// RecordPayment counts a payment attempt under outcome.
func (m *Metrics) RecordPayment(outcome string) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(outcome).Inc()
}

// IncrementCardsIssued records a successful card issuance.
func (m *Metrics) IncrementCardsIssued() {
	if m == nil {
		return
	}
	m.CardsIssued.Inc()
}

// IncrementCardUpdates records an applied card update.
func (m *Metrics) IncrementCardUpdates() {
	if m == nil {
		return
	}
	m.CardUpdates.Inc()
}

// SetCurrentFee publishes the fee in effect.
func (m *Metrics) SetCurrentFee(fee decimal.Decimal) {
	if m == nil {
		return
	}
	m.CurrentFee.Set(fee.InexactFloat64())
}
