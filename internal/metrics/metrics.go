// Package metrics exposes the confirmation flow's observability counters.
// The continue-on-secondary-failure policy in the orchestrator is
// deliberate; these counters are what keeps it from being silent.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type PaymentMetrics struct {
	callbacks            *prometheus.CounterVec
	reservationConflicts prometheus.Counter
	generationFailures   prometheus.Counter
	eventPublishFailures prometheus.Counter
}

func NewPaymentMetrics() *PaymentMetrics {
	return newPaymentMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newPaymentMetricsWithRegisterer(registerer prometheus.Registerer) *PaymentMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PaymentMetrics{
		callbacks: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "tutorly_payment_callbacks_total",
			Help: "Provider callbacks processed, by provider and result",
		}, []string{"provider", "result"}),
		reservationConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "tutorly_reservation_conflicts_total",
			Help: "Paid orders whose slot reservation hit a conflict",
		}),
		generationFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "tutorly_schedule_generation_failures_total",
			Help: "Paid orders whose schedule generation failed",
		}),
		eventPublishFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "tutorly_event_publish_failures_total",
			Help: "order.paid events that could not be published",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func (m *PaymentMetrics) RecordCallback(provider, result string) {
	m.callbacks.WithLabelValues(provider, result).Inc()
}

func (m *PaymentMetrics) RecordReservationConflict() {
	m.reservationConflicts.Inc()
}

func (m *PaymentMetrics) RecordGenerationFailure() {
	m.generationFailures.Inc()
}

func (m *PaymentMetrics) RecordEventPublishFailure() {
	m.eventPublishFailures.Inc()
}
