package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records counters for the payment and fulfillment pipeline.
type PipelineMetrics struct {
	confirmations *prometheus.CounterVec
	duplicates    prometheus.Counter
	recoveries    prometheus.Counter
	provisions    *prometheus.CounterVec
	reconciles    *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
// A nil registerer yields a no-op recorder, which keeps tests quiet.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_confirmations_total",
		Help: "Payment confirmation attempts by outcome.",
	}, []string{"outcome"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_confirmations_duplicate_total",
		Help: "Confirmations resolved as idempotent no-ops.",
	})
	recoveries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_confirmations_recovered_total",
		Help: "Confirmations materialized through the payload recovery path.",
	})
	provisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipment_provisions_total",
		Help: "Shipment provisioning attempts by outcome.",
	}, []string{"outcome"})
	reconciles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "status_reconciles_total",
		Help: "Status reconciliations by resolved status.",
	}, []string{"status"})
	reg.MustRegister(confirmations, duplicates, recoveries, provisions, reconciles)
	return &PipelineMetrics{
		confirmations: confirmations,
		duplicates:    duplicates,
		recoveries:    recoveries,
		provisions:    provisions,
		reconciles:    reconciles,
	}
}

// IncConfirmation counts one confirmation attempt by outcome.
func (p *PipelineMetrics) IncConfirmation(outcome string) {
	if p == nil || p.confirmations == nil {
		return
	}
	p.confirmations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDuplicate counts one idempotent confirmation no-op.
func (p *PipelineMetrics) IncDuplicate() {
	if p == nil || p.duplicates == nil {
		return
	}
	p.duplicates.Inc()
}

// IncRecovery counts one degraded-recovery materialization.
func (p *PipelineMetrics) IncRecovery() {
	if p == nil || p.recoveries == nil {
		return
	}
	p.recoveries.Inc()
}

// IncProvision counts one shipment provisioning attempt by outcome.
func (p *PipelineMetrics) IncProvision(outcome string) {
	if p == nil || p.provisions == nil {
		return
	}
	p.provisions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReconcile counts one reconciliation landing on the given status.
func (p *PipelineMetrics) IncReconcile(status string) {
	if p == nil || p.reconciles == nil {
		return
	}
	p.reconciles.WithLabelValues(normalizeLabel(status)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
