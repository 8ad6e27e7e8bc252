// Package metrics provides Prometheus metrics instrumentation for the controller.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector provides metrics recording interface.
// This allows components to record metrics without direct prometheus dependency.
//
//nolint:interfacebloat // All methods are needed for comprehensive metrics coverage
type Collector interface {
	// Reconcile metrics
	RecordReconcile(ctx context.Context, action, status string, duration time.Duration)
	RecordStatusPatch(ctx context.Context, succeeded bool)

	// Dependent object metrics
	RecordSubresourceOperation(ctx context.Context, kind, operation, status string, duration time.Duration)
	RecordSubresourceError(ctx context.Context, kind, operation, errorType string)
	RecordTemplateFallback(ctx context.Context, kind string)

	// Vault metrics
	RecordVaultCall(ctx context.Context, operation, status string, duration time.Duration)
	RecordVaultError(ctx context.Context, operation, errorType string)
	RecordCredentialState(ctx context.Context, state string)
}

// prometheusCollector implements Collector using Prometheus metrics.
type prometheusCollector struct {
	// Reconcile metrics
	reconcileDuration *prometheus.HistogramVec
	reconcileTotal    *prometheus.CounterVec
	statusPatches     *prometheus.CounterVec

	// Dependent object metrics
	subresourceDuration *prometheus.HistogramVec
	subresourceOps      *prometheus.CounterVec
	subresourceErrors   *prometheus.CounterVec
	templateFallbacks   *prometheus.CounterVec

	// Vault metrics
	vaultDuration    *prometheus.HistogramVec
	vaultCallsTotal  *prometheus.CounterVec
	vaultErrorsTotal *prometheus.CounterVec
	credentialStates *prometheus.CounterVec
}

// NewCollector creates a new Prometheus metrics collector and registers metrics.
func NewCollector(reg prometheus.Registerer) Collector {
	c := &prometheusCollector{}
	c.initReconcileMetrics()
	c.initSubresourceMetrics()
	c.initVaultMetrics()
	c.register(reg)

	return c
}

// RecordReconcile records one reconciliation pass.
func (c *prometheusCollector) RecordReconcile(_ context.Context, action, status string, duration time.Duration) {
	c.reconcileDuration.WithLabelValues(action, status).Observe(duration.Seconds())
	c.reconcileTotal.WithLabelValues(action, status).Inc()
}

// RecordStatusPatch records a status write.
func (c *prometheusCollector) RecordStatusPatch(_ context.Context, succeeded bool) {
	c.statusPatches.WithLabelValues(strconv.FormatBool(succeeded)).Inc()
}

// RecordSubresourceOperation records an apply or delete of a dependent object.
func (c *prometheusCollector) RecordSubresourceOperation(
	_ context.Context,
	kind, operation, status string,
	duration time.Duration,
) {
	c.subresourceDuration.WithLabelValues(kind, operation).Observe(duration.Seconds())
	c.subresourceOps.WithLabelValues(kind, operation, status).Inc()
}

// RecordSubresourceError records a failed dependent object operation.
func (c *prometheusCollector) RecordSubresourceError(_ context.Context, kind, operation, errorType string) {
	c.subresourceErrors.WithLabelValues(kind, operation, errorType).Inc()
}

// RecordTemplateFallback records a template that fell back to an empty object.
func (c *prometheusCollector) RecordTemplateFallback(_ context.Context, kind string) {
	c.templateFallbacks.WithLabelValues(kind).Inc()
}

// RecordVaultCall records a vault call.
func (c *prometheusCollector) RecordVaultCall(
	_ context.Context,
	operation, status string,
	duration time.Duration,
) {
	c.vaultDuration.WithLabelValues(operation).Observe(duration.Seconds())
	c.vaultCallsTotal.WithLabelValues(operation, status).Inc()
}

// RecordVaultError records a vault error.
func (c *prometheusCollector) RecordVaultError(_ context.Context, operation, errorType string) {
	c.vaultErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordCredentialState records the credential state observed by the bootstrap pipeline.
func (c *prometheusCollector) RecordCredentialState(_ context.Context, state string) {
	c.credentialStates.WithLabelValues(state).Inc()
}

func (c *prometheusCollector) initReconcileMetrics() {
	c.reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cdbootstrap_reconcile_duration_seconds",
			Help:    "Duration of CDBootstrap reconciliation passes",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"action", "status"},
	)
	c.reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdbootstrap_reconcile_total",
			Help: "Total CDBootstrap reconciliation passes by action",
		},
		[]string{"action", "status"},
	)
	c.statusPatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdbootstrap_status_patches_total",
			Help: "Total status writes by reported outcome",
		},
		[]string{"succeeded"},
	)
}

func (c *prometheusCollector) initSubresourceMetrics() {
	c.subresourceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cdbootstrap_subresource_operation_duration_seconds",
			Help:    "Duration of dependent object operations",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind", "operation"},
	)
	c.subresourceOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdbootstrap_subresource_operations_total",
			Help: "Total dependent object operations",
		},
		[]string{"kind", "operation", "status"},
	)
	c.subresourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdbootstrap_subresource_errors_total",
			Help: "Total dependent object errors by type",
		},
		[]string{"kind", "operation", "error_type"},
	)
	c.templateFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdbootstrap_template_fallbacks_total",
			Help: "Templates that could not be constructed and fell back to an empty object",
		},
		[]string{"kind"},
	)
}

func (c *prometheusCollector) initVaultMetrics() {
	c.vaultDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cdbootstrap_vault_call_duration_seconds",
			Help:    "Duration of vault calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)
	c.vaultCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdbootstrap_vault_calls_total",
			Help: "Total vault calls",
		},
		[]string{"operation", "status"},
	)
	c.vaultErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdbootstrap_vault_errors_total",
			Help: "Total vault errors by type",
		},
		[]string{"operation", "error_type"},
	)
	c.credentialStates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cdbootstrap_credential_state_total",
			Help: "Credential states observed by the bootstrap pipeline",
		},
		[]string{"state"},
	)
}

func (c *prometheusCollector) register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.reconcileDuration,
		c.reconcileTotal,
		c.statusPatches,
		c.subresourceDuration,
		c.subresourceOps,
		c.subresourceErrors,
		c.templateFallbacks,
		c.vaultDuration,
		c.vaultCallsTotal,
		c.vaultErrorsTotal,
		c.credentialStates,
	)
}

// NoopCollector is a no-op implementation of Collector for testing.
type NoopCollector struct{}

// NewNoopCollector creates a new no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

// RecordReconcile is a no-op.
func (c *NoopCollector) RecordReconcile(_ context.Context, _, _ string, _ time.Duration) {}

// RecordStatusPatch is a no-op.
func (c *NoopCollector) RecordStatusPatch(_ context.Context, _ bool) {}

// RecordSubresourceOperation is a no-op.
func (c *NoopCollector) RecordSubresourceOperation(_ context.Context, _, _, _ string, _ time.Duration) {
}

// RecordSubresourceError is a no-op.
func (c *NoopCollector) RecordSubresourceError(_ context.Context, _, _, _ string) {}

// RecordTemplateFallback is a no-op.
func (c *NoopCollector) RecordTemplateFallback(_ context.Context, _ string) {}

// RecordVaultCall is a no-op.
func (c *NoopCollector) RecordVaultCall(_ context.Context, _, _ string, _ time.Duration) {}

// RecordVaultError is a no-op.
func (c *NoopCollector) RecordVaultError(_ context.Context, _, _ string) {}

// RecordCredentialState is a no-op.
func (c *NoopCollector) RecordCredentialState(_ context.Context, _ string) {}
