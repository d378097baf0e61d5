package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProvisioningMetrics tracks license provisioning outcomes per order pass.
type ProvisioningMetrics struct {
	provisioned *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewProvisioningMetrics registers the provisioning metrics on the provided registerer.
func NewProvisioningMetrics(reg prometheus.Registerer) *ProvisioningMetrics {
	if reg == nil {
		return &ProvisioningMetrics{}
	}
	provisioned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "licenses_provisioned_total",
		Help: "Licenses provisioned from completed orders, by path.",
	}, []string{"path"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "license_provisioning_failures_total",
		Help: "Line items that failed to provision a license, by reason.",
	}, []string{"reason"})
	reg.MustRegister(provisioned, failures)
	return &ProvisioningMetrics{
		provisioned: provisioned,
		failures:    failures,
	}
}

// IncProvisioned increments the provisioned counter for the given path (new/upgrade).
func (p *ProvisioningMetrics) IncProvisioned(path string) {
	if p == nil || p.provisioned == nil {
		return
	}
	p.provisioned.WithLabelValues(normalizeLabel(path)).Inc()
}

// IncFailure increments the failure counter for the given reason.
func (p *ProvisioningMetrics) IncFailure(reason string) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}
