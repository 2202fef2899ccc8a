package observability

import "context"

// HealthStatus is the service-level health vocabulary. Component
// statuses are mapped into it before aggregation.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health is one component's entry in a service health snapshot.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// ServiceHealth is an aggregated snapshot of a service and the
// components it runs. The overall Status is the worst component
// status: one down component marks the whole service down.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker reports one component health entry for the service
// aggregate.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// CheckerFunc adapts a function to the HealthChecker interface.
type CheckerFunc func(ctx context.Context) Health

// CheckHealth calls f.
func (f CheckerFunc) CheckHealth(ctx context.Context) Health { return f(ctx) }

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent appends a component entry and degrades the overall
// status if needed.
func (sh *ServiceHealth) AddComponent(h Health) {
	sh.Components = append(sh.Components, h)

	switch h.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// Collect polls every checker and aggregates the results into a
// ServiceHealth snapshot.
func Collect(ctx context.Context, service, version string, checkers ...HealthChecker) *ServiceHealth {
	sh := NewServiceHealth(service, version)
	for _, c := range checkers {
		sh.AddComponent(c.CheckHealth(ctx))
	}
	return sh
}
