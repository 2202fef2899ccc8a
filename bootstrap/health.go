package bootstrap

import (
	"context"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/observability"
)

// componentChecker adapts a lifecycle component to the service health
// vocabulary.
func componentChecker(c component.Component) observability.HealthChecker {
	return observability.CheckerFunc(func(ctx context.Context) observability.Health {
		h := c.Health(ctx)
		return observability.Health{
			Name:    h.Name,
			Status:  healthStatus(h.Status),
			Message: h.Message,
		}
	})
}

// healthStatus maps a component status onto the service vocabulary.
func healthStatus(s component.HealthStatus) observability.HealthStatus {
	switch s {
	case component.StatusHealthy:
		return observability.HealthStatusUp
	case component.StatusDegraded:
		return observability.HealthStatusDegraded
	default:
		return observability.HealthStatusDown
	}
}

// serviceHealth polls every registered component and aggregates the
// results into a service-level snapshot.
func serviceHealth(ctx context.Context, service, version string, registry *component.Registry) *observability.ServiceHealth {
	components := registry.All()
	checkers := make([]observability.HealthChecker, 0, len(components))
	for _, c := range components {
		checkers = append(checkers, componentChecker(c))
	}
	return observability.Collect(ctx, service, version, checkers...)
}

// Health reports the aggregated health of the application and its
// components. The overall status is up only while every component is
// healthy.
func (a *App[C]) Health(ctx context.Context) *observability.ServiceHealth {
	return serviceHealth(ctx, a.Name, a.Version, a.Components)
}
