package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/observability"
)

// ComponentStatus holds the tracked status of a component during bootstrap.
type ComponentStatus struct {
	Name    string
	Status  string
	Healthy bool
}

// InfrastructureInfo holds detailed infrastructure component information.
type InfrastructureInfo struct {
	Name    string
	Type    string // e.g. "kafka", "redis", "server"
	Status  string
	Details string
	Port    int
	Healthy bool
}

// FlowInfo represents a registered flow and its step names.
type FlowInfo struct {
	Name  string
	Steps []string
}

// RouteInfo represents a registered HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// Summary tracks and displays the application bootstrap process.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	components      []ComponentStatus
	infrastructure  []InfrastructureInfo
	flows           []FlowInfo
	routes          []RouteInfo
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName:    serviceName,
		version:        version,
		components:     make([]ComponentStatus, 0),
		infrastructure: make([]InfrastructureInfo, 0),
		flows:          make([]FlowInfo, 0),
		routes:         make([]RouteInfo, 0),
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackComponent adds a component's bootstrap status to the summary.
func (s *Summary) TrackComponent(name, status string, healthy bool) {
	s.components = append(s.components, ComponentStatus{
		Name:    name,
		Status:  status,
		Healthy: healthy,
	})
}

// TrackInfrastructure adds an infrastructure component with detailed metadata.
func (s *Summary) TrackInfrastructure(name, componentType, status, details string, port int, healthy bool) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    componentType,
		Status:  status,
		Details: details,
		Port:    port,
		Healthy: healthy,
	})
}

// TrackFlow records a flow and its step names.
func (s *Summary) TrackFlow(name string, steps []string) {
	s.flows = append(s.flows, FlowInfo{Name: name, Steps: steps})
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
}

// collect auto-discovers entries from the component registry. Components
// implementing Describable land in the infrastructure section, the rest
// in the component list; RouteProvider components contribute routes.
// Entries already tracked by name are left alone.
func (s *Summary) collect(registry *component.Registry) {
	if registry == nil {
		return
	}

	seen := make(map[string]bool)
	for _, inf := range s.infrastructure {
		seen[inf.Name] = true
	}
	for _, c := range s.components {
		seen[c.Name] = true
	}
	seenRoutes := make(map[string]bool)
	for _, r := range s.routes {
		seenRoutes[r.Method+" "+r.Path] = true
	}

	ctx := context.Background()
	for _, comp := range registry.All() {
		h := comp.Health(ctx)
		healthy := h.Status == component.StatusHealthy

		if d, ok := comp.(component.Describable); ok {
			desc := d.Describe()
			name := desc.Name
			if name == "" {
				name = comp.Name()
			}
			if !seen[name] {
				seen[name] = true
				s.infrastructure = append(s.infrastructure, InfrastructureInfo{
					Name:    name,
					Type:    desc.Type,
					Status:  strings.ToLower(string(h.Status)),
					Details: desc.Details,
					Port:    desc.Port,
					Healthy: healthy,
				})
			}
		} else if !seen[comp.Name()] {
			seen[comp.Name()] = true
			s.components = append(s.components, ComponentStatus{
				Name:    comp.Name(),
				Status:  strings.ToLower(string(h.Status)),
				Healthy: healthy,
			})
		}

		if rp, ok := comp.(component.RouteProvider); ok {
			for _, r := range rp.Routes() {
				key := r.Method + " " + r.Path
				if seenRoutes[key] {
					continue
				}
				seenRoutes[key] = true
				s.routes = append(s.routes, RouteInfo(r))
			}
		}
	}
}

// DisplaySummary prints the bootstrap summary, auto-collecting
// infrastructure and routes from the registry and appending live health.
func (s *Summary) DisplaySummary(registry *component.Registry) {
	s.collect(registry)

	fmt.Printf("\n")
	fmt.Printf("🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.infrastructure) > 0 {
		fmt.Printf("📊 Infrastructure\n")
		for i, inf := range s.infrastructure {
			icon := statusIcon(inf.Status, inf.Healthy)
			details := inf.Details
			if inf.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Printf("   %s %s %s: %s\n", treePrefix(i, len(s.infrastructure)), icon, inf.Name, details)
		}
		fmt.Printf("\n")
	}

	if len(s.components) > 0 {
		fmt.Printf("📦 Components\n")
		healthy := 0
		for i, c := range s.components {
			icon := statusIcon(c.Status, c.Healthy)
			fmt.Printf("   %s %s %s (%s)\n", treePrefix(i, len(s.components)), icon, c.Name, c.Status)
			if c.Healthy {
				healthy++
			}
		}
		fmt.Printf("\n")

		total := len(s.components)
		if healthy == total {
			fmt.Printf("✅ All components healthy (%d/%d)\n\n", healthy, total)
		} else {
			fmt.Printf("⚠️  Some components have issues (%d/%d healthy)\n\n", healthy, total)
		}
	}

	if len(s.infrastructure) == 0 && len(s.components) == 0 {
		fmt.Printf("   └── No components registered\n\n")
	}

	if len(s.flows) > 0 {
		fmt.Printf("🔀 Flows\n")
		for i, f := range s.flows {
			fmt.Printf("   %s %s: %s\n", treePrefix(i, len(s.flows)), f.Name, strings.Join(f.Steps, " → "))
		}
		fmt.Printf("\n")
	}

	if len(s.routes) > 0 {
		fmt.Printf("🌐 Routes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Printf("   %s %s%-7s%s %s → %s\n",
				treePrefix(i, len(s.routes)), methodColor(r.Method), r.Method, colorReset, r.Path, r.Handler)
		}
		fmt.Printf("\n")
	}

	if registry != nil {
		health := serviceHealth(context.Background(), s.serviceName, s.version, registry)
		if len(health.Components) > 0 {
			fmt.Printf("🏥 Health Check: %s %s\n", healthStatusIcon(health.Status), health.Status)
			for i, h := range health.Components {
				msg := ""
				if h.Message != "" {
					msg = fmt.Sprintf(": %s", h.Message)
				}
				fmt.Printf("   %s %s %s: %s%s\n",
					treePrefix(i, len(health.Components)), healthStatusIcon(h.Status), h.Name, h.Status, msg)
			}
		}
	}

	fmt.Printf("\n")
}

// treePrefix returns the tree-drawing prefix for item i of n.
func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func statusIcon(status string, healthy bool) string {
	switch status {
	case "degraded":
		return "⚠️"
	case "inactive", "disabled":
		return "⏸️"
	case "error", "failed", "unhealthy":
		return "❌"
	}
	if !healthy {
		return "❌"
	}
	switch status {
	case "active", "connected", "running", "healthy":
		return "✅"
	default:
		return "⚠️"
	}
}

func healthStatusIcon(status observability.HealthStatus) string {
	switch status {
	case observability.HealthStatusUp:
		return "✅"
	case observability.HealthStatusDegraded:
		return "⚠️"
	case observability.HealthStatusDown:
		return "❌"
	default:
		return "❓"
	}
}

const colorReset = "\033[0m"

// methodColor returns the ANSI color code used for an HTTP method in the
// route listing.
func methodColor(method string) string {
	switch method {
	case "GET":
		return "\033[32m"
	case "POST":
		return "\033[36m"
	case "PUT":
		return "\033[33m"
	case "PATCH":
		return "\033[35m"
	case "DELETE":
		return "\033[31m"
	default:
		return "\033[37m"
	}
}
