// Package component defines the lifecycle contract for the moving parts
// of a flowkit service.
//
// A Component is anything with a Start/Stop/Health lifecycle: the
// payload sources implement it, and services register their own. The
// Registry starts components in registration order and stops them in
// reverse. Describable and RouteProvider are optional extensions the
// bootstrap summary reads from.
package component
