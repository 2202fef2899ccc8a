// Package graph implements the directed dependency graph underlying the
// flowkit coordinator.
//
// A Graph maps each named node to the ordered list of its successors.
// It answers structural queries (roots, leaves, intermediates, reversal),
// detects cycles through Tarjan's strongly connected components, and finds
// diagnostic paths between nodes. The component decomposition is cached and
// invalidated by every mutation.
package graph
