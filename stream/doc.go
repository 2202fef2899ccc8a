// Package stream provides the pull-based lazy sequence primitive flowkit
// uses for payload sources and pending-run polling.
//
// An Iterator yields values one at a time on demand; nothing is produced
// until the consumer pulls, which gives natural backpressure without an
// explicit flow-control protocol. Operators compose iterators: Map and
// Filter stay on the consumer's goroutine, Buffer inserts a background
// stage behind a buffered channel.
//
// Iterators are single-consumer. After exhaustion Next keeps reporting
// ok=false, and Close is idempotent.
package stream
