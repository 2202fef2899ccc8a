// Package errors provides unified error handling for flowkit.
// It implements structured error types with machine-readable codes for every
// failure the coordinator can produce, HTTP status mapping for the ingest
// surface, and retryable detection for transport-level failures.
package errors
