// Package resilience provides patterns for building fault-tolerant systems.
//
// This package includes:
//   - CircuitBreaker: Prevents cascading failures by failing fast
//   - Retry: Retries failed operations with exponential backoff
//   - RateLimiter: Controls request rate with token bucket algorithm
//
// Retry and CircuitBreaker wrap step execution through flow middleware
// (flow.WithRetry, flow.WithCircuitBreaker); RateLimiter guards the HTTP
// ingest source. The patterns compose directly as well:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("fetch"))
//	err := cb.Execute(func() error {
//	    _, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), fetch)
//	    return err
//	})
package resilience
