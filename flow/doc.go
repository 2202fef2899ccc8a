// Package flow coordinates registered steps into a dependency-ordered
// concurrent run. A Coordinator owns the step registry and the graph
// between steps; Verify checks the whole definition, Run executes it
// once against a single input payload, and Poll keeps starting runs as
// payloads arrive from a source.
//
//	c := flow.New(flow.WithMaxConcurrency(8))
//	c.Add(fetch).Add(parse).Add(store)
//	if err := c.Err(); err != nil {
//		return err
//	}
//	results, err := c.Run(ctx, payload, map[string]any{"retries": 3})
//
// Steps start as soon as every declared dependency has produced a
// result. The returned map holds the results of the leaf steps, the
// ones nothing else depends on.
//
// Flow definitions can also be loaded from YAML documents with Parse or
// LoadFile, resolving executor names through an ExecutorRegistry.
package flow
