// Package query compiles model root fields of a normalized operation into
// IR.
//
// A root field is compiled in four steps: its arguments are classified by
// annotation, model argument values are resolved, the caller's presets are
// merged over them, and the row filter is built. The selection set is
// delegated to a selection.Builder. Every step runs in the dialect chosen by
// the request's ir.Pipeline.
//
// Usage:
//
//	c := query.NewCompiler(md, query.WithLogger(logger))
//	out, err := c.Compile(ctx, query.OperationRequest{
//		Operation: op,
//		Pipeline:  ir.PipelineLegacy,
//		Session:   sess,
//		Headers:   headers,
//	})
package query
