// Package ir provides the literal value domain shared by every compiled
// artifact, the pipeline tag that selects an IR dialect, and canonical
// encoding for fingerprints.
//
// This package imports nothing internal. The dialect packages (plan and
// queryir), the schema and the compilers all build on it.
//
// Key constraints:
//   - No float values; fractional numbers are rejected at the boundary
//   - Object keys are iterated in RFC 8785 order for deterministic output
//   - Dialect-dependent code branches through SwitchPipeline only
package ir
