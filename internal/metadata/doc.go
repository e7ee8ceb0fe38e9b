// Package metadata holds the resolved description of models, object types,
// connector mappings and role permissions that the schema builder and the
// request compilers read.
//
// Metadata is immutable after construction. Package compiler builds it from
// CUE; tests build it directly.
package metadata
