// Package schema builds the GraphQL schema published for a project's models,
// once, before any request is compiled.
//
// Every field and input field carries an Annotation telling the request
// compiler what it means (a unique identifier component, a model argument,
// the where clause...) and a Namespace gating which roles may see it. The
// built Schema is immutable and safe for concurrent reads.
//
// Argument sets are ordered and refuse overwrites: a name collision while
// building is an ARGUMENT_CONFLICT error, never last-write-wins.
package schema
