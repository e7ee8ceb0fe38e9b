// Package plan is the legacy, connector-column IR dialect.
//
// Everything here is already expressed in the data connector's vocabulary:
// collections, column names, connector operator names and connector argument
// names. Permission predicates are attached by the compiler, so a plan can be
// executed without consulting metadata again.
//
// Arguments is ordered and refuses silent overwrites. Insert fails when the
// name is taken; Override is the single explicit path for preset values.
package plan
