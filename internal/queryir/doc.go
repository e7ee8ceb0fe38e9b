// Package queryir is the structured, connector-agnostic IR dialect.
//
// Filters here are written in terms of OpenDD field names, not connector
// columns, and comparison operators are logical (Equals) or the GraphQL
// operator name. A downstream planner resolves names to columns and applies
// role permissions; nothing in this package knows about data connectors.
//
// The sibling package plan holds the legacy, connector-column dialect. For any
// request the two must filter identically.
//
// SEALED INTERFACES:
//
// BooleanExpression and ObjectSubSelection are sealed with marker methods so
// consumers can switch exhaustively:
//
//	switch e := expr.(type) {
//	case And:
//	case Or:
//	case Not:
//	case Comparison:
//	case IsNull:
//	case RelationshipPredicate:
//	default:
//	    // impossible
//	}
package queryir
