// Package harness runs compilation scenarios against model metadata.
//
// A scenario is one GraphQL request compiled under one role and session,
// plus the outcome it must produce. Scenarios are YAML files:
//
//	name: user_posts_preset
//	description: "Region preset comes from the session"
//	role: user
//	session:
//	  x-hasura-tenant-id: acme
//	  x-hasura-region: eu
//	pipeline: legacy
//	query: |
//	  { Posts { title } }
//	assertions:
//	  - type: root_field
//	    field: Posts
//	    kind: select_many
//	    model: Posts
//	  - type: model_count
//	    model: Posts
//	    count: 1
//
// A scenario that must fail sets expect_error instead of (or as well as)
// assertions:
//
//	expect_error:
//	  stage: compile
//	  kind: MISSING_SESSION_VARIABLE
//	  field: UserByID
//
// # Assertion Types
//
//   - root_field: a compiled field with the given response key, and
//     optionally kind and model, exists
//   - model_count: the operation references a model exactly N times
//   - field_count: the operation compiled exactly N root fields
//   - ir_contains: the canonical IR of the operation contains a substring
//
// # Deterministic Output
//
// Request ids come from a fixed generator (request_id, or scenario-<name>)
// so the canonical IR of a passing scenario can be compared against a
// golden file with RunWithGolden.
package harness
