// Package schema validates entity documents against field constraints.
//
// Constraints are written in CUE and unified with the JSON form of a
// document. Every failure is reported as a Violation carrying a Loc, the
// breadcrumb of keys and list indexes leading to the offending value.
// Validation never stops at the first failure: callers always receive the
// full set found in one pass.
//
// This package imports nothing internal. The entity, graph and nested
// packages build on its Violation and Loc types.
package schema
