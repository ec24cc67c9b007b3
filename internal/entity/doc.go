// Package entity defines the unit of storage: a strictly-typed document
// persisted as one JSON file.
//
// Every entity embeds Base, which carries the identity fields shared by
// all kinds:
//
//	{
//	    "v": 1,
//	    "id": "3f2a9c01b7de",
//	    "model_type": "task_requirement",
//	    "created_at": "2024-05-01T12:00:00Z",
//	    "created_by": "alice",
//	    ...kind-specific fields...
//	}
//
// A Kind describes one concrete entity type: its name, type tag, base
// filename, maximum supported schema version and field constraints.
// Relationships between kinds live in the graph package; this package only
// knows how to read and write a single document at a known path.
//
// # Load-time gates
//
//   - A missing file is a NotFoundError.
//   - A schema version above Kind.MaxSchemaVersion is a SchemaVersionError,
//     checked before anything else is decoded.
//   - A stored model_type different from Kind.TypeTag is a TypeMismatchError.
//   - Malformed JSON, or fields violating the kind's constraints, is a
//     DecodeError.
//
// This package never logs. Errors are returned to the caller untouched
// apart from wrapping.
package entity
