// Package graph relates entity kinds to each other and maps the resulting
// object tree onto directories.
//
// A Registry is a static table, built once at startup, of named one-to-many
// relationships from a parent kind to a child kind. Everything else in the
// package is a function of that table:
//
//   - BuildPath derives where an unsaved child lives from its parent.
//   - Parent lazily loads a child's parent from the child's own path.
//   - AllChildrenOf and Children enumerate a relationship by directory scan.
//   - Save validates and writes an entity at its derived location.
//
// # Directory layout
//
// A parent stored at P/parent.kiln keeps the children of relationship r in
// sibling directories:
//
//	P/parent.kiln
//	P/r/<child id>[ - <name>]/child.kiln
//
// No document stores a reference to its parent; the directory structure is
// the relationship. A child's path is derived on first save and never
// changes afterwards, even if the fields it was derived from do.
package graph
