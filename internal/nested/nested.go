// Package nested creates a whole subtree of entities from one untyped,
// nested payload.
//
// A payload is a map of field names to values. Keys that name a declared
// relationship of the node's kind hold a list of child payloads:
//
//	{"name": "Root", "bs": [{"value": 1, "cs": [{"code": "ABC"}]}]}
//
// ValidateAndSave builds and checks every node before writing any of
// them, and reports all problems at once with their full location,
// e.g. bs[0].cs[2].code.
package nested

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/kilnfs/internal/entity"
	"github.com/roach88/kilnfs/internal/graph"
	"github.com/roach88/kilnfs/internal/schema"
)

// node is one built, not yet persisted, entity and its children in
// relationship declaration order.
type node struct {
	e        entity.Entity
	children []*node
}

// Validate checks payload as a kind tree rooted at kind without writing
// anything. parent, when given, is attached to the root so rules that
// depend on it can run. It returns a *entity.ValidationError listing
// every violation, or nil.
func Validate(reg *graph.Registry, kind *entity.Kind, payload map[string]any, parent entity.Entity) error {
	_, err := build(reg, kind, payload, "", parent)
	return err
}

// ValidateAndSave validates payload like Validate and, only when the
// whole tree is valid, saves every node top-down. The root is stored at
// path when given, otherwise at the location derived from parent.
//
// The two passes are not a transaction: a write failure part way through
// the commit, or a concurrent change between the passes, can leave a
// partial tree on disk.
func ValidateAndSave(reg *graph.Registry, kind *entity.Kind, payload map[string]any, path string, parent entity.Entity) (entity.Entity, error) {
	root, err := build(reg, kind, payload, path, parent)
	if err != nil {
		return nil, err
	}

	_, ok, err := reg.BuildPath(root.e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &entity.MissingLocationError{Kind: kind.Name(), ID: root.e.Meta().ID}
	}

	if err := commit(reg, root); err != nil {
		return nil, err
	}
	return root.e, nil
}

func build(reg *graph.Registry, kind *entity.Kind, payload map[string]any, path string, parent entity.Entity) (*node, error) {
	root, vs, err := buildNode(reg, kind, payload, parent)
	if err != nil {
		return nil, err
	}
	if len(vs) > 0 {
		return nil, &entity.ValidationError{Kind: kind.Name(), Violations: vs}
	}
	if path != "" {
		if err := root.e.Meta().SetPath(path); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// buildNode constructs kind from payload and recurses into every
// relationship key. Violations are returned relative to this node: its
// own first, then each relationship's in declaration order. The error
// result is reserved for failures that are not the payload's fault.
func buildNode(reg *graph.Registry, kind *entity.Kind, payload map[string]any, parent entity.Entity) (*node, schema.Violations, error) {
	fields := make(map[string]any, len(payload))
	for k, v := range payload {
		if _, isRel := reg.Relationship(kind, k); !isRel {
			fields[k] = v
		}
	}

	n, vs, err := decode(kind, fields)
	if err != nil {
		return nil, nil, err
	}

	if n != nil {
		if parent != nil {
			if err := reg.SetParent(n.e, parent); err != nil {
				return nil, nil, err
			}
		}
		vs = append(vs, reg.IDConflicts(n.e)...)
		if c, ok := n.e.(entity.Checker); ok {
			vs = append(vs, c.Check()...)
		}
	}

	var self entity.Entity
	if n != nil {
		self = n.e
	}
	for _, rel := range reg.Relationships(kind) {
		raw, present := payload[rel.Name]
		if !present || raw == nil {
			continue
		}

		items, ok := asList(raw)
		if !ok {
			vs = append(vs, schema.Violation{
				Loc:     schema.Loc{schema.Key(rel.Name)},
				Message: fmt.Sprintf("relationship %q must be a list of objects", rel.Name),
				Code:    schema.CodeShape,
			})
			continue
		}

		seen := make(map[string]int, len(items))
		for i, item := range items {
			childPayload, ok := item.(map[string]any)
			if !ok {
				vs = append(vs, schema.Violation{
					Loc:     schema.Loc{schema.Key(rel.Name), schema.Index(i)},
					Message: fmt.Sprintf("%s item must be an object, got %T", rel.Child.Name(), item),
					Code:    schema.CodeShape,
				})
				continue
			}

			child, childVs, err := buildNode(reg, rel.Child, childPayload, self)
			if err != nil {
				return nil, nil, err
			}
			vs = append(vs, childVs.Prefix(schema.Key(rel.Name), schema.Index(i))...)
			if child == nil {
				continue
			}
			id := child.e.Meta().ID
			if first, dup := seen[id]; dup {
				vs = append(vs, schema.At(schema.Loc{schema.Key(rel.Name), schema.Index(i), schema.Key("id")},
					"id %q is already used by %s[%d]", id, rel.Name, first))
			} else {
				seen[id] = i
			}
			if n != nil {
				n.children = append(n.children, child)
			}
		}
	}
	return n, vs, nil
}

// decode checks fields against kind's constraints and, if they hold,
// builds the entity. A nil node means the fields could not be decoded or
// the identity fields are unusable.
func decode(kind *entity.Kind, fields map[string]any) (*node, schema.Violations, error) {
	doc, err := json.Marshal(fields)
	if err != nil {
		return nil, schema.Violations{{Message: fmt.Sprintf("payload is not serializable: %v", err), Code: schema.CodeShape}}, nil
	}

	if s := kind.Schema(); s != nil {
		if vs := s.Check(doc); len(vs) > 0 {
			return nil, vs, nil
		}
	}

	e := kind.New()
	if err := json.Unmarshal(doc, e); err != nil {
		return nil, locateDecodeErrors(kind, fields, err), nil
	}
	entity.Init(e)
	if vs := entity.CheckIdentity(e); len(vs) > 0 {
		return nil, vs, nil
	}
	return &node{e: e}, nil, nil
}

// locateDecodeErrors decodes each field on its own to find which ones
// cannot be decoded into kind, reporting each at its own key. If no
// single field fails, err is reported at the node.
func locateDecodeErrors(kind *entity.Kind, fields map[string]any, err error) schema.Violations {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var vs schema.Violations
	for _, k := range keys {
		one, mErr := json.Marshal(map[string]any{k: fields[k]})
		if mErr != nil {
			continue
		}
		if fErr := json.Unmarshal(one, kind.New()); fErr != nil {
			vs = append(vs, schema.Violation{
				Loc:     schema.Loc{schema.Key(k)},
				Message: fmt.Sprintf("cannot decode %s: %v", k, fErr),
				Code:    schema.CodeShape,
			})
		}
	}
	if len(vs) == 0 {
		vs = schema.Violations{{Message: fmt.Sprintf("cannot decode %s: %v", kind.Name(), err), Code: schema.CodeShape}}
	}
	return vs
}

// asList accepts the list shapes produced by JSON, YAML and Go callers.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

func commit(reg *graph.Registry, n *node) error {
	if err := reg.Save(n.e); err != nil {
		return fmt.Errorf("save %s %q: %w", n.e.Kind().Name(), n.e.Meta().ID, err)
	}
	for _, child := range n.children {
		if err := commit(reg, child); err != nil {
			return err
		}
	}
	return nil
}
