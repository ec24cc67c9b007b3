package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/kilnfs/internal/entity"
)

// Relationship is a named one-to-many edge from Parent to Child.
type Relationship struct {
	Parent *entity.Kind
	Name   string
	Child  *entity.Kind
}

// String renders the relationship as "Task.requirements -> TaskRequirement".
func (r Relationship) String() string {
	return fmt.Sprintf("%s.%s -> %s", r.Parent.Name(), r.Name, r.Child.Name())
}

// Edge is one relationship in a Declaration.
type Edge struct {
	Name  string
	Child *entity.Kind
}

// Rel declares a relationship named name holding children of kind child.
func Rel(name string, child *entity.Kind) Edge {
	return Edge{Name: name, Child: child}
}

// Declaration lists the relationships of one parent kind, in order.
type Declaration struct {
	Parent *entity.Kind
	Edges  []Edge
}

// ParentOf declares parent's relationships. A kind with no children may
// still be declared, with no edges, to register it.
func ParentOf(parent *entity.Kind, edges ...Edge) Declaration {
	return Declaration{Parent: parent, Edges: edges}
}

// Registry is the static relationship table.
// It is immutable after construction and safe for concurrent reads.
type Registry struct {
	kinds    map[string]*entity.Kind
	children map[*entity.Kind][]Relationship
	parents  map[*entity.Kind]Relationship
}

// NewRegistry builds and checks a registry.
//
// Rejected declarations, all reported in one ConfigError:
//   - a parent declaring the same relationship name twice
//   - a parent declared more than once
//   - a child kind stored under more than one parent or relationship
//   - a relationship name that is not a single, safe path segment
//   - two kinds sharing a type tag
//   - any cycle among kinds, including a kind parented by itself
func NewRegistry(decls ...Declaration) (*Registry, error) {
	r := &Registry{
		kinds:    make(map[string]*entity.Kind),
		children: make(map[*entity.Kind][]Relationship),
		parents:  make(map[*entity.Kind]Relationship),
	}

	var problems []string
	addKind := func(k *entity.Kind) {
		if existing, ok := r.kinds[k.TypeTag()]; ok && existing != k {
			problems = append(problems, fmt.Sprintf("kinds %s and %s share type tag %q", existing.Name(), k.Name(), k.TypeTag()))
			return
		}
		r.kinds[k.TypeTag()] = k
	}

	declared := make(map[*entity.Kind]bool)
	for _, d := range decls {
		if d.Parent == nil {
			problems = append(problems, "declaration without a parent kind")
			continue
		}
		if declared[d.Parent] {
			problems = append(problems, fmt.Sprintf("%s declares its relationships more than once", d.Parent.Name()))
			continue
		}
		declared[d.Parent] = true
		addKind(d.Parent)

		names := make(map[string]bool)
		for _, e := range d.Edges {
			if e.Child == nil {
				problems = append(problems, fmt.Sprintf("%s.%s has no child kind", d.Parent.Name(), e.Name))
				continue
			}
			if err := checkSegment(e.Name); err != "" {
				problems = append(problems, fmt.Sprintf("%s.%s: %s", d.Parent.Name(), e.Name, err))
				continue
			}
			if names[e.Name] {
				problems = append(problems, fmt.Sprintf("%s declares relationship %q twice", d.Parent.Name(), e.Name))
				continue
			}
			names[e.Name] = true

			rel := Relationship{Parent: d.Parent, Name: e.Name, Child: e.Child}
			if prev, ok := r.parents[e.Child]; ok {
				problems = append(problems, fmt.Sprintf("%s is a child of both %s and %s", e.Child.Name(), prev, rel))
				continue
			}
			addKind(e.Child)
			r.parents[e.Child] = rel
			r.children[d.Parent] = append(r.children[d.Parent], rel)
		}
	}

	for _, cycle := range findKindCycles(r.children) {
		problems = append(problems, fmt.Sprintf("relationship cycle: %s", strings.Join(cycle, " -> ")))
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
// Intended for package-level registries built at startup.
func MustNewRegistry(decls ...Declaration) *Registry {
	r, err := NewRegistry(decls...)
	if err != nil {
		panic(err)
	}
	return r
}

// checkSegment returns a description of why name cannot be a directory
// name, or "" if it can.
func checkSegment(name string) string {
	switch {
	case name == "":
		return "relationship name is empty"
	case name == "." || name == "..":
		return "relationship name is a relative path element"
	case strings.ContainsAny(name, `/\`):
		return "relationship name contains a path separator"
	case strings.TrimSpace(name) != name:
		return "relationship name has surrounding whitespace"
	}
	return ""
}

// Kinds returns every registered kind, sorted by type tag.
func (r *Registry) Kinds() []*entity.Kind {
	out := make([]*entity.Kind, 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeTag() < out[j].TypeTag() })
	return out
}

// KindByTag returns the kind serialized under tag.
func (r *Registry) KindByTag(tag string) (*entity.Kind, bool) {
	k, ok := r.kinds[tag]
	return k, ok
}

// KindByName returns the kind with the given name or type tag.
func (r *Registry) KindByName(name string) (*entity.Kind, bool) {
	if k, ok := r.kinds[name]; ok {
		return k, true
	}
	k, ok := r.kinds[entity.TypeTag(name)]
	return k, ok
}

// RelationshipOf returns the relationship child kinds are stored under.
// Root kinds have none.
func (r *Registry) RelationshipOf(child *entity.Kind) (Relationship, bool) {
	rel, ok := r.parents[child]
	return rel, ok
}

// ParentKind returns the declared parent kind of child.
func (r *Registry) ParentKind(child *entity.Kind) (*entity.Kind, bool) {
	rel, ok := r.parents[child]
	return rel.Parent, ok
}

// RelationshipName returns the relationship name child is stored under.
func (r *Registry) RelationshipName(child *entity.Kind) (string, bool) {
	rel, ok := r.parents[child]
	return rel.Name, ok
}

// Relationships returns parent's relationships in declaration order.
func (r *Registry) Relationships(parent *entity.Kind) []Relationship {
	return r.children[parent]
}

// Relationship returns parent's relationship called name.
func (r *Registry) Relationship(parent *entity.Kind, name string) (Relationship, bool) {
	for _, rel := range r.children[parent] {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relationship{}, false
}

// lookup is Relationship returning a ConfigError for unknown names.
func (r *Registry) lookup(parent *entity.Kind, name string) (Relationship, error) {
	rel, ok := r.Relationship(parent, name)
	if !ok {
		return Relationship{}, &ConfigError{Problems: []string{fmt.Sprintf("%s has no relationship %q", parent.Name(), name)}}
	}
	return rel, nil
}
