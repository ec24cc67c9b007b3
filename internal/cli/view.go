package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/kilnfs/internal/entity"
)

// EntityView is the JSON rendering of one entity.
type EntityView struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Path      string          `json:"path"`
	CreatedAt time.Time       `json:"created_at"`
	Document  json.RawMessage `json:"document,omitempty"`
}

func viewOf(e entity.Entity, withDocument bool) (EntityView, error) {
	b := e.Meta()
	v := EntityView{
		Kind:      e.Kind().TypeTag(),
		ID:        b.ID,
		Name:      displayName(e),
		Path:      b.Path(),
		CreatedAt: b.CreatedAt,
	}
	if withDocument {
		doc, err := entity.Encode(e)
		if err != nil {
			return EntityView{}, err
		}
		v.Document = json.RawMessage(doc)
	}
	return v, nil
}

// summary renders one line: kind, id, optional name.
func summary(e entity.Entity) string {
	s := fmt.Sprintf("%s %s", e.Kind().Name(), e.Meta().ID)
	if name := displayName(e); name != "" {
		s += fmt.Sprintf(" %q", name)
	}
	return s
}

func displayName(e entity.Entity) string {
	if n, ok := e.(entity.Named); ok {
		return n.DisplayName()
	}
	return ""
}

// sortByCreation orders entities by created_at, then id.
// Scan order is platform dependent, so listings are always sorted.
func sortByCreation(es []entity.Entity) {
	sort.SliceStable(es, func(i, j int) bool {
		a, b := es[i].Meta(), es[j].Meta()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// printDocument writes the on-disk form of e, preceded by its path.
func printDocument(f *OutputFormatter, e entity.Entity) error {
	if f.Format == "json" {
		v, err := viewOf(e, true)
		if err != nil {
			return err
		}
		return f.Success(v)
	}

	doc, err := entity.Encode(e)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.Writer, "# %s\n", e.Meta().Path())
	fmt.Fprint(f.Writer, strings.TrimRight(string(doc), "\n")+"\n")
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
