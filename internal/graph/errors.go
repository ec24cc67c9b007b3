package graph

import (
	"fmt"
	"strings"

	"github.com/roach88/kilnfs/internal/entity"
)

// ConfigError reports invalid relationship declarations.
// All problems found while building a registry are reported together.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: invalid relationship registry:\n  %s", entity.CodeConfig, strings.Join(e.Problems, "\n  "))
}

func (e *ConfigError) Code() entity.ErrorCode { return entity.CodeConfig }

// MissingIDError reports an attempt to derive a directory name for an
// entity without an id.
type MissingIDError struct {
	Kind string
}

func (e *MissingIDError) Error() string {
	return fmt.Sprintf("cannot build a path for %s: id is not assigned", e.Kind)
}

// InvalidIDError reports an id that cannot be used as a directory name.
type InvalidIDError struct {
	Kind string
	ID   string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("cannot build a path for %s: id %q is not a single safe path segment", e.Kind, e.ID)
}
