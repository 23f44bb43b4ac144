package tree

import (
	"context"

	"github.com/variantlab/configcore/pkg/domain/configurator"
)

type rowKey struct {
	kind string
	id   uint64
}

// rowIndex addresses flattened step rows by kind and id. Duplicate-layout
// references only ever point at a row of the same kind.
type rowIndex map[rowKey]*configurator.StepRow

func indexRows(rows []configurator.StepRow) rowIndex {
	idx := make(rowIndex, len(rows))
	for i := range rows {
		row := &rows[i]
		idx[rowKey{kind: row.Kind, id: row.ID}] = row
	}
	return idx
}

func defaultTemplateKey(kind string) string {
	switch kind {
	case configurator.KindMainStep:
		return configurator.PropMainStepTemplate
	case configurator.KindStep:
		return configurator.PropStepTemplate
	case configurator.KindSubStep:
		return configurator.PropSubStepTemplate
	default:
		return ""
	}
}

// effectiveTemplate applies the duplicate-layout fallback for one row:
// the row's own template, then the duplicate target's own template, then
// the configurator-level default for the row's kind. Exactly one hop of
// indirection; a missing target silently contributes nothing.
func effectiveTemplate(row *configurator.StepRow, idx rowIndex, defaultFor func(kind string) string) string {
	if row.Template != "" {
		return row.Template
	}
	if row.DuplicateID != 0 {
		if target, ok := idx[rowKey{kind: row.Kind, id: row.DuplicateID}]; ok && target.Template != "" {
			return target.Template
		}
	}
	return defaultFor(row.Kind)
}

// configuratorScope resolves configurator-level properties with the same
// one-hop duplicate fallback the step axes use.
type configuratorScope struct {
	own       *configurator.Configurator
	duplicate *configurator.Configurator
}

func newConfiguratorScope(ctx context.Context, repo configurator.Repository, own *configurator.Configurator) configuratorScope {
	scope := configuratorScope{own: own}
	if own.DuplicateID == 0 {
		return scope
	}
	target, err := repo.Get(ctx, own.DuplicateID)
	if err != nil {
		// A missing duplicate target yields no value, never an error.
		return scope
	}
	scope.duplicate = target
	return scope
}

func (s configuratorScope) property(key string) string {
	if key == "" {
		return ""
	}
	if value := s.own.Property(key); value != "" {
		return value
	}
	return s.duplicate.Property(key)
}
