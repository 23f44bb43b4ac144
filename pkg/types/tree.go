package types

import "github.com/variantlab/configcore/pkg/domain/configurator"

// LegacyStepDTO is one flattened row of the legacy tree with its inherited
// template already resolved.
type LegacyStepDTO struct {
	ID                uint64            `json:"id"`
	Kind              string            `json:"kind"`
	Name              string            `json:"name"`
	Variable          string            `json:"variable"`
	EffectiveTemplate string            `json:"effective_template"`
	Properties        map[string]string `json:"properties,omitempty"`
}

// TreeDTO is the recursive-variant output: the configurator plus its
// ordered step nodes with computed positions. Steps is nil when the caller
// asked for the definition only or the configurator is unknown.
type TreeDTO struct {
	ConfiguratorID   uint64                  `json:"configurator_id"`
	ConfiguratorName string                  `json:"configurator_name"`
	Steps            []configurator.StepNode `json:"steps,omitempty"`
}
