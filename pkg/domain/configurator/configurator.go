package configurator

import (
	"fmt"
	"time"

	"github.com/variantlab/configcore/pkg/domain"
	"gorm.io/gorm"
)

// Step kinds recognized by the tree materializer. Link records pointing at
// any other kind are ignored during traversal.
const (
	KindMainStep = "main_step"
	KindStep     = "step"
	KindSubStep  = "sub_step"
)

// Property keys with duplicate-layout fallback semantics. Everything else in
// a row's Properties map is read from the row itself only.
const (
	PropTemplate           = "template"
	PropMainStepTemplate   = "main_step_template"
	PropStepTemplate       = "step_template"
	PropSubStepTemplate    = "sub_step_template"
	PropPriceQuery         = "price_query"
	PropDeliveryQuery      = "delivery_query"
	PropConfigurationQuery = "configuration_query"
	PropLineQuery          = "line_query"
	PropDependency         = "dependency"
	PropRequiredCondition  = "required_condition"
)

type Configurator struct {
	ID          uint64                `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string                `json:"name" gorm:"uniqueIndex"`
	DuplicateID uint64                `json:"duplicate_id"`
	Properties  domain.PropertiesJSON `json:"properties" gorm:"type:jsonb"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func (c *Configurator) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	return c.Validate()
}

func (c *Configurator) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func (c *Configurator) TableName() string {
	return "public.configurators"
}

// Property reads a configurator-level property from the configurator's own
// row. Duplicate-layout fallback is applied by the tree resolvers, not here.
func (c *Configurator) Property(key string) string {
	if c == nil || c.Properties == nil {
		return ""
	}
	return c.Properties[key]
}

// StepRow is one flattened row of the step tree: a main-step, step or
// sub-step together with its free-form properties. DuplicateID points at
// another row of the same kind whose template is inherited when this row's
// own template is empty.
type StepRow struct {
	ID             uint64                `json:"id" gorm:"primaryKey;autoIncrement"`
	ConfiguratorID uint64                `json:"configurator_id" gorm:"index"`
	Kind           string                `json:"kind"`
	Name           string                `json:"name"`
	Variable       string                `json:"variable"`
	Template       string                `json:"template"`
	DuplicateID    uint64                `json:"duplicate_id"`
	Properties     domain.PropertiesJSON `json:"properties" gorm:"type:jsonb"`
}

func (r *StepRow) TableName() string {
	return "public.configurator_steps"
}

// Property reads a free-form property from the row itself.
func (r *StepRow) Property(key string) string {
	if r.Properties == nil {
		return ""
	}
	return r.Properties[key]
}

// StepLink is one edge of the recursive tree variant. ParentID of zero
// attaches the step directly under the configurator. Ordering is 1-based.
type StepLink struct {
	ID             uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	ConfiguratorID uint64 `json:"configurator_id" gorm:"index"`
	ParentID       uint64 `json:"parent_id"`
	StepID         uint64 `json:"step_id"`
	Kind           string `json:"kind"`
	Ordering       int    `json:"ordering"`
}

func (l *StepLink) TableName() string {
	return "public.configurator_step_links"
}

// Dependency marks a node as relevant only while the referenced step holds
// one of Values. An empty Values slice means any non-empty value qualifies.
type Dependency struct {
	Step   string   `json:"step"`
	Values []string `json:"values,omitempty"`
}

// RequiredCondition is the stricter variant of Dependency: a value list is
// mandatory, segments without one are discarded during parsing.
type RequiredCondition struct {
	Step   string   `json:"step"`
	Values []string `json:"values"`
}

// StepNode is one materialized node of the recursive tree. It is derived on
// every resolution and never persisted.
type StepNode struct {
	ID                 uint64              `json:"id"`
	ParentID           uint64              `json:"parent_id"`
	Kind               string              `json:"kind"`
	Name               string              `json:"name"`
	Variable           string              `json:"variable"`
	Ordering           int                 `json:"ordering"`
	Position           []int               `json:"position"`
	Template           string              `json:"template"`
	Properties         map[string]string   `json:"properties,omitempty"`
	Dependencies       []Dependency        `json:"dependencies,omitempty"`
	RequiredConditions []RequiredCondition `json:"required_conditions,omitempty"`
}

// PositionPath renders the position as the dash-joined form used by the
// rendering layer, e.g. "0-2-1".
func (n *StepNode) PositionPath() string {
	if len(n.Position) == 0 {
		return ""
	}
	out := ""
	for i, p := range n.Position {
		if i > 0 {
			out += "-"
		}
		out += fmt.Sprintf("%d", p)
	}
	return out
}
