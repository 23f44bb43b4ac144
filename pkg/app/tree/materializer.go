package tree

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/domain"
	"github.com/variantlab/configcore/pkg/domain/configurator"
	"github.com/variantlab/configcore/pkg/types"
)

//go:generate mockery --name=Materializer --dir=. --output=./mocks --filename=materializer_mock.go --case=underscore --with-expecter
type Materializer interface {
	Resolve(ctx context.Context, configuratorName string, includeSteps bool) (*types.TreeDTO, error)
}

type materializer struct {
	logger *logrus.Logger
	repo   configurator.Repository
}

func NewMaterializer(logger *logrus.Logger, repo configurator.Repository) Materializer {
	return &materializer{
		logger: logger,
		repo:   repo,
	}
}

// arenaNode is one entry of the materialization arena: the link that placed
// the step in the tree, the step's row payload, and the indexes of its
// children in sibling order.
type arenaNode struct {
	link     configurator.StepLink
	row      *configurator.StepRow
	children []int
	position []int
}

// Resolve materializes the recursive tree for one configurator: nodes in
// depth-first order with positions and inherited templates resolved during
// the walk. Unknown names resolve to an empty tree.
func (m *materializer) Resolve(ctx context.Context, configuratorName string, includeSteps bool) (*types.TreeDTO, error) {
	cfg, err := m.repo.GetByName(ctx, configuratorName)
	if err != nil {
		if domain.IsNotFoundError(err) {
			return &types.TreeDTO{}, nil
		}
		return nil, err
	}

	out := &types.TreeDTO{
		ConfiguratorID:   cfg.ID,
		ConfiguratorName: cfg.Name,
	}
	if !includeSteps {
		return out, nil
	}

	rows, err := m.repo.ListStepRows(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	links, err := m.repo.ListLinks(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	scope := newConfiguratorScope(ctx, m.repo, cfg)
	idx := indexRows(rows)
	defaultFor := func(kind string) string {
		return scope.property(defaultTemplateKey(kind))
	}

	arena, childrenOf := buildArena(links, idx)

	roots := childrenOf[0]
	sortSiblings(arena, roots)

	// Positions top-down in a single pass over the populated arena, instead
	// of re-walking parent pointers per node.
	var steps []configurator.StepNode
	var walk func(nodeIdx int, parentPos []int)
	walk = func(nodeIdx int, parentPos []int) {
		node := &arena[nodeIdx]
		node.position = append(append([]int{}, parentPos...), node.link.Ordering-1)

		steps = append(steps, m.materialize(node, idx, defaultFor))

		sortSiblings(arena, node.children)
		for _, child := range node.children {
			walk(child, node.position)
		}
	}
	for _, root := range roots {
		walk(root, nil)
	}

	out.Steps = steps
	return out, nil
}

// buildArena turns link records into arena nodes, dropping links of foreign
// kinds and links whose step row is missing. Children of unreachable
// parents stay unvisited and are therefore never emitted.
func buildArena(links []configurator.StepLink, idx rowIndex) ([]arenaNode, map[uint64][]int) {
	arena := make([]arenaNode, 0, len(links))
	childrenOf := make(map[uint64][]int)

	for _, link := range links {
		switch link.Kind {
		case configurator.KindMainStep, configurator.KindStep, configurator.KindSubStep:
		default:
			continue
		}
		row, ok := idx[rowKey{kind: link.Kind, id: link.StepID}]
		if !ok {
			continue
		}
		arena = append(arena, arenaNode{link: link, row: row})
		childrenOf[link.ParentID] = append(childrenOf[link.ParentID], len(arena)-1)
	}

	for i := range arena {
		arena[i].children = childrenOf[arena[i].link.StepID]
	}
	return arena, childrenOf
}

func sortSiblings(arena []arenaNode, siblings []int) {
	sort.SliceStable(siblings, func(a, b int) bool {
		return arena[siblings[a]].link.Ordering < arena[siblings[b]].link.Ordering
	})
}

func (m *materializer) materialize(node *arenaNode, idx rowIndex, defaultFor func(kind string) string) configurator.StepNode {
	row := node.row
	return configurator.StepNode{
		ID:                 row.ID,
		ParentID:           node.link.ParentID,
		Kind:               row.Kind,
		Name:               row.Name,
		Variable:           row.Variable,
		Ordering:           node.link.Ordering,
		Position:           node.position,
		Template:           effectiveTemplate(row, idx, defaultFor),
		Properties:         row.Properties,
		Dependencies:       ParseDependencies(row.Property(configurator.PropDependency)),
		RequiredConditions: ParseRequiredConditions(row.Property(configurator.PropRequiredCondition)),
	}
}
