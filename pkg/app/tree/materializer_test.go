package tree

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/variantlab/configcore/pkg/domain"
	"github.com/variantlab/configcore/pkg/domain/configurator"
)

func setupMaterializer(repo *mockConfiguratorRepository) Materializer {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return NewMaterializer(logger, repo)
}

func TestMaterializer_Resolve_PositionsAndOrdering(t *testing.T) {
	repo := new(mockConfiguratorRepository)
	materializer := setupMaterializer(repo)
	ctx := context.Background()

	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}
	rows := []configurator.StepRow{
		{ID: 10, Kind: configurator.KindMainStep, Name: "base"},
		{ID: 20, Kind: configurator.KindStep, Name: "worktop"},
		{ID: 21, Kind: configurator.KindStep, Name: "front"},
		{ID: 30, Kind: configurator.KindSubStep, Name: "edge"},
	}
	// Links deliberately out of sibling order.
	links := []configurator.StepLink{
		{ID: 1, ParentID: 0, StepID: 10, Kind: configurator.KindMainStep, Ordering: 1},
		{ID: 3, ParentID: 10, StepID: 21, Kind: configurator.KindStep, Ordering: 3},
		{ID: 2, ParentID: 10, StepID: 20, Kind: configurator.KindStep, Ordering: 1},
		{ID: 4, ParentID: 20, StepID: 30, Kind: configurator.KindSubStep, Ordering: 2},
	}

	repo.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	repo.On("ListStepRows", ctx, uint64(1)).Return(rows, nil)
	repo.On("ListLinks", ctx, uint64(1)).Return(links, nil)

	out, err := materializer.Resolve(ctx, "kitchens", true)

	assert.NoError(t, err)
	assert.Equal(t, uint64(1), out.ConfiguratorID)
	assert.Len(t, out.Steps, 4)

	// Depth-first, siblings by ordering: base, worktop, edge, front.
	assert.Equal(t, "base", out.Steps[0].Name)
	assert.Equal(t, []int{0}, out.Steps[0].Position)

	assert.Equal(t, "worktop", out.Steps[1].Name)
	assert.Equal(t, []int{0, 0}, out.Steps[1].Position)

	assert.Equal(t, "edge", out.Steps[2].Name)
	assert.Equal(t, []int{0, 0, 1}, out.Steps[2].Position)
	assert.Equal(t, "0-0-1", out.Steps[2].PositionPath())

	assert.Equal(t, "front", out.Steps[3].Name)
	assert.Equal(t, []int{0, 2}, out.Steps[3].Position)
}

func TestMaterializer_Resolve_SkipsForeignKindsAndMissingRows(t *testing.T) {
	repo := new(mockConfiguratorRepository)
	materializer := setupMaterializer(repo)
	ctx := context.Background()

	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}
	rows := []configurator.StepRow{
		{ID: 10, Kind: configurator.KindMainStep, Name: "base"},
	}
	links := []configurator.StepLink{
		{ID: 1, ParentID: 0, StepID: 10, Kind: configurator.KindMainStep, Ordering: 1},
		{ID: 2, ParentID: 0, StepID: 11, Kind: "banner", Ordering: 2},
		{ID: 3, ParentID: 0, StepID: 99, Kind: configurator.KindMainStep, Ordering: 3},
	}

	repo.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	repo.On("ListStepRows", ctx, uint64(1)).Return(rows, nil)
	repo.On("ListLinks", ctx, uint64(1)).Return(links, nil)

	out, err := materializer.Resolve(ctx, "kitchens", true)

	assert.NoError(t, err)
	assert.Len(t, out.Steps, 1)
	assert.Equal(t, "base", out.Steps[0].Name)
}

func TestMaterializer_Resolve_WithoutSteps(t *testing.T) {
	repo := new(mockConfiguratorRepository)
	materializer := setupMaterializer(repo)
	ctx := context.Background()

	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}
	repo.On("GetByName", ctx, "kitchens").Return(cfg, nil)

	out, err := materializer.Resolve(ctx, "kitchens", false)

	assert.NoError(t, err)
	assert.Equal(t, "kitchens", out.ConfiguratorName)
	assert.Nil(t, out.Steps)
	repo.AssertNotCalled(t, "ListStepRows")
	repo.AssertNotCalled(t, "ListLinks")
}

func TestMaterializer_Resolve_UnknownConfigurator(t *testing.T) {
	repo := new(mockConfiguratorRepository)
	materializer := setupMaterializer(repo)
	ctx := context.Background()

	repo.On("GetByName", ctx, "missing").Return(nil, domain.NewNotFoundError("configurator", "missing"))

	out, err := materializer.Resolve(ctx, "missing", true)

	assert.NoError(t, err)
	assert.Equal(t, uint64(0), out.ConfiguratorID)
	assert.Empty(t, out.Steps)
}

func TestMaterializer_Resolve_NodeConditions(t *testing.T) {
	repo := new(mockConfiguratorRepository)
	materializer := setupMaterializer(repo)
	ctx := context.Background()

	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}
	rows := []configurator.StepRow{
		{
			ID:   10,
			Kind: configurator.KindMainStep,
			Properties: domain.PropertiesJSON{
				configurator.PropDependency:        "color(1,2); material",
				configurator.PropRequiredCondition: "material; color(1)",
			},
		},
	}
	links := []configurator.StepLink{
		{ID: 1, ParentID: 0, StepID: 10, Kind: configurator.KindMainStep, Ordering: 1},
	}

	repo.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	repo.On("ListStepRows", ctx, uint64(1)).Return(rows, nil)
	repo.On("ListLinks", ctx, uint64(1)).Return(links, nil)

	out, err := materializer.Resolve(ctx, "kitchens", true)

	assert.NoError(t, err)
	assert.Equal(t, []configurator.Dependency{
		{Step: "color", Values: []string{"1", "2"}},
		{Step: "material"},
	}, out.Steps[0].Dependencies)
	assert.Equal(t, []configurator.RequiredCondition{
		{Step: "color", Values: []string{"1"}},
	}, out.Steps[0].RequiredConditions)
}
