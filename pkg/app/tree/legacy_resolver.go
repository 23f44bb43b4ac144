package tree

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/domain"
	"github.com/variantlab/configcore/pkg/domain/configurator"
	"github.com/variantlab/configcore/pkg/types"
)

//go:generate mockery --name=LegacyResolver --dir=. --output=./mocks --filename=legacy_resolver_mock.go --case=underscore --with-expecter
type LegacyResolver interface {
	Resolve(ctx context.Context, configuratorName string) ([]types.LegacyStepDTO, error)
	ConfiguratorProperty(ctx context.Context, cfg *configurator.Configurator, key string) string
}

type legacyResolver struct {
	logger *logrus.Logger
	repo   configurator.Repository
}

func NewLegacyResolver(logger *logrus.Logger, repo configurator.Repository) LegacyResolver {
	return &legacyResolver{
		logger: logger,
		repo:   repo,
	}
}

// Resolve loads the flattened rows of one configurator and resolves the
// inherited template per row. An unknown configurator name yields an empty
// result, not an error.
func (r *legacyResolver) Resolve(ctx context.Context, configuratorName string) ([]types.LegacyStepDTO, error) {
	cfg, err := r.repo.GetByName(ctx, configuratorName)
	if err != nil {
		if domain.IsNotFoundError(err) {
			return []types.LegacyStepDTO{}, nil
		}
		return nil, err
	}

	rows, err := r.repo.ListStepRows(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	scope := newConfiguratorScope(ctx, r.repo, cfg)
	idx := indexRows(rows)
	defaultFor := func(kind string) string {
		return scope.property(defaultTemplateKey(kind))
	}

	out := make([]types.LegacyStepDTO, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		out = append(out, types.LegacyStepDTO{
			ID:                row.ID,
			Kind:              row.Kind,
			Name:              row.Name,
			Variable:          row.Variable,
			EffectiveTemplate: effectiveTemplate(row, idx, defaultFor),
			Properties:        row.Properties,
		})
	}
	return out, nil
}

// ConfiguratorProperty reads a configurator-level property with the one-hop
// duplicate fallback applied. Used for the price and delivery queries.
func (r *legacyResolver) ConfiguratorProperty(ctx context.Context, cfg *configurator.Configurator, key string) string {
	if cfg == nil {
		return ""
	}
	return newConfiguratorScope(ctx, r.repo, cfg).property(key)
}
