package pricing

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/app/substitution"
	"github.com/variantlab/configcore/pkg/app/tree"
	"github.com/variantlab/configcore/pkg/domain"
	"github.com/variantlab/configcore/pkg/domain/configurator"
	"github.com/variantlab/configcore/pkg/infra/repository"
	"github.com/variantlab/configcore/pkg/infra/settings"
	"github.com/variantlab/configcore/pkg/types"
)

//go:generate mockery --name=DeliveryFinder --dir=. --output=./mocks --filename=delivery_finder_mock.go --case=underscore --with-expecter
type DeliveryFinder interface {
	Find(ctx context.Context, submission *types.Submission) types.DeliveryResult
}

type deliveryFinder struct {
	logger        *logrus.Logger
	configurators configurator.Repository
	resolver      tree.LegacyResolver
	engine        *substitution.Engine
	runner        repository.QueryRunner
	settings      settings.Store
}

func NewDeliveryFinder(
	logger *logrus.Logger,
	configurators configurator.Repository,
	resolver tree.LegacyResolver,
	engine *substitution.Engine,
	runner repository.QueryRunner,
	settingsStore settings.Store,
) DeliveryFinder {
	return &deliveryFinder{
		logger:        logger,
		configurators: configurators,
		resolver:      resolver,
		engine:        engine,
		runner:        runner,
		settings:      settingsStore,
	}
}

// Find runs the configurator's delivery query: column 0 is the delivery
// time, column 1 the optional extra. Degrades to empty values on any
// failure.
func (f *deliveryFinder) Find(ctx context.Context, submission *types.Submission) types.DeliveryResult {
	var zero types.DeliveryResult

	cfg, err := f.configurators.GetByName(ctx, submission.Configurator)
	if err != nil {
		if !domain.IsNotFoundError(err) {
			f.logger.WithError(err).Error("failed to load configurator for delivery time")
		}
		return zero
	}

	query := f.resolver.ConfiguratorProperty(ctx, cfg, configurator.PropDeliveryQuery)
	if query == "" {
		return zero
	}

	params := substitution.NewParams()
	substituted := f.engine.Substitute(query, submission, substitution.Options{
		Mode:       substitution.QueryParameter,
		Sink:       params,
		DashValues: f.settings.Bool(ctx, settings.KeyDashValues, false),
	})
	result, err := f.runner.Query(ctx, substituted, params.Args())
	if err != nil {
		f.logger.WithError(err).Error("delivery time query failed")
		return zero
	}
	if result.Empty() {
		return zero
	}

	return types.DeliveryResult{
		DeliveryTime:      result.StringAt(0, 0),
		DeliveryTimeExtra: result.StringAt(0, 1),
	}
}
