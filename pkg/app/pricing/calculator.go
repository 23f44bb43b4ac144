package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
	"github.com/variantlab/configcore/pkg/app/substitution"
	"github.com/variantlab/configcore/pkg/app/tree"
	"github.com/variantlab/configcore/pkg/domain"
	"github.com/variantlab/configcore/pkg/domain/configurator"
	"github.com/variantlab/configcore/pkg/domain/integration"
	"github.com/variantlab/configcore/pkg/infra/apiclient"
	"github.com/variantlab/configcore/pkg/infra/repository"
	"github.com/variantlab/configcore/pkg/infra/settings"
	"github.com/variantlab/configcore/pkg/types"
)

//go:generate mockery --name=Calculator --dir=. --output=./mocks --filename=price_calculator_mock.go --case=underscore --with-expecter
type Calculator interface {
	Calculate(ctx context.Context, submission *types.Submission) types.PriceResult
}

type calculator struct {
	logger        *logrus.Logger
	configurators configurator.Repository
	integrations  integration.Repository
	resolver      tree.LegacyResolver
	engine        *substitution.Engine
	runner        repository.QueryRunner
	caller        apiclient.Caller
	settings      settings.Store
}

func NewCalculator(
	logger *logrus.Logger,
	configurators configurator.Repository,
	integrations integration.Repository,
	resolver tree.LegacyResolver,
	engine *substitution.Engine,
	runner repository.QueryRunner,
	caller apiclient.Caller,
	settingsStore settings.Store,
) Calculator {
	return &calculator{
		logger:        logger,
		configurators: configurators,
		integrations:  integrations,
		resolver:      resolver,
		engine:        engine,
		runner:        runner,
		caller:        caller,
		settings:      settingsStore,
	}
}

// Calculate sums external pricing calls and the local aggregate query into
// one price triple. It degrades to a zero triple instead of failing: an
// unknown configurator, or any error escaping a pricing call, zeroes the
// whole result. A non-2xx pricing response only zeroes that supplier's
// contribution.
func (c *calculator) Calculate(ctx context.Context, submission *types.Submission) types.PriceResult {
	var zero types.PriceResult

	cfg, err := c.configurators.GetByName(ctx, submission.Configurator)
	if err != nil {
		if !domain.IsNotFoundError(err) {
			c.logger.WithError(err).Error("failed to load configurator for pricing")
		}
		return zero
	}

	descriptors, err := c.integrations.ListByKind(ctx, cfg.ID, integration.KindPricing)
	if err != nil {
		c.logger.WithError(err).Error("failed to load pricing descriptors")
		return zero
	}

	dashValues := c.settings.Bool(ctx, settings.KeyDashValues, false)

	total := types.PriceResult{}
	for i := range descriptors {
		descriptor := &descriptors[i]
		contribution, err := c.callDescriptor(ctx, descriptor, submission, dashValues)
		if err != nil {
			// A failed call is "this supplier has no price"; an error is
			// "pricing is broken" and aborts the whole computation.
			c.logger.WithError(err).WithField("integration", descriptor.Name).
				Error("pricing call failed, aborting price computation")
			return zero
		}
		total = total.Add(contribution)
	}

	local, err := c.localAggregate(ctx, cfg, submission, dashValues)
	if err != nil {
		c.logger.WithError(err).Error("local price aggregate failed, aborting price computation")
		return zero
	}
	return total.Add(local)
}

func (c *calculator) callDescriptor(
	ctx context.Context,
	descriptor *integration.ApiDescriptor,
	submission *types.Submission,
	dashValues bool,
) (types.PriceResult, error) {
	var zero types.PriceResult

	paths, err := descriptor.PricePaths()
	if err != nil {
		return zero, err
	}
	if descriptor.Endpoint == "" || descriptor.BodyTemplate == "" || !paths.Complete() {
		return zero, nil
	}

	scoped := submission
	if descriptor.LookupQuery != "" {
		extra, err := c.runLookup(ctx, descriptor.LookupQuery, submission, dashValues)
		if err != nil {
			return zero, err
		}
		scoped = submission.WithQueryItems(extra)
	}

	opts := substitution.Options{Mode: substitution.Literal, DashValues: dashValues}
	endpoint := c.engine.Substitute(descriptor.Endpoint, scoped, opts)
	body := c.engine.StripUnresolved(c.engine.Substitute(descriptor.BodyTemplate, scoped, opts))
	if strings.TrimSpace(body) == "" {
		return zero, nil
	}
	if !substitution.IsValidJSON(body) {
		// Only an empty body skips the call; a non-JSON body is the
		// supplier's contract to reject.
		c.logger.WithField("integration", descriptor.Name).Warn("pricing request body is not valid JSON")
	}

	resp, err := c.caller.Do(ctx, descriptor, &apiclient.Request{
		Method:    descriptor.Method,
		URL:       endpoint,
		Body:      []byte(body),
		AuthValue: c.engine.Substitute(descriptor.AuthValue, scoped, opts),
	})
	if err != nil {
		return zero, err
	}
	if !resp.IsSuccess() {
		c.logger.WithFields(logrus.Fields{
			"integration": descriptor.Name,
			"status":      resp.StatusCode,
		}).Warn("pricing call unsuccessful, supplier contributes no price")
		return zero, nil
	}

	return extractPrices(resp.Body, paths)
}

func (c *calculator) runLookup(
	ctx context.Context,
	query string,
	submission *types.Submission,
	dashValues bool,
) (map[string]string, error) {
	params := substitution.NewParams()
	substituted := c.engine.Substitute(query, submission, substitution.Options{
		Mode:       substitution.QueryParameter,
		Sink:       params,
		DashValues: dashValues,
	})
	result, err := c.runner.Query(ctx, substituted, params.Args())
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		return nil, nil
	}
	return result.MapAt(0), nil
}

// localAggregate runs the configurator's effective price query. Column 0 is
// the customer price, column 1 the optional purchase price, column 2 the
// optional "from" price defaulting to the customer price.
func (c *calculator) localAggregate(
	ctx context.Context,
	cfg *configurator.Configurator,
	submission *types.Submission,
	dashValues bool,
) (types.PriceResult, error) {
	var zero types.PriceResult

	query := c.resolver.ConfiguratorProperty(ctx, cfg, configurator.PropPriceQuery)
	if query == "" {
		return zero, nil
	}

	params := substitution.NewParams()
	substituted := c.engine.Substitute(query, submission, substitution.Options{
		Mode:       substitution.QueryParameter,
		Sink:       params,
		DashValues: dashValues,
	})
	result, err := c.runner.Query(ctx, substituted, params.Args())
	if err != nil {
		return zero, err
	}
	if result.Empty() {
		return zero, nil
	}

	customer := result.FloatAt(0, 0, 0)
	return types.PriceResult{
		CustomerPrice: customer,
		PurchasePrice: result.FloatAt(0, 1, 0),
		FromPrice:     result.FloatAt(0, 2, customer),
	}, nil
}

func extractPrices(body []byte, paths integration.PricePaths) (types.PriceResult, error) {
	parsed, err := fastjson.ParseBytes(body)
	if err != nil {
		return types.PriceResult{}, fmt.Errorf("failed to parse pricing response: %w", err)
	}
	return types.PriceResult{
		PurchasePrice: jsonPathFloat(parsed, paths.Purchase),
		CustomerPrice: jsonPathFloat(parsed, paths.Customer),
		FromPrice:     jsonPathFloat(parsed, paths.From),
	}, nil
}

func jsonPathFloat(value *fastjson.Value, dottedPath string) float64 {
	return value.GetFloat64(strings.Split(dottedPath, ".")...)
}
