package pricing

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/variantlab/configcore/pkg/app/substitution"
	"github.com/variantlab/configcore/pkg/domain"
	"github.com/variantlab/configcore/pkg/domain/configurator"
	"github.com/variantlab/configcore/pkg/domain/integration"
	"github.com/variantlab/configcore/pkg/infra/apiclient"
	"github.com/variantlab/configcore/pkg/infra/repository"
	"github.com/variantlab/configcore/pkg/types"
)

// mockConfiguratorRepository is a mock for configurator.Repository
type mockConfiguratorRepository struct {
	mock.Mock
}

func (m *mockConfiguratorRepository) GetByName(ctx context.Context, name string) (*configurator.Configurator, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*configurator.Configurator), args.Error(1)
}

func (m *mockConfiguratorRepository) Get(ctx context.Context, id uint64) (*configurator.Configurator, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*configurator.Configurator), args.Error(1)
}

func (m *mockConfiguratorRepository) ListStepRows(ctx context.Context, configuratorID uint64) ([]configurator.StepRow, error) {
	args := m.Called(ctx, configuratorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]configurator.StepRow), args.Error(1)
}

func (m *mockConfiguratorRepository) ListLinks(ctx context.Context, configuratorID uint64) ([]configurator.StepLink, error) {
	args := m.Called(ctx, configuratorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]configurator.StepLink), args.Error(1)
}

// mockIntegrationRepository is a mock for integration.Repository
type mockIntegrationRepository struct {
	mock.Mock
}

func (m *mockIntegrationRepository) ListByKind(ctx context.Context, configuratorID uint64, kind string) ([]integration.ApiDescriptor, error) {
	args := m.Called(ctx, configuratorID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ApiDescriptor), args.Error(1)
}

// mockLegacyResolver is a mock for tree.LegacyResolver
type mockLegacyResolver struct {
	mock.Mock
}

func (m *mockLegacyResolver) Resolve(ctx context.Context, configuratorName string) ([]types.LegacyStepDTO, error) {
	args := m.Called(ctx, configuratorName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.LegacyStepDTO), args.Error(1)
}

func (m *mockLegacyResolver) ConfiguratorProperty(ctx context.Context, cfg *configurator.Configurator, key string) string {
	args := m.Called(ctx, cfg, key)
	return args.String(0)
}

// mockQueryRunner is a mock for repository.QueryRunner
type mockQueryRunner struct {
	mock.Mock
}

func (m *mockQueryRunner) Query(ctx context.Context, query string, params []sql.NamedArg) (*repository.ResultSet, error) {
	args := m.Called(ctx, query, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ResultSet), args.Error(1)
}

// mockCaller is a mock for apiclient.Caller
type mockCaller struct {
	mock.Mock
}

func (m *mockCaller) Do(ctx context.Context, descriptor *integration.ApiDescriptor, req *apiclient.Request) (*apiclient.Response, error) {
	args := m.Called(ctx, descriptor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apiclient.Response), args.Error(1)
}

// mockSettingsStore is a mock for settings.Store
type mockSettingsStore struct {
	mock.Mock
}

func (m *mockSettingsStore) String(ctx context.Context, key, def string) string {
	args := m.Called(ctx, key, def)
	return args.String(0)
}

func (m *mockSettingsStore) Bool(ctx context.Context, key string, def bool) bool {
	args := m.Called(ctx, key, def)
	return args.Bool(0)
}

func (m *mockSettingsStore) Int(ctx context.Context, key string, def int) int {
	args := m.Called(ctx, key, def)
	return args.Int(0)
}

func (m *mockSettingsStore) RetryPolicy(ctx context.Context) (integration.RetryPolicy, error) {
	args := m.Called(ctx)
	policy, _ := args.Get(0).(integration.RetryPolicy)
	return policy, args.Error(1)
}

type calculatorFixture struct {
	configurators *mockConfiguratorRepository
	integrations  *mockIntegrationRepository
	resolver      *mockLegacyResolver
	runner        *mockQueryRunner
	caller        *mockCaller
	settings      *mockSettingsStore
	calculator    Calculator
}

func setupCalculator() *calculatorFixture {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests

	f := &calculatorFixture{
		configurators: new(mockConfiguratorRepository),
		integrations:  new(mockIntegrationRepository),
		resolver:      new(mockLegacyResolver),
		runner:        new(mockQueryRunner),
		caller:        new(mockCaller),
		settings:      new(mockSettingsStore),
	}
	f.calculator = NewCalculator(
		logger,
		f.configurators,
		f.integrations,
		f.resolver,
		substitution.NewEngine(logger),
		f.runner,
		f.caller,
		f.settings,
	)
	return f
}

func pricingDescriptor(name string) integration.ApiDescriptor {
	return integration.ApiDescriptor{
		ConfiguratorID: 1,
		Kind:           integration.KindPricing,
		Name:           name,
		Endpoint:       "https://supplier.example/price",
		Method:         "POST",
		BodyTemplate:   `{"width": {42}}`,
		Settings: domain.PropertiesJSON{
			"purchase_price_path": "prices.purchase",
			"customer_price_path": "prices.customer",
			"from_price_path":     "prices.from",
		},
	}
}

func TestCalculator_Calculate_UnknownConfigurator(t *testing.T) {
	f := setupCalculator()
	ctx := context.Background()

	f.configurators.On("GetByName", ctx, "missing").
		Return(nil, domain.NewNotFoundError("configurator", "missing"))

	result := f.calculator.Calculate(ctx, &types.Submission{Configurator: "missing"})

	assert.Equal(t, types.PriceResult{}, result)
	f.caller.AssertNotCalled(t, "Do")
}

func TestCalculator_Calculate_LocalAggregateOnly(t *testing.T) {
	f := setupCalculator()
	ctx := context.Background()
	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}

	f.configurators.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	f.integrations.On("ListByKind", ctx, uint64(1), integration.KindPricing).
		Return([]integration.ApiDescriptor{}, nil)
	f.settings.On("Bool", ctx, "values_can_contain_dashes", false).Return(false)
	f.resolver.On("ConfiguratorProperty", ctx, cfg, configurator.PropPriceQuery).
		Return("select sum(customer), sum(purchase) from prices where id = {42}")
	f.runner.On("Query", ctx, "select sum(customer), sum(purchase) from prices where id = @p1", mock.Anything).
		Return(&repository.ResultSet{
			Columns: []string{"customer", "purchase"},
			Rows:    [][]interface{}{{float64(120), float64(80)}},
		}, nil)

	result := f.calculator.Calculate(ctx, &types.Submission{
		Configurator: "kitchens",
		Items: map[string]types.SubmittedItem{
			"width": {ExternalID: "42", Value: "5"},
		},
	})

	assert.Equal(t, types.PriceResult{
		CustomerPrice: 120,
		PurchasePrice: 80,
		FromPrice:     120, // defaults to the customer price
	}, result)
}

func TestCalculator_Calculate_ExternalAndLocalSummed(t *testing.T) {
	f := setupCalculator()
	ctx := context.Background()
	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}

	f.configurators.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	f.integrations.On("ListByKind", ctx, uint64(1), integration.KindPricing).
		Return([]integration.ApiDescriptor{pricingDescriptor("supplier-a")}, nil)
	f.settings.On("Bool", ctx, "values_can_contain_dashes", false).Return(false)
	f.caller.On("Do", ctx, mock.AnythingOfType("*integration.ApiDescriptor"), mock.AnythingOfType("*apiclient.Request")).
		Return(&apiclient.Response{
			StatusCode: 200,
			Body:       []byte(`{"prices": {"purchase": 10, "customer": 20, "from": 15}}`),
		}, nil)
	f.resolver.On("ConfiguratorProperty", ctx, cfg, configurator.PropPriceQuery).Return("select 1")
	f.runner.On("Query", ctx, "select 1", mock.Anything).
		Return(&repository.ResultSet{
			Columns: []string{"customer"},
			Rows:    [][]interface{}{{float64(100)}},
		}, nil)

	result := f.calculator.Calculate(ctx, &types.Submission{
		Configurator: "kitchens",
		Items: map[string]types.SubmittedItem{
			"width": {ExternalID: "42", Value: "5"},
		},
	})

	assert.Equal(t, types.PriceResult{
		PurchasePrice: 10,
		CustomerPrice: 120,
		FromPrice:     115,
	}, result)

	call := f.caller.Calls[0].Arguments.Get(2).(*apiclient.Request)
	assert.Equal(t, `{"width": 5}`, string(call.Body))
}

func TestCalculator_Calculate_UnsuccessfulCallContributesNothing(t *testing.T) {
	f := setupCalculator()
	ctx := context.Background()
	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}

	f.configurators.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	f.integrations.On("ListByKind", ctx, uint64(1), integration.KindPricing).
		Return([]integration.ApiDescriptor{pricingDescriptor("supplier-a")}, nil)
	f.settings.On("Bool", ctx, "values_can_contain_dashes", false).Return(false)
	f.caller.On("Do", ctx, mock.Anything, mock.Anything).
		Return(&apiclient.Response{StatusCode: 500, Body: []byte("boom")}, nil)
	f.resolver.On("ConfiguratorProperty", ctx, cfg, configurator.PropPriceQuery).Return("select 1")
	f.runner.On("Query", ctx, "select 1", mock.Anything).
		Return(&repository.ResultSet{
			Columns: []string{"customer"},
			Rows:    [][]interface{}{{float64(100)}},
		}, nil)

	result := f.calculator.Calculate(ctx, &types.Submission{Configurator: "kitchens"})

	// Local aggregate still counts: only the failing supplier is dropped.
	assert.Equal(t, types.PriceResult{
		CustomerPrice: 100,
		FromPrice:     100,
	}, result)
}

func TestCalculator_Calculate_CallErrorZeroesResult(t *testing.T) {
	f := setupCalculator()
	ctx := context.Background()
	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}

	f.configurators.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	f.integrations.On("ListByKind", ctx, uint64(1), integration.KindPricing).
		Return([]integration.ApiDescriptor{pricingDescriptor("supplier-a")}, nil)
	f.settings.On("Bool", ctx, "values_can_contain_dashes", false).Return(false)
	f.caller.On("Do", ctx, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	result := f.calculator.Calculate(ctx, &types.Submission{Configurator: "kitchens"})

	assert.Equal(t, types.PriceResult{}, result)
	f.runner.AssertNotCalled(t, "Query")
}

func TestCalculator_Calculate_CallErrorDiscardsPartialSum(t *testing.T) {
	f := setupCalculator()
	ctx := context.Background()
	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}

	f.configurators.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	f.integrations.On("ListByKind", ctx, uint64(1), integration.KindPricing).
		Return([]integration.ApiDescriptor{
			pricingDescriptor("supplier-a"),
			pricingDescriptor("supplier-b"),
		}, nil)
	f.settings.On("Bool", ctx, "values_can_contain_dashes", false).Return(false)
	f.caller.On("Do", ctx, mock.Anything, mock.Anything).
		Return(&apiclient.Response{
			StatusCode: 200,
			Body:       []byte(`{"prices": {"purchase": 10, "customer": 20, "from": 15}}`),
		}, nil).Once()
	f.caller.On("Do", ctx, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset")).Once()

	result := f.calculator.Calculate(ctx, &types.Submission{Configurator: "kitchens"})

	// The first supplier's contribution was already accumulated, but a
	// transport error anywhere zeroes the whole computation.
	assert.Equal(t, types.PriceResult{}, result)
	f.caller.AssertNumberOfCalls(t, "Do", 2)
	f.runner.AssertNotCalled(t, "Query")
}

func TestCalculator_Calculate_NonJSONBodyStillSent(t *testing.T) {
	f := setupCalculator()
	ctx := context.Background()
	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}

	descriptor := pricingDescriptor("supplier-a")
	descriptor.BodyTemplate = "width={42}"

	f.configurators.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	f.integrations.On("ListByKind", ctx, uint64(1), integration.KindPricing).
		Return([]integration.ApiDescriptor{descriptor}, nil)
	f.settings.On("Bool", ctx, "values_can_contain_dashes", false).Return(false)
	f.caller.On("Do", ctx, mock.Anything, mock.Anything).
		Return(&apiclient.Response{
			StatusCode: 200,
			Body:       []byte(`{"prices": {"purchase": 10, "customer": 20, "from": 15}}`),
		}, nil)
	f.resolver.On("ConfiguratorProperty", ctx, cfg, configurator.PropPriceQuery).Return("")

	result := f.calculator.Calculate(ctx, &types.Submission{
		Configurator: "kitchens",
		Items: map[string]types.SubmittedItem{
			"width": {ExternalID: "42", Value: "5"},
		},
	})

	assert.Equal(t, types.PriceResult{
		PurchasePrice: 10,
		CustomerPrice: 20,
		FromPrice:     15,
	}, result)

	call := f.caller.Calls[0].Arguments.Get(2).(*apiclient.Request)
	assert.Equal(t, "width=5", string(call.Body))
}

func TestCalculator_Calculate_IncompleteDescriptorSkipped(t *testing.T) {
	f := setupCalculator()
	ctx := context.Background()
	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}

	descriptor := pricingDescriptor("supplier-a")
	descriptor.Settings = domain.PropertiesJSON{"customer_price_path": "prices.customer"}

	f.configurators.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	f.integrations.On("ListByKind", ctx, uint64(1), integration.KindPricing).
		Return([]integration.ApiDescriptor{descriptor}, nil)
	f.settings.On("Bool", ctx, "values_can_contain_dashes", false).Return(false)
	f.resolver.On("ConfiguratorProperty", ctx, cfg, configurator.PropPriceQuery).Return("")

	result := f.calculator.Calculate(ctx, &types.Submission{Configurator: "kitchens"})

	assert.Equal(t, types.PriceResult{}, result)
	f.caller.AssertNotCalled(t, "Do")
}

func TestCalculator_Calculate_LookupQueryFeedsTemplate(t *testing.T) {
	f := setupCalculator()
	ctx := context.Background()
	cfg := &configurator.Configurator{ID: 1, Name: "kitchens"}

	descriptor := pricingDescriptor("supplier-a")
	descriptor.LookupQuery = "select sku from articles where id = {42}"
	descriptor.BodyTemplate = `{"sku": "{sku}"}`

	f.configurators.On("GetByName", ctx, "kitchens").Return(cfg, nil)
	f.integrations.On("ListByKind", ctx, uint64(1), integration.KindPricing).
		Return([]integration.ApiDescriptor{descriptor}, nil)
	f.settings.On("Bool", ctx, "values_can_contain_dashes", false).Return(false)
	f.runner.On("Query", ctx, "select sku from articles where id = @p1", mock.Anything).
		Return(&repository.ResultSet{
			Columns: []string{"sku"},
			Rows:    [][]interface{}{{"AB-100"}},
		}, nil)
	f.caller.On("Do", ctx, mock.Anything, mock.Anything).
		Return(&apiclient.Response{
			StatusCode: 200,
			Body:       []byte(`{"prices": {"purchase": 1, "customer": 2, "from": 2}}`),
		}, nil)
	f.resolver.On("ConfiguratorProperty", ctx, cfg, configurator.PropPriceQuery).Return("")

	result := f.calculator.Calculate(ctx, &types.Submission{
		Configurator: "kitchens",
		Items: map[string]types.SubmittedItem{
			"width": {ExternalID: "42", Value: "5"},
		},
	})

	assert.Equal(t, types.PriceResult{PurchasePrice: 1, CustomerPrice: 2, FromPrice: 2}, result)

	call := f.caller.Calls[0].Arguments.Get(2).(*apiclient.Request)
	assert.Equal(t, `{"sku": "AB-100"}`, string(call.Body))
}
