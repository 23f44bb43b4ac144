package configuration

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
	"github.com/variantlab/configcore/pkg/app/substitution"
	"github.com/variantlab/configcore/pkg/domain"
	domainConfiguration "github.com/variantlab/configcore/pkg/domain/configuration"
	"github.com/variantlab/configcore/pkg/domain/configurator"
	"github.com/variantlab/configcore/pkg/domain/integration"
	"github.com/variantlab/configcore/pkg/infra/apiclient"
	"github.com/variantlab/configcore/pkg/infra/metrics"
	"github.com/variantlab/configcore/pkg/infra/repository"
	"github.com/variantlab/configcore/pkg/infra/settings"
	"github.com/variantlab/configcore/pkg/types"
)

const lookupExtraGroup = "lookup"

//go:generate mockery --name=Saver --dir=. --output=./mocks --filename=configuration_saver_mock.go --case=underscore --with-expecter
type Saver interface {
	Save(
		ctx context.Context,
		submission *types.Submission,
		price types.PriceResult,
		delivery types.DeliveryResult,
		parentID uint64,
	) (uint64, error)
}

type saver struct {
	logger        *logrus.Logger
	configurators configurator.Repository
	integrations  integration.Repository
	repo          domainConfiguration.Repository
	engine        *substitution.Engine
	runner        repository.QueryRunner
	caller        apiclient.Caller
	settings      settings.Store
}

func NewSaver(
	logger *logrus.Logger,
	configurators configurator.Repository,
	integrations integration.Repository,
	repo domainConfiguration.Repository,
	engine *substitution.Engine,
	runner repository.QueryRunner,
	caller apiclient.Caller,
	settingsStore settings.Store,
) Saver {
	return &saver{
		logger:        logger,
		configurators: configurators,
		integrations:  integrations,
		repo:          repo,
		engine:        engine,
		runner:        runner,
		caller:        caller,
		settings:      settingsStore,
	}
}

// Save persists the configuration and its lines, then drives the configured
// save integrations. Once the parent record is written its id is returned
// even when every external save call fails: failures end up in the audit
// trail, not in the return value. There is no rollback path from here on.
func (s *saver) Save(
	ctx context.Context,
	submission *types.Submission,
	price types.PriceResult,
	delivery types.DeliveryResult,
	parentID uint64,
) (uint64, error) {
	saveZeroPrice := s.settings.Bool(ctx, settings.KeySaveZeroPrice, false)
	if !saveZeroPrice && price.CustomerPrice <= 0 {
		return 0, nil
	}

	cfg, err := s.configurators.GetByName(ctx, submission.Configurator)
	if err != nil {
		if domain.IsNotFoundError(err) {
			return 0, nil
		}
		return 0, err
	}

	dashValues := s.settings.Bool(ctx, settings.KeyDashValues, false)

	parent, err := s.buildParent(ctx, cfg, submission, price, delivery, parentID, dashValues)
	if err != nil {
		return 0, err
	}
	if err := s.repo.Save(ctx, parent); err != nil {
		return 0, fmt.Errorf("failed to persist configuration: %w", err)
	}
	metrics.ConfigurationsSaved.Inc()

	if err := s.saveLines(ctx, cfg, parent, submission, dashValues); err != nil {
		return parent.ID, err
	}

	s.runSaveIntegrations(ctx, cfg, parent, submission, dashValues)
	return parent.ID, nil
}

func (s *saver) buildParent(
	ctx context.Context,
	cfg *configurator.Configurator,
	submission *types.Submission,
	price types.PriceResult,
	delivery types.DeliveryResult,
	parentID uint64,
	dashValues bool,
) (*domainConfiguration.Configuration, error) {
	quantity := submission.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	parent := &domainConfiguration.Configuration{
		ConfiguratorID:    cfg.ID,
		ParentID:          parentID,
		Quantity:          quantity,
		PurchasePrice:     price.PurchasePrice,
		CustomerPrice:     price.CustomerPrice,
		FromPrice:         price.FromPrice,
		DeliveryTime:      delivery.DeliveryTime,
		DeliveryTimeExtra: delivery.DeliveryTimeExtra,
		Image:             submission.Image,
	}

	// Parent enrichment sees the full query-string submission.
	query := cfg.Property(configurator.PropConfigurationQuery)
	if query == "" {
		return parent, nil
	}
	extra, err := s.runLookup(ctx, query, &types.Submission{QueryItems: submission.QueryItems}, dashValues)
	if err != nil {
		return nil, fmt.Errorf("configuration enrichment query failed: %w", err)
	}
	if extra != nil {
		parent.Extra = extra
	}
	return parent, nil
}

func (s *saver) saveLines(
	ctx context.Context,
	cfg *configurator.Configurator,
	parent *domainConfiguration.Configuration,
	submission *types.Submission,
	dashValues bool,
) error {
	lineQuery := cfg.Property(configurator.PropLineQuery)

	keys := make([]string, 0, len(submission.Items))
	for key := range submission.Items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		item := submission.Items[key]
		line := &domainConfiguration.ConfigurationLine{
			ConfigurationID: parent.ID,
			ItemID:          item.ID,
			Name:            item.Name,
			ValueName:       item.ValueName,
			Value:           item.Value,
			MainStep:        item.MainStep,
			Step:            item.Step,
			SubStep:         item.SubStep,
			Extra:           item.Extra,
		}

		if lineQuery != "" {
			// Line enrichment sees the item id and value only.
			extra, err := s.runLookup(ctx, lineQuery, &types.Submission{
				QueryItems: map[string]string{"id": item.ID, "value": item.Value},
			}, dashValues)
			if err != nil {
				return fmt.Errorf("line enrichment query failed: %w", err)
			}
			if extra != nil {
				if line.Extra == nil {
					line.Extra = map[string]map[string]string{}
				}
				line.Extra[lookupExtraGroup] = extra
			}
		}

		if err := s.repo.SaveLine(ctx, line); err != nil {
			return fmt.Errorf("failed to persist configuration line: %w", err)
		}
	}
	return nil
}

// runSaveIntegrations drives every configured save descriptor. A failing
// descriptor is recorded on the audit trail and skipped; it never prevents
// the remaining integrations from running.
func (s *saver) runSaveIntegrations(
	ctx context.Context,
	cfg *configurator.Configurator,
	parent *domainConfiguration.Configuration,
	submission *types.Submission,
	dashValues bool,
) {
	descriptors, err := s.integrations.ListByKind(ctx, cfg.ID, integration.KindSave)
	if err != nil {
		s.logger.WithError(err).Error("failed to load save descriptors")
		parent.AppendAudit(domainConfiguration.AuditGroupError, "descriptors", err.Error())
		s.persistAudit(ctx, parent)
		return
	}

	for i := range descriptors {
		descriptor := &descriptors[i]
		if err := s.runDescriptor(ctx, descriptor, parent, submission, dashValues); err != nil {
			s.logger.WithError(err).WithField("integration", descriptor.Name).
				Error("save integration failed")
			parent.AppendAudit(domainConfiguration.AuditGroupError, descriptor.Name, err.Error())
			s.persistAudit(ctx, parent)
		}
	}
}

func (s *saver) runDescriptor(
	ctx context.Context,
	descriptor *integration.ApiDescriptor,
	parent *domainConfiguration.Configuration,
	submission *types.Submission,
	dashValues bool,
) error {
	scoped := submission
	if descriptor.LookupQuery != "" {
		extra, err := s.runLookup(ctx, descriptor.LookupQuery, submission, dashValues)
		if err != nil {
			return err
		}
		scoped = submission.WithQueryItems(extra)
	}

	opts := substitution.Options{Mode: substitution.Literal, DashValues: dashValues}
	endpoint := s.engine.Substitute(descriptor.Endpoint, scoped, opts)
	body := s.engine.StripUnresolved(s.engine.Substitute(descriptor.BodyTemplate, scoped, opts))
	if endpoint == "" || strings.TrimSpace(body) == "" {
		return nil
	}

	parent.AppendAudit(domainConfiguration.AuditGroupRequest, descriptor.Name+".endpoint", endpoint)
	parent.AppendAudit(domainConfiguration.AuditGroupRequest, descriptor.Name+".body", body)

	resp, err := s.caller.Do(ctx, descriptor, &apiclient.Request{
		Method:    descriptor.Method,
		URL:       endpoint,
		Body:      []byte(body),
		AuthValue: s.engine.Substitute(descriptor.AuthValue, scoped, opts),
	})
	if err != nil {
		return err
	}

	parent.AppendAudit(domainConfiguration.AuditGroupResponse, descriptor.Name, string(resp.Body))
	if !resp.IsSuccess() {
		// Persist first so the audit trail survives the failure.
		s.persistAudit(ctx, parent)
		return fmt.Errorf("save integration %s returned status %d", descriptor.Name, resp.StatusCode)
	}

	if path := descriptor.SupplierIDPath(); path != "" {
		if supplierID := extractSupplierID(resp.Body, path); supplierID != "" {
			parent.AppendAudit(domainConfiguration.AuditGroupSupplier, descriptor.Name, supplierID)
		}
	}
	return s.repo.Update(ctx, parent)
}

func (s *saver) runLookup(
	ctx context.Context,
	query string,
	submission *types.Submission,
	dashValues bool,
) (map[string]string, error) {
	params := substitution.NewParams()
	substituted := s.engine.Substitute(query, submission, substitution.Options{
		Mode:       substitution.QueryParameter,
		Sink:       params,
		DashValues: dashValues,
	})
	result, err := s.runner.Query(ctx, substituted, params.Args())
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		return nil, nil
	}
	return result.MapAt(0), nil
}

func (s *saver) persistAudit(ctx context.Context, parent *domainConfiguration.Configuration) {
	if err := s.repo.Update(ctx, parent); err != nil {
		s.logger.WithError(err).Error("failed to persist configuration audit trail")
	}
}

func extractSupplierID(body []byte, dottedPath string) string {
	parsed, err := fastjson.ParseBytes(body)
	if err != nil {
		return ""
	}
	value := parsed.Get(strings.Split(dottedPath, ".")...)
	if value == nil {
		return ""
	}
	if value.Type() == fastjson.TypeString {
		return string(value.GetStringBytes())
	}
	return value.String()
}
