package configuration

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/variantlab/configcore/pkg/domain"
	domainConfiguration "github.com/variantlab/configcore/pkg/domain/configuration"
)

//go:generate mockery --name=Finder --dir=. --output=./mocks --filename=configuration_finder_mock.go --case=underscore --with-expecter
type Finder interface {
	Find(ctx context.Context, id uint64) (*domainConfiguration.Configuration, error)
}

type finder struct {
	logger *logrus.Logger
	repo   domainConfiguration.Repository
}

func NewFinder(logger *logrus.Logger, repo domainConfiguration.Repository) Finder {
	return &finder{
		logger: logger,
		repo:   repo,
	}
}

// Find loads a saved configuration with its lines and audit trail.
func (f *finder) Find(ctx context.Context, id uint64) (*domainConfiguration.Configuration, error) {
	entity, err := f.repo.Get(ctx, id)
	if err != nil {
		if !domain.IsNotFoundError(err) {
			f.logger.WithError(err).WithField("configuration_id", id).
				Error("failed to load configuration")
		}
		return nil, err
	}
	return entity, nil
}
