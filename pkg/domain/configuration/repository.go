package configuration

import (
	"context"
)

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=configuration_repository_mock.go --case=underscore --with-expecter
type Repository interface {
	Save(ctx context.Context, configuration *Configuration) error
	Update(ctx context.Context, configuration *Configuration) error
	SaveLine(ctx context.Context, line *ConfigurationLine) error
	Get(ctx context.Context, id uint64) (*Configuration, error)
}
