package configurator

import (
	"context"
)

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=configurator_repository_mock.go --case=underscore --with-expecter
type Repository interface {
	GetByName(ctx context.Context, name string) (*Configurator, error)
	Get(ctx context.Context, id uint64) (*Configurator, error)
	ListStepRows(ctx context.Context, configuratorID uint64) ([]StepRow, error)
	ListLinks(ctx context.Context, configuratorID uint64) ([]StepLink, error)
}
