package integration

import (
	"context"
)

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=integration_repository_mock.go --case=underscore --with-expecter
type Repository interface {
	ListByKind(ctx context.Context, configuratorID uint64, kind string) ([]ApiDescriptor, error)
}
