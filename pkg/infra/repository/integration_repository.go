package repository

import (
	"context"

	"github.com/variantlab/configcore/pkg/domain/integration"
	"gorm.io/gorm"
)

type integrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) integration.Repository {
	return &integrationRepository{
		db: db,
	}
}

func (r *integrationRepository) ListByKind(ctx context.Context, configuratorID uint64, kind string) ([]integration.ApiDescriptor, error) {
	var descriptors []integration.ApiDescriptor
	err := r.db.WithContext(ctx).
		Where("configurator_id = ? AND kind = ?", configuratorID, kind).
		Order("id ASC").
		Find(&descriptors).Error
	if err != nil {
		return nil, err
	}
	return descriptors, nil
}
