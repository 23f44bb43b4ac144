package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/variantlab/configcore/pkg/domain"
	"github.com/variantlab/configcore/pkg/domain/configuration"
	"gorm.io/gorm"
)

type configurationRepository struct {
	db *gorm.DB
}

func NewConfigurationRepository(db *gorm.DB) configuration.Repository {
	return &configurationRepository{
		db: db,
	}
}

func (r *configurationRepository) Save(ctx context.Context, entity *configuration.Configuration) error {
	return r.db.WithContext(ctx).Omit("Lines").Create(entity).Error
}

func (r *configurationRepository) Update(ctx context.Context, entity *configuration.Configuration) error {
	if entity.ID == 0 {
		return fmt.Errorf("cannot update configuration without id")
	}
	return r.db.WithContext(ctx).Omit("Lines").Save(entity).Error
}

func (r *configurationRepository) SaveLine(ctx context.Context, line *configuration.ConfigurationLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *configurationRepository) Get(ctx context.Context, id uint64) (*configuration.Configuration, error) {
	var entity configuration.Configuration
	err := r.db.WithContext(ctx).Preload("Lines").First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("configuration", fmt.Sprintf("%d", id))
		}
		return nil, err
	}
	return &entity, nil
}
