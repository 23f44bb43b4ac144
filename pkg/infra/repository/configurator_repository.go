package repository

import (
	"context"
	"errors"

	"github.com/variantlab/configcore/pkg/domain"
	"github.com/variantlab/configcore/pkg/domain/configurator"
	"gorm.io/gorm"
)

type configuratorRepository struct {
	db *gorm.DB
}

func NewConfiguratorRepository(db *gorm.DB) configurator.Repository {
	return &configuratorRepository{
		db: db,
	}
}

func (r *configuratorRepository) GetByName(ctx context.Context, name string) (*configurator.Configurator, error) {
	var entity configurator.Configurator
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("configurator", name)
		}
		return nil, err
	}
	return &entity, nil
}

func (r *configuratorRepository) Get(ctx context.Context, id uint64) (*configurator.Configurator, error) {
	var entity configurator.Configurator
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("configurator", "")
		}
		return nil, err
	}
	return &entity, nil
}

func (r *configuratorRepository) ListStepRows(ctx context.Context, configuratorID uint64) ([]configurator.StepRow, error) {
	var rows []configurator.StepRow
	err := r.db.WithContext(ctx).
		Where("configurator_id = ?", configuratorID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *configuratorRepository) ListLinks(ctx context.Context, configuratorID uint64) ([]configurator.StepLink, error) {
	var links []configurator.StepLink
	err := r.db.WithContext(ctx).
		Where("configurator_id = ?", configuratorID).
		Order("ordering ASC, id ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}
