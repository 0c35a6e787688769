package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"gorm.io/gorm"
)

type YardRepository struct {
	db *gorm.DB
}

func NewYardRepository(db *gorm.DB) *YardRepository {
	return &YardRepository{db: db}
}

// ListYards 库场列表
func (r *YardRepository) ListYards(ctx context.Context) ([]entity.Yard, error) {
	var yards []entity.Yard
	err := r.db.WithContext(ctx).Order("code").Find(&yards).Error
	return yards, err
}

// CreateYard 新增库场
func (r *YardRepository) CreateYard(ctx context.Context, y *entity.Yard) error {
	return r.db.WithContext(ctx).Create(y).Error
}

// CreateSpot 新增货位
func (r *YardRepository) CreateSpot(ctx context.Context, spot *entity.YardSpot) error {
	return r.db.WithContext(ctx).Create(spot).Error
}

// ListSpots 某库场的货位
func (r *YardRepository) ListSpots(ctx context.Context, yardID string) ([]entity.YardSpot, error) {
	var spots []entity.YardSpot
	err := r.db.WithContext(ctx).Where("yard_id = ?", yardID).Order("code").Find(&spots).Error
	return spots, err
}

// FindFreeSpot 找库场中的第一个空闲货位（在调用方事务内使用）
func (r *YardRepository) FindFreeSpot(tx *gorm.DB, yardID string) (*entity.YardSpot, error) {
	var spot entity.YardSpot
	err := tx.Where("yard_id = ? AND occupied_by_project_id IS NULL", yardID).
		Order("code").
		First(&spot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

// ReleaseSpot 释放项目占用的货位（在调用方事务内使用）
func (r *YardRepository) ReleaseSpot(tx *gorm.DB, projectID string) error {
	return tx.Model(&entity.YardSpot{}).
		Where("occupied_by_project_id = ?", projectID).
		Update("occupied_by_project_id", nil).Error
}
