package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"gorm.io/gorm"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// FindBySKU 按SKU查找物料
func (r *MaterialRepository) FindBySKU(ctx context.Context, sku string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).First(&m, "sku = ?", sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByID 按ID查找物料
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List 按大类列出在用物料
func (r *MaterialRepository) List(ctx context.Context, category string) ([]entity.Material, error) {
	var items []entity.Material
	query := r.db.WithContext(ctx).Where("status = ?", entity.MaterialStatusActive)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Order("sku").Find(&items).Error
	return items, err
}

// ListPosts 列出满足最小长度的立柱物料（高栏需要更长立柱）
func (r *MaterialRepository) ListPosts(ctx context.Context, minLengthFt float64) ([]entity.Material, error) {
	var items []entity.Material
	err := r.db.WithContext(ctx).
		Where("status = ? AND category = ? AND length_ft >= ?",
			entity.MaterialStatusActive, entity.MaterialCategoryPost, minLengthFt).
		Order("length_ft, sku").
		Find(&items).Error
	return items, err
}

// Create 新增物料
func (r *MaterialRepository) Create(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Update 更新物料
func (r *MaterialRepository) Update(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Save(m).Error
}
