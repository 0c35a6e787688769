package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) DB() *gorm.DB {
	return r.db
}

// ========== 木质竖板 ==========

func (r *ProductRepository) ListWoodVertical(ctx context.Context) ([]entity.WoodVerticalProduct, error) {
	var items []entity.WoodVerticalProduct
	err := r.db.WithContext(ctx).
		Preload("PostMaterial").
		Preload("PicketMaterial").
		Preload("RailMaterial").
		Preload("CapMaterial").
		Preload("TrimMaterial").
		Where("status = ?", "active").
		Order("sku_code").
		Find(&items).Error
	return items, err
}

func (r *ProductRepository) FindWoodVerticalBySKU(ctx context.Context, skuCode string) (*entity.WoodVerticalProduct, error) {
	var p entity.WoodVerticalProduct
	err := r.db.WithContext(ctx).
		Preload("PostMaterial").
		Preload("PicketMaterial").
		Preload("RailMaterial").
		Preload("CapMaterial").
		Preload("TrimMaterial").
		First(&p, "sku_code = ?", skuCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) CreateWoodVertical(ctx context.Context, p *entity.WoodVerticalProduct) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// ========== 木质横板 ==========

func (r *ProductRepository) ListWoodHorizontal(ctx context.Context) ([]entity.WoodHorizontalProduct, error) {
	var items []entity.WoodHorizontalProduct
	err := r.db.WithContext(ctx).
		Preload("PostMaterial").
		Preload("BoardMaterial").
		Preload("NailerMaterial").
		Preload("CapMaterial").
		Where("status = ?", "active").
		Order("sku_code").
		Find(&items).Error
	return items, err
}

func (r *ProductRepository) FindWoodHorizontalBySKU(ctx context.Context, skuCode string) (*entity.WoodHorizontalProduct, error) {
	var p entity.WoodHorizontalProduct
	err := r.db.WithContext(ctx).
		Preload("PostMaterial").
		Preload("BoardMaterial").
		Preload("NailerMaterial").
		Preload("CapMaterial").
		First(&p, "sku_code = ?", skuCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) CreateWoodHorizontal(ctx context.Context, p *entity.WoodHorizontalProduct) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// ========== 铁艺 ==========

func (r *ProductRepository) ListIron(ctx context.Context) ([]entity.IronProduct, error) {
	var items []entity.IronProduct
	err := r.db.WithContext(ctx).
		Preload("PostMaterial").
		Preload("PanelMaterial").
		Preload("BracketMaterial").
		Preload("PostCapMaterial").
		Where("status = ?", "active").
		Order("sku_code").
		Find(&items).Error
	return items, err
}

func (r *ProductRepository) FindIronBySKU(ctx context.Context, skuCode string) (*entity.IronProduct, error) {
	var p entity.IronProduct
	err := r.db.WithContext(ctx).
		Preload("PostMaterial").
		Preload("PanelMaterial").
		Preload("BracketMaterial").
		Preload("PostCapMaterial").
		First(&p, "sku_code = ?", skuCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) CreateIron(ctx context.Context, p *entity.IronProduct) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// ========== 标准成本 ==========

// UpdateStandardMaterialCost 回写SKU的标准物料成本缓存字段
func (r *ProductRepository) UpdateStandardMaterialCost(ctx context.Context, table, skuCode string, materialCost, costPerFoot float64, at time.Time) error {
	return r.db.WithContext(ctx).Table(table).
		Where("sku_code = ?", skuCode).
		Updates(map[string]interface{}{
			"standard_material_cost":      materialCost,
			"standard_cost_per_foot":      costPerFoot,
			"standard_cost_calculated_at": at,
		}).Error
}

// UpsertLaborCost 写入SKU × 业务单元的标准人工成本行
func (r *ProductRepository) UpsertLaborCost(ctx context.Context, row *entity.ProductLaborCost) error {
	var existing entity.ProductLaborCost
	err := r.db.WithContext(ctx).
		First(&existing, "sku_code = ? AND business_unit_id = ?", row.SKUCode, row.BusinessUnitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(row).Error
	}
	if err != nil {
		return err
	}
	existing.FenceType = row.FenceType
	existing.StandardLaborCost = row.StandardLaborCost
	existing.CalculatedAt = row.CalculatedAt
	return r.db.WithContext(ctx).Save(&existing).Error
}

// ListLaborCosts 列出某SKU的各业务单元人工成本
func (r *ProductRepository) ListLaborCosts(ctx context.Context, skuCode string) ([]entity.ProductLaborCost, error) {
	var rows []entity.ProductLaborCost
	err := r.db.WithContext(ctx).
		Preload("BusinessUnit").
		Where("sku_code = ?", skuCode).
		Find(&rows).Error
	return rows, err
}
