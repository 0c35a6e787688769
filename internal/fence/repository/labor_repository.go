package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"gorm.io/gorm"
)

type LaborRepository struct {
	db *gorm.DB
}

func NewLaborRepository(db *gorm.DB) *LaborRepository {
	return &LaborRepository{db: db}
}

// ListCodes 列出在用工种
func (r *LaborRepository) ListCodes(ctx context.Context) ([]entity.LaborCode, error) {
	var codes []entity.LaborCode
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("sku").Find(&codes).Error
	return codes, err
}

// FindCodeBySKU 按编码查找工种
func (r *LaborRepository) FindCodeBySKU(ctx context.Context, sku string) (*entity.LaborCode, error) {
	var code entity.LaborCode
	err := r.db.WithContext(ctx).First(&code, "sku = ?", sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// CreateCode 新增工种
func (r *LaborRepository) CreateCode(ctx context.Context, code *entity.LaborCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// ListBusinessUnits 列出在用业务单元
func (r *LaborRepository) ListBusinessUnits(ctx context.Context) ([]entity.BusinessUnit, error) {
	var units []entity.BusinessUnit
	err := r.db.WithContext(ctx).Where("status = ?", "active").Order("code").Find(&units).Error
	return units, err
}

// CreateBusinessUnit 新增业务单元
func (r *LaborRepository) CreateBusinessUnit(ctx context.Context, unit *entity.BusinessUnit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

// UpsertRate 写入工种 × 业务单元费率
func (r *LaborRepository) UpsertRate(ctx context.Context, rate *entity.LaborRate) error {
	var existing entity.LaborRate
	err := r.db.WithContext(ctx).
		First(&existing, "labor_code_id = ? AND business_unit_id = ?", rate.LaborCodeID, rate.BusinessUnitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(rate).Error
	}
	if err != nil {
		return err
	}
	existing.Rate = rate.Rate
	return r.db.WithContext(ctx).Save(&existing).Error
}

// RateMap 按业务单元取"工种编码→费率"映射。缺行不出现在映射里，
// 调用方按0计价（未定价，不报错）。
func (r *LaborRepository) RateMap(ctx context.Context, businessUnitID string) (map[string]float64, error) {
	var rates []entity.LaborRate
	err := r.db.WithContext(ctx).
		Preload("LaborCode").
		Where("business_unit_id = ?", businessUnitID).
		Find(&rates).Error
	if err != nil {
		return nil, err
	}
	m := make(map[string]float64, len(rates))
	for _, rate := range rates {
		if rate.LaborCode != nil {
			m[rate.LaborCode.SKU] = rate.Rate
		}
	}
	return m, nil
}
